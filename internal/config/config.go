// Package config defines the data structures related to configuration and
// includes functions for loading and validating the extractor config.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ipeadata-tools/inflation-indices/internal/indices"
	"github.com/ipeadata-tools/inflation-indices/pkg/columns"
	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for the extractor.
type Configuration struct {
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Logging   LoggingConfig   `yaml:"logging,omitempty" mapstructure:"logging"`
	Output    OutputConfig    `yaml:"output,omitempty" mapstructure:"output"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format" validate:"omitempty,oneof=pretty csv none"`
	Path   string `yaml:"path,omitempty" mapstructure:"path" validate:"required"`
}

// ExtractorConfig controls what is fetched and how.
type ExtractorConfig struct {
	StartYear       int              `mapstructure:"startYear" validate:"min=1900,max=2200"`
	BaseURL         string           `mapstructure:"baseUrl" validate:"required,url"`
	Timeout         time.Duration    `mapstructure:"timeout" validate:"gt=0"`
	RateLimitPerSec float64          `mapstructure:"rateLimitPerSec" validate:"gt=0"`
	Concurrency     int              `mapstructure:"concurrency" validate:"min=1,max=16"`
	UserAgent       string           `mapstructure:"userAgent"`
	CachePath       string           `mapstructure:"cachePath"`
	Offline         bool             `mapstructure:"offline"`
	Series          []indices.Series `mapstructure:"series" validate:"required,min=1,dive"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("extractor.startYear", constants.DefaultStartYear)
	v.SetDefault("extractor.baseUrl", constants.DefaultIpeadataBaseURL)
	v.SetDefault("extractor.timeout", fmt.Sprintf("%ds", constants.DefaultRequestTimeoutSeconds))
	v.SetDefault("extractor.rateLimitPerSec", constants.DefaultRateLimitPerSec)
	v.SetDefault("extractor.concurrency", 1)
	v.SetDefault("extractor.userAgent", constants.DefaultUserAgent)
	v.SetDefault("extractor.cachePath", "")
	v.SetDefault("extractor.offline", false)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.path", constants.DefaultDatasetFile)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yml")
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file yields the defaults.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %s", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if len(configuration.Extractor.Series) == 0 {
		configuration.Extractor.Series = indices.DefaultSeries()
	}
	for i := range configuration.Extractor.Series {
		s := &configuration.Extractor.Series[i]
		s.Code = strings.TrimSpace(s.Code)
		s.SourceID = strings.TrimSpace(s.SourceID)
		if s.Kind == "" {
			s.Kind = indices.KindVariation
		}
	}

	return &configuration, nil
}

// Validate checks the configuration for values the extractor cannot run with.
func (c *Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			msgs := make([]string, 0, len(fieldErrors))
			for _, fe := range fieldErrors {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Extractor.Series))
	for _, s := range c.Extractor.Series {
		if _, dup := seen[s.Code]; dup {
			return fmt.Errorf("invalid configuration: series code %q is repeated", s.Code)
		}
		seen[s.Code] = struct{}{}
	}

	if c.Extractor.Offline && c.Extractor.CachePath == "" {
		return errors.New("invalid configuration: offline mode requires extractor.cachePath")
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if year := time.Now().Year(); c.Extractor.StartYear >= year {
		warnings = append(warnings, fmt.Sprintf("startYear %d leaves no complete year to publish (current year %d)",
			c.Extractor.StartYear, year))
	}

	for _, s := range c.Extractor.Series {
		name, err := columns.Name(s.Code, columns.TipoFator)
		if err != nil {
			continue
		}
		if indice, _, ok := columns.Parse(name); !ok || indice != s.Code {
			warnings = append(warnings, fmt.Sprintf("series code %q does not survive the column naming convention; the dashboard will not list it", s.Code))
		}
	}

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}
