package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ipeadata-tools/inflation-indices/internal/indices"
	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
)

func TestLoadConfigurationDefaultsWhenMissing(t *testing.T) {
	conf, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Extractor.StartYear != constants.DefaultStartYear {
		t.Errorf("expected default start year %d, got %d", constants.DefaultStartYear, conf.Extractor.StartYear)
	}
	if conf.Extractor.BaseURL != constants.DefaultIpeadataBaseURL {
		t.Errorf("expected default base url, got %s", conf.Extractor.BaseURL)
	}
	if conf.Extractor.Timeout != constants.DefaultRequestTimeoutSeconds*time.Second {
		t.Errorf("expected default timeout, got %s", conf.Extractor.Timeout)
	}
	if len(conf.Extractor.Series) != len(indices.DefaultSeries()) {
		t.Errorf("expected default series, got %d", len(conf.Extractor.Series))
	}
	if conf.Output.Path != constants.DefaultDatasetFile {
		t.Errorf("expected default output path, got %s", conf.Output.Path)
	}
	if conf.Output.Format != constants.OutputFormatPretty {
		t.Errorf("expected default output format, got %s", conf.Output.Format)
	}
	if err := conf.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadConfigurationOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := []byte(`extractor:
  startYear: 2000
  baseUrl: http://localhost:9999/api/odata4/
  timeout: 5s
  rateLimitPerSec: 10
  concurrency: 3
  cachePath: /tmp/observations.db
  series:
    - code: IPCA
      sourceId: PRECOS12_IPCAG12
    - code: " IGP-DI "
      sourceId: IGP12_IGPDIG12
      kind: level
output:
  format: csv
  path: out/indices.csv
logging:
  level: debug
  format: console
`)
	if err := os.WriteFile(path, contents, 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Extractor.StartYear != 2000 {
		t.Errorf("expected start year 2000, got %d", conf.Extractor.StartYear)
	}
	if conf.Extractor.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %s", conf.Extractor.Timeout)
	}
	if conf.Extractor.Concurrency != 3 {
		t.Errorf("expected concurrency 3, got %d", conf.Extractor.Concurrency)
	}
	if conf.Extractor.CachePath != "/tmp/observations.db" {
		t.Errorf("unexpected cache path %s", conf.Extractor.CachePath)
	}
	if len(conf.Extractor.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(conf.Extractor.Series))
	}
	if conf.Extractor.Series[0].Kind != indices.KindVariation {
		t.Errorf("expected kind to default to variation, got %q", conf.Extractor.Series[0].Kind)
	}
	second := conf.Extractor.Series[1]
	if second.Code != "IGP-DI" || second.SourceID != "IGP12_IGPDIG12" || second.Kind != indices.KindLevel {
		t.Errorf("unexpected second series %+v", second)
	}
	if conf.Output.Format != "csv" || conf.Output.Path != "out/indices.csv" {
		t.Errorf("unexpected output config %+v", conf.Output)
	}
	if conf.Logging.Level != "debug" || conf.Logging.Format != "console" {
		t.Errorf("unexpected logging config %+v", conf.Logging)
	}
	if err := conf.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	t.Setenv("INDICES_EXTRACTOR_STARTYEAR", "2010")

	conf, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if conf.Extractor.StartYear != 2010 {
		t.Errorf("expected env override 2010, got %d", conf.Extractor.StartYear)
	}
}

func TestLoadConfigurationInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("extractor: [unclosed"), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	if _, err := LoadConfiguration(path); err == nil {
		t.Fatal("expected error for invalid YAML but got nil")
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	conf, err := LoadConfigurationFromReader(strings.NewReader("extractor:\n  startYear: 1999\n"))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if conf.Extractor.StartYear != 1999 {
		t.Errorf("expected 1999, got %d", conf.Extractor.StartYear)
	}
	if len(conf.Extractor.Series) == 0 {
		t.Error("expected default series")
	}
}

func validConfiguration(t *testing.T) *Configuration {
	t.Helper()
	conf, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return conf
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Configuration)
		wantErr bool
	}{
		{name: "Defaults", mutate: func(c *Configuration) {}, wantErr: false},
		{name: "Start year too small", mutate: func(c *Configuration) { c.Extractor.StartYear = 10 }, wantErr: true},
		{name: "Bad base url", mutate: func(c *Configuration) { c.Extractor.BaseURL = "not a url" }, wantErr: true},
		{name: "Zero concurrency", mutate: func(c *Configuration) { c.Extractor.Concurrency = 0 }, wantErr: true},
		{name: "Zero rate", mutate: func(c *Configuration) { c.Extractor.RateLimitPerSec = 0 }, wantErr: true},
		{name: "Unknown kind", mutate: func(c *Configuration) { c.Extractor.Series[0].Kind = "weekly" }, wantErr: true},
		{name: "Empty source id", mutate: func(c *Configuration) { c.Extractor.Series[0].SourceID = "" }, wantErr: true},
		{name: "Duplicate code", mutate: func(c *Configuration) { c.Extractor.Series[1].Code = c.Extractor.Series[0].Code }, wantErr: true},
		{name: "Offline without cache", mutate: func(c *Configuration) { c.Extractor.Offline = true }, wantErr: true},
		{name: "Offline with cache", mutate: func(c *Configuration) {
			c.Extractor.Offline = true
			c.Extractor.CachePath = "cache.db"
		}, wantErr: false},
		{name: "Bad output format", mutate: func(c *Configuration) { c.Output.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := validConfiguration(t)
			tt.mutate(conf)
			err := conf.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	conf := validConfiguration(t)
	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("expected no warnings for defaults, got %v", warnings)
	}

	conf.Extractor.StartYear = time.Now().Year() + 1
	conf.Extractor.Series = append(conf.Extractor.Series, indices.Series{
		Code:     "Corre" + "c\u0327" + "a\u0303" + "o",
		SourceID: "X",
	})

	warnings := conf.ValidateConfiguration()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(warnings), warnings)
	}
}
