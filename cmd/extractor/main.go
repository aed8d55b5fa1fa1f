package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ipeadata-tools/inflation-indices/internal/config"
	"github.com/ipeadata-tools/inflation-indices/internal/etl"
	"github.com/ipeadata-tools/inflation-indices/internal/ipeadata"
	"github.com/ipeadata-tools/inflation-indices/internal/logging"
	"github.com/ipeadata-tools/inflation-indices/internal/store"
	"github.com/ipeadata-tools/inflation-indices/internal/store/sqlite"
	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
	"github.com/ipeadata-tools/inflation-indices/pkg/output"
	"github.com/ipeadata-tools/inflation-indices/pkg/validation"
	"go.uber.org/zap"
)

// openStore returns the observation cache configured by cachePath, or a store
// that keeps nothing.
func openStore(cachePath string) (store.Store, error) {
	if cachePath == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(cachePath)
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, none")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	offline := flag.Bool("offline", false, "build the dataset from the observation cache without calling Ipeadata")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *offline {
		conf.Extractor.Offline = true
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	source, err := ipeadata.New(ipeadata.Config{
		BaseURL:         conf.Extractor.BaseURL,
		Timeout:         conf.Extractor.Timeout,
		RateLimitPerSec: conf.Extractor.RateLimitPerSec,
		UserAgent:       conf.Extractor.UserAgent,
	})
	if err != nil {
		logger.Fatal("failed to create Ipeadata client",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	st, err := openStore(conf.Extractor.CachePath)
	if err != nil {
		logger.Fatal("failed to open observation cache",
			zap.String("op", "main"),
			zap.String("path", conf.Extractor.CachePath),
			zap.Error(err),
		)
	}
	defer func() {
		_ = st.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := etl.Run(ctx, logger, conf.Extractor, source, st)
	if err != nil {
		logger.Fatal("failed to extract series",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if err := table.Save(conf.Output.Path); err != nil {
		logger.Fatal("failed to write dataset",
			zap.String("op", "main"),
			zap.String("path", conf.Output.Path),
			zap.Error(err),
		)
	}
	logger.Info("dataset written",
		zap.String("op", "main"),
		zap.String("path", conf.Output.Path),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Columns)),
	)

	switch outputFormat {
	case constants.OutputFormatPretty:
		err = output.PrettyFormat(os.Stdout, table)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(os.Stdout, table)
	}
	if err != nil {
		logger.Error("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
