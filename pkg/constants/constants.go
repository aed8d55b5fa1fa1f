// Package constants provides shared constants for the inflation-indices application.
package constants

// DateLayout is the date format written to and expected from the dataset file.
const DateLayout = "2006-01-02"

// MonthLayout is the month-only date format accepted by the loader.
const MonthLayout = "2006-01"

// DateColumn is the name of the key column in the dataset file.
const DateColumn = "DATE"

// Dataset file conventions
const (
	// CSVSeparator is the field separator of every CSV produced or consumed.
	CSVSeparator = ';'

	// DefaultDatasetFile is the file written by the extractor.
	DefaultDatasetFile = "dataset.csv"

	// DefaultDashboardDataFile is the file the dashboard reads when nothing is uploaded.
	DefaultDashboardDataFile = "dados.csv"
)

// Financial constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// DefaultStartYear is the year the extractor starts fetching from; the
	// published series begins in January of the following year.
	DefaultStartYear = 1993
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatNone disables stdout output
	OutputFormatNone = "none"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default extractor configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides of the extractor configuration.
	EnvPrefix = "INDICES"
)

// Upstream defaults
const (
	// DefaultIpeadataBaseURL is the Ipeadata OData v4 endpoint.
	DefaultIpeadataBaseURL = "http://www.ipeadata.gov.br/api/odata4/"

	// DefaultRequestTimeoutSeconds bounds a single Ipeadata request.
	DefaultRequestTimeoutSeconds = 30

	// DefaultRateLimitPerSec is the default request rate against Ipeadata.
	DefaultRateLimitPerSec = 2

	// DefaultUserAgent identifies the extractor upstream.
	DefaultUserAgent = "inflation-indices/0.1"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for dataset CSVs (10 MB)
	DefaultMaxUploadSizeBytes int64 = 10 * 1024 * 1024

	// DefaultCacheEntries is the number of parsed datasets kept in memory.
	DefaultCacheEntries = 16
)

// Export format constants
const (
	// ExportFormatCSV is the long-format CSV download
	ExportFormatCSV = "csv"

	// ExportFormatXLSX is the long-format spreadsheet download
	ExportFormatXLSX = "xlsx"
)
