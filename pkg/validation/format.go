// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatNone:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatNone, format)
}

// ValidateExportFormat checks the file format requested for a long-format export.
func ValidateExportFormat(format string) error {
	if format != constants.ExportFormatCSV && format != constants.ExportFormatXLSX {
		return fmt.Errorf("expected export format of %s or %s, got %s",
			constants.ExportFormatCSV, constants.ExportFormatXLSX, format)
	}
	return nil
}
