// Package validation provides query validation utilities.
package validation

import (
	"fmt"
	"time"

	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
)

// ValidateDateRange checks that start does not come after end. Zero bounds
// are open and always valid.
func ValidateDateRange(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return fmt.Errorf("start date %s is after end date %s",
			datetime.Format(start), datetime.Format(end))
	}
	return nil
}

// ValidateSubset returns the requested values that are not in available.
func ValidateSubset(requested, available []string) []string {
	var unknown []string
	for _, r := range requested {
		if !contains(available, r) {
			unknown = append(unknown, r)
		}
	}
	return unknown
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
