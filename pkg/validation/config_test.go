package validation

import (
	"reflect"
	"testing"
	"time"

	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
)

func TestValidateDateRange(t *testing.T) {
	jan := datetime.MonthStart(2024, time.January)
	feb := datetime.MonthStart(2024, time.February)

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		expectErr bool
	}{
		{name: "Ordered", start: jan, end: feb, expectErr: false},
		{name: "Same day", start: jan, end: jan, expectErr: false},
		{name: "Reversed", start: feb, end: jan, expectErr: true},
		{name: "Open start", end: jan, expectErr: false},
		{name: "Open end", start: feb, expectErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDateRange(tt.start, tt.end)
			if tt.expectErr && err == nil {
				t.Errorf("ValidateDateRange() expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateDateRange() unexpected error = %v", err)
			}
		})
	}
}

func TestValidateSubset(t *testing.T) {
	got := ValidateSubset([]string{"IPCA", "IGPM", "SELIC", "INPC"}, []string{"IPCA", "SELIC"})
	expected := []string{"IGPM", "INPC"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("ValidateSubset() = %v, expected %v", got, expected)
	}
	if got := ValidateSubset([]string{"IPCA"}, []string{"IPCA"}); got != nil {
		t.Errorf("ValidateSubset() = %v, expected nil", got)
	}
}
