package billing

import (
	"strings"
	"testing"
)

func TestParseServiceKey(t *testing.T) {
	tests := []struct {
		input   string
		want    ServiceKey
		wantErr bool
	}{
		{"firebase", ServiceFirebase, false},
		{" Firebase ", ServiceFirebase, false},
		{"GEMINI", ServiceGemini, false},
		{"bigtable", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseServiceKey(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseServiceKey(%q): expected error, got %q", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseServiceKey(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseServiceKey(%q): want %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestParsePeriodKeyAndDays(t *testing.T) {
	tests := []struct {
		input    string
		want     PeriodKey
		wantDays int
	}{
		{"7d", Period7d, 7},
		{"30D", Period30d, 30},
		{" 90d ", Period90d, 90},
	}
	for _, tt := range tests {
		got, err := ParsePeriodKey(tt.input)
		if err != nil {
			t.Fatalf("ParsePeriodKey(%q): unexpected error %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParsePeriodKey(%q): want %q, got %q", tt.input, tt.want, got)
		}
		if got.Days() != tt.wantDays {
			t.Errorf("%q.Days(): want %d, got %d", got, tt.wantDays, got.Days())
		}
	}

	if _, err := ParsePeriodKey("365d"); err == nil {
		t.Fatal("expected error for unsupported period")
	}
}

func validReport() UsageData {
	unit := "gibibyte"
	return UsageData{
		Service:          ServiceFirebase,
		Period:           Period7d,
		Currency:         "USD",
		StartDate:        "2025-06-01",
		EndDate:          "2025-06-07",
		TotalCost:        7.0,
		AverageDailyCost: 1.0,
		Daily: []DailyCostPoint{
			{Date: "2025-06-01", Cost: 1},
			{Date: "2025-06-02", Cost: 1},
			{Date: "2025-06-03", Cost: 1},
			{Date: "2025-06-04", Cost: 1},
			{Date: "2025-06-05", Cost: 1},
			{Date: "2025-06-06", Cost: 1},
			{Date: "2025-06-07", Cost: 1},
		},
		SKUBreakdown: []SKUBreakdownItem{
			{ServiceName: "Cloud Firestore", SKUName: "Firestore Storage", UsageUnit: &unit, UsageAmount: 12.5, Cost: 5},
			{ServiceName: "Cloud Firestore", SKUName: "Firestore Reads", UsageAmount: 90_000, Cost: 2},
		},
		UsageTotals: []UsageTotalByUnit{{Unit: unit, Amount: 12.5}},
		GeneratedAt: "2025-06-08T00:15:00Z",
	}
}

func TestValidateAcceptsWellFormedReport(t *testing.T) {
	if err := validReport().Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*UsageData)
		wantMsg string
	}{
		{
			name:    "unknown service",
			mutate:  func(d *UsageData) { d.Service = "spanner" },
			wantMsg: "unknown billing service",
		},
		{
			name:    "range shorter than period",
			mutate:  func(d *UsageData) { d.EndDate = "2025-06-06" },
			wantMsg: "period 7d requires 7",
		},
		{
			name: "duplicate date",
			mutate: func(d *UsageData) {
				d.Daily[2].Date = "2025-06-02"
			},
			wantMsg: "expected 2025-06-03",
		},
		{
			name: "total drifts from daily sum",
			mutate: func(d *UsageData) {
				d.TotalCost = 9.5
				d.AverageDailyCost = 9.5 / 7
			},
			wantMsg: "does not match daily sum",
		},
		{
			name:    "average inconsistent",
			mutate:  func(d *UsageData) { d.AverageDailyCost = 2 },
			wantMsg: "average_daily_cost",
		},
		{
			name: "negative sku cost",
			mutate: func(d *UsageData) {
				d.SKUBreakdown[0].Cost = -1
			},
			wantMsg: "negative cost",
		},
		{
			name: "duplicate sku name",
			mutate: func(d *UsageData) {
				d.SKUBreakdown[1].SKUName = d.SKUBreakdown[0].SKUName
			},
			wantMsg: "duplicate sku_name",
		},
		{
			name: "usage totals missing unit",
			mutate: func(d *UsageData) {
				d.UsageTotals = nil
			},
			wantMsg: "usage_totals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := validReport()
			tt.mutate(&report)
			err := report.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateToleratesFloatSummation(t *testing.T) {
	report := validReport()
	for i := range report.Daily {
		report.Daily[i].Cost = 0.1
	}
	var sum float64
	for _, p := range report.Daily {
		sum += p.Cost
	}
	report.TotalCost = 0.7 // accumulated 0.1s differ from 0.7 by float error only
	report.AverageDailyCost = 0.1
	if err := report.Validate(); err != nil {
		t.Fatalf("float drift within tolerance rejected: %v (sum=%v)", err, sum)
	}
}

func TestWarningIsAdvisoryOnly(t *testing.T) {
	report := validReport()
	warning := "billing export incomplete for 2025-06-07"
	report.Warning = &warning
	if err := report.Validate(); err != nil {
		t.Fatalf("report with warning must remain valid: %v", err)
	}
}
