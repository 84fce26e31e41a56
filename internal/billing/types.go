// Package billing defines the usage-report contract shared by the report
// producer and the dashboard panels. The types carry no behavior beyond
// parsing the closed enumerations and validating producer output; a report
// is built once per render cycle and treated as immutable afterwards.
package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownService = errors.New("unknown billing service")
	ErrUnknownPeriod  = errors.New("unknown billing period")
)

// ServiceKey identifies which billed service a usage report covers.
type ServiceKey string

const (
	ServiceFirebase ServiceKey = "firebase"
	ServiceGemini   ServiceKey = "gemini"
)

// ParseServiceKey normalizes and validates a service identifier.
func ParseServiceKey(raw string) (ServiceKey, error) {
	switch ServiceKey(strings.ToLower(strings.TrimSpace(raw))) {
	case ServiceFirebase:
		return ServiceFirebase, nil
	case ServiceGemini:
		return ServiceGemini, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownService, raw)
	}
}

// ServiceKeys returns every valid service key in display order.
func ServiceKeys() []ServiceKey {
	return []ServiceKey{ServiceFirebase, ServiceGemini}
}

// PeriodKey is the reporting window length.
type PeriodKey string

const (
	Period7d  PeriodKey = "7d"
	Period30d PeriodKey = "30d"
	Period90d PeriodKey = "90d"
)

// ParsePeriodKey normalizes and validates a period identifier.
func ParsePeriodKey(raw string) (PeriodKey, error) {
	switch PeriodKey(strings.ToLower(strings.TrimSpace(raw))) {
	case Period7d:
		return Period7d, nil
	case Period30d:
		return Period30d, nil
	case Period90d:
		return Period90d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, raw)
	}
}

// Days returns the number of calendar days the period spans.
func (p PeriodKey) Days() int {
	switch p {
	case Period7d:
		return 7
	case Period30d:
		return 30
	case Period90d:
		return 90
	default:
		return 0
	}
}

// DateLayout is the calendar-date format used for report bounds and daily points.
const DateLayout = "2006-01-02"

// DailyCostPoint is one day's aggregated cost. Points in a report are
// ordered by date ascending with no duplicate dates.
type DailyCostPoint struct {
	Date string  `json:"date"`
	Cost float64 `json:"cost"`
}

// SKUBreakdownItem attributes cost and usage to one billing SKU. Multiple
// items may share ServiceName; SKUName is unique within a report.
type SKUBreakdownItem struct {
	ServiceName string  `json:"service_name"`
	SKUName     string  `json:"sku_name"`
	UsageUnit   *string `json:"usage_unit,omitempty"`
	UsageAmount float64 `json:"usage_amount"`
	Cost        float64 `json:"cost"`
}

// UsageTotalByUnit aggregates usage across all SKUs sharing a unit.
type UsageTotalByUnit struct {
	Unit   string  `json:"unit"`
	Amount float64 `json:"amount"`
}

// UsageData is the root report record delivered to a billing panel.
type UsageData struct {
	Service          ServiceKey         `json:"service"`
	Period           PeriodKey          `json:"period"`
	Currency         string             `json:"currency"`
	StartDate        string             `json:"start_date"`
	EndDate          string             `json:"end_date"`
	TotalCost        float64            `json:"total_cost"`
	AverageDailyCost float64            `json:"average_daily_cost"`
	Daily            []DailyCostPoint   `json:"daily"`
	SKUBreakdown     []SKUBreakdownItem `json:"sku_breakdown"`
	UsageTotals      []UsageTotalByUnit `json:"usage_totals"`
	GeneratedAt      string             `json:"generated_at"`
	Warning          *string            `json:"warning,omitempty"`
}

// DayCount returns the inclusive number of calendar days in [StartDate, EndDate].
func (d UsageData) DayCount() (int, error) {
	start, err := time.Parse(DateLayout, d.StartDate)
	if err != nil {
		return 0, fmt.Errorf("parse start_date: %w", err)
	}
	end, err := time.Parse(DateLayout, d.EndDate)
	if err != nil {
		return 0, fmt.Errorf("parse end_date: %w", err)
	}
	if end.Before(start) {
		return 0, fmt.Errorf("start_date %s after end_date %s", d.StartDate, d.EndDate)
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}
