package billing

import (
	"fmt"
	"math"
	"time"
)

// CostTolerance bounds the float drift accepted when comparing summed daily
// costs against report totals.
const CostTolerance = 1e-6

// Validate checks the producer-side invariants of the contract: closed
// enums, date-range shape, daily coverage and ordering, non-negative
// amounts, and total/average consistency. A failure is a producer defect.
func (d UsageData) Validate() error {
	if _, err := ParseServiceKey(string(d.Service)); err != nil {
		return err
	}
	if _, err := ParsePeriodKey(string(d.Period)); err != nil {
		return err
	}
	if d.Currency == "" {
		return fmt.Errorf("currency must be provided")
	}

	days, err := d.DayCount()
	if err != nil {
		return err
	}
	if days != d.Period.Days() {
		return fmt.Errorf("range spans %d days, period %s requires %d", days, d.Period, d.Period.Days())
	}
	if len(d.Daily) != days {
		return fmt.Errorf("daily series has %d points, range has %d days", len(d.Daily), days)
	}

	start, _ := time.Parse(DateLayout, d.StartDate)
	var dailySum float64
	for i, point := range d.Daily {
		want := start.AddDate(0, 0, i).Format(DateLayout)
		if point.Date != want {
			return fmt.Errorf("daily[%d]: date %s, expected %s", i, point.Date, want)
		}
		if point.Cost < 0 {
			return fmt.Errorf("daily[%d]: negative cost %f", i, point.Cost)
		}
		dailySum += point.Cost
	}
	if math.Abs(dailySum-d.TotalCost) > CostTolerance {
		return fmt.Errorf("total_cost %f does not match daily sum %f", d.TotalCost, dailySum)
	}
	if math.Abs(d.AverageDailyCost*float64(days)-d.TotalCost) > CostTolerance {
		return fmt.Errorf("average_daily_cost %f inconsistent with total_cost %f over %d days", d.AverageDailyCost, d.TotalCost, days)
	}

	seenSKU := make(map[string]struct{}, len(d.SKUBreakdown))
	units := make(map[string]struct{})
	for i, item := range d.SKUBreakdown {
		if item.SKUName == "" {
			return fmt.Errorf("sku_breakdown[%d]: sku_name must be provided", i)
		}
		if _, dup := seenSKU[item.SKUName]; dup {
			return fmt.Errorf("sku_breakdown[%d]: duplicate sku_name %q", i, item.SKUName)
		}
		seenSKU[item.SKUName] = struct{}{}
		if item.Cost < 0 {
			return fmt.Errorf("sku_breakdown[%d]: negative cost %f", i, item.Cost)
		}
		if item.UsageUnit != nil {
			units[*item.UsageUnit] = struct{}{}
		}
	}

	if len(d.UsageTotals) != len(units) {
		return fmt.Errorf("usage_totals has %d units, sku_breakdown has %d distinct units", len(d.UsageTotals), len(units))
	}
	for i, total := range d.UsageTotals {
		if _, ok := units[total.Unit]; !ok {
			return fmt.Errorf("usage_totals[%d]: unit %q absent from sku_breakdown", i, total.Unit)
		}
	}
	return nil
}
