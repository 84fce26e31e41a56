// Package report aggregates billing export rows into the usage reports the
// dashboard panels render. Daily-derived totals are authoritative; when the
// SKU breakdown cannot account for every charged row the discrepancy is
// surfaced through the report warning instead of being reconciled silently.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsboard/billing-dashboard/internal/billing"
	"github.com/opsboard/billing-dashboard/internal/timeutil"
)

var (
	ErrNegativeCost  = errors.New("export row has negative cost")
	ErrMixedCurrency = errors.New("export row currency does not match report currency")
)

// Service produces billing.UsageData for a (service, period) selection.
type Service struct {
	store    Store
	loc      *time.Location
	currency string
	now      func() time.Time
}

func NewService(store Store, loc *time.Location, currency string) *Service {
	return &Service{
		store:    store,
		loc:      timeutil.EnsureLocation(loc),
		currency: currency,
		now:      time.Now,
	}
}

type skuAggregate struct {
	serviceName string
	usageUnit   *string
	usageAmount decimal.Decimal
	cost        decimal.Decimal
}

// BuildReport assembles a full usage report for the requested window. The
// daily series is densified: every calendar day in the range gets a point,
// days without export rows cost zero.
func (s *Service) BuildReport(ctx context.Context, service billing.ServiceKey, period billing.PeriodKey) (billing.UsageData, error) {
	dayRange, err := timeutil.NewDayRange(period.Days(), s.now().In(s.loc), s.loc)
	if err != nil {
		return billing.UsageData{}, err
	}

	rows, err := s.store.ListExportRows(ctx, service, dayRange.StartDate(), dayRange.EndDate())
	if err != nil {
		return billing.UsageData{}, fmt.Errorf("list export rows: %w", err)
	}

	dailyCost := make(map[string]decimal.Decimal, dayRange.Days())
	skus := make(map[string]*skuAggregate)
	skuTotal := decimal.Zero
	lastDayHasRows := false

	for i, row := range rows {
		if row.Cost.IsNegative() {
			return billing.UsageData{}, fmt.Errorf("%w: row %d (%s)", ErrNegativeCost, i, row.SKUName)
		}
		if row.Currency != "" && !strings.EqualFold(row.Currency, s.currency) {
			return billing.UsageData{}, fmt.Errorf("%w: row %d has %s, report uses %s", ErrMixedCurrency, i, row.Currency, s.currency)
		}
		// usage_date is a DATE; pgx scans it as midnight UTC. Format it in
		// place rather than converting the instant into the reporting zone,
		// which would shift the calendar day west of UTC.
		date := row.UsageDate.Format(billing.DateLayout)
		if !dayRange.ContainsDate(date) {
			continue
		}
		dailyCost[date] = dailyCost[date].Add(row.Cost)
		if date == dayRange.EndDate() {
			lastDayHasRows = true
		}

		if row.SKUName == "" {
			continue // untagged adjustment; counted in daily totals only
		}
		agg, ok := skus[row.SKUName]
		if !ok {
			agg = &skuAggregate{serviceName: row.ServiceName, usageUnit: row.UsageUnit}
			skus[row.SKUName] = agg
		}
		agg.usageAmount = agg.usageAmount.Add(row.UsageAmount)
		agg.cost = agg.cost.Add(row.Cost)
		skuTotal = skuTotal.Add(row.Cost)
	}

	daily := make([]billing.DailyCostPoint, 0, dayRange.Days())
	total := decimal.Zero
	dayRange.EachDay(func(day time.Time) {
		date := day.Format(billing.DateLayout)
		cost := dailyCost[date]
		total = total.Add(cost)
		daily = append(daily, billing.DailyCostPoint{Date: date, Cost: cost.InexactFloat64()})
	})

	average := decimal.Zero
	if days := dayRange.Days(); days > 0 {
		average = total.Div(decimal.NewFromInt(int64(days)))
	}

	breakdown := make([]billing.SKUBreakdownItem, 0, len(skus))
	unitTotals := make(map[string]decimal.Decimal)
	for name, agg := range skus {
		breakdown = append(breakdown, billing.SKUBreakdownItem{
			ServiceName: agg.serviceName,
			SKUName:     name,
			UsageUnit:   agg.usageUnit,
			UsageAmount: agg.usageAmount.InexactFloat64(),
			Cost:        agg.cost.InexactFloat64(),
		})
		if agg.usageUnit != nil {
			unitTotals[*agg.usageUnit] = unitTotals[*agg.usageUnit].Add(agg.usageAmount)
		}
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Cost != breakdown[j].Cost {
			return breakdown[i].Cost > breakdown[j].Cost
		}
		return breakdown[i].SKUName < breakdown[j].SKUName
	})

	usageTotals := make([]billing.UsageTotalByUnit, 0, len(unitTotals))
	for unit, amount := range unitTotals {
		usageTotals = append(usageTotals, billing.UsageTotalByUnit{Unit: unit, Amount: amount.InexactFloat64()})
	}
	sort.Slice(usageTotals, func(i, j int) bool { return usageTotals[i].Unit < usageTotals[j].Unit })

	report := billing.UsageData{
		Service:          service,
		Period:           period,
		Currency:         s.currency,
		StartDate:        dayRange.StartDate(),
		EndDate:          dayRange.EndDate(),
		TotalCost:        total.InexactFloat64(),
		AverageDailyCost: average.InexactFloat64(),
		Daily:            daily,
		SKUBreakdown:     breakdown,
		UsageTotals:      usageTotals,
		GeneratedAt:      s.now().UTC().Format(time.RFC3339),
	}

	var warnings []string
	if !total.Sub(skuTotal).IsZero() {
		warnings = append(warnings, fmt.Sprintf("sku breakdown accounts for %s of %s %s charged; untagged export rows are included in daily totals only", skuTotal.StringFixed(2), total.StringFixed(2), s.currency))
	}
	if len(rows) > 0 && !lastDayHasRows {
		warnings = append(warnings, fmt.Sprintf("billing export has no data for %s; the report may be incomplete", dayRange.EndDate()))
	}
	if len(warnings) > 0 {
		joined := strings.Join(warnings, "; ")
		report.Warning = &joined
	}

	if err := report.Validate(); err != nil {
		return billing.UsageData{}, fmt.Errorf("produced report violates contract: %w", err)
	}
	return report, nil
}
