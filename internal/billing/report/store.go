package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/opsboard/billing-dashboard/internal/billing"
)

// ExportRow is one line of the billing usage export as landed in Postgres.
// SKUName may be empty for untagged adjustment rows; those contribute to
// daily cost totals but not to the SKU breakdown.
type ExportRow struct {
	ServiceName string
	SKUName     string
	UsageUnit   *string
	UsageAmount decimal.Decimal
	Cost        decimal.Decimal
	Currency    string
	UsageDate   time.Time
}

// Store lists export rows for one billed service across an inclusive day
// range. Bounds are calendar dates (2006-01-02): usage_date is a DATE column
// and comparing it against zoned timestamps would shift the window edges.
type Store interface {
	ListExportRows(ctx context.Context, service billing.ServiceKey, startDate, endDate string) ([]ExportRow, error)
}

// PGStore reads the billing export table through a pgx pool.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const listExportRowsSQL = `
SELECT service_name, COALESCE(sku_name, ''), usage_unit, usage_amount, cost, currency, usage_date
FROM billing_export_rows
WHERE service = $1 AND usage_date >= $2::date AND usage_date <= $3::date
ORDER BY usage_date, sku_name`

func (s *PGStore) ListExportRows(ctx context.Context, service billing.ServiceKey, startDate, endDate string) ([]ExportRow, error) {
	rows, err := s.pool.Query(ctx, listExportRowsSQL, string(service), startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("query export rows: %w", err)
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.ServiceName, &row.SKUName, &row.UsageUnit, &row.UsageAmount, &row.Cost, &row.Currency, &row.UsageDate); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export rows: %w", err)
	}
	return out, nil
}
