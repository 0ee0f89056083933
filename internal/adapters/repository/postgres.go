package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/metrics"
)

// pool defines the minimal database pool interface used by PostgresStore.
type pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore reads client history from the ERP database.
type PostgresStore struct {
	pool pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the database at dsn.
func NewPostgresStore(ctx context.Context, dsn string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse dsn")
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: p}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

const revenueSQL = `
SELECT date_trunc('day', o.created_at) AS period,
       COALESCE(SUM(o.total), 0)::float8,
       COALESCE(SUM(o.total_margin), 0)::float8,
       COUNT(*)::int
FROM orders o
WHERE o.client_id = $1 AND NOT o.is_draft
  AND o.created_at >= $2 AND o.created_at < $3
GROUP BY 1
ORDER BY 1`

// RevenueHistory returns daily revenue for the window.
func (s *PostgresStore) RevenueHistory(ctx context.Context, clientID string, w model.Window) ([]model.RevenuePoint, error) {
	defer observe("revenue_history", time.Now())
	rows, err := s.pool.Query(ctx, revenueSQL, clientID, w.Start, w.End)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: revenue query")
	}
	defer rows.Close()

	var out []model.RevenuePoint
	for rows.Next() {
		var p model.RevenuePoint
		if err := rows.Scan(&p.Period, &p.Revenue, &p.GrossProfit, &p.Orders); err != nil {
			return nil, eris.Wrap(err, "postgres: scan revenue")
		}
		p.Period = p.Period.UTC()
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: revenue rows")
}

const paymentsSQL = `
SELECT i.invoice_date, i.paid_at, i.total_amount::float8
FROM invoices i
WHERE i.customer_id = $1 AND i.status NOT IN ('VOID', 'DRAFT')
  AND ((i.invoice_date >= $2 AND i.invoice_date < $3)
    OR (i.paid_at >= $2 AND i.paid_at < $3))
ORDER BY i.invoice_date`

// PaymentHistory returns invoices issued or settled in the window.
func (s *PostgresStore) PaymentHistory(ctx context.Context, clientID string, w model.Window) ([]model.Payment, error) {
	defer observe("payment_history", time.Now())
	rows, err := s.pool.Query(ctx, paymentsSQL, clientID, w.Start, w.End)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: payments query")
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		var (
			p    model.Payment
			paid *time.Time
		)
		if err := rows.Scan(&p.InvoiceDate, &paid, &p.Amount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan payment")
		}
		p.InvoiceDate = p.InvoiceDate.UTC()
		if paid != nil {
			p.PaidDate = paid.UTC()
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: payment rows")
}

const debtSQL = `
SELECT GREATEST(0, $2::date - i.invoice_date)::int AS age_days,
       i.amount_due::float8
FROM invoices i
WHERE i.customer_id = $1 AND i.amount_due > 0
  AND i.status NOT IN ('VOID', 'DRAFT', 'PAID')
  AND i.invoice_date < $2`

// DebtAging returns open receivables by age as of the day.
func (s *PostgresStore) DebtAging(ctx context.Context, clientID string, asOf time.Time) ([]model.DebtBucket, error) {
	defer observe("debt_aging", time.Now())
	rows, err := s.pool.Query(ctx, debtSQL, clientID, asOf)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: debt query")
	}
	defer rows.Close()

	var out []model.DebtBucket
	for rows.Next() {
		var b model.DebtBucket
		if err := rows.Scan(&b.AgeDays, &b.Amount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan debt")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: debt rows")
}

const tenureSQL = `
SELECT c.id, MIN(o.created_at)
FROM clients c
LEFT JOIN orders o ON o.client_id = c.id AND NOT o.is_draft
WHERE c.id = $1
GROUP BY c.id`

// Tenure returns the first order date. An unknown client is ErrNotFound.
func (s *PostgresStore) Tenure(ctx context.Context, clientID string) (time.Time, error) {
	defer observe("tenure", time.Now())
	var (
		id    string
		first *time.Time
	)
	err := s.pool.QueryRow(ctx, tenureSQL, clientID).Scan(&id, &first)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, eris.Wrapf(ErrNotFound, "postgres: client %s", clientID)
	}
	if err != nil {
		return time.Time{}, eris.Wrap(err, "postgres: tenure query")
	}
	if first == nil {
		return time.Time{}, nil
	}
	return first.UTC(), nil
}

const activeClientsSQL = `SELECT c.id FROM clients c WHERE c.is_active ORDER BY c.id`

// ActiveClientIDs lists active clients ordered by id.
func (s *PostgresStore) ActiveClientIDs(ctx context.Context) ([]string, error) {
	defer observe("active_clients", time.Now())
	rows, err := s.pool.Query(ctx, activeClientsSQL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: active clients query")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan client id")
		}
		out = append(out, id)
	}
	return out, eris.Wrap(rows.Err(), "postgres: client rows")
}

// populationQuery is one metric's population scan. Every query returns
// client id, nullable value, sample size and the active flag for every client.
type populationQuery struct {
	sql  string
	args func(asOf time.Time, windowDays int) []any
}

func windowArgs(asOf time.Time, windowDays int) []any {
	return []any{asOf, asOf.AddDate(0, 0, -windowDays)}
}

var populationQueries = map[types.MetricType]populationQuery{
	types.YTDSpend: {
		sql: `
SELECT c.id, COALESCE(SUM(o.total), 0)::float8, COUNT(o.id)::int, c.is_active
FROM clients c
LEFT JOIN orders o ON o.client_id = c.id AND NOT o.is_draft
  AND o.created_at >= date_trunc('year', $1::timestamptz) AND o.created_at < $1
GROUP BY c.id, c.is_active`,
		args: func(asOf time.Time, _ int) []any { return []any{asOf} },
	},
	types.PaymentSpeed: {
		sql: `
SELECT c.id, AVG(EXTRACT(EPOCH FROM (i.paid_at - i.invoice_date)) / 86400)::float8, COUNT(i.id)::int, c.is_active
FROM clients c
LEFT JOIN invoices i ON i.customer_id = c.id AND i.status NOT IN ('VOID', 'DRAFT')
  AND i.paid_at >= $2 AND i.paid_at < $1
GROUP BY c.id, c.is_active`,
		args: windowArgs,
	},
	types.OrderFrequency: {
		sql: `
SELECT c.id, COUNT(o.id)::float8, COUNT(o.id)::int, c.is_active
FROM clients c
LEFT JOIN orders o ON o.client_id = c.id AND NOT o.is_draft
  AND o.created_at >= $2 AND o.created_at < $1
GROUP BY c.id, c.is_active`,
		args: windowArgs,
	},
	types.CreditUtilization: {
		sql: `
SELECT c.id,
       CASE WHEN c.credit_limit > 0 THEN COALESCE(SUM(i.amount_due), 0) / c.credit_limit * 100 END::float8,
       CASE WHEN c.credit_limit > 0 THEN 1 ELSE 0 END,
       c.is_active
FROM clients c
LEFT JOIN invoices i ON i.customer_id = c.id AND i.amount_due > 0
  AND i.status NOT IN ('VOID', 'DRAFT', 'PAID') AND i.invoice_date < $1
GROUP BY c.id, c.is_active, c.credit_limit`,
		args: func(asOf time.Time, _ int) []any { return []any{asOf} },
	},
	types.OnTimePaymentRate: {
		sql: `
SELECT c.id,
       (AVG(CASE WHEN i.paid_at IS NOT NULL AND i.paid_at::date <= i.due_date THEN 1.0 ELSE 0.0 END) * 100)::float8,
       COUNT(i.id)::int, c.is_active
FROM clients c
LEFT JOIN invoices i ON i.customer_id = c.id AND i.status NOT IN ('VOID', 'DRAFT')
  AND i.due_date >= $2 AND i.due_date < $1
GROUP BY c.id, c.is_active`,
		args: windowArgs,
	},
	types.RevenueGrowth: {
		sql: `
SELECT c.id,
       CASE WHEN COALESCE(SUM(o.total) FILTER (WHERE o.created_at < $2), 0) > 0
            THEN (COALESCE(SUM(o.total) FILTER (WHERE o.created_at >= $2), 0)
                  / SUM(o.total) FILTER (WHERE o.created_at < $2) - 1) * 100 END::float8,
       (COUNT(o.id) FILTER (WHERE o.created_at < $2))::int, c.is_active
FROM clients c
LEFT JOIN orders o ON o.client_id = c.id AND NOT o.is_draft
  AND o.created_at >= $3 AND o.created_at < $1
GROUP BY c.id, c.is_active`,
		args: func(asOf time.Time, _ int) []any {
			return []any{asOf, asOf.AddDate(-1, 0, 0), asOf.AddDate(-2, 0, 0)}
		},
	},
}

// populationWindowDays is the trailing window of the windowed metrics.
const populationWindowDays = 90

// PopulationMetric scans the whole population in a single statement so every
// client is read from the same snapshot.
func (s *PostgresStore) PopulationMetric(ctx context.Context, metric types.MetricType, asOf time.Time) ([]model.MetricSample, error) {
	q, ok := populationQueries[metric]
	if !ok {
		return nil, eris.Wrapf(types.ErrInvalidMetricType, "postgres: population %s", metric)
	}
	defer observe("population_"+string(metric), time.Now())

	rows, err := s.pool.Query(ctx, q.sql, q.args(asOf, populationWindowDays)...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: population %s query", metric)
	}
	defer rows.Close()

	var out []model.MetricSample
	for rows.Next() {
		var (
			smp model.MetricSample
			v   *float64
		)
		if err := rows.Scan(&smp.ClientID, &v, &smp.SampleSize, &smp.Active); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan population %s", metric)
		}
		smp.Value = model.FromPtr(v)
		out = append(out, smp)
	}
	return out, eris.Wrapf(rows.Err(), "postgres: population %s rows", metric)
}

func observe(op string, start time.Time) {
	metrics.RecordStoreQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
