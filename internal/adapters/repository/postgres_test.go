package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore() (*PostgresStore, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	So(err, ShouldBeNil)
	Reset(mock.Close)

	return &PostgresStore{pool: mock}, mock
}

var (
	asOf   = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	window = model.Window{Start: asOf.AddDate(0, 0, -90), End: asOf}
)

func timePtr(t time.Time) *time.Time { return &t }
func floatPtr(f float64) *float64    { return &f }

func TestPostgresStore_RevenueHistory(t *testing.T) {
	Convey("Given a postgres store", t, func() {
		s, mock := newMockPostgresStore()

		Convey("When revenue rows are returned", func() {
			rows := pgxmock.NewRows([]string{"period", "revenue", "margin", "orders"}).
				AddRow(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), 1200.0, 300.0, 2).
				AddRow(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), 800.0, 240.0, 1)
			mock.ExpectQuery(`FROM orders o`).
				WithArgs("c-1", window.Start, window.End).
				WillReturnRows(rows)

			got, err := s.RevenueHistory(context.Background(), "c-1", window)

			Convey("Then each period is mapped", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].Revenue, ShouldEqual, 1200.0)
				So(got[0].GrossProfit, ShouldEqual, 300.0)
				So(got[0].Orders, ShouldEqual, 2)
				So(got[1].Orders, ShouldEqual, 1)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When the query fails", func() {
			mock.ExpectQuery(`FROM orders o`).
				WithArgs("c-1", window.Start, window.End).
				WillReturnError(errors.New("connection reset"))

			_, err := s.RevenueHistory(context.Background(), "c-1", window)

			Convey("Then the error names the query", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "revenue query")
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})
	})
}

func TestPostgresStore_PaymentHistory(t *testing.T) {
	Convey("Given a paid and an open invoice", t, func() {
		s, mock := newMockPostgresStore()

		issued := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		rows := pgxmock.NewRows([]string{"invoice_date", "paid_at", "total_amount"}).
			AddRow(issued, timePtr(issued.AddDate(0, 0, 12)), 500.0).
			AddRow(issued.AddDate(0, 0, 20), (*time.Time)(nil), 250.0)
		mock.ExpectQuery(`FROM invoices i`).
			WithArgs("c-1", window.Start, window.End).
			WillReturnRows(rows)

		got, err := s.PaymentHistory(context.Background(), "c-1", window)

		Convey("Then a null paid date reads as unpaid", func() {
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)
			So(got[0].Paid(), ShouldBeTrue)
			So(got[0].DaysToPay(), ShouldEqual, 12.0)
			So(got[1].Paid(), ShouldBeFalse)
			So(got[1].Amount, ShouldEqual, 250.0)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}

func TestPostgresStore_DebtAging(t *testing.T) {
	Convey("Given open receivables", t, func() {
		s, mock := newMockPostgresStore()

		rows := pgxmock.NewRows([]string{"age_days", "amount_due"}).
			AddRow(10, 400.0).
			AddRow(75, 600.0)
		mock.ExpectQuery(`age_days`).
			WithArgs("c-1", asOf).
			WillReturnRows(rows)

		got, err := s.DebtAging(context.Background(), "c-1", asOf)

		Convey("Then each row becomes a bucket", func() {
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []model.DebtBucket{{AgeDays: 10, Amount: 400}, {AgeDays: 75, Amount: 600}})
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}

func TestPostgresStore_Tenure(t *testing.T) {
	Convey("Given a postgres store", t, func() {
		s, mock := newMockPostgresStore()
		first := time.Date(2023, 1, 15, 9, 30, 0, 0, time.UTC)

		Convey("When the client has orders", func() {
			mock.ExpectQuery(`MIN\(o.created_at\)`).
				WithArgs("c-1").
				WillReturnRows(pgxmock.NewRows([]string{"id", "min"}).AddRow("c-1", timePtr(first)))

			got, err := s.Tenure(context.Background(), "c-1")

			Convey("Then tenure starts at the first order", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, first)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When the client has no orders yet", func() {
			mock.ExpectQuery(`MIN\(o.created_at\)`).
				WithArgs("c-2").
				WillReturnRows(pgxmock.NewRows([]string{"id", "min"}).AddRow("c-2", (*time.Time)(nil)))

			got, err := s.Tenure(context.Background(), "c-2")

			Convey("Then tenure is zero", func() {
				So(err, ShouldBeNil)
				So(got.IsZero(), ShouldBeTrue)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When the client does not exist", func() {
			mock.ExpectQuery(`MIN\(o.created_at\)`).
				WithArgs("missing").
				WillReturnError(pgx.ErrNoRows)

			_, err := s.Tenure(context.Background(), "missing")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})
	})
}

func TestPostgresStore_PopulationMetric(t *testing.T) {
	Convey("Given a postgres store", t, func() {
		s, mock := newMockPostgresStore()

		Convey("When payment speed is scanned", func() {
			rows := pgxmock.NewRows([]string{"id", "value", "sample_size", "is_active"}).
				AddRow("c-1", floatPtr(14.5), 6, true).
				AddRow("c-2", (*float64)(nil), 0, true).
				AddRow("c-3", floatPtr(40.0), 4, false)
			mock.ExpectQuery(`EXTRACT\(EPOCH`).
				WithArgs(asOf, asOf.AddDate(0, 0, -90)).
				WillReturnRows(rows)

			got, err := s.PopulationMetric(context.Background(), types.PaymentSpeed, asOf)

			Convey("Then null values stay unknown", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)
				So(got[0].Value.Or(0), ShouldEqual, 14.5)
				So(got[0].SampleSize, ShouldEqual, 6)
				So(got[1].Value.Valid(), ShouldBeFalse)
				So(got[2].Active, ShouldBeFalse)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When revenue growth is scanned", func() {
			mock.ExpectQuery(`FILTER`).
				WithArgs(asOf, asOf.AddDate(-1, 0, 0), asOf.AddDate(-2, 0, 0)).
				WillReturnRows(pgxmock.NewRows([]string{"id", "value", "sample_size", "is_active"}))

			got, err := s.PopulationMetric(context.Background(), types.RevenueGrowth, asOf)

			Convey("Then both yearly windows are bound", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When the metric is unknown", func() {
			_, err := s.PopulationMetric(context.Background(), types.MetricType("bogus"), asOf)

			Convey("Then no query is sent", func() {
				So(errors.Is(err, types.ErrInvalidMetricType), ShouldBeTrue)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})
	})
}

func TestPostgresStore_ActiveClientIDs(t *testing.T) {
	Convey("Given two active clients", t, func() {
		s, mock := newMockPostgresStore()
		mock.ExpectQuery(`WHERE c.is_active`).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

		got, err := s.ActiveClientIDs(context.Background())

		Convey("Then their ids are returned", func() {
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []string{"a", "b"})
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}
