// Package signals turns a client's transactional history into normalized
// [0,100] sub-scores and their trends against the prior window.
package signals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
)

// Source is the read side of the transactional store used by the extractor.
type Source interface {
	RevenueHistory(ctx context.Context, clientID string, w model.Window) ([]model.RevenuePoint, error)
	PaymentHistory(ctx context.Context, clientID string, w model.Window) ([]model.Payment, error)
	DebtAging(ctx context.Context, clientID string, asOf time.Time) ([]model.DebtBucket, error)
	// Tenure returns the first activity date; the zero time means the
	// client exists but has no activity yet.
	Tenure(ctx context.Context, clientID string) (time.Time, error)
}

// Extraction is the output of one extraction run.
type Extraction struct {
	Set   model.ClientSignalSet
	Prior map[model.SignalName]model.Value
	Facts model.ClientFacts
}

// Extractor computes signal sets. It holds no per-request state and is safe
// for concurrent use.
type Extractor struct {
	src    Source
	policy policy.Policy
}

// New creates an Extractor.
func New(src Source, p policy.Policy) *Extractor {
	return &Extractor{src: src, policy: p}
}

// windows groups the time ranges one extraction reads.
type windows struct {
	asOf       time.Time
	current    model.Window
	comparison model.Window
	older      model.Window
	lookback   model.Window
}

func (e *Extractor) windows(asOf time.Time) windows {
	day := model.StartOfDay(asOf)
	cur := model.TrailingWindow(day, e.policy.WindowDays)
	cmp := cur.Previous()
	return windows{
		asOf:       day,
		current:    cur,
		comparison: cmp,
		older:      cmp.Previous(),
		lookback:   model.Window{Start: day.AddDate(0, -e.policy.Capacity.LookbackMonths, 0), End: day},
	}
}

// history is everything read from the store for one client.
type history struct {
	revenue  []model.RevenuePoint
	payments []model.Payment
	debt     []model.DebtBucket
	first    time.Time
}

// Extract reads the client's history and computes the current signal set,
// the prior-window values and the capacity facts.
func (e *Extractor) Extract(ctx context.Context, clientID string, asOf time.Time) (Extraction, error) {
	w := e.windows(asOf)

	var h history
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		h.revenue, err = e.src.RevenueHistory(gctx, clientID, w.older.Span(w.lookback).Span(w.current))
		return wrap("revenue history", err)
	})
	g.Go(func() error {
		var err error
		h.payments, err = e.src.PaymentHistory(gctx, clientID, w.comparison.Span(w.current))
		return wrap("payment history", err)
	})
	g.Go(func() error {
		var err error
		h.debt, err = e.src.DebtAging(gctx, clientID, w.asOf)
		return wrap("debt aging", err)
	})
	g.Go(func() error {
		var err error
		h.first, err = e.src.Tenure(gctx, clientID)
		return wrap("tenure", err)
	})
	if err := g.Wait(); err != nil {
		return Extraction{}, err
	}

	return e.compute(clientID, w, h), nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w", what, err)
}

// compute is the pure part of Extract.
func (e *Extractor) compute(clientID string, w windows, h history) Extraction {
	set := model.NewClientSignalSet(clientID, w.current)
	b := e.policy.Benchmarks

	set.Signals[model.RevenueMomentum] = e.momentum(h.revenue, w.current, w.comparison)
	set.Signals[model.CashCollectionStrength] = e.collection(h.payments, w.current)
	set.Signals[model.ProfitabilityQuality] = e.profitability(h.revenue, w.current)
	set.Signals[model.DebtAgingRisk] = e.debtAging(h.debt, h.first)
	set.Signals[model.RepaymentVelocity] = e.repayment(h.payments, w.current)
	set.Signals[model.TenureDepth] = tenure(b.TenureMonths, h.first, w.asOf)

	prior := map[model.SignalName]model.Value{
		model.RevenueMomentum:        e.momentum(h.revenue, w.comparison, w.older),
		model.CashCollectionStrength: e.collection(h.payments, w.comparison),
		model.ProfitabilityQuality:   e.profitability(h.revenue, w.comparison),
		model.RepaymentVelocity:      e.repayment(h.payments, w.comparison),
	}
	set.Trends = Trends(set.Signals, prior)

	return Extraction{
		Set:   set,
		Prior: prior,
		Facts: e.facts(clientID, w, h),
	}
}

func (e *Extractor) momentum(points []model.RevenuePoint, cur, cmp model.Window) model.Value {
	now, _ := revenueIn(points, cur)
	before, _ := revenueIn(points, cmp)
	if before <= 0 {
		return model.None()
	}
	growth := (now - before) / before * 100
	return score(e.policy.Benchmarks.RevenueGrowth, growth)
}

func (e *Extractor) collection(payments []model.Payment, w model.Window) model.Value {
	var days float64
	n := 0
	for _, p := range payments {
		if p.Paid() && w.Contains(p.InvoiceDate) {
			days += p.DaysToPay()
			n++
		}
	}
	if n == 0 || n < e.policy.MinTransactions {
		return model.None()
	}
	return score(e.policy.Benchmarks.DaysToPay, days/float64(n))
}

func (e *Extractor) profitability(points []model.RevenuePoint, w model.Window) model.Value {
	_, orders := revenueIn(points, w)
	if orders == 0 || orders < e.policy.MinTransactions {
		return model.None()
	}
	margins := monthlyMargins(points, w)
	if len(margins) == 0 {
		return model.None()
	}
	mean, std := meanStd(margins)
	return score(e.policy.Benchmarks.Margin, mean-e.policy.StabilityPenalty*std)
}

func (e *Extractor) debtAging(buckets []model.DebtBucket, first time.Time) model.Value {
	var total, weighted float64
	for _, d := range buckets {
		if d.Amount <= 0 {
			continue
		}
		total += d.Amount
		weighted += float64(d.AgeDays) * d.Amount
	}
	if total == 0 {
		if first.IsZero() {
			return model.None()
		}
		return score(e.policy.Benchmarks.DebtAge, 0)
	}
	return score(e.policy.Benchmarks.DebtAge, weighted/total)
}

func (e *Extractor) repayment(payments []model.Payment, w model.Window) model.Value {
	var invoiced, repaid float64
	for _, p := range payments {
		if w.Contains(p.InvoiceDate) {
			invoiced += p.Amount
		}
		if p.Paid() && w.Contains(p.PaidDate) {
			repaid += p.Amount
		}
	}
	switch {
	case invoiced == 0 && repaid == 0:
		return model.None()
	case invoiced == 0:
		return clamp(e.policy.Benchmarks.RepaymentRatio.Max())
	}
	return score(e.policy.Benchmarks.RepaymentRatio, repaid/invoiced)
}

func tenure(c policy.Curve, first, asOf time.Time) model.Value {
	if first.IsZero() || first.After(asOf) {
		return model.None()
	}
	months := asOf.Sub(first).Hours() / 24 / daysPerMonth
	return score(c, months)
}

func (e *Extractor) facts(clientID string, w windows, h history) model.ClientFacts {
	f := model.ClientFacts{ClientID: clientID, AsOf: w.asOf}

	_, f.OrderCount = revenueIn(h.revenue, w.current)
	for _, p := range h.payments {
		if w.comparison.Span(w.current).Contains(p.InvoiceDate) {
			f.InvoiceCount++
		}
	}
	for _, d := range h.debt {
		if d.Amount > 0 {
			f.OpenReceivables += d.Amount
		}
	}

	if h.first.IsZero() {
		return f
	}
	start := w.lookback.Start
	months := e.policy.Capacity.LookbackMonths
	if h.first.After(start) {
		start = h.first
		months = monthsBetween(h.first, w.asOf)
	}
	f.MonthsOfHistory = months
	if months > 0 {
		rev, _ := revenueIn(h.revenue, model.Window{Start: start, End: w.asOf})
		f.AvgMonthlyRevenue = model.Some(rev / float64(months))
	}
	return f
}

const daysPerMonth = 30.4375

func score(c policy.Curve, raw float64) model.Value {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return model.None()
	}
	return clamp(c.At(raw))
}

func clamp(v float64) model.Value {
	return model.Some(math.Max(0, math.Min(100, v)))
}

func revenueIn(points []model.RevenuePoint, w model.Window) (float64, int) {
	var rev float64
	orders := 0
	for _, p := range points {
		if w.Contains(p.Period) {
			rev += p.Revenue
			orders += p.Orders
		}
	}
	return rev, orders
}

// monthlyMargins returns gross margin percent per calendar month with sales.
func monthlyMargins(points []model.RevenuePoint, w model.Window) []float64 {
	type agg struct{ rev, gp float64 }
	byMonth := map[time.Time]*agg{}
	var order []time.Time
	for _, p := range points {
		if !w.Contains(p.Period) {
			continue
		}
		m := time.Date(p.Period.Year(), p.Period.Month(), 1, 0, 0, 0, 0, time.UTC)
		a, ok := byMonth[m]
		if !ok {
			a = &agg{}
			byMonth[m] = a
			order = append(order, m)
		}
		a.rev += p.Revenue
		a.gp += p.GrossProfit
	}
	out := make([]float64, 0, len(order))
	for _, m := range order {
		if a := byMonth[m]; a.rev > 0 {
			out = append(out, a.gp/a.rev*100)
		}
	}
	return out
}

func meanStd(xs []float64) (float64, float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

// monthsBetween counts whole calendar months from a to b.
func monthsBetween(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	m := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		m--
	}
	if m < 0 {
		return 0
	}
	return m
}
