package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

// Order is a confirmed sale.
type Order struct {
	At     time.Time `json:"at"`
	Total  float64   `json:"total"`
	Margin float64   `json:"margin"`
}

// Invoice is a receivable. PaidAt is zero while open.
type Invoice struct {
	IssuedAt  time.Time `json:"issuedAt"`
	DueAt     time.Time `json:"dueAt"`
	PaidAt    time.Time `json:"paidAt"`
	Amount    float64   `json:"amount"`
	AmountDue float64   `json:"amountDue"`
	Void      bool      `json:"void"`
}

func (i Invoice) open() bool {
	return !i.Void && i.PaidAt.IsZero() && i.AmountDue > 0
}

// ClientRecord is everything the memory store knows about one client.
type ClientRecord struct {
	ID          string    `json:"id"`
	Active      bool      `json:"active"`
	CreditLimit float64   `json:"creditLimit"`
	Orders      []Order   `json:"orders"`
	Invoices    []Invoice `json:"invoices"`
}

// MemoryStore is an in-process Store used for tests, demos and probes. It
// answers every query with the same semantics as PostgresStore.
type MemoryStore struct {
	mu      sync.RWMutex
	clients map[string]ClientRecord
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store holding the given clients.
func NewMemoryStore(clients ...ClientRecord) *MemoryStore {
	s := &MemoryStore{clients: make(map[string]ClientRecord, len(clients))}
	for _, c := range clients {
		s.Put(c)
	}
	return s
}

// LoadMemoryStore builds a store from a JSON array of client records.
func LoadMemoryStore(r io.Reader) (*MemoryStore, error) {
	var clients []ClientRecord
	if err := json.NewDecoder(r).Decode(&clients); err != nil {
		return nil, fmt.Errorf("decode client records: %w", err)
	}
	for i, c := range clients {
		if c.ID == "" {
			return nil, fmt.Errorf("client record %d has no id", i)
		}
	}
	return NewMemoryStore(clients...), nil
}

// Put adds or replaces a client.
func (s *MemoryStore) Put(c ClientRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

// Len returns the number of clients.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *MemoryStore) client(ctx context.Context, id string) (ClientRecord, error) {
	if err := ctx.Err(); err != nil {
		return ClientRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return ClientRecord{}, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// RevenueHistory returns daily revenue for the window.
func (s *MemoryStore) RevenueHistory(ctx context.Context, clientID string, w model.Window) ([]model.RevenuePoint, error) {
	c, err := s.client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	byDay := map[time.Time]*model.RevenuePoint{}
	for _, o := range c.Orders {
		if !w.Contains(o.At) {
			continue
		}
		d := model.StartOfDay(o.At)
		p, ok := byDay[d]
		if !ok {
			p = &model.RevenuePoint{Period: d}
			byDay[d] = p
		}
		p.Revenue += o.Total
		p.GrossProfit += o.Margin
		p.Orders++
	}
	out := make([]model.RevenuePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

// PaymentHistory returns invoices issued or settled in the window.
func (s *MemoryStore) PaymentHistory(ctx context.Context, clientID string, w model.Window) ([]model.Payment, error) {
	c, err := s.client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	var out []model.Payment
	for _, inv := range c.Invoices {
		if inv.Void {
			continue
		}
		if !w.Contains(inv.IssuedAt) && (inv.PaidAt.IsZero() || !w.Contains(inv.PaidAt)) {
			continue
		}
		out = append(out, model.Payment{InvoiceDate: inv.IssuedAt, PaidDate: inv.PaidAt, Amount: inv.Amount})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].InvoiceDate.Before(out[j].InvoiceDate) })
	return out, nil
}

// DebtAging returns open receivables by age as of the day.
func (s *MemoryStore) DebtAging(ctx context.Context, clientID string, asOf time.Time) ([]model.DebtBucket, error) {
	c, err := s.client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	var out []model.DebtBucket
	for _, inv := range c.Invoices {
		if !inv.open() || !inv.IssuedAt.Before(asOf) {
			continue
		}
		age := int(model.StartOfDay(asOf).Sub(model.StartOfDay(inv.IssuedAt)).Hours() / 24)
		out = append(out, model.DebtBucket{AgeDays: max(age, 0), Amount: inv.AmountDue})
	}
	return out, nil
}

// Tenure returns the first order date.
func (s *MemoryStore) Tenure(ctx context.Context, clientID string) (time.Time, error) {
	c, err := s.client(ctx, clientID)
	if err != nil {
		return time.Time{}, err
	}
	var first time.Time
	for _, o := range c.Orders {
		if first.IsZero() || o.At.Before(first) {
			first = o.At
		}
	}
	return first, nil
}

// ActiveClientIDs lists active clients ordered by id.
func (s *MemoryStore) ActiveClientIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.clients))
	for id, c := range s.clients {
		if c.Active {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// PopulationMetric computes the metric for every client under one read lock.
func (s *MemoryStore) PopulationMetric(ctx context.Context, metric types.MetricType, asOf time.Time) ([]model.MetricSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sample, ok := memoryMetrics[metric]
	if !ok {
		return nil, fmt.Errorf("memory population %s: %w", metric, types.ErrInvalidMetricType)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MetricSample, 0, len(s.clients))
	for _, c := range s.clients {
		smp := sample(c, asOf)
		smp.ClientID, smp.Active = c.ID, c.Active
		out = append(out, smp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

type memoryMetric func(c ClientRecord, asOf time.Time) model.MetricSample

var memoryMetrics = map[types.MetricType]memoryMetric{
	types.YTDSpend:          ytdSpend,
	types.PaymentSpeed:      paymentSpeed,
	types.OrderFrequency:    orderFrequency,
	types.CreditUtilization: creditUtilization,
	types.OnTimePaymentRate: onTimeRate,
	types.RevenueGrowth:     revenueGrowth,
}

func populationWindow(asOf time.Time) model.Window {
	return model.Window{Start: asOf.AddDate(0, 0, -populationWindowDays), End: asOf}
}

func ytdSpend(c ClientRecord, asOf time.Time) model.MetricSample {
	w := model.Window{Start: time.Date(asOf.Year(), 1, 1, 0, 0, 0, 0, time.UTC), End: asOf}
	var total float64
	var n int
	for _, o := range c.Orders {
		if w.Contains(o.At) {
			total += o.Total
			n++
		}
	}
	return model.MetricSample{Value: model.Some(total), SampleSize: n}
}

func paymentSpeed(c ClientRecord, asOf time.Time) model.MetricSample {
	w := populationWindow(asOf)
	var days float64
	var n int
	for _, inv := range c.Invoices {
		if inv.Void || inv.PaidAt.IsZero() || !w.Contains(inv.PaidAt) {
			continue
		}
		days += inv.PaidAt.Sub(inv.IssuedAt).Hours() / 24
		n++
	}
	if n == 0 {
		return model.MetricSample{}
	}
	return model.MetricSample{Value: model.Some(days / float64(n)), SampleSize: n}
}

func orderFrequency(c ClientRecord, asOf time.Time) model.MetricSample {
	w := populationWindow(asOf)
	var n int
	for _, o := range c.Orders {
		if w.Contains(o.At) {
			n++
		}
	}
	return model.MetricSample{Value: model.Some(float64(n)), SampleSize: n}
}

func creditUtilization(c ClientRecord, asOf time.Time) model.MetricSample {
	if c.CreditLimit <= 0 {
		return model.MetricSample{}
	}
	var due float64
	for _, inv := range c.Invoices {
		if inv.open() && inv.IssuedAt.Before(asOf) {
			due += inv.AmountDue
		}
	}
	return model.MetricSample{Value: model.Some(due / c.CreditLimit * 100), SampleSize: 1}
}

func onTimeRate(c ClientRecord, asOf time.Time) model.MetricSample {
	w := populationWindow(asOf)
	var onTime, n int
	for _, inv := range c.Invoices {
		if inv.Void || !w.Contains(inv.DueAt) {
			continue
		}
		n++
		if !inv.PaidAt.IsZero() && !model.StartOfDay(inv.PaidAt).After(model.StartOfDay(inv.DueAt)) {
			onTime++
		}
	}
	if n == 0 {
		return model.MetricSample{}
	}
	return model.MetricSample{Value: model.Some(float64(onTime) / float64(n) * 100), SampleSize: n}
}

func revenueGrowth(c ClientRecord, asOf time.Time) model.MetricSample {
	cur := model.Window{Start: asOf.AddDate(-1, 0, 0), End: asOf}
	prev := model.Window{Start: asOf.AddDate(-2, 0, 0), End: cur.Start}
	var curTotal, prevTotal float64
	var n int
	for _, o := range c.Orders {
		switch {
		case cur.Contains(o.At):
			curTotal += o.Total
		case prev.Contains(o.At):
			prevTotal += o.Total
			n++
		}
	}
	if prevTotal <= 0 {
		return model.MetricSample{SampleSize: n}
	}
	return model.MetricSample{Value: model.Some((curTotal/prevTotal - 1) * 100), SampleSize: n}
}
