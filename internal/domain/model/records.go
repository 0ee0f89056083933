package model

import "time"

// RevenuePoint is one day of a client's sales activity.
type RevenuePoint struct {
	Period      time.Time
	Revenue     float64
	GrossProfit float64
	Orders      int
}

// Payment is one invoice with its settlement date. PaidDate is zero while
// the invoice is open.
type Payment struct {
	InvoiceDate time.Time
	PaidDate    time.Time
	Amount      float64
}

// Paid reports whether the invoice has been settled.
func (p Payment) Paid() bool { return !p.PaidDate.IsZero() }

// DaysToPay returns whole days between invoicing and settlement.
func (p Payment) DaysToPay() float64 {
	if !p.Paid() {
		return 0
	}
	d := p.PaidDate.Sub(p.InvoiceDate).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// DebtBucket is an open receivable amount of a given age.
type DebtBucket struct {
	AgeDays int
	Amount  float64
}

// MetricSample is one client's value of a population metric.
type MetricSample struct {
	ClientID   string `json:"clientId"`
	Value      Value  `json:"value"`
	SampleSize int    `json:"sampleSize"`
	Active     bool   `json:"active"`
}
