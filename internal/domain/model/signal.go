package model

import "time"

// SignalName identifies one normalized dimension of client behavior.
type SignalName string

// Signal names.
const (
	RevenueMomentum        SignalName = "revenueMomentum"
	CashCollectionStrength SignalName = "cashCollectionStrength"
	ProfitabilityQuality   SignalName = "profitabilityQuality"
	DebtAgingRisk          SignalName = "debtAgingRisk"
	RepaymentVelocity      SignalName = "repaymentVelocity"
	TenureDepth            SignalName = "tenureDepth"
)

// AllSignals fixes the iteration order used for every rendered output.
var AllSignals = []SignalName{
	RevenueMomentum,
	CashCollectionStrength,
	ProfitabilityQuality,
	DebtAgingRisk,
	RepaymentVelocity,
	TenureDepth,
}

// Label is the plain-language name of a signal.
func (n SignalName) Label() string {
	switch n {
	case RevenueMomentum:
		return "revenue momentum"
	case CashCollectionStrength:
		return "cash collection strength"
	case ProfitabilityQuality:
		return "profitability quality"
	case DebtAgingRisk:
		return "debt aging"
	case RepaymentVelocity:
		return "repayment velocity"
	case TenureDepth:
		return "relationship tenure"
	}
	return string(n)
}

// ClientSignalSet holds one client's normalized signals for one window.
// Every known value lies in [0,100].
type ClientSignalSet struct {
	ClientID string               `json:"clientId"`
	Window   Window               `json:"window"`
	Signals  map[SignalName]Value `json:"signals"`
	Trends   map[SignalName]Value `json:"signalTrends"`
}

// NewClientSignalSet returns a set with every signal and trend unknown.
func NewClientSignalSet(clientID string, w Window) ClientSignalSet {
	s := ClientSignalSet{
		ClientID: clientID,
		Window:   w,
		Signals:  make(map[SignalName]Value, len(AllSignals)),
		Trends:   make(map[SignalName]Value, len(AllSignals)),
	}
	for _, name := range AllSignals {
		s.Signals[name] = None()
		s.Trends[name] = None()
	}
	return s
}

// Signal returns the named signal, unknown when absent.
func (s ClientSignalSet) Signal(name SignalName) Value {
	return s.Signals[name]
}

// Trend returns the named trend, unknown when absent.
func (s ClientSignalSet) Trend(name SignalName) Value {
	return s.Trends[name]
}

// Present counts known signals.
func (s ClientSignalSet) Present() int {
	n := 0
	for _, name := range AllSignals {
		if s.Signals[name].Valid() {
			n++
		}
	}
	return n
}

// ClientFacts is the raw evidence behind a signal set that the capacity
// calculator needs.
type ClientFacts struct {
	ClientID          string    `json:"clientId"`
	AsOf              time.Time `json:"asOf"`
	AvgMonthlyRevenue Value     `json:"avgMonthlyRevenue"`
	MonthsOfHistory   int       `json:"monthsOfHistory"`
	OrderCount        int       `json:"orderCount"`
	InvoiceCount      int       `json:"invoiceCount"`
	OpenReceivables   float64   `json:"openReceivables"`
}
