// Package scoring combines normalized signals into the Credit Health Score.
package scoring

import (
	"fmt"
	"math"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
)

// Default scoring configuration constants.
const (
	defaultMinSignals = 3
	maxScoreValue     = 100
	totalWeight       = 100
)

// Option applies a configuration option to the CompositeScorer.
type Option func(*CompositeScorer)

// WithWeights sets the per-signal weights.
func WithWeights(w policy.Weights) Option {
	return func(s *CompositeScorer) {
		if w.Sum() > 0 {
			s.weights = w
		}
	}
}

// WithMinSignals sets how many signals must be known to produce a score.
func WithMinSignals(n int) Option {
	return func(s *CompositeScorer) {
		if n > 0 {
			s.minSignals = n
		}
	}
}

// Contribution is one signal's share of the composite.
type Contribution struct {
	Signal model.SignalName
	Value  model.Value
	// Weight is the configured weight.
	Weight float64
	// EffectiveWeight is the weight after redistribution; zero when the
	// signal is unknown.
	EffectiveWeight float64
	// Points is EffectiveWeight * Value / 100.
	Points float64
}

// Result contains the computed score for a client.
type Result struct {
	ClientID      string
	Score         float64
	Present       int
	Contributions []Contribution
}

// Contribution returns the named signal's contribution.
func (r Result) Contribution(name model.SignalName) (Contribution, bool) {
	for _, c := range r.Contributions {
		if c.Signal == name {
			return c, true
		}
	}
	return Contribution{}, false
}

// Scorer computes a composite score from a signal set.
type Scorer interface {
	Score(set model.ClientSignalSet) (Result, error)
}

// CompositeScorer implements Scorer with fixed weights. The weight of an
// unknown signal is redistributed proportionally over the known ones.
type CompositeScorer struct {
	weights    policy.Weights
	minSignals int
}

// NewCompositeScorer creates a scorer with the default policy weights.
func NewCompositeScorer(opts ...Option) *CompositeScorer {
	s := &CompositeScorer{
		weights:    policy.Default().Weights,
		minSignals: defaultMinSignals,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the Credit Health Score. It returns ErrInsufficientData
// when fewer than the minimum number of signals are known.
func (s *CompositeScorer) Score(set model.ClientSignalSet) (Result, error) {
	res := Result{ClientID: set.ClientID}

	var present float64
	for _, name := range model.AllSignals {
		if set.Signal(name).Valid() {
			res.Present++
			present += s.weights.Of(name)
		}
	}
	if res.Present < s.minSignals || present <= 0 {
		return res, fmt.Errorf("%d of %d signals known: %w", res.Present, len(model.AllSignals), ErrInsufficientData)
	}

	res.Contributions = make([]Contribution, 0, len(model.AllSignals))
	for _, name := range model.AllSignals {
		c := Contribution{Signal: name, Value: set.Signal(name), Weight: s.weights.Of(name)}
		if v, ok := c.Value.Get(); ok {
			c.EffectiveWeight = c.Weight * totalWeight / present
			c.Points = c.EffectiveWeight * v / maxScoreValue
			res.Score += c.Points
		}
		res.Contributions = append(res.Contributions, c)
	}
	res.Score = math.Max(0, math.Min(maxScoreValue, res.Score))
	return res, nil
}
