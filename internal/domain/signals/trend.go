package signals

import "github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"

// Trends returns current minus prior for every signal known in both maps.
// A missing side yields a missing trend, never zero.
func Trends(current, prior map[model.SignalName]model.Value) map[model.SignalName]model.Value {
	out := make(map[model.SignalName]model.Value, len(model.AllSignals))
	for _, name := range model.AllSignals {
		cur, ok1 := current[name].Get()
		pre, ok2 := prior[name].Get()
		if ok1 && ok2 {
			out[name] = model.Some(cur - pre)
			continue
		}
		out[name] = model.None()
	}
	return out
}

// Overall classifies the mean of the known trends against threshold.
func Overall(trends map[model.SignalName]model.Value, threshold float64) model.OverallTrend {
	var sum float64
	n := 0
	for _, name := range model.AllSignals {
		if v, ok := trends[name].Get(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return model.TrendStable
	}
	switch avg := sum / float64(n); {
	case avg > threshold:
		return model.TrendImproving
	case avg < -threshold:
		return model.TrendWorsening
	}
	return model.TrendStable
}
