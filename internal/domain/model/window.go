package model

import "time"

const day = 24 * time.Hour

// Window is a half-open time range [Start, End) in UTC.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TrailingWindow returns the window of days ending at the UTC day boundary
// of asOf.
func TrailingWindow(asOf time.Time, days int) Window {
	end := StartOfDay(asOf)
	return Window{Start: end.Add(-time.Duration(days) * day), End: end}
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Shift moves both bounds by d.
func (w Window) Shift(d time.Duration) Window {
	return Window{Start: w.Start.Add(d), End: w.End.Add(d)}
}

// Previous returns the adjacent window of equal length ending at w.Start.
func (w Window) Previous() Window {
	return w.Shift(-w.Duration())
}

// Duration returns the window length.
func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// Days returns the window length in whole days.
func (w Window) Days() int { return int(w.Duration() / day) }

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Span returns the smallest window covering both w and o.
func (w Window) Span(o Window) Window {
	out := w
	if o.Start.Before(out.Start) {
		out.Start = o.Start
	}
	if o.End.After(out.End) {
		out.End = o.End
	}
	return out
}
