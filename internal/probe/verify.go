package probe

import (
	"fmt"
	"math"
	"sort"
)

// tolerance absorbs the two decimal rounding applied to rendered values.
const tolerance = 0.01

// checkLeaderboard verifies one leaderboard response on its own.
func checkLeaderboard(lb leaderboard) []Violation {
	var out []Violation
	add := func(rule, format string, args ...any) {
		out = append(out, Violation{ClientID: lb.ClientID, Type: lb.Type, Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	if lb.TotalClients < 1 || lb.ClientRank < 1 || lb.ClientRank > lb.TotalClients {
		add(RuleRankBounds, "rank %d of %d", lb.ClientRank, lb.TotalClients)
		return out
	}

	want := float64(lb.TotalClients-lb.ClientRank) / float64(lb.TotalClients) * 100
	if math.Abs(want-lb.Percentile) > tolerance {
		add(RulePercentile, "percentile %.4f, want %.4f", lb.Percentile, want)
	}

	var self *entry
	for i := range lb.Entries {
		e := &lb.Entries[i]
		if e.Rank < 1 || e.Rank > lb.TotalClients || e.Position < e.Rank {
			add(RuleRankBounds, "entry %s rank %d position %d", e.ClientID, e.Rank, e.Position)
		}
		if i > 0 {
			prev := lb.Entries[i-1]
			if e.Position <= prev.Position || e.Rank < prev.Rank {
				add(RuleOrdering, "entry %s (rank %d, position %d) follows rank %d, position %d",
					e.ClientID, e.Rank, e.Position, prev.Rank, prev.Position)
			}
			if e.Rank == prev.Rank && !sameValue(e.MetricValue, prev.MetricValue) {
				add(RuleOrdering, "entries %s and %s share rank %d with different values", prev.ClientID, e.ClientID, e.Rank)
			}
		}
		if e.IsCurrentClient {
			self = e
		}
	}
	if self == nil {
		add(RuleOrdering, "client missing from its own entries")
		return out
	}
	if self.Rank != lb.ClientRank {
		add(RuleRankBounds, "entry rank %d, result rank %d", self.Rank, lb.ClientRank)
	}

	return append(out, checkGap(lb, *self)...)
}

// checkGap verifies the gap against the entry directly ahead of the client.
// A client sharing its rank reports a zero gap.
func checkGap(lb leaderboard, self entry) []Violation {
	v := func(format string, args ...any) []Violation {
		return []Violation{{ClientID: lb.ClientID, Type: lb.Type, Rule: RuleGap, Detail: fmt.Sprintf(format, args...)}}
	}
	g := lb.GapToNextRank
	if lb.ClientRank == 1 {
		if g != nil {
			return v("gap reported at rank 1")
		}
		return nil
	}
	if g == nil {
		return v("no gap below rank 1")
	}
	if g.NextRank != lb.ClientRank-1 {
		return v("next rank %d, want %d", g.NextRank, lb.ClientRank-1)
	}
	if g.Gap == nil || self.MetricValue == nil {
		return nil
	}
	if *g.Gap < 0 {
		return v("negative gap %.4f", *g.Gap)
	}
	ahead := entryAhead(lb.Entries, self)
	if ahead == nil || ahead.MetricValue == nil {
		return nil
	}
	if want := math.Abs(*ahead.MetricValue - *self.MetricValue); math.Abs(want-*g.Gap) > tolerance {
		return v("gap %.4f, value difference to %s is %.4f", *g.Gap, ahead.ClientID, want)
	}
	return nil
}

// entryAhead walks back from self over its tie group to the nearest entry
// with a better rank. It is nil when the window does not reach that far.
func entryAhead(entries []entry, self entry) *entry {
	byPos := make(map[int]*entry, len(entries))
	for i := range entries {
		byPos[entries[i].Position] = &entries[i]
	}
	for pos := self.Position - 1; pos > 0; pos-- {
		e, ok := byPos[pos]
		if !ok {
			return nil
		}
		if e.Rank < self.Rank {
			return e
		}
	}
	return nil
}

// checkPopulation verifies the leaderboards of one type against each other.
// Competition ranks are only checked when every ranked client was probed.
func checkPopulation(typ string, lbs []leaderboard) []Violation {
	if len(lbs) == 0 {
		return nil
	}
	var out []Violation
	total := lbs[0].TotalClients
	for _, lb := range lbs[1:] {
		if lb.TotalClients != total {
			out = append(out, Violation{ClientID: lb.ClientID, Type: typ, Rule: RuleTotal,
				Detail: fmt.Sprintf("total %d, first response saw %d", lb.TotalClients, total)})
		}
	}
	if len(out) > 0 || len(lbs) != total {
		return out
	}

	ranks := make([]int, len(lbs))
	for i, lb := range lbs {
		ranks[i] = lb.ClientRank
	}
	sort.Ints(ranks)
	for i, r := range ranks {
		switch {
		case i == 0 && r != 1:
			out = append(out, Violation{Type: typ, Rule: RuleCompetition, Detail: fmt.Sprintf("best rank is %d", r)})
		case i > 0 && r != ranks[i-1] && r != i+1:
			out = append(out, Violation{Type: typ, Rule: RuleCompetition,
				Detail: fmt.Sprintf("rank %d at position %d after rank %d", r, i+1, ranks[i-1])})
		}
	}
	return out
}

// checkCredit verifies the exposure arithmetic of one credit result.
func checkCredit(c credit) []Violation {
	add := func(format string, args ...any) []Violation {
		return []Violation{{ClientID: c.ClientID, Rule: RuleCreditBounds, Detail: fmt.Sprintf(format, args...)}}
	}
	if c.CreditLimit < 0 {
		return add("negative credit limit %.2f", c.CreditLimit)
	}
	if want := math.Max(0, c.CreditLimit-c.CurrentExposure); math.Abs(want-c.AvailableCredit) > tolerance {
		return add("available %.2f, want %.2f", c.AvailableCredit, want)
	}
	return nil
}

func sameValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return math.Abs(*a-*b) <= tolerance
}
