package probe

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return &v }

// board is a consistent five client ytd_spend leaderboard seen by c-3.
func board() leaderboard {
	return leaderboard{
		ClientID:      "c-3",
		Type:          "ytd_spend",
		ClientRank:    3,
		TotalClients:  5,
		Percentile:    40,
		GapToNextRank: &gap{Gap: f(250), NextRank: 2},
		Entries: []entry{
			{Rank: 1, Position: 1, ClientID: "c-1", MetricValue: f(9000)},
			{Rank: 2, Position: 2, ClientID: "c-2", MetricValue: f(5250)},
			{Rank: 3, Position: 3, ClientID: "c-3", MetricValue: f(5000), IsCurrentClient: true},
			{Rank: 4, Position: 4, ClientID: "c-4", MetricValue: f(100)},
		},
	}
}

func rules(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Rule)
	}
	return out
}

func TestCheckLeaderboard(t *testing.T) {
	Convey("Given a consistent leaderboard", t, func() {
		lb := board()

		Convey("no violation is reported", func() {
			So(checkLeaderboard(lb), ShouldBeEmpty)
		})

		Convey("a wrong percentile is caught", func() {
			lb.Percentile = 60
			So(rules(checkLeaderboard(lb)), ShouldResemble, []string{RulePercentile})
		})

		Convey("a rank outside the population is caught", func() {
			lb.ClientRank = 6
			So(rules(checkLeaderboard(lb)), ShouldResemble, []string{RuleRankBounds})
		})

		Convey("out of order entries are caught", func() {
			lb.Entries[1], lb.Entries[0] = lb.Entries[0], lb.Entries[1]
			So(rules(checkLeaderboard(lb)), ShouldContain, RuleOrdering)
		})

		Convey("tied ranks with different values are caught", func() {
			lb.Entries[1].Rank = 1
			So(rules(checkLeaderboard(lb)), ShouldContain, RuleOrdering)
		})

		Convey("a gap that does not match the values is caught", func() {
			lb.GapToNextRank.Gap = f(300)
			So(rules(checkLeaderboard(lb)), ShouldResemble, []string{RuleGap})
		})

		Convey("a wrong next rank is caught", func() {
			lb.GapToNextRank.NextRank = 1
			So(rules(checkLeaderboard(lb)), ShouldResemble, []string{RuleGap})
		})

		Convey("a hidden gap amount is accepted", func() {
			lb.GapToNextRank.Gap = nil
			So(checkLeaderboard(lb), ShouldBeEmpty)
		})
	})

	Convey("Given the leader", t, func() {
		lb := board()
		lb.ClientID, lb.ClientRank, lb.Percentile = "c-1", 1, 80
		lb.Entries[0].IsCurrentClient, lb.Entries[2].IsCurrentClient = true, false

		Convey("a missing gap is expected", func() {
			lb.GapToNextRank = nil
			So(checkLeaderboard(lb), ShouldBeEmpty)
		})

		Convey("a reported gap is a violation", func() {
			So(rules(checkLeaderboard(lb)), ShouldResemble, []string{RuleGap})
		})
	})

	Convey("Given a client tied with the entry ahead", t, func() {
		lb := board()
		lb.Entries[2].Rank, lb.Entries[2].MetricValue = 2, f(5250)
		lb.ClientRank, lb.Percentile = 2, 60
		lb.GapToNextRank = &gap{Gap: f(3750), NextRank: 1}

		Convey("the gap to the better value is accepted", func() {
			So(checkLeaderboard(lb), ShouldBeEmpty)
		})

		Convey("a zero gap is a violation", func() {
			lb.GapToNextRank.Gap = f(0)
			So(rules(checkLeaderboard(lb)), ShouldResemble, []string{RuleGap})
		})

		Convey("the first client of the tie reports the same gap", func() {
			lb.ClientID, lb.Entries[1].IsCurrentClient, lb.Entries[2].IsCurrentClient = "c-2", true, false
			So(checkLeaderboard(lb), ShouldBeEmpty)
		})
	})
}

func TestCheckPopulation(t *testing.T) {
	Convey("Given every client of a population", t, func() {
		lbs := []leaderboard{
			{ClientID: "a", ClientRank: 1, TotalClients: 4},
			{ClientID: "b", ClientRank: 2, TotalClients: 4},
			{ClientID: "c", ClientRank: 2, TotalClients: 4},
			{ClientID: "d", ClientRank: 4, TotalClients: 4},
		}

		Convey("competition ranks pass", func() {
			So(checkPopulation("ytd_spend", lbs), ShouldBeEmpty)
		})

		Convey("dense ranks are caught", func() {
			lbs[3].ClientRank = 3
			So(rules(checkPopulation("ytd_spend", lbs)), ShouldResemble, []string{RuleCompetition})
		})

		Convey("disagreeing totals are caught", func() {
			lbs[2].TotalClients = 5
			So(rules(checkPopulation("ytd_spend", lbs)), ShouldResemble, []string{RuleTotal})
		})

		Convey("a partial population skips the rank sequence", func() {
			So(checkPopulation("ytd_spend", lbs[:2]), ShouldBeEmpty)
		})
	})
}

func TestCheckCredit(t *testing.T) {
	Convey("Given credit results", t, func() {
		Convey("available credit is the unused limit", func() {
			So(checkCredit(credit{ClientID: "a", CreditLimit: 1000, CurrentExposure: 400, AvailableCredit: 600}), ShouldBeEmpty)
			So(checkCredit(credit{ClientID: "a", CreditLimit: 1000, CurrentExposure: 1400, AvailableCredit: 0}), ShouldBeEmpty)
		})

		Convey("mismatched available credit is caught", func() {
			So(rules(checkCredit(credit{ClientID: "a", CreditLimit: 1000, CurrentExposure: 400, AvailableCredit: 1000})),
				ShouldResemble, []string{RuleCreditBounds})
		})

		Convey("a negative limit is caught", func() {
			So(rules(checkCredit(credit{ClientID: "a", CreditLimit: -1})), ShouldResemble, []string{RuleCreditBounds})
		})
	})
}
