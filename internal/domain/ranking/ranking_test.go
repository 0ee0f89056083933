package ranking_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/ranking"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func samples(values ...float64) []model.MetricSample {
	out := make([]model.MetricSample, len(values))
	for i, v := range values {
		out[i] = model.MetricSample{
			ClientID:   fmt.Sprintf("c-%d", i+1),
			Value:      model.Some(v),
			SampleSize: 10,
			Active:     true,
		}
	}
	return out
}

func ranksOf(r ranking.Ranking) []int {
	out := make([]int, 0, r.Len())
	for _, e := range r.Entries {
		out = append(out, e.Rank)
	}
	return out
}

func TestRank(t *testing.T) {
	ranker := ranking.New(policy.Default().Ranking)

	Convey("Given year-to-date spend of 500, 500, 300, 200, 100", t, func() {
		rk, err := ranker.Rank(types.YTDSpend, samples(500, 500, 300, 200, 100))
		So(err, ShouldBeNil)

		Convey("Then ties share a rank and the next rank is skipped", func() {
			So(ranksOf(rk), ShouldResemble, []int{1, 1, 3, 4, 5})
		})

		Convey("Then the client at 300 sits at the 40th percentile", func() {
			e, ok := rk.Lookup("c-3")
			So(ok, ShouldBeTrue)
			So(e.Rank, ShouldEqual, 3)
			So(rk.Percentile(e.Rank), ShouldEqual, 40)
		})

		Convey("Then ties are ordered by client id", func() {
			So(rk.Entries[0].ClientID, ShouldEqual, "c-1")
			So(rk.Entries[1].ClientID, ShouldEqual, "c-2")
		})
	})

	Convey("Given a lower-is-better metric", t, func() {
		rk, err := ranker.Rank(types.PaymentSpeed, samples(40, 12, 30, 12, 90))
		So(err, ShouldBeNil)

		Convey("Then the fastest payers rank first", func() {
			So(rk.Entries[0].Value, ShouldEqual, 12)
			So(ranksOf(rk), ShouldResemble, []int{1, 1, 3, 4, 5})
			e, _ := rk.Lookup("c-5")
			So(e.Rank, ShouldEqual, 5)
			So(rk.Percentile(e.Rank), ShouldEqual, 0)
		})
	})

	Convey("Given values that differ only by float noise", t, func() {
		rk := ranking.Build(types.YTDSpend, samples(0.1+0.2, 0.3, 0.2), 0)

		Convey("Then they tie", func() {
			So(ranksOf(rk), ShouldResemble, []int{1, 1, 3})
		})
	})

	Convey("Given ineligible clients", t, func() {
		in := samples(500, 400, 300, 200, 100, 50)
		in[1].Active = false
		in[2].SampleSize = 1
		in[3].Value = model.None()

		Convey("Then they are excluded and the population is too small", func() {
			rk, err := ranker.Rank(types.PaymentSpeed, in)
			So(errors.Is(err, ranking.ErrPopulationTooSmall), ShouldBeTrue)
			So(rk.Len(), ShouldEqual, 3)
			_, err = rk.Position("c-2")
			So(errors.Is(err, ranking.ErrClientNotRanked), ShouldBeTrue)
		})
	})

	Convey("Given a random population", t, func() {
		rng := rand.New(rand.NewSource(7))
		values := make([]float64, 200)
		for i := range values {
			values[i] = float64(rng.Intn(50))
		}
		rk, err := ranker.Rank(types.OrderFrequency, samples(values...))
		So(err, ShouldBeNil)

		Convey("Then every rank and percentile is within bounds", func() {
			for _, e := range rk.Entries {
				So(e.Rank, ShouldBeBetweenOrEqual, 1, rk.Len())
				So(e.Rank, ShouldBeLessThanOrEqualTo, e.Position)
				p := rk.Percentile(e.Rank)
				So(p, ShouldBeBetweenOrEqual, 0, 100)
				So(p, ShouldEqual, float64(rk.Len()-e.Rank)/float64(rk.Len())*100)
			}
		})

		Convey("Then the gap always points at the previous rank", func() {
			for _, e := range rk.Entries {
				g := ranking.Gap(rk, e.ClientID)
				if e.Rank == 1 {
					So(g, ShouldBeNil)
					continue
				}
				So(g, ShouldNotBeNil)
				So(g.NextRank, ShouldEqual, e.Rank-1)
			}
		})
	})
}

func TestGap(t *testing.T) {
	rk := ranking.Build(types.YTDSpend, samples(500, 500, 300, 200, 200, 100), 0)

	Convey("Given a client at rank 1", t, func() {
		Convey("Then there is no gap", func() {
			So(ranking.Gap(rk, "c-1"), ShouldBeNil)
			So(ranking.Gap(rk, "c-2"), ShouldBeNil)
		})
	})

	Convey("Given a client behind a tie", t, func() {
		g := ranking.Gap(rk, "c-3")

		Convey("Then the gap is measured to the tied group ahead", func() {
			So(g.Metric, ShouldEqual, types.YTDSpend)
			So(g.NextRank, ShouldEqual, 2)
			So(g.Gap.Or(-1), ShouldEqual, 200)
		})
	})

	Convey("Given tied clients below the top", t, func() {
		Convey("Then both report the distance to the value ahead", func() {
			So(ranking.Gap(rk, "c-4").Gap.Or(-1), ShouldEqual, 100)
			So(ranking.Gap(rk, "c-5").Gap.Or(-1), ShouldEqual, 100)
			So(ranking.Gap(rk, "c-4").NextRank, ShouldEqual, 3)
			So(ranking.Gap(rk, "c-5").NextRank, ShouldEqual, 3)
		})
	})

	Convey("Given a tie right behind the leader", t, func() {
		tied := ranking.Build(types.YTDSpend, samples(500, 300, 300), 0)

		Convey("Then neither tied client reads as level with first", func() {
			for _, id := range []string{"c-2", "c-3"} {
				g := ranking.Gap(tied, id)
				So(g.NextRank, ShouldEqual, 1)
				So(g.Gap.Or(-1), ShouldEqual, 200)
			}
		})
	})

	Convey("Given an unknown client", t, func() {
		So(ranking.Gap(rk, "nobody"), ShouldBeNil)
	})
}

func TestWindow(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(100 - i)
	}
	rk := ranking.Build(types.YTDSpend, samples(values...), 0)

	Convey("Given a client deep in the ranking", t, func() {
		w := rk.Window("c-15", 3, 2)

		Convey("Then the top run and the neighborhood are returned", func() {
			positions := make([]int, len(w))
			for i, e := range w {
				positions[i] = e.Position
			}
			So(positions, ShouldResemble, []int{1, 2, 3, 13, 14, 15, 16, 17})
		})

		Convey("Then the requester is flagged and medals mark the podium", func() {
			So(w[5].IsCurrentClient, ShouldBeTrue)
			So(w[0].Medal, ShouldEqual, ranking.MedalGold)
			So(w[1].Medal, ShouldEqual, ranking.MedalSilver)
			So(w[2].Medal, ShouldEqual, ranking.MedalBronze)
			So(w[3].Medal, ShouldEqual, "")
		})
	})

	Convey("Given a client near the top", t, func() {
		w := rk.Window("c-2", 3, 2)

		Convey("Then the runs merge without duplicates", func() {
			So(len(w), ShouldEqual, 4)
			for i := 1; i < len(w); i++ {
				So(w[i].Position, ShouldEqual, w[i-1].Position+1)
			}
		})
	})

	Convey("Given a client that is not ranked", t, func() {
		So(len(rk.Window("nobody", 5, 2)), ShouldEqual, 5)
	})
}

func TestMovement(t *testing.T) {
	current := ranking.Build(types.YTDSpend, samples(500, 400, 300), 0)
	prior := ranking.Build(types.YTDSpend, []model.MetricSample{
		{ClientID: "c-3", Value: model.Some(900), SampleSize: 1, Active: true},
		{ClientID: "c-2", Value: model.Some(800), SampleSize: 1, Active: true},
		{ClientID: "c-1", Value: model.Some(100), SampleSize: 1, Active: true},
	}, 0)

	Convey("Given a client who climbed", t, func() {
		trend, amount, priorRank := ranking.Movement(current, prior, "c-1")
		So(trend, ShouldEqual, model.RankUp)
		So(amount, ShouldEqual, 2)
		So(priorRank, ShouldEqual, 3)
	})

	Convey("Given a client who fell", t, func() {
		trend, amount, _ := ranking.Movement(current, prior, "c-3")
		So(trend, ShouldEqual, model.RankDown)
		So(amount, ShouldEqual, -2)
	})

	Convey("Given a client with no prior rank", t, func() {
		trend, amount, priorRank := ranking.Movement(current, ranking.Ranking{}, "c-1")
		So(trend, ShouldEqual, model.RankStable)
		So(amount, ShouldEqual, 0)
		So(priorRank, ShouldEqual, 0)
	})
}

func TestPoint(t *testing.T) {
	rk := ranking.Build(types.YTDSpend, samples(500, 400, 300), 0)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given a ranked client", t, func() {
		p, ok := ranking.Point(rk, "c-2", day)
		So(ok, ShouldBeTrue)
		So(p.AsOf, ShouldEqual, day)
		So(p.Rank, ShouldEqual, 2)
		So(p.TotalClients, ShouldEqual, 3)
		So(p.Percentile, ShouldAlmostEqual, 100.0/3, 1e-9)
	})

	Convey("Given a client missing from the ranking", t, func() {
		_, ok := ranking.Point(rk, "c-9", day)
		So(ok, ShouldBeFalse)
	})
}

func TestCategory(t *testing.T) {
	ranker := ranking.New(policy.Default().Ranking)

	Convey("Given a category population", t, func() {
		cr := ranker.Category(types.Growth, samples(10, 5, -3, 0, 20), "c-1")

		Convey("Then the category is ranked like the primary metric", func() {
			So(cr.Available, ShouldBeTrue)
			So(cr.Metric, ShouldEqual, types.RevenueGrowth)
			So(cr.Rank, ShouldEqual, 2)
			So(cr.TotalClients, ShouldEqual, 5)
			So(cr.Percentile.Or(-1), ShouldEqual, 60.0)
		})

		Convey("Then the last client has a known zero percentile", func() {
			last := ranker.Category(types.Growth, samples(10, 5, -3, 0, 20), "c-3")
			So(last.Rank, ShouldEqual, 5)
			So(last.Percentile.Valid(), ShouldBeTrue)
			So(last.Percentile.Or(-1), ShouldEqual, 0.0)
		})
	})

	Convey("Given too few clients", t, func() {
		cr := ranker.Category(types.Financial, samples(10, 5), "c-1")
		So(cr.Available, ShouldBeFalse)
		So(cr.Rank, ShouldEqual, 0)
		So(cr.Percentile.Valid(), ShouldBeFalse)
	})
}

func TestApplyDisplay(t *testing.T) {
	newResult := func() model.LeaderboardResult {
		return model.LeaderboardResult{
			ClientRank: 2,
			Entries: []model.LeaderboardEntry{
				{Rank: 1, Position: 1, MetricValue: model.Some(500), Medal: ranking.MedalGold},
				{Rank: 2, Position: 2, MetricValue: model.Some(300), Medal: ranking.MedalSilver, IsCurrentClient: true},
			},
			GapToNextRank: &model.Gap{Metric: types.YTDSpend, Gap: model.Some(200), NextRank: 1},
		}
	}

	Convey("Given blackbox mode", t, func() {
		res := newResult()
		ranking.ApplyDisplay(&res, types.Blackbox)

		Convey("Then values are hidden but ranks and medals stay", func() {
			So(res.DisplayMode, ShouldEqual, types.Blackbox)
			for _, e := range res.Entries {
				So(e.MetricValue.Valid(), ShouldBeFalse)
			}
			So(res.Entries[0].Medal, ShouldEqual, ranking.MedalGold)
			So(res.GapToNextRank.Gap.Valid(), ShouldBeFalse)
			So(res.GapToNextRank.NextRank, ShouldEqual, 1)
		})
	})

	Convey("Given transparent mode", t, func() {
		res := newResult()
		ranking.ApplyDisplay(&res, types.Transparent)

		Convey("Then values are kept", func() {
			So(res.Entries[1].MetricValue.Or(0), ShouldEqual, 300)
			So(res.GapToNextRank.Gap.Or(0), ShouldEqual, 200)
		})
	})
}
