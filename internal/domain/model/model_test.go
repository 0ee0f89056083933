package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestValue(t *testing.T) {
	convey.Convey("Given nullable values", t, func() {
		convey.Convey("When a known zero is compared with an unknown value", func() {
			zero := model.Some(0)
			unknown := model.None()

			convey.Convey("Then they are distinguishable", func() {
				convey.So(zero.Valid(), convey.ShouldBeTrue)
				convey.So(unknown.Valid(), convey.ShouldBeFalse)
				convey.So(zero, convey.ShouldNotResemble, unknown)
			})
		})

		convey.Convey("When values are encoded as JSON", func() {
			b, err := json.Marshal(map[string]model.Value{"a": model.Some(12.5), "b": model.None()})

			convey.Convey("Then unknown becomes null", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldEqual, `{"a":12.5,"b":null}`)
			})
		})

		convey.Convey("When JSON is decoded", func() {
			var got struct {
				A model.Value `json:"a"`
				B model.Value `json:"b"`
			}
			err := json.Unmarshal([]byte(`{"a":0,"b":null}`), &got)

			convey.Convey("Then a zero stays known", func() {
				convey.So(err, convey.ShouldBeNil)
				v, ok := got.A.Get()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, 0)
				convey.So(got.B.Valid(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When converting pointers", func() {
			f := 3.0
			convey.So(model.FromPtr(&f).Or(-1), convey.ShouldEqual, 3)
			convey.So(model.FromPtr(nil).Or(-1), convey.ShouldEqual, -1)
			convey.So(model.None().Ptr(), convey.ShouldBeNil)
			convey.So(*model.Some(2).Ptr(), convey.ShouldEqual, 2)
		})
	})
}

func TestWindow(t *testing.T) {
	convey.Convey("Given an evaluation time in the middle of a day", t, func() {
		asOf := time.Date(2025, 3, 31, 15, 42, 0, 0, time.UTC)
		w := model.TrailingWindow(asOf, 90)

		convey.Convey("Then the window ends at that day's midnight", func() {
			convey.So(w.End, convey.ShouldEqual, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
			convey.So(w.Days(), convey.ShouldEqual, 90)
		})

		convey.Convey("Then the previous window is adjacent", func() {
			prev := w.Previous()
			convey.So(prev.End, convey.ShouldEqual, w.Start)
			convey.So(prev.Days(), convey.ShouldEqual, 90)
		})

		convey.Convey("Then containment is half open", func() {
			convey.So(w.Contains(w.Start), convey.ShouldBeTrue)
			convey.So(w.Contains(w.End), convey.ShouldBeFalse)
		})

		convey.Convey("Then a span covers both windows", func() {
			span := w.Span(w.Previous())
			convey.So(span.Days(), convey.ShouldEqual, 180)
		})
	})
}

func TestClientSignalSet(t *testing.T) {
	convey.Convey("Given a fresh signal set", t, func() {
		set := model.NewClientSignalSet("c-1", model.Window{})

		convey.Convey("Then every signal is unknown", func() {
			convey.So(set.Present(), convey.ShouldEqual, 0)
			for _, name := range model.AllSignals {
				convey.So(set.Signal(name).Valid(), convey.ShouldBeFalse)
				convey.So(set.Trend(name).Valid(), convey.ShouldBeFalse)
			}
		})

		convey.Convey("When two signals are set", func() {
			set.Signals[model.TenureDepth] = model.Some(0)
			set.Signals[model.DebtAgingRisk] = model.Some(70)

			convey.Convey("Then both count as present", func() {
				convey.So(set.Present(), convey.ShouldEqual, 2)
			})
		})
	})
}

func TestPayment(t *testing.T) {
	convey.Convey("Given invoices", t, func() {
		inv := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		convey.Convey("Then an open invoice has no days to pay", func() {
			p := model.Payment{InvoiceDate: inv, Amount: 100}
			convey.So(p.Paid(), convey.ShouldBeFalse)
			convey.So(p.DaysToPay(), convey.ShouldEqual, 0)
		})

		convey.Convey("Then a paid invoice reports elapsed days", func() {
			p := model.Payment{InvoiceDate: inv, PaidDate: inv.AddDate(0, 0, 21), Amount: 100}
			convey.So(p.Paid(), convey.ShouldBeTrue)
			convey.So(p.DaysToPay(), convey.ShouldEqual, 21)
		})
	})
}

func TestCategoryRankJSON(t *testing.T) {
	convey.Convey("Given category ranks", t, func() {
		convey.Convey("When the client is last of its category", func() {
			b, err := json.Marshal(model.CategoryRank{
				Category: "financial", Metric: "ytd_spend", Available: true,
				Rank: 5, TotalClients: 5, Percentile: model.Some(0),
			})

			convey.Convey("Then the zero percentile is kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldEqual,
					`{"category":"financial","metric":"ytd_spend","available":true,"rank":5,"totalClients":5,"percentile":0}`)
			})
		})

		convey.Convey("When the category could not be ranked", func() {
			b, err := json.Marshal(model.CategoryRank{Category: "growth", Metric: "revenue_growth"})

			convey.Convey("Then the percentile is null", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldEqual,
					`{"category":"growth","metric":"revenue_growth","available":false,"percentile":null}`)
			})
		})
	})
}
