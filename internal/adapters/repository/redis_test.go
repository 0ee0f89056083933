package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Metric:  types.YTDSpend,
		AsOf:    asOf,
		TakenAt: asOf.Add(time.Hour),
		Samples: []model.MetricSample{
			{ClientID: "alpha", Value: model.Some(1500), SampleSize: 3, Active: true},
			{ClientID: "beta", Value: model.None(), Active: true},
		},
	}
}

func TestRedisSnapshots_SaveAndLoad(t *testing.T) {
	Convey("Given a redis snapshot store", t, func() {
		db, mock := redismock.NewClientMock()
		r := NewRedisSnapshots(db, "test", 10*time.Minute)
		snap := testSnapshot()
		payload, err := json.Marshal(snap)
		So(err, ShouldBeNil)

		Convey("When a snapshot is saved and loaded back", func() {
			mock.ExpectSet("test:population:ytd_spend:2025-06-30", payload, 10*time.Minute).SetVal("OK")
			So(r.Save(context.Background(), snap), ShouldBeNil)

			mock.ExpectGet("test:population:ytd_spend:2025-06-30").SetVal(string(payload))
			got, err := r.Load(context.Background(), types.YTDSpend, asOf)

			Convey("Then unknown values survive the round trip", func() {
				So(err, ShouldBeNil)
				So(got.Metric, ShouldEqual, snap.Metric)
				So(got.TakenAt.Equal(snap.TakenAt), ShouldBeTrue)
				So(got.Samples, ShouldHaveLength, 2)
				So(got.Samples[0].Value.Or(0), ShouldEqual, 1500.0)
				So(got.Samples[1].Value.Valid(), ShouldBeFalse)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})
	})
}

func TestRedisSnapshots_Load(t *testing.T) {
	Convey("Given a redis snapshot store with the default prefix", t, func() {
		db, mock := redismock.NewClientMock()
		r := NewRedisSnapshots(db, "", time.Minute)

		Convey("When the key is missing", func() {
			mock.ExpectGet("credit:population:payment_speed:2025-06-30").RedisNil()
			_, err := r.Load(context.Background(), types.PaymentSpeed, asOf)

			Convey("Then ErrNoSnapshot is returned", func() {
				So(errors.Is(err, ErrNoSnapshot), ShouldBeTrue)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When the stored payload is corrupt", func() {
			mock.ExpectGet("credit:population:payment_speed:2025-06-30").SetVal("{not json")
			_, err := r.Load(context.Background(), types.PaymentSpeed, asOf)

			Convey("Then a decode error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "decode snapshot")
			})
		})
	})
}
