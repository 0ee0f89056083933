package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/EvanTenenbaum/TERP-sub019/internal/config"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Server.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.Server.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverPostgres)
			convey.So(cfg.Store.Timeout, convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.Store.TripAfter, convey.ShouldEqual, uint32(3))
			convey.So(cfg.Cache.TTL, convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.Ranking.TopK, convey.ShouldEqual, 10)
			convey.So(cfg.Ranking.TrendLookbackDays, convey.ShouldEqual, 30)
			convey.So(cfg.Ranking.HistoryDays, convey.ShouldResemble, []int{90, 60, 30, 7})
			convey.So(cfg.Batch.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.Policy, convey.ShouldResemble, policy.Default())
		})

		convey.Convey("Then it should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with a broken field", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Server.Addr = "" }},
			{"unknown driver", func(c *config.Config) { c.Store.Driver = "sqlite" }},
			{"missing dsn", func(c *config.Config) { c.Store.DatabaseURL = "" }},
			{"zero timeout", func(c *config.Config) { c.Store.Timeout = 0 }},
			{"zero burst", func(c *config.Config) { c.Cache.RefreshBurst = 0 }},
			{"negative top k", func(c *config.Config) { c.Ranking.TopK = -1 }},
			{"zero max limit", func(c *config.Config) { c.Ranking.MaxLimit = 0 }},
			{"negative history day", func(c *config.Config) { c.Ranking.HistoryDays = []int{30, -7} }},
			{"no workers", func(c *config.Config) { c.Batch.WorkerCount = 0 }},
			{"weights over 100", func(c *config.Config) { c.Policy.Weights.TenureDepth = 20 }},
		}
		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("Then validation fails for "+tc.name, func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then the memory driver needs no database url", func() {
			cfg := config.New()
			cfg.Store.Driver = config.DriverMemory
			cfg.Store.DatabaseURL = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
