package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/oledu/pyramidgo/internal/config"
	"github.com/oledu/pyramidgo/internal/domain/badge"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Engine.DiminishingFactor, convey.ShouldEqual, 0.3)
			convey.So(cfg.Engine.DailyAttemptCap, convey.ShouldEqual, 5)
			convey.So(cfg.Engine.SoloTeamPrefix, convey.ShouldEqual, "單人")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the timezone resolves", func() {
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc.String(), convey.ShouldEqual, "Asia/Taipei")
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with bad values", t, func() {
		ctx := context.Background()

		convey.Convey("When the diminishing factor is out of range", func() {
			cfg := config.New(ctx)
			cfg.Engine.DiminishingFactor = 1.5

			err := cfg.Validate()

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "diminishing_factor")
		})

		convey.Convey("When a badge row is not ascending", func() {
			cfg := config.New(ctx)
			cfg.Engine.Badges.SP = []badge.Threshold{{Grade: "5.9", First: 30, Second: 20, Third: 25}}

			err := cfg.Validate()

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "5.9")
		})

		convey.Convey("When the timezone is unknown", func() {
			cfg := config.New(ctx)
			cfg.Timezone = "Mars/Olympus"

			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the log format is unknown", func() {
			cfg := config.New(ctx)
			cfg.LogFormat = "xml"

			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}
