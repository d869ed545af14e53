package logger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/astrolab/knwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)
		log := logger.Get()

		Convey("Then it should not be nil", func() {
			So(log, ShouldNotBeNil)
		})

		Convey("When logging at every level", func() {
			ctx := context.Background()
			So(func() {
				log.Debug(ctx, "debug message")
				log.Info(ctx, "info message", logger.String("key", "value"))
				log.Warn(ctx, "warn message", logger.Int("count", 3))
				log.Error(ctx, "error message", logger.Error(errors.New("boom")))
			}, ShouldNotPanic)
		})

		Convey("When deriving a named logger", func() {
			named := log.Named("crossmatch")
			So(named, ShouldNotBeNil)
			So(func() { named.Info(context.Background(), "hello") }, ShouldNotPanic)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given the global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Then valid levels are accepted", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", " INFO "} {
				So(logger.SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("And an unknown level is rejected", func() {
			So(logger.SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}

func TestFieldConstructors(t *testing.T) {
	Convey("Given the field constructors", t, func() {
		So(logger.String("a", "b").Key, ShouldEqual, "a")
		So(logger.Int("n", 2).Value, ShouldEqual, 2)
		So(logger.Float64("f", 1.5).Value, ShouldEqual, 1.5)
		So(logger.Any("x", nil).Key, ShouldEqual, "x")
		So(logger.Error(errors.New("e")).Key, ShouldEqual, "error")
	})
}
