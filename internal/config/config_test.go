package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given a default configuration", t, func() {
		c := New()

		So(c.Addr, ShouldEqual, ":9080")
		So(c.FilterVariant, ShouldEqual, "early_kn")
		So(c.CatalogPath, ShouldEqual, "data/mangrove_filtered.csv")
		So(c.QueueSize, ShouldBeGreaterThan, 0)
		So(c.WorkerCount, ShouldBeGreaterThan, 0)
	})
}

func TestLoadLayering(t *testing.T) {
	Convey("Given no file and no env overrides", t, func() {
		cfg, err := Load()

		So(err, ShouldBeNil)
		So(cfg.FilterVariant, ShouldEqual, "early_kn")
	})

	Convey("Given env overrides", t, func() {
		t.Setenv("KNWATCH_FILTER_VARIANT", "kn")
		t.Setenv("KNWATCH_QUEUE_SIZE", "42")
		cfg, err := Load()

		So(err, ShouldBeNil)
		So(cfg.FilterVariant, ShouldEqual, "kn")
		So(cfg.QueueSize, ShouldEqual, 42)
	})

	Convey("Given a YAML file layered under env", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "knwatch.yaml")
		yaml := "addr: \":7070\"\nfilter_variant: early_sn\nprimary_webhook: http://hooks/primary\n"
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
		t.Setenv("KNWATCH_CONFIG", path)
		t.Setenv("KNWATCH_FILTER_VARIANT", "microlensing")

		cfg, err := Load()

		So(err, ShouldBeNil)
		Convey("Then file values apply and env wins on conflict", func() {
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.PrimaryWebhook, ShouldEqual, "http://hooks/primary")
			So(cfg.FilterVariant, ShouldEqual, "microlensing")
		})
	})
}

func TestLoadValidation(t *testing.T) {
	Convey("Given an unknown rule set", t, func() {
		t.Setenv("KNWATCH_FILTER_VARIANT", "supernova_maybe")
		_, err := Load()

		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "filter_variant")
	})

	Convey("Given a missing config file", t, func() {
		t.Setenv("KNWATCH_CONFIG", "/does/not/exist.yaml")
		_, err := Load()

		So(err, ShouldNotBeNil)
	})

	Convey("Given a non-positive queue size", t, func() {
		// Undo env vars set by the sibling blocks above; t.Setenv
		// persists for the whole test function.
		t.Setenv("KNWATCH_CONFIG", "")
		t.Setenv("KNWATCH_FILTER_VARIANT", "early_kn")
		t.Setenv("KNWATCH_QUEUE_SIZE", "0")
		_, err := Load()

		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "queue_size")
	})
}
