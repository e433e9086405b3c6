package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/roach88/clickcounter/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load("", nil)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Name, convey.ShouldEqual, "uitest")
				convey.So(cfg.Title, convey.ShouldEqual, "WeaverDB")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.MetricsAddr, convey.ShouldBeEmpty)
				convey.So(cfg.Root, convey.ShouldEqual, config.DefaultRoot())
			})
		})

		convey.Convey("When XDG_DATA_HOME is set", func() {
			t.Setenv("XDG_DATA_HOME", "/data")

			cfg, err := config.Load("", nil)

			convey.Convey("Then the root lives under it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Root, convey.ShouldEqual, filepath.Join("/data", "clickcounter"))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("CLICKCOUNTER_ROOT", "/tmp/clicks")
			t.Setenv("CLICKCOUNTER_NAME", "envdb")
			t.Setenv("CLICKCOUNTER_LOG_LEVEL", "debug")
			t.Setenv("CLICKCOUNTER_METRICS_ADDR", ":9100")

			cfg, err := config.Load("", nil)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Root, convey.ShouldEqual, "/tmp/clicks")
				convey.So(cfg.Name, convey.ShouldEqual, "envdb")
				convey.So(cfg.Level(), convey.ShouldEqual, slog.LevelDebug)
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":9100")
				convey.So(cfg.Title, convey.ShouldEqual, "WeaverDB")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeConfigFile(t, "name: filedb\ntitle: Counter\nlog_level: warn\n")

			cfg, err := config.Load(path, nil)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Name, convey.ShouldEqual, "filedb")
				convey.So(cfg.Title, convey.ShouldEqual, "Counter")
				convey.So(cfg.Level(), convey.ShouldEqual, slog.LevelWarn)
			})
		})

		convey.Convey("When the file path comes from CLICKCOUNTER_CONFIG", func() {
			t.Setenv("CLICKCOUNTER_CONFIG", writeConfigFile(t, "name: fromenvfile\n"))

			cfg, err := config.Load("", nil)

			convey.Convey("Then the file is read", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Name, convey.ShouldEqual, "fromenvfile")
			})
		})

		convey.Convey("When file, env and overrides all set the same key", func() {
			path := writeConfigFile(t, "name: filedb\n")
			t.Setenv("CLICKCOUNTER_NAME", "envdb")

			fileEnv, err1 := config.Load(path, nil)
			flags, err2 := config.Load(path, map[string]any{"name": "flagdb"})

			convey.Convey("Then env beats file and overrides beat env", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(fileEnv.Name, convey.ShouldEqual, "envdb")
				convey.So(flags.Name, convey.ShouldEqual, "flagdb")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file is not valid YAML", func() {
			_, err := config.Load(writeConfigFile(t, "name: [unterminated\n"), nil)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the log level is unknown", func() {
			t.Setenv("CLICKCOUNTER_LOG_LEVEL", "chatty")

			_, err := config.Load("", nil)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the name is overridden to blank", func() {
			_, err := config.Load("", map[string]any{"name": "  "})

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestParseLevel(t *testing.T) {
	convey.Convey("Given log level names", t, func() {
		cases := map[string]slog.Level{
			"debug": slog.LevelDebug,
			"INFO":  slog.LevelInfo,
			"":      slog.LevelInfo,
			"warn":  slog.LevelWarn,
			"error": slog.LevelError,
		}
		for name, want := range cases {
			got, err := config.ParseLevel(name)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, want)
		}
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clickcounter.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// clearConfigEnvVars blanks every variable the loader reads for the test.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"CLICKCOUNTER_CONFIG",
		"CLICKCOUNTER_ROOT",
		"CLICKCOUNTER_NAME",
		"CLICKCOUNTER_TITLE",
		"CLICKCOUNTER_LOG_LEVEL",
		"CLICKCOUNTER_METRICS_ADDR",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}
