package commands

import (
	"errors"
	"os"
	"time"

	"ifsuap/internal/docwindow"
	"ifsuap/internal/suap"
	"ifsuap/lib/configutil"

	"dario.cat/mergo"
)

type TimeoutsConfig struct {
	ElementSeconds   float64 `json:"element_seconds"`
	PageReadySeconds float64 `json:"page_ready_seconds"`
}

type PlanConfig struct {
	StartMarker string `json:"start_marker"`
	EndMarker   string `json:"end_marker"`
}

type Config struct {
	BaseUrl  string `json:"base_url"`
	Headless bool   `json:"headless"`
	// Journal is the sqlite file (or libsql url) grade batches are recorded
	// in, batches are not recorded when it is empty.
	Journal string `json:"journal"`
	// WritesPerSecond limits the speed of grade writes, 0 is unlimited.
	WritesPerSecond float64        `json:"writes_per_second"`
	Timeouts        TimeoutsConfig `json:"timeouts"`
	Plan            PlanConfig     `json:"plan"`
	Layout          suap.Layout    `json:"layout"`
}

func defaultConfig() Config {
	return Config{
		BaseUrl: suap.DefaultBaseUrl,
		Timeouts: TimeoutsConfig{
			ElementSeconds:   suap.DefaultTimeouts.Element.Seconds(),
			PageReadySeconds: suap.DefaultTimeouts.PageReady.Seconds(),
		},
		Plan: PlanConfig{
			StartMarker: suap.DefaultMarkers.Start,
			EndMarker:   suap.DefaultMarkers.End,
		},
		Layout: suap.DefaultLayout(),
	}
}

// loadConfig reads the configuration file, every field it leaves empty takes
// its default value. A missing file is the default configuration.
func loadConfig(path string) (Config, error) {
	cfg, err := configutil.Load[Config](path, "ifsuap.json5")
	if err != nil && !(errors.Is(err, os.ErrNotExist) && path == "") {
		return Config{}, err
	}
	err = mergo.Merge(&cfg, defaultConfig())
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (c Config) timeouts() suap.Timeouts {
	return suap.Timeouts{
		Element:   seconds(c.Timeouts.ElementSeconds),
		PageReady: seconds(c.Timeouts.PageReadySeconds),
	}
}

func (c Config) markers() docwindow.Markers {
	return docwindow.Markers{
		Start: c.Plan.StartMarker,
		End:   c.Plan.EndMarker,
	}
}
