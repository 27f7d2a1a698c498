package validate

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// LimitsFile mirrors Limits for TOML loading. Pointer fields distinguish
// "absent" from zero so a partial file only overrides what it declares.
type LimitsFile struct {
	TFRMin               *float64 `toml:"tfr_min"`
	TFRMax               *float64 `toml:"tfr_max"`
	RatioMin             *float64 `toml:"ratio_min"`
	RatioMax             *float64 `toml:"ratio_max"`
	TempMin              *float64 `toml:"temp_min"`
	TempMax              *float64 `toml:"temp_max"`
	MinRunDuration       *float64 `toml:"min_run_duration_min"`
	MaxSessionDuration   *float64 `toml:"max_session_duration_min"`
	SmallManifoldCeiling *float64 `toml:"small_manifold_ceiling_ml"`
	LargeManifoldCeiling *float64 `toml:"large_manifold_ceiling_ml"`
}

// LoadLimitsFile reads a TOML limits file and merges it over the defaults.
func LoadLimitsFile(path string) (Limits, error) {
	lim := DefaultLimits()

	b, err := os.ReadFile(path)
	if err != nil {
		return lim, err
	}

	var lf LimitsFile
	if err := toml.Unmarshal(b, &lf); err != nil {
		return lim, err
	}

	apply := func(dst *float64, src *float64) {
		if src != nil && *src > 0 {
			*dst = *src
		}
	}
	apply(&lim.TFRMin, lf.TFRMin)
	apply(&lim.TFRMax, lf.TFRMax)
	apply(&lim.RatioMin, lf.RatioMin)
	apply(&lim.RatioMax, lf.RatioMax)
	apply(&lim.TempMin, lf.TempMin)
	apply(&lim.TempMax, lf.TempMax)
	apply(&lim.MinRunDuration, lf.MinRunDuration)
	apply(&lim.MaxSessionDuration, lf.MaxSessionDuration)
	apply(&lim.SmallManifoldCeiling, lf.SmallManifoldCeiling)
	apply(&lim.LargeManifoldCeiling, lf.LargeManifoldCeiling)

	return lim, nil
}
