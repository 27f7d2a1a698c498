package validate

import (
	"fmt"
	"strconv"

	"github.com/nanoforge-io/synthctl/internal/domain"
)

// rule is one declared constraint. check returns nil when the rule holds.
// Rules that depend on another field being in range return nil when that
// field is itself invalid, so a single bad input never cascades into
// violations on otherwise-correct fields.
type rule struct {
	check func(cfg domain.RunConfiguration, lim Limits) *domain.Violation
}

// rules is the declared constraint set, evaluated in order. Violations are
// collected, never short-circuited, so the caller can report every failing
// field at once.
var rules = []rule{
	{check: checkTFR},
	{check: checkFRRPositive},
	{check: checkRatio},
	{check: checkTemperature},
	{check: checkVolumePositive},
	{check: checkDuration},
	{check: checkManifoldCeiling},
	{check: checkChip},
	{check: checkManifold},
	{check: checkMode},
}

// Validate checks a candidate configuration against the given limits.
// It is pure and side-effect-free.
func Validate(cfg domain.RunConfiguration, lim Limits) domain.ValidationResult {
	var violations []domain.Violation
	for _, r := range rules {
		if v := r.check(cfg, lim); v != nil {
			violations = append(violations, *v)
		}
	}
	if len(violations) > 0 {
		return domain.Reject(violations)
	}
	return domain.Accept()
}

// ApplyCleanDefaults fills in the optional flow parameters for a CLEAN
// configuration. Chip and manifold stay required; a zero value there is a
// validation failure, not a defaulting case.
func ApplyCleanDefaults(cfg domain.RunConfiguration) domain.RunConfiguration {
	if cfg.Mode != domain.ModeClean {
		return cfg
	}
	if cfg.TotalFlowRate == 0 {
		cfg.TotalFlowRate = 5.0
	}
	if cfg.FRRAqueous == 0 && cfg.FRRSolvent == 0 {
		cfg.FRRAqueous = 1
		cfg.FRRSolvent = 1
	}
	if cfg.TargetVolume == 0 {
		cfg.TargetVolume = 5.0
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 25.0
	}
	return cfg
}

func checkTFR(cfg domain.RunConfiguration, lim Limits) *domain.Violation {
	tfr := float64(cfg.TotalFlowRate)
	if tfr >= lim.TFRMin && tfr <= lim.TFRMax {
		return nil
	}
	return &domain.Violation{
		Field:    "totalFlowRate",
		Rule:     fmt.Sprintf("%s-%s", ftoa(lim.TFRMin), ftoa(lim.TFRMax)),
		Observed: f32toa(cfg.TotalFlowRate),
		Allowed:  fmt.Sprintf("%s to %s mL/min", ftoa(lim.TFRMin), ftoa(lim.TFRMax)),
	}
}

func checkFRRPositive(cfg domain.RunConfiguration, _ Limits) *domain.Violation {
	if cfg.FRRAqueous > 0 && cfg.FRRSolvent > 0 {
		return nil
	}
	return &domain.Violation{
		Field:    "flowRateRatio",
		Rule:     "positive integers",
		Observed: fmt.Sprintf("%d:%d", cfg.FRRAqueous, cfg.FRRSolvent),
		Allowed:  "both parts strictly positive",
	}
}

func checkRatio(cfg domain.RunConfiguration, lim Limits) *domain.Violation {
	if cfg.FRRAqueous <= 0 || cfg.FRRSolvent <= 0 {
		return nil // covered by checkFRRPositive
	}
	ratio := cfg.Ratio()
	if ratio >= lim.RatioMin && ratio <= lim.RatioMax {
		return nil
	}
	return &domain.Violation{
		Field:    "flowRateRatio",
		Rule:     fmt.Sprintf("%s:1-%s:1", ftoa(lim.RatioMin), ftoa(lim.RatioMax)),
		Observed: fmt.Sprintf("%d:%d", cfg.FRRAqueous, cfg.FRRSolvent),
		Allowed:  fmt.Sprintf("aqueous:solvent within %s:1 to %s:1", ftoa(lim.RatioMin), ftoa(lim.RatioMax)),
	}
}

func checkTemperature(cfg domain.RunConfiguration, lim Limits) *domain.Violation {
	temp := float64(cfg.Temperature)
	if temp >= lim.TempMin && temp <= lim.TempMax {
		return nil
	}
	return &domain.Violation{
		Field:    "temperature",
		Rule:     fmt.Sprintf("%s-%s", ftoa(lim.TempMin), ftoa(lim.TempMax)),
		Observed: f32toa(cfg.Temperature),
		Allowed:  fmt.Sprintf("%s to %s C", ftoa(lim.TempMin), ftoa(lim.TempMax)),
	}
}

func checkVolumePositive(cfg domain.RunConfiguration, _ Limits) *domain.Violation {
	if cfg.TargetVolume > 0 {
		return nil
	}
	return &domain.Violation{
		Field:    "targetVolume",
		Rule:     "> 0",
		Observed: f32toa(cfg.TargetVolume),
		Allowed:  "positive volume in mL",
	}
}

func checkDuration(cfg domain.RunConfiguration, lim Limits) *domain.Violation {
	// Duration is volume over flow; only meaningful when both are in range.
	tfr := float64(cfg.TotalFlowRate)
	if cfg.TargetVolume <= 0 || tfr < lim.TFRMin || tfr > lim.TFRMax {
		return nil
	}
	d := cfg.Duration()
	if d >= lim.MinRunDuration && d <= lim.MaxSessionDuration {
		return nil
	}
	return &domain.Violation{
		Field:    "targetVolume",
		Rule:     fmt.Sprintf("duration %s-%s min", ftoa(lim.MinRunDuration), ftoa(lim.MaxSessionDuration)),
		Observed: fmt.Sprintf("%s min at %s mL/min", ftoa(d), f32toa(cfg.TotalFlowRate)),
		Allowed:  fmt.Sprintf("run duration between %s and %s minutes", ftoa(lim.MinRunDuration), ftoa(lim.MaxSessionDuration)),
	}
}

func checkManifoldCeiling(cfg domain.RunConfiguration, lim Limits) *domain.Violation {
	if cfg.TargetVolume <= 0 || !cfg.Manifold.Valid() {
		return nil
	}
	ceiling := lim.SmallManifoldCeiling
	if cfg.Manifold == domain.ManifoldLarge {
		ceiling = lim.LargeManifoldCeiling
	}
	if float64(cfg.TargetVolume) <= ceiling {
		return nil
	}
	return &domain.Violation{
		Field:    "targetVolume",
		Rule:     fmt.Sprintf("<= %s mL on %s manifold", ftoa(ceiling), cfg.Manifold),
		Observed: f32toa(cfg.TargetVolume),
		Allowed:  fmt.Sprintf("up to %s mL", ftoa(ceiling)),
	}
}

func checkChip(cfg domain.RunConfiguration, _ Limits) *domain.Violation {
	if cfg.Chip.Valid() {
		return nil
	}
	return &domain.Violation{
		Field:    "chipId",
		Rule:     "enum",
		Observed: fmt.Sprintf("%d", int16(cfg.Chip)),
		Allowed:  "HERRINGBONE or BAFFLE",
	}
}

func checkManifold(cfg domain.RunConfiguration, _ Limits) *domain.Violation {
	if cfg.Manifold.Valid() {
		return nil
	}
	return &domain.Violation{
		Field:    "manifold",
		Rule:     "enum",
		Observed: fmt.Sprintf("%d", int16(cfg.Manifold)),
		Allowed:  "SMALL or LARGE",
	}
}

func checkMode(cfg domain.RunConfiguration, _ Limits) *domain.Violation {
	if cfg.Mode.Valid() {
		return nil
	}
	return &domain.Violation{
		Field:    "mode",
		Rule:     "enum",
		Observed: fmt.Sprintf("%d", int16(cfg.Mode)),
		Allowed:  "RUN, CLEAN or PRESSURE_TEST",
	}
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// f32toa renders a single-precision config value at float32 precision, so
// the operator sees "0.8" rather than its float64 widening.
func f32toa(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
