package analysis

import (
	"fmt"
	"math"
)

// OneRepMaxModel selects the 1RM regression formula.
type OneRepMaxModel string

const (
	ModelEpley   OneRepMaxModel = "epley"
	ModelBrzycki OneRepMaxModel = "brzycki"
	ModelLander  OneRepMaxModel = "lander"
)

// ParseOneRepMaxModel maps a config value to a model; empty means Epley.
func ParseOneRepMaxModel(s string) (OneRepMaxModel, error) {
	switch OneRepMaxModel(s) {
	case "":
		return ModelEpley, nil
	case ModelEpley, ModelBrzycki, ModelLander:
		return OneRepMaxModel(s), nil
	}
	return "", fmt.Errorf("%w: unknown one-rep-max model %q", ErrInvalidInput, s)
}

// OneRepMax estimates the one-rep max for weight lifted for reps. Every model is applied
// as written, including at one rep; non-positive inputs yield 0.
func OneRepMax(weight float64, reps int, model OneRepMaxModel) float64 {
	if reps <= 0 || weight <= 0 {
		return 0
	}

	switch model {
	case ModelBrzycki:
		return brzycki(weight, reps)
	case ModelLander:
		return lander(weight, reps)
	default:
		return epley(weight, reps)
	}
}

// epley: 1RM = weight * (1 + reps/30)
func epley(weight float64, reps int) float64 {
	return weight * (1 + float64(reps)/30)
}

// brzycki: 1RM = weight * 36 / (37 - reps). The denominator vanishes at 37 reps,
// so reps are capped at 36.
func brzycki(weight float64, reps int) float64 {
	if reps > 36 {
		reps = 36
	}
	return weight * 36 / float64(37-reps)
}

// lander: 1RM = 100 * weight / (101.3 - 2.67123 * reps). Capped at 37 reps
// to keep the denominator positive.
func lander(weight float64, reps int) float64 {
	if reps > 37 {
		reps = 37
	}
	return 100 * weight / (101.3 - 2.67123*float64(reps))
}

// WorkingWeight returns intensityPercent of oneRepMax rounded to the nearest increment.
func WorkingWeight(oneRepMax, intensityPercent, increment float64) float64 {
	if oneRepMax <= 0 || intensityPercent <= 0 {
		return 0
	}
	raw := oneRepMax * intensityPercent / 100
	if increment <= 0 {
		return round2(raw)
	}
	return roundTo(raw, increment)
}

func roundTo(v, increment float64) float64 {
	return round2(math.Round(v/increment) * increment)
}
