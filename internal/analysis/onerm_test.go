package analysis

import (
	"errors"
	"math"
	"testing"
)

func floatPtr(f float64) *float64 {
	return &f
}

func intPtr(i int) *int {
	return &i
}

func TestOneRepMax(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		reps   int
		model  OneRepMaxModel
		want   float64
	}{
		{"epley 100x5", 100, 5, ModelEpley, 116.67},
		{"brzycki 100x5", 100, 5, ModelBrzycki, 112.5},
		{"lander 100x5", 100, 5, ModelLander, 113.71},
		{"epley single rep", 100, 1, ModelEpley, 103.33},
		{"brzycki single rep", 140, 1, ModelBrzycki, 140},
		{"lander single rep", 100, 1, ModelLander, 101.39},
		{"zero reps", 100, 0, ModelEpley, 0},
		{"zero weight", 0, 5, ModelEpley, 0},
		{"unknown model falls back to epley", 100, 5, OneRepMaxModel("other"), 116.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OneRepMax(tt.weight, tt.reps, tt.model)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("OneRepMax(%v, %d, %s) = %v, want %v", tt.weight, tt.reps, tt.model, got, tt.want)
			}
		})
	}
}

func TestOneRepMax_Monotonic(t *testing.T) {
	for _, model := range []OneRepMaxModel{ModelEpley, ModelBrzycki, ModelLander} {
		prev := 0.0
		for reps := 1; reps <= 20; reps++ {
			got := OneRepMax(100, reps, model)
			if got < prev {
				t.Errorf("%s: OneRepMax(100, %d) = %v, less than %v at %d reps", model, reps, got, prev, reps-1)
			}
			prev = got
		}

		prev = 0
		for w := 20.0; w <= 200; w += 20 {
			got := OneRepMax(w, 5, model)
			if got <= prev {
				t.Errorf("%s: OneRepMax(%v, 5) = %v, not above %v", model, w, got, prev)
			}
			prev = got
		}
	}
}

func TestOneRepMax_HighRepsStayFinite(t *testing.T) {
	for _, model := range []OneRepMaxModel{ModelBrzycki, ModelLander} {
		got := OneRepMax(50, 60, model)
		if math.IsInf(got, 0) || math.IsNaN(got) || got <= 0 {
			t.Errorf("%s: OneRepMax(50, 60) = %v, want finite positive", model, got)
		}
	}
}

func TestParseOneRepMaxModel(t *testing.T) {
	if m, err := ParseOneRepMaxModel(""); err != nil || m != ModelEpley {
		t.Errorf("ParseOneRepMaxModel(\"\") = %v, %v, want epley", m, err)
	}
	if m, err := ParseOneRepMaxModel("lander"); err != nil || m != ModelLander {
		t.Errorf("ParseOneRepMaxModel(lander) = %v, %v", m, err)
	}
	if _, err := ParseOneRepMaxModel("wathan"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseOneRepMaxModel(wathan) error = %v, want ErrInvalidInput", err)
	}
}

func TestWorkingWeight(t *testing.T) {
	tests := []struct {
		oneRM     float64
		pct       float64
		increment float64
		want      float64
	}{
		{116.67, 85, 2.5, 100},
		{150, 85, 2.5, 127.5},
		{100, 72, 5, 70},
		{100, 72, 0, 72},
		{0, 80, 2.5, 0},
	}
	for _, tt := range tests {
		got := WorkingWeight(tt.oneRM, tt.pct, tt.increment)
		if got != tt.want {
			t.Errorf("WorkingWeight(%v, %v, %v) = %v, want %v", tt.oneRM, tt.pct, tt.increment, got, tt.want)
		}
	}
}
