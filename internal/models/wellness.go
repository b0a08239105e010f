package models

import "time"

// WellnessSnapshot is one day of subjective and objective recovery signals for a user.
// Subjective axes are on a 1-10 scale; nil means the trainee did not report it.
type WellnessSnapshot struct {
	UserID               string    `json:"user_id"`
	Date                 time.Time `json:"date"` // UTC day
	PerceivedFatigue     *float64  `json:"perceived_fatigue,omitempty"`
	SleepQuality         *float64  `json:"sleep_quality,omitempty"`
	Mood                 *float64  `json:"mood,omitempty"`
	Motivation           *float64  `json:"motivation,omitempty"`
	EnergyLevel          *float64  `json:"energy_level,omitempty"`
	Soreness             *float64  `json:"soreness,omitempty"`
	StressLevel          *float64  `json:"stress_level,omitempty"`
	RestingHeartRate     *float64  `json:"resting_heart_rate,omitempty"`     // bpm
	HRV                  *float64  `json:"hrv,omitempty"`                    // ms
	SleepDurationMinutes *float64  `json:"sleep_duration_minutes,omitempty"` // minutes
}

// PerformanceLog is one exercise performed in one session.
type PerformanceLog struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	SessionID      string    `json:"session_id"`
	ExerciseID     string    `json:"exercise_id"`
	Date           time.Time `json:"date"`
	Weight         float64   `json:"weight"` // configured mass unit
	Reps           int       `json:"reps"`
	SetsCount      int       `json:"sets_count"`
	RIR            float64   `json:"rir"`
	RPE            float64   `json:"rpe"`
	CompletionRate float64   `json:"completion_rate"` // 0-1
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
