// Package ingest turns raw wellness and session records into the typed
// snapshots and performance logs the analysis engine consumes.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"periodizer/internal/models"
)

// ErrInvalidRecord is returned when a raw record fails validation.
var ErrInvalidRecord = errors.New("invalid record")

// Mass units.
const (
	UnitKG = "kg"
	UnitLB = "lb"
)

const poundsToKilograms = 0.45359237

// RIR/RPE assumed for sets logged without either.
const (
	defaultRIR = 2.0
	defaultRPE = 8.0
)

var validate = validator.New()

var logNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("periodizer/performance-log"))

// RawWellness is a daily check-in as submitted by a client.
type RawWellness struct {
	UserID               string   `json:"user_id" validate:"required"`
	Date                 string   `json:"date" validate:"required"`
	PerceivedFatigue     *float64 `json:"perceived_fatigue" validate:"omitempty,gte=0,lte=10"`
	SleepQuality         *float64 `json:"sleep_quality" validate:"omitempty,gte=0,lte=10"`
	Mood                 *float64 `json:"mood" validate:"omitempty,gte=0,lte=10"`
	Motivation           *float64 `json:"motivation" validate:"omitempty,gte=0,lte=10"`
	EnergyLevel          *float64 `json:"energy_level" validate:"omitempty,gte=0,lte=10"`
	Soreness             *float64 `json:"soreness" validate:"omitempty,gte=0,lte=10"`
	StressLevel          *float64 `json:"stress_level" validate:"omitempty,gte=0,lte=10"`
	RestingHeartRate     *float64 `json:"resting_heart_rate" validate:"omitempty,gt=0,lt=250"`
	HRV                  *float64 `json:"hrv" validate:"omitempty,gt=0"`
	SleepDurationMinutes *float64 `json:"sleep_duration_minutes" validate:"omitempty,gte=0,lte=1440"`
}

// RawSession is one workout: every set performed, in order. SessionID identifies the
// workout to the client; when empty the session's content stands in for it.
type RawSession struct {
	SessionID string   `json:"session_id" validate:"omitempty,max=128"`
	UserID    string   `json:"user_id" validate:"required"`
	Date      string   `json:"date" validate:"required"`
	Unit      string   `json:"unit" validate:"omitempty,oneof=kg lb"`
	Sets      []RawSet `json:"sets" validate:"required,min=1,dive"`
}

// RawSet is a single set within a session.
type RawSet struct {
	ExerciseID string   `json:"exercise_id" validate:"required"`
	Weight     float64  `json:"weight" validate:"gte=0"`
	Reps       int      `json:"reps" validate:"gte=0"`
	RIR        *float64 `json:"rir" validate:"omitempty,gte=0,lte=10"`
	RPE        *float64 `json:"rpe" validate:"omitempty,gte=0,lte=10"`
	Completed  bool     `json:"completed"`
	Warmup     bool     `json:"warmup"`
}

// ParseDate accepts RFC 3339 timestamps or YYYY-MM-DD dates and returns the UTC day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return models.Day(t), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: expected RFC 3339 or YYYY-MM-DD", ErrInvalidRecord, s)
	}
	return models.Day(t), nil
}

// NormalizeWellness validates raw and converts it to a snapshot. Subjective axes are
// clamped to 1-10.
func NormalizeWellness(raw RawWellness) (models.WellnessSnapshot, error) {
	if err := validate.Struct(raw); err != nil {
		return models.WellnessSnapshot{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	date, err := ParseDate(raw.Date)
	if err != nil {
		return models.WellnessSnapshot{}, err
	}

	return models.WellnessSnapshot{
		UserID:               raw.UserID,
		Date:                 date,
		PerceivedFatigue:     axis(raw.PerceivedFatigue),
		SleepQuality:         axis(raw.SleepQuality),
		Mood:                 axis(raw.Mood),
		Motivation:           axis(raw.Motivation),
		EnergyLevel:          axis(raw.EnergyLevel),
		Soreness:             axis(raw.Soreness),
		StressLevel:          axis(raw.StressLevel),
		RestingHeartRate:     raw.RestingHeartRate,
		HRV:                  raw.HRV,
		SleepDurationMinutes: raw.SleepDurationMinutes,
	}, nil
}

func axis(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return models.Float(min(max(*v, 1), 10))
}

// DedupeWellness keeps one snapshot per user and day; later entries win.
// Output order follows each key's first appearance.
func DedupeWellness(snaps []models.WellnessSnapshot) []models.WellnessSnapshot {
	type key struct {
		user string
		day  time.Time
	}
	index := make(map[key]int, len(snaps))
	out := make([]models.WellnessSnapshot, 0, len(snaps))
	for _, s := range snaps {
		s.Date = models.Day(s.Date)
		k := key{s.UserID, s.Date}
		if i, ok := index[k]; ok {
			out[i] = s
			continue
		}
		index[k] = len(out)
		out = append(out, s)
	}
	return out
}

// NormalizeSession validates raw and aggregates its sets into one performance log per
// exercise, in first-seen order. Weights are converted into unit.
func NormalizeSession(raw RawSession, unit string) ([]models.PerformanceLog, error) {
	if err := validate.Struct(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	date, err := ParseDate(raw.Date)
	if err != nil {
		return nil, err
	}
	from := raw.Unit
	if from == "" {
		from = unit
	}
	session, err := sessionKey(raw)
	if err != nil {
		return nil, err
	}

	var order []string
	byExercise := make(map[string][]RawSet)
	for _, s := range raw.Sets {
		if s.Warmup {
			continue
		}
		if _, ok := byExercise[s.ExerciseID]; !ok {
			order = append(order, s.ExerciseID)
		}
		byExercise[s.ExerciseID] = append(byExercise[s.ExerciseID], s)
	}

	logs := make([]models.PerformanceLog, 0, len(order))
	for _, id := range order {
		l := aggregate(byExercise[id])
		l.ID = LogID(raw.UserID, session, id)
		l.UserID = raw.UserID
		l.SessionID = session
		l.ExerciseID = id
		l.Date = date
		l.Weight = ConvertWeight(l.Weight, from, unit)
		logs = append(logs, l)
	}
	return logs, nil
}

// aggregate collapses an exercise's working sets: top completed weight, the most reps
// performed at that weight, mean RIR/RPE and the completed fraction.
func aggregate(sets []RawSet) models.PerformanceLog {
	var l models.PerformanceLog
	completed := 0
	var rirSum, rpeSum float64
	for _, s := range sets {
		rir, rpe := effort(s)
		rirSum += rir
		rpeSum += rpe
		if s.Completed {
			completed++
		}
	}

	candidates := sets
	if completed > 0 {
		candidates = candidates[:0:0]
		for _, s := range sets {
			if s.Completed {
				candidates = append(candidates, s)
			}
		}
	}
	for _, s := range candidates {
		if s.Weight > l.Weight || (s.Weight == l.Weight && s.Reps > l.Reps) {
			l.Weight = s.Weight
			l.Reps = s.Reps
		}
	}

	n := float64(len(sets))
	l.SetsCount = len(sets)
	l.RIR = rirSum / n
	l.RPE = rpeSum / n
	l.CompletionRate = float64(completed) / n
	return l
}

// effort derives whichever of RIR and RPE is missing as RPE = 10 - RIR.
func effort(s RawSet) (rir, rpe float64) {
	switch {
	case s.RIR != nil && s.RPE != nil:
		return *s.RIR, *s.RPE
	case s.RIR != nil:
		return *s.RIR, 10 - *s.RIR
	case s.RPE != nil:
		return 10 - *s.RPE, *s.RPE
	default:
		return defaultRIR, defaultRPE
	}
}

// ConvertWeight converts w between kg and lb, rounded to two decimals.
func ConvertWeight(w float64, from, to string) float64 {
	switch {
	case from == to || from == "" || to == "":
		return w
	case from == UnitLB && to == UnitKG:
		w *= poundsToKilograms
	case from == UnitKG && to == UnitLB:
		w /= poundsToKilograms
	}
	return math.Round(w*100) / 100
}

// sessionKey is raw.SessionID, or a UUIDv5 of the session body when the client sent none.
// Resubmitting the same body yields the same key; any other session gets its own.
func sessionKey(raw RawSession) (string, error) {
	if raw.SessionID != "" {
		return raw.SessionID, nil
	}
	body, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprinting session: %w", err)
	}
	return uuid.NewSHA1(logNamespace, body).String(), nil
}

// LogID is stable for a user, session and exercise: re-ingesting a session maps onto the
// logs it already produced, while a second session on the same day adds new ones.
func LogID(userID, sessionID, exerciseID string) string {
	key := userID + "/" + sessionID + "/" + exerciseID
	return uuid.NewSHA1(logNamespace, []byte(key)).String()
}
