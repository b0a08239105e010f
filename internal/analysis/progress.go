package analysis

import (
	"time"

	"periodizer/internal/models"
)

// WeeklyProgress splits the logs since phaseStart into completed calendar weeks and derives
// the progress entries the state machine consumes. The week before phaseStart is used only
// as the baseline for the first week's gain. Weeks without logs report zero gain and adherence.
func WeeklyProgress(logs []models.PerformanceLog, phaseStart, now time.Time, model OneRepMaxModel) []ProgressEntry {
	start := models.Day(phaseStart)
	weeks := int(now.Sub(start) / trailingWeek)
	if weeks <= 0 {
		return nil
	}

	prev := weekOneRepMax(logs, start.Add(-trailingWeek), start, model)
	entries := make([]ProgressEntry, 0, weeks)
	for k := 0; k < weeks; k++ {
		from := start.Add(time.Duration(k) * trailingWeek)
		to := from.Add(trailingWeek)

		cur := weekOneRepMax(logs, from, to, model)
		entry := ProgressEntry{WeekStart: from}

		var gains []float64
		for id, v := range cur {
			if base, ok := prev[id]; ok && base > 0 {
				gains = append(gains, (v-base)/base*100)
			}
		}
		entry.PerformanceGain = round2(mean(gains))

		var completion []float64
		days := make(map[time.Time]bool)
		for _, l := range logs {
			d := models.Day(l.Date)
			if d.Before(from) || !d.Before(to) {
				continue
			}
			completion = append(completion, clamp(l.CompletionRate, 0, 1))
			days[d] = true
		}
		entry.Adherence = round2(mean(completion) * 100)
		entry.Sessions = len(days)

		entries = append(entries, entry)
		if len(cur) > 0 {
			prev = cur
		}
	}
	return entries
}

// weekOneRepMax is the mean e1RM per exercise for logs with from <= day < to.
func weekOneRepMax(logs []models.PerformanceLog, from, to time.Time, model OneRepMaxModel) map[string]float64 {
	values := make(map[string][]float64)
	for _, l := range logs {
		d := models.Day(l.Date)
		if d.Before(from) || !d.Before(to) {
			continue
		}
		if e := OneRepMax(l.Weight, l.Reps, model); e > 0 {
			values[l.ExerciseID] = append(values[l.ExerciseID], e)
		}
	}
	out := make(map[string]float64, len(values))
	for id, v := range values {
		out[id] = mean(v)
	}
	return out
}
