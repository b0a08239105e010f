package analysis

import (
	"slices"
	"strings"

	"periodizer/internal/models"
)

// TrainingDay is a scheduled session and the muscle groups it trains.
type TrainingDay struct {
	Name         string   `json:"name"`
	MuscleGroups []string `json:"muscle_groups"`
}

// ApplyFrequencyDeload removes every day that trains any flagged muscle group.
// At least one day is kept: when all days match, the day with the fewest flagged
// groups survives (earliest on ties).
func ApplyFrequencyDeload(days []TrainingDay, flagged []string) []TrainingDay {
	if len(days) == 0 || len(flagged) == 0 {
		return days
	}

	flaggedSet := make(map[string]bool, len(flagged))
	for _, g := range flagged {
		flaggedSet[strings.ToLower(g)] = true
	}

	kept := make([]TrainingDay, 0, len(days))
	bestIdx, bestCount := -1, 0
	for i, d := range days {
		count := 0
		for _, g := range d.MuscleGroups {
			if flaggedSet[strings.ToLower(g)] {
				count++
			}
		}
		if count == 0 {
			kept = append(kept, d)
			continue
		}
		if bestIdx == -1 || count < bestCount {
			bestIdx, bestCount = i, count
		}
	}

	if len(kept) == 0 {
		return []TrainingDay{days[bestIdx]}
	}
	return kept
}

// DeloadSchedule is a training week adjusted for a deload recommendation.
type DeloadSchedule struct {
	Recommendation DeloadRecommendation `json:"recommendation"`
	Days           []TrainingDay        `json:"days"`
	Removed        []string             `json:"removed"`
}

// ScheduleDeload drops days from the week when rec calls for a frequency deload.
// Any other outcome, including no deload, keeps every day.
func ScheduleDeload(rec DeloadRecommendation, days []TrainingDay, flagged []string) DeloadSchedule {
	out := DeloadSchedule{Recommendation: rec, Days: days, Removed: []string{}}
	if !rec.IsRecommended || rec.Type != models.DeloadFrequency {
		return out
	}

	out.Days = ApplyFrequencyDeload(days, flagged)
	// kept days are a subsequence of days
	j := 0
	for _, d := range days {
		if j < len(out.Days) && out.Days[j].Name == d.Name && slices.Equal(out.Days[j].MuscleGroups, d.MuscleGroups) {
			j++
			continue
		}
		out.Removed = append(out.Removed, d.Name)
	}
	return out
}
