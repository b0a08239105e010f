package models

import "time"

// DeloadType is the kind of load reduction applied during a deload.
type DeloadType string

const (
	DeloadVolume         DeloadType = "volume"
	DeloadIntensity      DeloadType = "intensity"
	DeloadFrequency      DeloadType = "frequency"
	DeloadComplete       DeloadType = "complete"
	DeloadActiveRecovery DeloadType = "active_recovery"
)

// DeloadEvent is an executed deload. Append-only.
type DeloadEvent struct {
	ID                    string     `json:"id"`
	PlanID                string     `json:"plan_id"`
	Date                  time.Time  `json:"date"`
	Type                  DeloadType `json:"type"`
	DurationDays          int        `json:"duration_days"`
	ReasonCodes           []string   `json:"reason_codes"`
	FatigueScoreAtTrigger float64    `json:"fatigue_score_at_trigger"`
}

// FatigueCategory buckets an overall fatigue score.
type FatigueCategory string

const (
	FatigueLow      FatigueCategory = "low"
	FatigueModerate FatigueCategory = "moderate"
	FatigueHigh     FatigueCategory = "high"
	FatigueSevere   FatigueCategory = "severe"
)

// FatigueTrend is the direction of the score over the trailing 30 days.
type FatigueTrend string

const (
	TrendImproving FatigueTrend = "improving"
	TrendStable    FatigueTrend = "stable"
	TrendWorsening FatigueTrend = "worsening"
)

// FatigueAssessment is derived from snapshots and logs; it is always recomputed.
type FatigueAssessment struct {
	UserID             string          `json:"user_id"`
	Date               time.Time       `json:"date"`
	OverallScore       float64         `json:"overall_score"` // 0-100
	Category           FatigueCategory `json:"category"`
	Trend              FatigueTrend    `json:"trend"`
	RecommendationText string          `json:"recommendation_text"`
	Confidence         float64         `json:"confidence"`
	Reasons            []string        `json:"reasons"`
	PerformanceChange  float64         `json:"performance_change"` // % trailing week vs prior week
}
