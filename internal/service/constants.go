package service

const (
	// Time windows
	FatigueHistoryDays     = 30 // snapshots and logs behind one fatigue assessment
	TransitionFatigueDays  = 7  // assessments averaged by the state machine
	PerformanceHistoryDays = 56 // logs behind performance estimates
	ReportDays             = 30

	// Optimistic concurrency
	MaxTransitionAttempts = 3

	// Neutral 0-100 values for deload signals with no data
	NeutralReadiness = 70
	NeutralSignal    = 50

	// Subjective axes are 1-10; deload signals are 0-100
	AxisToPercent = 10
)
