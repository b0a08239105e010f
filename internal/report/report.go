// Package report renders a user's training status as a static terminal report.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"periodizer/internal/models"
	"periodizer/internal/service"
)

const (
	chartHeight = 8
	chartWidth  = 60
	barWidth    = 24
	nameWidth   = 16
)

// Write renders r to w.
func Write(w io.Writer, r *service.Report) error {
	_, err := io.WriteString(w, Render(r)+"\n")
	return err
}

// Render lays out every section of r top to bottom.
func Render(r *service.Report) string {
	sections := []string{
		headerStyle.Render(fmt.Sprintf("Training report: %s", r.UserID)),
		lipgloss.JoinHorizontal(lipgloss.Top, renderPlanCard(r), " ", renderFatigueCard(r)),
	}
	if chart := renderFatigueChart(r.Fatigue); chart != "" {
		sections = append(sections, chart)
	}
	sections = append(sections, renderExercises(r), renderDeloads(r.Deloads, r.GeneratedAt))
	sections = append(sections, mutedStyle.Render("Generated "+r.GeneratedAt.Format(time.RFC1123)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderPlanCard(r *service.Report) string {
	title := cardTitleStyle.Render("Plan")
	if r.Plan == nil {
		return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, "No active plan"))
	}

	p := r.Plan
	phase, _ := p.CurrentPhase()
	completion := 0.0
	if phase.DurationWeeks > 0 {
		completion = min(float64(r.PhaseWeek-1)/float64(phase.DurationWeeks), 1)
	}

	lines := []string{
		RenderMetric("Phase", phaseName(phase.Type), ""),
		RenderMetric("Block", fmt.Sprintf("%d of %d", p.CurrentPhaseIndex+1, len(p.Phases)), ""),
		RenderMetric("Week", fmt.Sprintf("%s of %d", humanize.Ordinal(r.PhaseWeek), phase.DurationWeeks), ""),
		RenderProgressBar(completion, barWidth),
		"",
		RenderMetric("Intensity", fmt.Sprintf("%.0f-%.0f%% 1RM", phase.IntensityRange[0], phase.IntensityRange[1]), ""),
		RenderMetric("Sets x reps", fmt.Sprintf("%d-%d x %d-%d",
			phase.SetsRange[0], phase.SetsRange[1], phase.RepsRange[0], phase.RepsRange[1]), ""),
	}
	if tr := r.Transition; tr != nil {
		lines = append(lines, "")
		switch {
		case tr.ShouldTransition && tr.InsertDeload:
			lines = append(lines, trendDownStyle.Render(fmt.Sprintf("Deload due (%s trigger)", tr.Trigger)))
		case tr.ShouldTransition && tr.PlanComplete:
			lines = append(lines, trendUpStyle.Render("Plan complete"))
		case tr.ShouldTransition:
			lines = append(lines, trendUpStyle.Render(fmt.Sprintf("Next: %s (%s trigger)", phaseName(tr.ToType), tr.Trigger)))
		default:
			lines = append(lines, mutedStyle.Render("No phase change due"))
		}
	}

	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, lines...)...))
}

func renderFatigueCard(r *service.Report) string {
	title := cardTitleStyle.Render("Fatigue")
	a := r.Latest
	if a == nil {
		return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, "No assessments yet"))
	}

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Left,
			metricLabelStyle.Render("Score"),
			categoryStyle(a.Category).Render(fmt.Sprintf("%.0f %s", a.OverallScore, strings.ToUpper(string(a.Category))))),
		renderFatigueTrend(a.Trend),
		RenderMetric("Performance", fmt.Sprintf("%+.1f%%", a.PerformanceChange), ""),
		RenderMetric("Confidence", fmt.Sprintf("%.0f%%", a.Confidence*100), ""),
		"",
		mutedStyle.Width(36).Render(a.RecommendationText),
	}
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, lines...)...))
}

func renderFatigueChart(history []models.FatigueAssessment) string {
	if len(history) < 2 {
		return ""
	}
	data := make([]float64, len(history))
	for i, a := range history {
		data[i] = a.OverallScore
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Precision(0),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
	)
	title := cardTitleStyle.Render(fmt.Sprintf("Fatigue score - last %d assessments", len(history)))
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func renderExercises(r *service.Report) string {
	title := cardTitleStyle.Render("Exercises")
	if len(r.Exercises) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No sessions logged"))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-*s  %9s  %9s  %7s  %9s  %12s  %s",
		nameWidth, "Exercise", "e1RM", "Best", "Trend", "Readiness", "Week volume", "Last trained"))
	rows := []string{header}
	for _, e := range r.Exercises {
		est := e.Estimate
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-*s  %6.1f %s  %6.1f %s  %+6.1f%%  %8.0f%%  %9s %s  %s",
			nameWidth, truncateName(e.ExerciseID, nameWidth),
			est.OneRepMax, r.Unit,
			est.BestOneRepMax, r.Unit,
			est.Trend*100,
			est.Readiness*100,
			humanize.Commaf(roundVolume(e.WeeklyVolume)), r.Unit,
			humanize.RelTime(e.LastTrained, r.GeneratedAt, "ago", "from now"),
		)))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func renderDeloads(events []models.DeloadEvent, now time.Time) string {
	title := cardTitleStyle.Render("Deloads")
	if len(events) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "None taken on this plan"))
	}
	rows := make([]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%s  %-15s  %2d days  fatigue %.0f  (%s)  %s",
			e.Date.Format("Jan 02"), e.Type, e.DurationDays, e.FatigueScoreAtTrigger,
			strings.Join(e.ReasonCodes, ", "), mutedStyle.Render(humanize.RelTime(e.Date, now, "ago", "from now")))))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func phaseName(t models.PhaseType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// renderFatigueTrend colors rising fatigue red and falling fatigue green.
func renderFatigueTrend(t models.FatigueTrend) string {
	arrow, style := "→", trendFlatStyle
	switch t {
	case models.TrendWorsening:
		arrow, style = "↑", trendDownStyle
	case models.TrendImproving:
		arrow, style = "↓", trendUpStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		metricLabelStyle.Render("Trend"),
		metricValueStyle.Render(string(t)),
		style.Render(" "+arrow),
	)
}

func roundVolume(v float64) float64 {
	return float64(int64(v + 0.5))
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
