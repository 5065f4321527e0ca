// Package coach turns the interaction log into a daily productivity report.
// It computes the day's metrics, folds in the weekly pattern summary, and
// renders a report prompt that an executor model expands into prose.
package coach

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andywolf/jarvis/internal/executor"
	"github.com/andywolf/jarvis/internal/learner"
	"github.com/andywolf/jarvis/internal/template"
)

// reportTemplate is the coaching prompt skeleton. The executor fills in the
// analysis; the placeholders carry the day's numbers.
const reportTemplate = `[Daily Coach] Write the coaching report for {{date}}.

Today's data:
- Total requests: {{total}}
- Average response time: {{avg_duration_ms}}ms
- Context switches: {{context_switches}}
- Debugging ratio: {{debug_ratio}}
- Peak hour: {{peak_hour}}
- Request types: {{request_types}}
- Hourly distribution: {{hourly_distribution}}
- State distribution: {{states}}

Weekly pattern (7 days):
- Total requests: {{weekly_total}}
- Peak hours: {{weekly_peak_hours}}
- Request type distribution: {{weekly_request_types}}

Write a direct coaching report in this format:
1. Productivity score (1-10)
2. What went well (2-3 bullets)
3. Improvement points (2-3 bullets, with concrete suggestions)
4. This week's trend (pattern analysis)

Direct but constructive. No flattery.`

// Metrics are the productivity figures computed from one day's records.
type Metrics struct {
	// Total is the number of interactions.
	Total int
	// AvgDurationMS is the mean exchange duration.
	AvgDurationMS int
	// ContextSwitches counts activity-state changes between consecutive
	// records.
	ContextSwitches int
	// DebugRatio is the share of debug-type requests, rounded to 2 decimals.
	DebugRatio float64
	// PeakHour is the busiest hour of day, -1 when there are no records.
	PeakHour int
	// RequestTypes maps request category to count.
	RequestTypes map[string]int
	// HourlyDistribution maps hour of day to count.
	HourlyDistribution map[int]int
	// States maps activity state to count.
	States map[string]int
}

// DataSource is the slice of the learner the coach reads from.
type DataSource interface {
	TodayRecords() []learner.InteractionRecord
	Statistics(windowDays int) learner.PatternSummary
}

// Coach generates daily coaching reports.
type Coach struct {
	data   DataSource
	exec   executor.Executor
	dir    string
	logger *log.Logger

	now func() time.Time
}

// New creates a Coach. exec may be nil, in which case GenerateReport returns
// the rendered prompt itself.
func New(data DataSource, exec executor.Executor, workDir string, logger *log.Logger) *Coach {
	return &Coach{
		data:   data,
		exec:   exec,
		dir:    workDir,
		logger: logger,
		now:    time.Now,
	}
}

// CalculateMetrics computes the day's metrics from interaction records.
// Records are expected in log order; context switches are counted between
// consecutive records with differing states.
func CalculateMetrics(records []learner.InteractionRecord) Metrics {
	m := Metrics{
		PeakHour:           -1,
		RequestTypes:       make(map[string]int),
		HourlyDistribution: make(map[int]int),
		States:             make(map[string]int),
	}
	if len(records) == 0 {
		return m
	}

	var durationSum, switches int
	prevState := ""
	for _, rec := range records {
		rtype := rec.RequestType
		if rtype == "" {
			rtype = learner.DefaultRequestType
		}
		m.RequestTypes[rtype]++
		m.HourlyDistribution[rec.Hour]++

		state := rec.State
		if state == "" {
			state = "UNKNOWN"
		}
		m.States[state]++
		if prevState != "" && state != prevState {
			switches++
		}
		prevState = state

		durationSum += rec.DurationMS
	}

	m.Total = len(records)
	m.AvgDurationMS = durationSum / len(records)
	m.ContextSwitches = switches
	m.DebugRatio = math.Round(float64(m.RequestTypes["debug"])/float64(m.Total)*100) / 100

	peakCount := -1
	for hour, count := range m.HourlyDistribution {
		if count > peakCount || (count == peakCount && hour < m.PeakHour) {
			m.PeakHour = hour
			peakCount = count
		}
	}
	return m
}

// BuildPrompt renders the coaching prompt for the given date from today's
// metrics and the 7-day pattern summary.
func (c *Coach) BuildPrompt(date time.Time) string {
	metrics := CalculateMetrics(c.data.TodayRecords())
	weekly := c.data.Statistics(7)

	peak := "none"
	if metrics.PeakHour >= 0 {
		peak = fmt.Sprintf("%02d:00", metrics.PeakHour)
	}

	return template.Render(reportTemplate, map[string]string{
		"date":                 date.Format("2006-01-02"),
		"total":                strconv.Itoa(metrics.Total),
		"avg_duration_ms":      strconv.Itoa(metrics.AvgDurationMS),
		"context_switches":     strconv.Itoa(metrics.ContextSwitches),
		"debug_ratio":          fmt.Sprintf("%.0f%%", metrics.DebugRatio*100),
		"peak_hour":            peak,
		"request_types":        formatStringCounts(metrics.RequestTypes),
		"hourly_distribution":  formatHourCounts(metrics.HourlyDistribution),
		"states":               formatStringCounts(metrics.States),
		"weekly_total":         strconv.Itoa(weekly.Total),
		"weekly_peak_hours":    formatHours(weekly.PeakHours),
		"weekly_request_types": formatStringCounts(weekly.RequestTypes),
	})
}

// GenerateReport builds the prompt for today and runs it through the
// executor. With no executor configured the prompt itself is the report.
func (c *Coach) GenerateReport(ctx context.Context) (string, error) {
	prompt := c.BuildPrompt(c.now())
	if c.exec == nil {
		return prompt, nil
	}
	if c.logger != nil {
		c.logger.Printf("generating daily coach report")
	}
	report, err := c.exec.Execute(ctx, prompt, c.dir)
	if err != nil {
		return "", fmt.Errorf("coach report generation failed: %w", err)
	}
	return report, nil
}

// formatStringCounts renders a count map as "key: n, key: n", keys sorted so
// the prompt is deterministic.
func formatStringCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

// formatHourCounts renders an hour histogram as "09h: n, 14h: n" in hour
// order.
func formatHourCounts(counts map[int]int) string {
	if len(counts) == 0 {
		return "none"
	}
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	parts := make([]string, 0, len(hours))
	for _, h := range hours {
		parts = append(parts, fmt.Sprintf("%02dh: %d", h, counts[h]))
	}
	return strings.Join(parts, ", ")
}

// formatHours renders a list of hours as "09:00, 14:00".
func formatHours(hours []int) string {
	if len(hours) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(hours))
	for _, h := range hours {
		parts = append(parts, fmt.Sprintf("%02d:00", h))
	}
	return strings.Join(parts, ", ")
}
