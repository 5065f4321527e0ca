package coach

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andywolf/jarvis/internal/learner"
)

type stubData struct {
	today  []learner.InteractionRecord
	weekly learner.PatternSummary
}

func (s stubData) TodayRecords() []learner.InteractionRecord { return s.today }
func (s stubData) Statistics(int) learner.PatternSummary     { return s.weekly }

type stubExecutor struct {
	gotPrompt string
	gotDir    string
	out       string
	err       error
}

func (s *stubExecutor) Execute(_ context.Context, prompt, workDir string) (string, error) {
	s.gotPrompt = prompt
	s.gotDir = workDir
	return s.out, s.err
}

func rec(hour int, rtype, state string, durationMS int) learner.InteractionRecord {
	return learner.InteractionRecord{Hour: hour, RequestType: rtype, State: state, DurationMS: durationMS}
}

func TestCalculateMetrics_Empty(t *testing.T) {
	m := CalculateMetrics(nil)
	if m.Total != 0 || m.AvgDurationMS != 0 || m.ContextSwitches != 0 {
		t.Errorf("empty metrics not zeroed: %+v", m)
	}
	if m.PeakHour != -1 {
		t.Errorf("peak hour = %d, want -1 for no records", m.PeakHour)
	}
	if m.DebugRatio != 0 {
		t.Errorf("debug ratio = %f, want 0", m.DebugRatio)
	}
}

func TestCalculateMetrics(t *testing.T) {
	records := []learner.InteractionRecord{
		rec(9, "debug", "CODING", 1000),
		rec(9, "feature", "CODING", 3000),
		rec(14, "debug", "BROWSING", 2000),
		rec(14, "question", "CODING", 2000),
		rec(14, "debug", "CODING", 2000),
		rec(16, "", "", 2000),
	}

	m := CalculateMetrics(records)
	if m.Total != 6 {
		t.Errorf("total = %d, want 6", m.Total)
	}
	if m.AvgDurationMS != 2000 {
		t.Errorf("avg duration = %d, want 2000", m.AvgDurationMS)
	}
	// CODING -> BROWSING -> CODING -> UNKNOWN.
	if m.ContextSwitches != 3 {
		t.Errorf("context switches = %d, want 3", m.ContextSwitches)
	}
	if m.DebugRatio != 0.5 {
		t.Errorf("debug ratio = %f, want 0.5", m.DebugRatio)
	}
	if m.PeakHour != 14 {
		t.Errorf("peak hour = %d, want 14", m.PeakHour)
	}
	if m.RequestTypes["admin"] != 1 {
		t.Errorf("empty request type should count as admin: %v", m.RequestTypes)
	}
	if m.States["UNKNOWN"] != 1 {
		t.Errorf("empty state should count as UNKNOWN: %v", m.States)
	}
	if m.HourlyDistribution[14] != 3 {
		t.Errorf("hourly distribution = %v", m.HourlyDistribution)
	}
}

func TestCalculateMetrics_PeakHourTieBreaksEarlier(t *testing.T) {
	records := []learner.InteractionRecord{
		rec(15, "debug", "CODING", 0),
		rec(9, "debug", "CODING", 0),
		rec(15, "debug", "CODING", 0),
		rec(9, "debug", "CODING", 0),
	}
	if m := CalculateMetrics(records); m.PeakHour != 9 {
		t.Errorf("peak hour = %d, want earlier hour 9 on tie", m.PeakHour)
	}
}

func TestBuildPrompt(t *testing.T) {
	data := stubData{
		today: []learner.InteractionRecord{
			rec(9, "debug", "CODING", 1200),
			rec(9, "debug", "CODING", 800),
			rec(14, "feature", "BROWSING", 1000),
			rec(14, "question", "CODING", 1000),
		},
		weekly: learner.PatternSummary{
			Total:        31,
			PeakHours:    []int{14, 9},
			RequestTypes: map[string]int{"feature": 12, "debug": 19},
		},
	}
	c := New(data, nil, "", nil)

	got := c.BuildPrompt(time.Date(2024, time.March, 4, 18, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"[Daily Coach] Write the coaching report for 2024-03-04.",
		"Total requests: 4",
		"Average response time: 1000ms",
		"Context switches: 2",
		"Debugging ratio: 50%",
		"Peak hour: 09:00",
		"Request types: debug: 2, feature: 1, question: 1",
		"Hourly distribution: 09h: 2, 14h: 2",
		"State distribution: BROWSING: 1, CODING: 3",
		"Total requests: 31",
		"Peak hours: 14:00, 09:00",
		"Request type distribution: debug: 19, feature: 12",
		"Productivity score (1-10)",
		"No flattery.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q\n\nprompt:\n%s", want, got)
		}
	}
	if strings.Contains(got, "{{") {
		t.Errorf("prompt has unfilled placeholders:\n%s", got)
	}
}

func TestBuildPrompt_EmptyDay(t *testing.T) {
	c := New(stubData{}, nil, "", nil)
	got := c.BuildPrompt(time.Date(2024, time.March, 4, 18, 0, 0, 0, time.UTC))
	for _, want := range []string{"Total requests: 0", "Peak hour: none", "Request types: none"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateReport(t *testing.T) {
	exec := &stubExecutor{out: "Score: 7/10. Solid debugging day."}
	c := New(stubData{}, exec, "/work", nil)

	report, err := c.GenerateReport(context.Background())
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if report != exec.out {
		t.Errorf("report = %q", report)
	}
	if !strings.Contains(exec.gotPrompt, "[Daily Coach]") {
		t.Errorf("executor prompt = %q", exec.gotPrompt)
	}
	if exec.gotDir != "/work" {
		t.Errorf("work dir = %q", exec.gotDir)
	}
}

func TestGenerateReport_NoExecutorReturnsPrompt(t *testing.T) {
	c := New(stubData{}, nil, "", nil)
	report, err := c.GenerateReport(context.Background())
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if !strings.Contains(report, "[Daily Coach]") {
		t.Errorf("report should be the prompt itself: %q", report)
	}
}

func TestGenerateReport_ExecutorFailure(t *testing.T) {
	c := New(stubData{}, &stubExecutor{err: errors.New("cli not found")}, "", nil)
	if _, err := c.GenerateReport(context.Background()); err == nil {
		t.Fatal("expected error from failing executor")
	}
}
