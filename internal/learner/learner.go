package learner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andywolf/jarvis/internal/persona"
)

// peakHourCount is how many peak hours a summary reports.
const peakHourCount = 4

// Learner records interactions to an append-only JSONL log and answers
// statistics and preemptive-routine queries over it.
type Learner struct {
	patternsDir string
	logPath     string
	logger      *log.Logger
	routines    *Routines

	// mu serializes appends so concurrent writers never interleave lines.
	mu sync.Mutex

	now func() time.Time
}

// New creates a Learner rooted at baseDir. The interactions log and routines
// document live under baseDir/patterns.
func New(baseDir string, logger *log.Logger) (*Learner, error) {
	patternsDir := filepath.Join(baseDir, "patterns")
	if err := os.MkdirAll(patternsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create patterns dir: %w", err)
	}
	return &Learner{
		patternsDir: patternsDir,
		logPath:     filepath.Join(patternsDir, "interactions.jsonl"),
		logger:      logger,
		routines:    OpenRoutines(filepath.Join(patternsDir, "routines.yaml"), logger),
		now:         time.Now,
	}, nil
}

// Close releases the routines watcher.
func (l *Learner) Close() error {
	return l.routines.Close()
}

// LogPath returns the path of the interactions log.
func (l *Learner) LogPath() string {
	return l.logPath
}

// LogInteraction builds a record for one user/assistant exchange and appends
// it to the log. Failures are logged and swallowed: losing one line must not
// crash the engine.
func (l *Learner) LogInteraction(userID int64, prompt, response string, durationMS int, toolsUsed []string, state persona.State) {
	now := l.now()
	stateLabel := "UNKNOWN"
	if state != "" {
		stateLabel = state.String()
	}
	if toolsUsed == nil {
		toolsUsed = []string{}
	}
	l.Record(InteractionRecord{
		Timestamp:      now,
		DayOfWeek:      strings.ToLower(now.Format("Mon")),
		Hour:           now.Hour(),
		UserID:         userID,
		State:          stateLabel,
		RequestType:    ClassifyRequest(prompt),
		PromptLength:   len([]rune(prompt)),
		ResponseLength: len([]rune(response)),
		DurationMS:     durationMS,
		ToolsUsed:      toolsUsed,
	})
}

// Record appends one record as a single JSON line. Failures are logged and
// swallowed.
func (l *Learner) Record(rec InteractionRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		l.logf("failed to marshal interaction record: %v", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		l.logf("failed to open interactions log: %v", err)
		return
	}
	defer f.Close()

	// One Write call per record keeps the line self-contained even with
	// concurrent process writers appending to the same file.
	if _, err := f.Write(append(data, '\n')); err != nil {
		l.logf("failed to append interaction record: %v", err)
	}
}

// Statistics computes a summary over records from the last windowDays days.
// A missing log yields a zero summary, not an error.
func (l *Learner) Statistics(windowDays int) PatternSummary {
	cutoff := l.now().AddDate(0, 0, -windowDays)
	records := l.loadRecords(cutoff)

	summary := PatternSummary{
		HourlyCounts: map[int]int{},
		RequestTypes: map[string]int{},
		PeakHours:    []int{},
		Total:        len(records),
	}
	if len(records) == 0 {
		return summary
	}

	var durationSum, durationCount int
	for _, rec := range records {
		summary.HourlyCounts[rec.Hour]++
		rtype := rec.RequestType
		if rtype == "" {
			rtype = DefaultRequestType
		}
		summary.RequestTypes[rtype]++
		if rec.DurationMS > 0 {
			durationSum += rec.DurationMS
			durationCount++
		}
	}
	if durationCount > 0 {
		summary.AvgDurationMS = durationSum / durationCount
	}
	summary.PeakHours = peakHours(summary.HourlyCounts, peakHourCount)
	return summary
}

// peakHours returns the top-n hours by count, busiest first. Ties are broken
// by the earlier hour.
func peakHours(counts map[int]int, n int) []int {
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > n {
		hours = hours[:n]
	}
	return hours
}

// TodayRecords returns all records since local midnight.
func (l *Learner) TodayRecords() []InteractionRecord {
	now := l.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return l.loadRecords(midnight)
}

// CheckPreemptive reports a learned routine for the current context, or nil.
// Matching is purely textual over the routine pattern; the state argument is
// part of the query surface but routines are keyed by day and hour.
func (l *Learner) CheckPreemptive(_ persona.State, hour int) *Routine {
	dow := strings.ToLower(l.now().Format("Mon"))
	return l.routines.Match(dow, hour)
}

// loadRecords reads all records at or after cutoff, skipping malformed lines.
func (l *Learner) loadRecords(cutoff time.Time) []InteractionRecord {
	f, err := os.Open(l.logPath)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logf("failed to open interactions log: %v", err)
		}
		return nil
	}
	defer f.Close()

	var records []InteractionRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec InteractionRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		l.logf("failed to scan interactions log: %v", err)
	}
	return records
}

func (l *Learner) logf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
	}
}
