package observ

import (
	"fmt"
	"strings"
	"time"
)

// Stage is one timed step of a compilation session, such as a provider build
// or the emission of a function prologue.
type Stage struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	Done  bool
}

// Timer records stages in the order they were started. It is not safe for
// concurrent use; a session is single-threaded.
type Timer struct {
	stages []Stage
	now    func() time.Time
}

// NewTimer creates an empty Timer.
func NewTimer() *Timer { return &Timer{stages: make([]Stage, 0, 16), now: time.Now} }

// Begin starts a stage and returns its index.
func (t *Timer) Begin(name string) int {
	t.stages = append(t.stages, Stage{Name: name, Start: t.now()})
	return len(t.stages) - 1
}

// End finishes the stage at idx. Unknown or finished indexes are ignored.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.stages) || t.stages[idx].Done {
		return
	}
	s := &t.stages[idx]
	s.Dur = t.now().Sub(s.Start)
	s.Note = note
	s.Done = true
}

// Measure runs fn as a stage named name and returns its error. A failed
// stage keeps the error text as its note.
func (t *Timer) Measure(name string, fn func() error) error {
	idx := t.Begin(name)
	err := fn()
	note := ""
	if err != nil {
		note = "error: " + err.Error()
	}
	t.End(idx, note)
	return err
}

// Len returns the number of recorded stages.
func (t *Timer) Len() int { return len(t.stages) }

// StageReport is the serialisable form of a Stage.
type StageReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report summarises a timer. Unfinished stages are reported with zero
// duration.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Stages  []StageReport `json:"stages"`
}

// Report builds a Report. Stages nest (a provider build may trigger others),
// so the total is the wall time from the first start to the last end rather
// than the sum of durations.
func (t *Timer) Report() Report {
	if len(t.stages) == 0 {
		return Report{}
	}
	r := Report{Stages: make([]StageReport, len(t.stages))}
	first := t.stages[0].Start
	var last time.Time
	for i, s := range t.stages {
		r.Stages[i] = StageReport{Name: s.Name, DurationMS: millis(s.Dur), Note: s.Note}
		if end := s.Start.Add(s.Dur); end.After(last) {
			last = end
		}
	}
	if last.After(first) {
		r.TotalMS = millis(last.Sub(first))
	}
	return r
}

// Summary renders the report as an aligned table.
func (t *Timer) Summary() string {
	r := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, s := range r.Stages {
		fmt.Fprintf(&sb, "  %-28s %8.3f ms", s.Name, s.DurationMS)
		if s.Note != "" {
			sb.WriteString("  // " + s.Note)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  %-28s %8.3f ms\n", "total", r.TotalMS)
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
