package telemetry

import (
	"fmt"
	"strings"
	"sync"
)

// Report is one call recorded by Recorder.
type Report struct {
	Kind   string
	ID     string
	Params []any
}

func (r Report) String() string {
	var out strings.Builder
	out.WriteString(r.Kind)
	out.WriteString(" ")
	out.WriteString(r.ID)
	for _, p := range r.Params {
		out.WriteString(" ")
		out.WriteString(fmt.Sprint(p))
	}
	return out.String()
}

// Recorder is an API that keeps every report in memory, for tests.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func (r *Recorder) add(kind, id string, params []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, ID: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any)  { r.add("broken", id, params) }
func (r *Recorder) ReportWarning(id string, params ...any) { r.add("warning", id, params) }
func (r *Recorder) ReportDebug(msg string, params ...any)  { r.add("debug", msg, params) }
func (r *Recorder) ReportCount(id string, count int64)     { r.add("count", id, []any{count}) }

// Reports returns a copy of everything recorded so far.
func (r *Recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Broken returns the ids passed to ReportBroken.
func (r *Recorder) Broken() []string {
	var ids []string
	for _, report := range r.Reports() {
		if report.Kind == "broken" {
			ids = append(ids, report.ID)
		}
	}
	return ids
}

// Contains reports whether any recorded report renders text.
func (r *Recorder) Contains(text string) bool {
	for _, report := range r.Reports() {
		if strings.Contains(report.String(), text) {
			return true
		}
	}
	return false
}
