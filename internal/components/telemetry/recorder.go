package telemetry

import "sync"

type Level int

const (
	LEVEL_DEBUG Level = iota
	LEVEL_WARNING
	LEVEL_BROKEN
	LEVEL_COUNT
)

// Report is a single call made against a Recorder.
type Report struct {
	Level  Level
	Id     string
	Params []any
	Count  int64
}

// Recorder is an API that keeps every report in memory, tests use it to
// assert that a component reported what it was supposed to.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func (r *Recorder) push(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.push(Report{Level: LEVEL_BROKEN, Id: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.push(Report{Level: LEVEL_WARNING, Id: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.push(Report{Level: LEVEL_DEBUG, Id: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.push(Report{Level: LEVEL_COUNT, Id: id, Count: count})
}

// Reports returns the reports of the given level in the order they were made.
func (r *Recorder) Reports(level Level) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Level == level {
			out = append(out, report)
		}
	}
	return out
}
