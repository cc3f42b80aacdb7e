package logging

import (
	"sync"
	"time"

	"github.com/eunmann/superforge/pkg/humanfmt"
	"github.com/rs/zerolog"
)

// ProgressTracker turns (current, total) step reports into percentages and an
// ETA. It is safe for concurrent use.
type ProgressTracker struct {
	mu        sync.Mutex
	current   int
	total     int
	startTime time.Time
	lastStep  time.Time

	// Moving window of per-step durations.
	recent    []time.Duration
	maxRecent int
}

// NewProgressTracker creates a tracker starting now.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		startTime: now,
		lastStep:  now,
		recent:    make([]time.Duration, 0, 8),
		maxRecent: 8,
	}
}

// Update records a progress report. Each forward step contributes the time
// since the previous report to the ETA window.
func (pt *ProgressTracker) Update(current, total int) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	now := time.Now()
	if steps := current - pt.current; steps > 0 {
		per := now.Sub(pt.lastStep) / time.Duration(steps)
		for range steps {
			if len(pt.recent) >= pt.maxRecent {
				pt.recent = pt.recent[1:]
			}
			pt.recent = append(pt.recent, per)
		}
	}
	pt.current = current
	pt.total = total
	pt.lastStep = now
}

// ProgressPct returns the progress percentage (0-100).
func (pt *ProgressTracker) ProgressPct() float64 {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.total <= 0 {
		return 100.0
	}
	return float64(pt.current) * 100.0 / float64(pt.total)
}

// ETA estimates the remaining time from the average of recent steps.
func (pt *ProgressTracker) ETA() time.Duration {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	remaining := pt.total - pt.current
	if remaining <= 0 || len(pt.recent) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range pt.recent {
		sum += d
	}
	return sum / time.Duration(len(pt.recent)) * time.Duration(remaining)
}

// Elapsed returns time since tracking started.
func (pt *ProgressTracker) Elapsed() time.Duration {
	return time.Since(pt.startTime)
}

// CompletionEvent helps build consistent completion log events.
type CompletionEvent struct {
	log     zerolog.Logger
	event   string
	phase   string
	elapsed time.Duration
	fields  map[string]interface{}
}

// NewCompletionEvent creates a new completion event builder.
func NewCompletionEvent(log zerolog.Logger, event, phase string, elapsed time.Duration) *CompletionEvent {
	return &CompletionEvent{
		log:     log,
		event:   event,
		phase:   phase,
		elapsed: elapsed,
		fields:  make(map[string]interface{}),
	}
}

// Str adds a string field.
func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Int adds an int field.
func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Bytes adds byte count with optional human-readable companion.
func (ce *CompletionEvent) Bytes(key string, bytes int64) *CompletionEvent {
	ce.fields[key] = bytes
	if IsPrettyMode() {
		ce.fields[key+"_h"] = humanfmt.Bytes(bytes)
	}
	return ce
}

// Progress adds done/total, the percentage and an optional ETA.
func (ce *CompletionEvent) Progress(done, total int, eta time.Duration) *CompletionEvent {
	ce.fields["done"] = done
	ce.fields["total"] = total
	if total > 0 {
		ce.fields["progress_pct"] = float64(done) * 100.0 / float64(total)
	}
	if eta > 0 {
		ce.fields["eta_ms"] = eta.Milliseconds()
		if IsPrettyMode() {
			ce.fields["eta_h"] = humanfmt.Duration(eta)
		}
	}
	return ce
}

// Log emits the completion event at info level.
func (ce *CompletionEvent) Log(msg string) {
	ce.emit(ce.log.Info(), msg)
}

// LogDebug emits the completion event at debug level.
func (ce *CompletionEvent) LogDebug(msg string) {
	ce.emit(ce.log.Debug(), msg)
}

func (ce *CompletionEvent) emit(e *zerolog.Event, msg string) {
	e = e.Str("event", ce.event).
		Str("phase", ce.phase).
		Int64("duration_ms", ce.elapsed.Milliseconds())

	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(ce.elapsed))
	}

	for k, v := range ce.fields {
		e = e.Interface(k, v)
	}

	e.Msg(msg)
}

// PhaseComplete starts a phase completion event.
func PhaseComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "phase_completed", phase, elapsed)
}

// FileCreated starts a file creation event.
func FileCreated(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "file_created", phase, elapsed)
}
