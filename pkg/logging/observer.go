package logging

import (
	"github.com/eunmann/superforge/pkg/assemble"
	"github.com/rs/zerolog"
)

// Observer writes build events to a zerolog logger. Success lines are logged
// at info level with result=success; progress becomes debug events carrying
// a percentage and, once steps have completed, an ETA.
type Observer struct {
	log     zerolog.Logger
	tracker *ProgressTracker
}

var _ assemble.Observer = (*Observer)(nil)

// NewObserver returns an Observer writing to log.
func NewObserver(log zerolog.Logger) *Observer {
	return &Observer{log: log, tracker: NewProgressTracker()}
}

// OnLog implements assemble.Observer.
func (o *Observer) OnLog(level assemble.Level, message string) {
	switch level {
	case assemble.Success:
		o.log.Info().Str("result", "success").Msg(message)
	case assemble.Warning:
		o.log.Warn().Msg(message)
	case assemble.Error:
		o.log.Error().Msg(message)
	default:
		o.log.Info().Msg(message)
	}
}

// OnProgress implements assemble.Observer.
func (o *Observer) OnProgress(current, total int) {
	o.tracker.Update(current, total)

	e := o.log.Debug().
		Str("event", "progress").
		Int("done", current).
		Int("total", total).
		Float64("progress_pct", o.tracker.ProgressPct())
	if eta := o.tracker.ETA(); eta > 0 {
		e = e.Int64("eta_ms", eta.Milliseconds())
	}
	e.Msg("build progress")
}

// Tracker exposes the progress state, e.g. for a final summary.
func (o *Observer) Tracker() *ProgressTracker {
	return o.tracker
}
