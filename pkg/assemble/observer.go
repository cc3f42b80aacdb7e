package assemble

import (
	"fmt"
	"sync"
)

// Level grades a log event sent to an Observer.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Observer receives the build's log lines and progress. It is the whole
// surface a presentation layer sees of a running build.
type Observer interface {
	OnLog(level Level, message string)
	OnProgress(current, total int)
}

// Funcs adapts a pair of functions to Observer. Nil fields are ignored.
type Funcs struct {
	Log      func(level Level, message string)
	Progress func(current, total int)
}

// OnLog implements Observer.
func (f Funcs) OnLog(level Level, message string) {
	if f.Log != nil {
		f.Log(level, message)
	}
}

// OnProgress implements Observer.
func (f Funcs) OnProgress(current, total int) {
	if f.Progress != nil {
		f.Progress(current, total)
	}
}

// Discard drops every event.
var Discard Observer = Funcs{}

// EventKind distinguishes log events from progress events.
type EventKind int

const (
	LogEvent EventKind = iota
	ProgressEvent
)

// Event is one Observer call captured as a value.
type Event struct {
	Kind    EventKind
	Level   Level
	Message string
	Current int
	Total   int
}

// ChannelObserver turns Observer calls into Events on a channel, so a
// separate goroutine owns reporting and the build never touches the
// presenter directly. Sends block when the buffer is full.
type ChannelObserver struct {
	ch   chan Event
	once sync.Once
}

// NewChannelObserver returns a ChannelObserver with the given buffer size.
func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan Event, buffer)}
}

// OnLog implements Observer.
func (c *ChannelObserver) OnLog(level Level, message string) {
	c.ch <- Event{Kind: LogEvent, Level: level, Message: message}
}

// OnProgress implements Observer.
func (c *ChannelObserver) OnProgress(current, total int) {
	c.ch <- Event{Kind: ProgressEvent, Current: current, Total: total}
}

// Events returns the receive side of the channel.
func (c *ChannelObserver) Events() <-chan Event {
	return c.ch
}

// Close ends the event stream. Call it after Build returns.
func (c *ChannelObserver) Close() {
	c.once.Do(func() { close(c.ch) })
}

// Drain replays events onto dst until the channel is closed.
func Drain(events <-chan Event, dst Observer) {
	for ev := range events {
		switch ev.Kind {
		case LogEvent:
			dst.OnLog(ev.Level, ev.Message)
		case ProgressEvent:
			dst.OnProgress(ev.Current, ev.Total)
		}
	}
}
