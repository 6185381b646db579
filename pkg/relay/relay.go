package relay

import (
	"context"
	"log/slog"
)

// Output is the producer-facing side of the relay.
type Output interface {
	Text(level Level, text string)
	Message(msg Message)
	AuthPrompt(url, code string)
}

// Sink receives the narrowed event set. Implementations must not block for
// long; the relay calls them synchronously from the producer's goroutine.
type Sink interface {
	Text(text string)
	Header(text string)
	Progress(current, total int, label string)
	AuthPrompt(url, code string)
}

// Relay filters messages below a minimum level and forwards the rest to a
// Sink. It is safe for concurrent use if the Sink is.
type Relay struct {
	sink Sink
	min  Level
	log  *slog.Logger
}

// New creates a Relay forwarding to sink every message at or above min.
func New(sink Sink, min Level) *Relay {
	return &Relay{sink: sink, min: min}
}

// WithLogger returns a copy of the relay that also mirrors forwarded text to
// log at debug level.
func (r *Relay) WithLogger(log *slog.Logger) *Relay {
	cp := *r
	cp.log = log
	return &cp
}

// Text forwards a plain text line.
func (r *Relay) Text(level Level, text string) {
	r.Message(Text(level, text))
}

// Message forwards msg according to its kind.
func (r *Relay) Message(msg Message) {
	if !msg.Level.AtLeast(r.min) {
		return
	}

	switch msg.Kind {
	case KindHeader:
		r.sink.Header(msg.Text)
	case KindProgress:
		r.sink.Progress(msg.Current, msg.Total, msg.Text)
	default:
		r.sink.Text(msg.Text)
	}

	if r.log != nil && msg.Kind != KindProgress {
		r.log.LogAttrs(context.Background(), slog.LevelDebug, msg.Text,
			slog.String("kind", string(msg.Kind)),
			slog.String("severity", msg.Level.String()),
		)
	}
}

// AuthPrompt forwards a device-code prompt. Prompts are never filtered: the
// launch cannot continue until the user acts on them.
func (r *Relay) AuthPrompt(url, code string) {
	r.sink.AuthPrompt(url, code)
}

// Discard is an Output that drops everything.
var Discard Output = discard{}

type discard struct{}

func (discard) Text(Level, string)        {}
func (discard) Message(Message)           {}
func (discard) AuthPrompt(string, string) {}

// OrDiscard returns out, or Discard when out is nil.
func OrDiscard(out Output) Output {
	if out == nil {
		return Discard
	}
	return out
}
