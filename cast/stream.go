package cast

import (
	"io"
	"iter"
)

// Body is the streaming form of string and blob values, read the way an SDK
// streaming response body is.
type Body struct {
	data   []byte
	cursor int
	text   bool
}

// NewBody wraps data. Text marks bodies cast from string shapes.
func NewBody(data []byte, text bool) *Body {
	return &Body{data: data, text: text}
}

// Read implements io.Reader.
func (b *Body) Read(p []byte) (int, error) {
	if b.cursor >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.cursor:])
	b.cursor += n
	return n, nil
}

// ReadAmount returns the next n bytes, or everything left when n is
// negative. An exhausted body returns an empty slice.
func (b *Body) ReadAmount(n int) []byte {
	end := len(b.data)
	if n >= 0 && b.cursor+n < end {
		end = b.cursor + n
	}
	out := b.data[b.cursor:end]
	b.cursor = end
	return out
}

// Len returns the total size of the body regardless of what has been read.
func (b *Body) Len() int { return len(b.data) }

// Text reports whether the body was cast from a string shape.
func (b *Body) Text() bool { return b.text }

// Close is a no-op.
func (b *Body) Close() error { return nil }

// EventStream is a finite, single-pass sequence of events, standing in for
// responses that arrive as a stream of records.
type EventStream struct {
	events []any
	next   int
}

// NewEventStream wraps events that have already been cast.
func NewEventStream(events []any) *EventStream {
	return &EventStream{events: events}
}

// Next returns the next event. The second result is false once the stream
// is exhausted.
func (s *EventStream) Next() (any, bool) {
	if s.next >= len(s.events) {
		return nil, false
	}
	event := s.events[s.next]
	s.next++
	return event, true
}

// All yields the events not yet consumed. Events yielded are consumed.
func (s *EventStream) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		for {
			event, ok := s.Next()
			if !ok || !yield(event) {
				return
			}
		}
	}
}
