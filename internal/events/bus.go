package events

import (
	"context"
	"errors"
	"sync"

	"fitserver/internal/domain"
)

// Outcome is the terminal result of a generation job.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Event is the typed notification produced when a job reaches a terminal
// state. Consumers (push transport, award logic, recommendations) subscribe
// explicitly rather than relying on implicit listeners.
type Event struct {
	UserID       string          `json:"user_id"`
	JobID        string          `json:"job_id"`
	Category     domain.Category `json:"category"`
	Outcome      Outcome         `json:"outcome"`
	ArtifactRef  string          `json:"artifact_ref,omitempty"`
	ErrorSummary string          `json:"error_summary,omitempty"`
	Title        string          `json:"title"`
	Body         string          `json:"body"`
	Language     string          `json:"language"`
}

// ErrSlowSubscriber is reported when a subscriber's buffer is full and the
// event was dropped for it.
var ErrSlowSubscriber = errors.New("event dropped for slow subscriber")

// Bus fans terminal-outcome events out to subscribers over buffered
// channels. Publishing never blocks on a slow consumer.
type Bus struct {
	mu     sync.Mutex
	buffer int
	subs   []chan Event
	closed bool
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{buffer: buffer}
}

// Subscribe registers a new consumer channel.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, b.buffer)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers the event to every subscriber. A full subscriber buffer
// drops the event for that subscriber only and surfaces ErrSlowSubscriber.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("event bus closed")
	}
	var dropped bool
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			dropped = true
		}
	}
	if dropped {
		return ErrSlowSubscriber
	}
	return nil
}

// Close stops the bus and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
