package events

import (
	"context"
	"errors"
	"testing"

	"fitserver/internal/domain"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus(4)
	first := bus.Subscribe()
	second := bus.Subscribe()

	ev := Event{UserID: "user-1", JobID: "job-1", Category: domain.CategoryWorkout, Outcome: OutcomeCompleted}
	if err := bus.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for i, ch := range []<-chan Event{first, second} {
		select {
		case got := <-ch:
			if got.JobID != "job-1" {
				t.Fatalf("subscriber %d received %+v", i, got)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestPublishDropsForSlowSubscriberOnly(t *testing.T) {
	bus := NewBus(1)
	slow := bus.Subscribe()
	fast := bus.Subscribe()

	if err := bus.Publish(context.Background(), Event{JobID: "a"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	<-fast

	// slow still holds "a"; its buffer is full for the second publish.
	err := bus.Publish(context.Background(), Event{JobID: "b"})
	if !errors.Is(err, ErrSlowSubscriber) {
		t.Fatalf("err = %v, want ErrSlowSubscriber", err)
	}

	if got := <-fast; got.JobID != "b" {
		t.Fatalf("fast subscriber received %q, want b", got.JobID)
	}
	if got := <-slow; got.JobID != "a" {
		t.Fatalf("slow subscriber lost its buffered event")
	}
}

func TestPublishAfterCloseFails(t *testing.T) {
	bus := NewBus(1)
	ch := bus.Subscribe()
	bus.Close()

	if _, ok := <-ch; ok {
		t.Fatalf("subscriber channel not closed")
	}
	if err := bus.Publish(context.Background(), Event{JobID: "a"}); err == nil {
		t.Fatalf("Publish after Close returned nil error")
	}
}

func TestPublishHonorsContext(t *testing.T) {
	bus := NewBus(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bus.Publish(ctx, Event{JobID: "a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
