package ws

import (
	"errors"
	"testing"
	"time"
)

type subscriberStub struct {
	received chan []byte
	sendErr  error
	closed   chan struct{}
}

func newSubscriberStub() *subscriberStub {
	return &subscriberStub{
		received: make(chan []byte, 8),
		closed:   make(chan struct{}, 1),
	}
}

func (s *subscriberStub) Send(payload []byte) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.received <- payload
	return nil
}

func (s *subscriberStub) Close() {
	select {
	case s.closed <- struct{}{}:
	default:
	}
}

func TestHubBroadcastReachesUserClients(t *testing.T) {
	hub := NewHub()
	sub := newSubscriberStub()
	hub.Register("user-1", sub)

	hub.Broadcast("user-1", []byte("event"))

	select {
	case payload := <-sub.received:
		if string(payload) != "event" {
			t.Fatalf("unexpected payload: %q", payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected payload delivery")
	}
}

func TestHubBroadcastIsScopedToUser(t *testing.T) {
	hub := NewHub()
	mine := newSubscriberStub()
	other := newSubscriberStub()
	hub.Register("user-1", mine)
	hub.Register("user-2", other)

	hub.Broadcast("user-1", []byte("event"))

	select {
	case <-mine.received:
	case <-time.After(time.Second):
		t.Fatalf("expected delivery to user-1")
	}
	select {
	case payload := <-other.received:
		t.Fatalf("unexpected delivery to user-2: %q", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsFailingClients(t *testing.T) {
	hub := NewHub()
	failing := newSubscriberStub()
	failing.sendErr = errors.New("gone")
	hub.Register("user-1", failing)

	hub.Broadcast("user-1", []byte("event"))

	select {
	case <-failing.closed:
	case <-time.After(time.Second):
		t.Fatalf("expected failing client to be closed")
	}

	// A second broadcast must not reach the evicted client again.
	failing.sendErr = nil
	hub.Broadcast("user-1", []byte("again"))
	select {
	case payload := <-failing.received:
		t.Fatalf("unexpected delivery after eviction: %q", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	sub := newSubscriberStub()
	hub.Register("user-1", sub)
	hub.Unregister("user-1", sub)

	hub.Broadcast("user-1", []byte("event"))
	select {
	case payload := <-sub.received:
		t.Fatalf("unexpected delivery after unregister: %q", payload)
	case <-time.After(50 * time.Millisecond):
	}
}
