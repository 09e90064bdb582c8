// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/protocols"
	"github.com/twinnet/go-twinnet/protocols/pairing"
)

// testTransport records every admission decision handed to the live
// connection layer so tests can assert the fate of each offer.
type testTransport struct {
	terminated map[uuid.UUID]protocols.Reason
	calls      map[uuid.UUID][2]bool
	data       map[uuid.UUID]bool

	lock sync.Mutex
}

func newTestTransport() *testTransport {
	return &testTransport{
		terminated: make(map[uuid.UUID]protocols.Reason),
		calls:      make(map[uuid.UUID][2]bool),
		data:       make(map[uuid.UUID]bool),
	}
}

func (t *testTransport) Terminate(conn uuid.UUID, reason protocols.Reason) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.terminated[conn] = reason
}

func (t *testTransport) AcceptCall(conn uuid.UUID, audio, video bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.calls[conn] = [2]bool{audio, video}
}

func (t *testTransport) AcceptData(conn uuid.UUID) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.data[conn] = true
}

// reason returns the termination reason recorded for a connection, if any.
func (t *testTransport) reason(conn uuid.UUID) (protocols.Reason, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	reason, ok := t.terminated[conn]
	return reason, ok
}

// call returns the accepted call flags recorded for a connection, if any.
func (t *testTransport) call(conn uuid.UUID) ([2]bool, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	flags, ok := t.calls[conn]
	return flags, ok
}

// accepted reports whether a connection was accepted as a data session.
func (t *testTransport) accepted(conn uuid.UUID) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.data[conn]
}

// newTestNode assembles a backend wired into the given in-process exchange,
// persisting into a throwaway directory. A nil clock means the wall clock.
func newTestNode(t *testing.T, exchange *MemoryExchange, clk clock.Clock) (*Backend, *MemoryPort, *testTransport) {
	t.Helper()

	port := exchange.Join()
	transport := newTestTransport()

	backend, err := NewBackend(Config{
		Datadir:   t.TempDir(),
		Transport: transport,
		Courier:   port,
		Directory: port,
		Clock:     clk,
	})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	port.Connect(backend)

	t.Cleanup(func() { backend.Close() })

	return backend, port, transport
}

// replayBind injects a raw pair::bind invocation against an inbound
// twincode, mimicking a duplicated or forged network delivery.
func replayBind(t *testing.T, backend *Backend, inbound, peer uuid.UUID) {
	t.Helper()

	backend.DeliverInvocation(&Invocation{
		ID:      uuid.New(),
		Inbound: inbound,
		Payload: pairing.Envelope{Bind: &pairing.Bind{TwincodeOutboundID: peer}},
	})
}

// drainEvent waits for the next event off a backend's notification stream.
func drainEvent(t *testing.T, backend *Backend) Event {
	t.Helper()

	select {
	case event := <-backend.Events():
		return event
	case <-time.After(time.Second):
		t.Fatalf("no event arrived")
	}
	return Event{}
}

// wantEvent drains events until one of the wanted type arrives, failing the
// test if the stream dries up first.
func wantEvent(t *testing.T, backend *Backend, kind EventType) Event {
	t.Helper()

	for {
		select {
		case event := <-backend.Events():
			if event.Type == kind {
				return event
			}
		case <-time.After(time.Second):
			t.Fatalf("no %s event arrived", kind)
		}
	}
}
