// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"github.com/google/uuid"
)

// EventType classifies the notifications the backend fans out to whoever
// renders them. The backend never blocks on subscriber behavior: events are
// buffered and the oldest unconsumed ones get dropped under pressure.
type EventType string

const (
	// EventIncomingCall signals a live call accepted on a visible receiver.
	EventIncomingCall EventType = "incoming-call"

	// EventMissedCall signals a call rejected because the receiver was not
	// visible; a matching record was persisted to the missed call log.
	EventMissedCall EventType = "missed-call"

	// EventMigration signals a live connection against a pending account
	// migration, to be picked up by the device handover flow.
	EventMigration EventType = "incoming-migration"

	// EventInvalidated signals that a persisted object failed its
	// invariants and was torn down.
	EventInvalidated EventType = "object-invalidated"

	// EventCertification signals that a contact's derived trust tier
	// changed after a pairing transition.
	EventCertification EventType = "certification-changed"

	// EventViolation is the assertion channel: a protocol violation was
	// detected, NACKed and needs no user attention beyond diagnostics.
	EventViolation EventType = "protocol-violation"
)

// Event is a single fire-and-forget notification out of the backend.
type Event struct {
	Type     EventType // What happened
	Conn     uuid.UUID // Connection correlation id for live session events
	Receiver uuid.UUID // Record id of the local receiver involved
	Video    bool      // Missed call variant, video versus audio
	Level    CertLevel // New trust tier for certification events
	Detail   string    // Diagnostic detail for violation events
}

// Events returns the channel the backend publishes its notifications on.
func (b *Backend) Events() <-chan Event {
	return b.events
}

// emit publishes an event without ever blocking the protocol path. When the
// subscriber lags too far behind, the oldest buffered event makes room.
func (b *Backend) emit(event Event) {
	for {
		select {
		case b.events <- event:
			return
		default:
		}
		select {
		case stale := <-b.events:
			b.logger.Warn("Event queue full, dropping stale event", "type", stale.Type)
		default:
		}
	}
}
