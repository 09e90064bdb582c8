// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/protocols"
	"github.com/twinnet/go-twinnet/protocols/pairing"
	"github.com/twinnet/go-twinnet/twincode"
)

// Invocation is a store-and-forward protocol message addressed to one of our
// inbound twincodes. Invocations are transient immutable values: created on
// receipt, consumed by the router and acknowledged back to the courier.
type Invocation struct {
	ID         uuid.UUID        // Correlation id the acknowledgment is keyed on
	Inbound    uuid.UUID        // Inbound twincode the message is addressed to
	Payload    pairing.Envelope // The single protocol payload carried
	Background bool             // Delivered while the app was not actively viewing it
}

// Offer is a live incoming connection request against one of our inbound
// twincodes, described by its media flags.
type Offer struct {
	Conn  uuid.UUID // Correlation id of the pending connection
	Audio bool      // Caller wants to establish an audio call
	Video bool      // Caller wants to establish a video call
	Data  bool      // Caller wants a plain data session
}

// Courier is the store-and-forward message transport. Sends are addressed to
// the remote peer's outbound twincode; the network maps that onto the peer's
// paired inbound twincode. Every received invocation must be acknowledged
// exactly once, the remote side retains its queue until then.
type Courier interface {
	// Send queues a protocol message towards a remote twincode.
	Send(dest uuid.UUID, env *pairing.Envelope) error

	// Ack acknowledges a received invocation with the given outcome.
	Ack(inv uuid.UUID, code protocols.AckCode)
}

// Transport is the live connection layer. Once a connection is accepted the
// transport owns its lifecycle; only the admission decision itself happens
// in this subsystem.
type Transport interface {
	// Terminate rejects a pending connection with a reason code.
	Terminate(conn uuid.UUID, reason protocols.Reason)

	// AcceptCall accepts a pending connection as a live audio/video call.
	AcceptCall(conn uuid.UUID, audio, video bool)

	// AcceptData accepts a pending connection as a messaging data session.
	AcceptData(conn uuid.UUID)
}

// Directory is the remote twincode registry. It hands out freshly registered
// identity twincode pairs and resolves twincode ids to their current
// attribute state.
type Directory interface {
	// CreatePair registers a new inbound/outbound twincode pair carrying
	// the given initial attributes on the inbound half.
	CreatePair(attrs map[string]string) (inbound *twincode.Twincode, outbound *twincode.Twincode, err error)

	// Lookup fetches the current state of a twincode by id.
	Lookup(id uuid.UUID) (*twincode.Twincode, error)
}
