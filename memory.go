// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/protocols"
	"github.com/twinnet/go-twinnet/protocols/pairing"
	"github.com/twinnet/go-twinnet/twincode"
)

var (
	// errUnknownTwincode is returned by the in-memory exchange if a twincode
	// id is not registered with it.
	errUnknownTwincode = errors.New("unknown twincode")

	// errUnroutable is returned by the in-memory exchange if a message's
	// destination twincode has no live backend behind it.
	errUnroutable = errors.New("destination not routable")
)

// MemoryExchange is an in-process twincode directory and message courier. It
// wires multiple backends directly to each other, standing in for the remote
// relay infrastructure in tests and the development daemon.
type MemoryExchange struct {
	twincodes map[uuid.UUID]*twincode.Twincode // Registered twincodes by id
	pairs     map[uuid.UUID]uuid.UUID          // Outbound twincode id to its paired inbound
	homes     map[uuid.UUID]*MemoryPort        // Inbound twincode id to the port that created it
	acks      map[uuid.UUID]protocols.AckCode  // Acknowledgements observed, keyed by invocation

	lock sync.Mutex
}

// NewMemoryExchange creates an empty in-process exchange.
func NewMemoryExchange() *MemoryExchange {
	return &MemoryExchange{
		twincodes: make(map[uuid.UUID]*twincode.Twincode),
		pairs:     make(map[uuid.UUID]uuid.UUID),
		homes:     make(map[uuid.UUID]*MemoryPort),
		acks:      make(map[uuid.UUID]protocols.AckCode),
	}
}

// Join attaches a new participant to the exchange, returning the port it
// should use as both its directory and its courier. The backend itself is
// attached afterwards via Connect since it needs the port to get built.
func (x *MemoryExchange) Join() *MemoryPort {
	return &MemoryPort{exchange: x}
}

// SetAttributes overrides attributes on a registered twincode, mimicking a
// remote owner publishing an update.
func (x *MemoryExchange) SetAttributes(id uuid.UUID, attrs map[string]string) error {
	x.lock.Lock()
	defer x.lock.Unlock()

	tc, ok := x.twincodes[id]
	if !ok {
		return errUnknownTwincode
	}
	x.twincodes[id] = tc.Apply(attrs)
	return nil
}

// Ack returns the acknowledgement recorded for an invocation, if any arrived.
func (x *MemoryExchange) Ack(inv uuid.UUID) (protocols.AckCode, bool) {
	x.lock.Lock()
	defer x.lock.Unlock()

	code, ok := x.acks[inv]
	return code, ok
}

// MemoryPort is one participant's handle into a memory exchange, implementing
// the directory and courier collaborator surfaces for a single backend.
type MemoryPort struct {
	exchange *MemoryExchange
	backend  *Backend
}

// Connect attaches the backend owning this port, enabling message delivery
// towards it.
func (p *MemoryPort) Connect(backend *Backend) {
	p.exchange.lock.Lock()
	defer p.exchange.lock.Unlock()

	p.backend = backend
}

// CreatePair registers a fresh inbound/outbound twincode pair on the exchange
// and records this port as the home of the inbound half.
func (p *MemoryPort) CreatePair(attrs map[string]string) (*twincode.Twincode, *twincode.Twincode, error) {
	p.exchange.lock.Lock()
	defer p.exchange.lock.Unlock()

	blank := &twincode.Twincode{ID: uuid.New(), Signed: true}
	inbound := blank.Apply(attrs)

	outbound := &twincode.Twincode{ID: uuid.New(), Signed: true}

	p.exchange.twincodes[inbound.ID] = inbound
	p.exchange.twincodes[outbound.ID] = outbound
	p.exchange.pairs[outbound.ID] = inbound.ID
	p.exchange.homes[inbound.ID] = p

	return inbound, outbound, nil
}

// Lookup fetches the current state of a twincode by id.
func (p *MemoryPort) Lookup(id uuid.UUID) (*twincode.Twincode, error) {
	p.exchange.lock.Lock()
	defer p.exchange.lock.Unlock()

	tc, ok := p.exchange.twincodes[id]
	if !ok {
		return nil, errUnknownTwincode
	}
	return tc.Apply(nil), nil
}

// Send routes a protocol message through the exchange: the destination is the
// remote peer's outbound twincode, which maps to their inbound half and from
// there to their backend.
func (p *MemoryPort) Send(dest uuid.UUID, env *pairing.Envelope) error {
	p.exchange.lock.Lock()
	inbound, ok := p.exchange.pairs[dest]
	if !ok {
		// Sends may name an inbound id directly when the sender already
		// learned the peer's pairing
		if _, live := p.exchange.homes[dest]; live {
			inbound = dest
			ok = true
		}
	}
	var backend *Backend
	if ok {
		if home := p.exchange.homes[inbound]; home != nil {
			backend = home.backend
		}
	}
	p.exchange.lock.Unlock()

	if backend == nil {
		return errUnroutable
	}
	backend.DeliverInvocation(&Invocation{
		ID:      uuid.New(),
		Inbound: inbound,
		Payload: *env,
	})
	return nil
}

// Ack records the acknowledgement of a previously delivered invocation.
func (p *MemoryPort) Ack(inv uuid.UUID, code protocols.AckCode) {
	p.exchange.lock.Lock()
	defer p.exchange.lock.Unlock()

	p.exchange.acks[inv] = code
}
