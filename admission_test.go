// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/protocols"
	"github.com/twinnet/go-twinnet/twincode"
)

// address assembles a connection address for a backend's domain.
func address(backend *Backend, inbound uuid.UUID, caller uuid.UUID) string {
	addr := inbound.String() + "@" + backend.domain
	if caller != uuid.Nil {
		addr += "/" + caller.String()
	}
	return addr
}

// plantContact stores a handcrafted contact straight into a backend, letting
// tests control the twincode capability and peer shapes precisely.
func plantContact(t *testing.T, backend *Backend, contact *Contact) {
	t.Helper()

	backend.lock.Lock()
	defer backend.lock.Unlock()

	if err := backend.storeContact(contact); err != nil {
		t.Fatalf("failed to store contact: %v", err)
	}
}

// Tests that malformed or foreign addresses are terminated outright.
func TestAdmissionBadAddress(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()
	backend, _, transport := newTestNode(t, exchange, nil)

	tests := []string{
		"",
		"not-an-address",
		"not-a-uuid@" + backend.domain,
		uuid.New().String() + "@elsewhere.example.org",
		uuid.New().String() + "@" + backend.domain + "/not-a-uuid",
	}
	for i, addr := range tests {
		conn := uuid.New()
		backend.DeliverOffer(addr, Offer{Conn: conn, Audio: true})

		reason, ok := transport.reason(conn)
		if !ok {
			t.Errorf("test %d: offer never terminated", i)
			continue
		}
		if reason != protocols.ReasonGeneralError {
			t.Errorf("test %d: reason mismatch: have %s, want %s", i, reason, protocols.ReasonGeneralError)
		}
	}
}

// Tests that an offer against an unresolvable twincode is terminated GONE.
func TestAdmissionUnknownReceiver(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()
	backend, _, transport := newTestNode(t, exchange, nil)

	conn := uuid.New()
	backend.DeliverOffer(address(backend, uuid.New(), uuid.Nil), Offer{Conn: conn, Audio: true})
	backend.tasks.wait()

	reason, ok := transport.reason(conn)
	if !ok {
		t.Fatalf("offer never terminated")
	}
	if reason != protocols.ReasonGone {
		t.Fatalf("reason mismatch: have %s, want %s", reason, protocols.ReasonGone)
	}
}

// Tests the call branch: a visible contact gets the call accepted with an
// incoming-call event, an invisible one is turned away busy with a missed
// call record left behind.
func TestAdmissionCallVisibility(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()
	backend, _, transport := newTestNode(t, exchange, nil)

	space := uuid.New()

	visible := &Contact{
		ID:               uuid.New(),
		SpaceID:          space,
		TwincodeInbound:  &twincode.Twincode{ID: uuid.New(), Signed: true},
		TwincodeOutbound: &twincode.Twincode{ID: uuid.New(), Signed: true},
	}
	plantContact(t, backend, visible)

	conn := uuid.New()
	backend.DeliverOffer(address(backend, visible.TwincodeInbound.ID, uuid.Nil), Offer{Conn: conn, Audio: true})
	backend.tasks.wait()

	flags, ok := transport.call(conn)
	if !ok {
		t.Fatalf("visible call not accepted")
	}
	if flags != [2]bool{true, false} {
		t.Fatalf("call flags mismatch: have %v, want audio only", flags)
	}
	if event := wantEvent(t, backend, EventIncomingCall); event.Receiver != visible.ID {
		t.Fatalf("incoming call receiver mismatch: have %v, want %v", event.Receiver, visible.ID)
	}
	// An invisible contact turns a video call away busy
	invisible := &Contact{
		ID:               uuid.New(),
		SpaceID:          space,
		TwincodeInbound:  &twincode.Twincode{ID: uuid.New(), Capabilities: "!visibility", Signed: true},
		TwincodeOutbound: &twincode.Twincode{ID: uuid.New(), Signed: true},
	}
	plantContact(t, backend, invisible)

	conn = uuid.New()
	backend.DeliverOffer(address(backend, invisible.TwincodeInbound.ID, uuid.Nil), Offer{Conn: conn, Video: true})
	backend.tasks.wait()

	reason, ok := transport.reason(conn)
	if !ok {
		t.Fatalf("invisible call not terminated")
	}
	if reason != protocols.ReasonBusy {
		t.Fatalf("reason mismatch: have %s, want %s", reason, protocols.ReasonBusy)
	}
	if event := wantEvent(t, backend, EventMissedCall); !event.Video {
		t.Fatalf("missed call lost its video variant")
	}
	missed, err := backend.MissedCalls(invisible.ID)
	if err != nil {
		t.Fatalf("failed to list missed calls: %v", err)
	}
	if len(missed) != 1 || !missed[0].Video {
		t.Fatalf("missed call record mismatch: %v", missed)
	}
	if err := backend.ClearMissedCalls(invisible.ID); err != nil {
		t.Fatalf("failed to clear missed calls: %v", err)
	}
	if missed, _ = backend.MissedCalls(invisible.ID); len(missed) != 0 {
		t.Fatalf("missed calls survived clearing: %d", len(missed))
	}
}

// Tests that an availability schedule window gates call visibility against
// the injected clock, including overnight wrapping.
func TestAdmissionCallSchedule(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()

	mock := clock.NewMock()
	backend, _, transport := newTestNode(t, exchange, mock)

	contact := &Contact{
		ID:               uuid.New(),
		SpaceID:          uuid.New(),
		TwincodeInbound:  &twincode.Twincode{ID: uuid.New(), Capabilities: "schedule=09:00-17:00", Signed: true},
		TwincodeOutbound: &twincode.Twincode{ID: uuid.New(), Signed: true},
	}
	plantContact(t, backend, contact)

	overnight := &Contact{
		ID:               uuid.New(),
		SpaceID:          uuid.New(),
		TwincodeInbound:  &twincode.Twincode{ID: uuid.New(), Capabilities: "schedule=22:00-06:00", Signed: true},
		TwincodeOutbound: &twincode.Twincode{ID: uuid.New(), Signed: true},
	}
	plantContact(t, backend, overnight)

	tests := []struct {
		inbound uuid.UUID
		at      time.Time
		accept  bool
	}{
		{contact.TwincodeInbound.ID, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{contact.TwincodeInbound.ID, time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), false},
		{contact.TwincodeInbound.ID, time.Date(2026, 3, 1, 8, 59, 0, 0, time.UTC), false},
		{overnight.TwincodeInbound.ID, time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC), true},
		{overnight.TwincodeInbound.ID, time.Date(2026, 3, 2, 5, 30, 0, 0, time.UTC), true},
		{overnight.TwincodeInbound.ID, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), false},
	}
	for i, tt := range tests {
		mock.Set(tt.at)

		conn := uuid.New()
		backend.DeliverOffer(address(backend, tt.inbound, uuid.Nil), Offer{Conn: conn, Audio: true})
		backend.tasks.wait()

		if _, accepted := transport.call(conn); accepted != tt.accept {
			t.Errorf("test %d: admission mismatch at %v: have %v, want %v", i, tt.at, accepted, tt.accept)
		}
	}
}

// Tests the data branch trust rules: only the bound private peer may open a
// data session towards a contact, anonymous callers only while the peer
// twincode is unsigned.
func TestAdmissionDataTrust(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()
	backend, _, transport := newTestNode(t, exchange, nil)

	peer := &twincode.Twincode{ID: uuid.New(), Signed: true}

	bound := &Contact{
		ID:               uuid.New(),
		SpaceID:          uuid.New(),
		TwincodeInbound:  &twincode.Twincode{ID: uuid.New(), Signed: true},
		TwincodeOutbound: &twincode.Twincode{ID: uuid.New(), Signed: true},
		PeerPrivateID:    peer.ID,
		Peer:             peer,
	}
	plantContact(t, backend, bound)

	tests := []struct {
		caller uuid.UUID
		accept bool
		reason protocols.Reason
	}{
		{peer.ID, true, ""},
		{uuid.New(), false, protocols.ReasonNotAuthorized},
		{uuid.Nil, false, protocols.ReasonNotAuthorized}, // Signed peers reject anonymous callers
	}
	for i, tt := range tests {
		conn := uuid.New()
		backend.DeliverOffer(address(backend, bound.TwincodeInbound.ID, tt.caller), Offer{Conn: conn, Data: true})
		backend.tasks.wait()

		if accepted := transport.accepted(conn); accepted != tt.accept {
			t.Errorf("test %d: admission mismatch: have %v, want %v", i, accepted, tt.accept)
		}
		if !tt.accept {
			if reason, _ := transport.reason(conn); reason != tt.reason {
				t.Errorf("test %d: reason mismatch: have %s, want %s", i, reason, tt.reason)
			}
		}
	}
	// A public-peer contact never accepts data sessions
	scanned := &twincode.Twincode{ID: uuid.New(), Signed: true}

	public := &Contact{
		ID:               uuid.New(),
		SpaceID:          uuid.New(),
		TwincodeInbound:  &twincode.Twincode{ID: uuid.New(), Signed: true},
		TwincodeOutbound: &twincode.Twincode{ID: uuid.New(), Signed: true},
		PeerPublicID:     scanned.ID,
		Peer:             scanned,
	}
	plantContact(t, backend, public)

	conn := uuid.New()
	backend.DeliverOffer(address(backend, public.TwincodeInbound.ID, scanned.ID), Offer{Conn: conn, Data: true})
	backend.tasks.wait()

	if reason, _ := transport.reason(conn); reason != protocols.ReasonNotAuthorized {
		t.Fatalf("public peer data session not rejected: %s", reason)
	}
}

// Tests the admission barrier: a data offer queued right behind a pair::bind
// on the same twincode must observe the bound state, not race past it.
func TestAdmissionBindBarrier(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()

	backend, _, transport := newTestNode(t, exchange, nil)
	_, peerPort, _ := newTestNode(t, exchange, nil)

	// The future private peer twincode must resolve through the directory
	_, peerOutbound, err := peerPort.CreatePair(nil)
	if err != nil {
		t.Fatalf("failed to create peer twincode: %v", err)
	}
	scanned := &twincode.Twincode{ID: uuid.New(), Signed: true}

	contact := &Contact{
		ID:               uuid.New(),
		SpaceID:          uuid.New(),
		TwincodeInbound:  &twincode.Twincode{ID: uuid.New(), Signed: true},
		TwincodeOutbound: &twincode.Twincode{ID: uuid.New(), Signed: true},
		PeerPublicID:     scanned.ID,
		Peer:             scanned,
	}
	plantContact(t, backend, contact)

	// Bind and data offer back to back: the offer must wait out the bind
	replayBind(t, backend, contact.TwincodeInbound.ID, peerOutbound.ID)

	conn := uuid.New()
	backend.DeliverOffer(address(backend, contact.TwincodeInbound.ID, peerOutbound.ID), Offer{Conn: conn, Data: true})
	backend.tasks.wait()

	if !transport.accepted(conn) {
		t.Fatalf("data offer outran the queued bind")
	}
	rebound, err := backend.Contact(contact.ID)
	if err != nil {
		t.Fatalf("failed to reload contact: %v", err)
	}
	if rebound.PeerPrivateID != peerOutbound.ID {
		t.Fatalf("bind never applied: have %v, want %v", rebound.PeerPrivateID, peerOutbound.ID)
	}
}

// Tests that member-addressed group offers resolve through the member index,
// unknown callers are GONE and plain group addresses never take data.
func TestAdmissionGroupMembers(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()
	backend, _, transport := newTestNode(t, exchange, nil)

	profile, err := backend.CreateProfile("alice")
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	group, err := backend.CreateGroup("hiking club", profile.SpaceID)
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
	member := &GroupMember{
		ID:      uuid.New(),
		GroupID: group.ID,
		Peer:    &twincode.Twincode{ID: uuid.New(), Signed: true},
	}
	backend.lock.Lock()
	err = backend.storeMember(member)
	backend.lock.Unlock()
	if err != nil {
		t.Fatalf("failed to store member: %v", err)
	}
	// A known member gets its data session through
	conn := uuid.New()
	backend.DeliverOffer(address(backend, group.TwincodeInbound.ID, member.Peer.ID), Offer{Conn: conn, Data: true})
	backend.tasks.wait()

	if !transport.accepted(conn) {
		t.Fatalf("member data session not accepted")
	}
	// An unknown caller against the group is GONE
	conn = uuid.New()
	backend.DeliverOffer(address(backend, group.TwincodeInbound.ID, uuid.New()), Offer{Conn: conn, Data: true})
	backend.tasks.wait()

	if reason, _ := transport.reason(conn); reason != protocols.ReasonGone {
		t.Fatalf("unknown member reason mismatch: have %s, want %s", reason, protocols.ReasonGone)
	}
	// A bare group address is not a data endpoint
	conn = uuid.New()
	backend.DeliverOffer(address(backend, group.TwincodeInbound.ID, uuid.Nil), Offer{Conn: conn, Data: true})
	backend.tasks.wait()

	if reason, _ := transport.reason(conn); reason != protocols.ReasonNotAuthorized {
		t.Fatalf("bare group reason mismatch: have %s, want %s", reason, protocols.ReasonNotAuthorized)
	}
}

// Tests that migration offers are surfaced to the handover flow and never
// terminated, whatever their media flags.
func TestAdmissionMigration(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()
	backend, _, transport := newTestNode(t, exchange, nil)

	migration, err := backend.CreateAccountMigration()
	if err != nil {
		t.Fatalf("failed to create migration: %v", err)
	}
	conn := uuid.New()
	backend.DeliverOffer(address(backend, migration.TwincodeInbound.ID, uuid.Nil), Offer{Conn: conn, Data: true})
	backend.tasks.wait()

	if _, terminated := transport.reason(conn); terminated {
		t.Fatalf("migration offer terminated")
	}
	if transport.accepted(conn) {
		t.Fatalf("migration offer accepted by admission instead of the handover flow")
	}
	if event := wantEvent(t, backend, EventMigration); event.Receiver != migration.ID {
		t.Fatalf("migration event receiver mismatch: have %v, want %v", event.Receiver, migration.ID)
	}
}

// Tests that a caller addressing our profile is turned away with a one-shot
// re-bind attempt towards its stale pairing.
func TestAdmissionProfileRebind(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()
	backend, _, transport := newTestNode(t, exchange, nil)

	profile, err := backend.CreateProfile("alice")
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	conn := uuid.New()
	backend.DeliverOffer(address(backend, profile.TwincodeInbound.ID, uuid.New()), Offer{Conn: conn, Data: true})
	backend.tasks.wait()

	reason, ok := transport.reason(conn)
	if !ok {
		t.Fatalf("profile offer never terminated")
	}
	if reason != protocols.ReasonGeneralError {
		t.Fatalf("reason mismatch: have %s, want %s", reason, protocols.ReasonGeneralError)
	}
}

// Tests that an offer without any media flag is a protocol error.
func TestAdmissionNoMediaFlags(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()
	backend, _, transport := newTestNode(t, exchange, nil)

	contact := &Contact{
		ID:               uuid.New(),
		SpaceID:          uuid.New(),
		TwincodeInbound:  &twincode.Twincode{ID: uuid.New(), Signed: true},
		TwincodeOutbound: &twincode.Twincode{ID: uuid.New(), Signed: true},
	}
	plantContact(t, backend, contact)

	conn := uuid.New()
	backend.DeliverOffer(address(backend, contact.TwincodeInbound.ID, uuid.Nil), Offer{Conn: conn})
	backend.tasks.wait()

	if reason, _ := transport.reason(conn); reason != protocols.ReasonGeneralError {
		t.Fatalf("reason mismatch: have %s, want %s", reason, protocols.ReasonGeneralError)
	}
}
