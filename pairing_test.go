// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/twincode"
)

// Tests the full two-party pairing handshake: the initiator ends up with a
// private peer after the bind answer and both sides can address each other.
func TestPairingHandshake(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()

	alice, alicePort, _ := newTestNode(t, exchange, nil)
	bob, _, _ := newTestNode(t, exchange, nil)

	if _, err := alice.CreateProfile("alice"); err != nil {
		t.Fatalf("failed to create initiator profile: %v", err)
	}
	bobProfile, err := bob.CreateProfile("bob")
	if err != nil {
		t.Fatalf("failed to create responder profile: %v", err)
	}
	// Alice scans Bob's shared profile twincode and starts phase one
	scanned, err := alicePort.Lookup(bobProfile.TwincodeInbound.ID)
	if err != nil {
		t.Fatalf("failed to look up scanned twincode: %v", err)
	}
	contact, err := alice.CreateContact(scanned, uuid.Nil)
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}
	if contact.Bound() {
		t.Fatalf("phase one contact already bound")
	}
	if contact.PeerPublicID != scanned.ID {
		t.Fatalf("public peer mismatch: have %v, want %v", contact.PeerPublicID, scanned.ID)
	}
	// Bob consumes the invite and answers with a bind, Alice consumes that
	bob.tasks.wait()
	alice.tasks.wait()

	bound, err := alice.Contact(contact.ID)
	if err != nil {
		t.Fatalf("failed to reload contact: %v", err)
	}
	if !bound.Bound() {
		t.Fatalf("contact not bound after handshake")
	}
	if bound.PeerPublicID != uuid.Nil {
		t.Fatalf("public peer survived the bind: %v", bound.PeerPublicID)
	}
	if !bound.Valid() {
		t.Fatalf("bound contact fails its invariants")
	}
	// Bob's side holds a mirrored private-peer contact
	ids, err := bob.Contacts()
	if err != nil {
		t.Fatalf("failed to list responder contacts: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("responder contact count mismatch: have %d, want 1", len(ids))
	}
	mirror, err := bob.Contact(ids[0])
	if err != nil {
		t.Fatalf("failed to load responder contact: %v", err)
	}
	if !mirror.Bound() {
		t.Fatalf("responder contact not bound")
	}
	if mirror.PeerPrivateID != bound.TwincodeOutbound.ID {
		t.Fatalf("cross binding mismatch: have %v, want %v", mirror.PeerPrivateID, bound.TwincodeOutbound.ID)
	}
	if bound.PeerPrivateID != mirror.TwincodeOutbound.ID {
		t.Fatalf("cross binding mismatch: have %v, want %v", bound.PeerPrivateID, mirror.TwincodeOutbound.ID)
	}
	// Signed both sides, no trust grants: plain level one
	if level := bound.Certification(); level != CertLevel1 {
		t.Fatalf("certification mismatch: have %d, want %d", level, CertLevel1)
	}
}

// Tests that pairing through a single-use invitation consumes it, and the
// resulting contact carries the invitation-code trust tier.
func TestPairingThroughInvitation(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()

	alice, alicePort, _ := newTestNode(t, exchange, nil)
	bob, _, _ := newTestNode(t, exchange, nil)

	if _, err := alice.CreateProfile("alice"); err != nil {
		t.Fatalf("failed to create initiator profile: %v", err)
	}
	bobProfile, err := bob.CreateProfile("bob")
	if err != nil {
		t.Fatalf("failed to create responder profile: %v", err)
	}
	invitation, err := bob.CreateInvitation("dinner party", bobProfile.SpaceID, uuid.Nil, 1, time.Time{})
	if err != nil {
		t.Fatalf("failed to create invitation: %v", err)
	}
	scanned, err := alicePort.Lookup(invitation.TwincodeInbound.ID)
	if err != nil {
		t.Fatalf("failed to look up invitation twincode: %v", err)
	}
	if _, err := alice.CreateContact(scanned, uuid.Nil); err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}
	bob.tasks.wait()
	alice.tasks.wait()

	// The single use is burnt, the invitation is gone
	if _, err := bob.Invitation(invitation.ID); err != ErrInvitationNotFound {
		t.Fatalf("consumed invitation error mismatch: have %v, want %v", err, ErrInvitationNotFound)
	}
	ids, err := bob.Contacts()
	if err != nil {
		t.Fatalf("failed to list responder contacts: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("responder contact count mismatch: have %d, want 1", len(ids))
	}
	contact, err := bob.Contact(ids[0])
	if err != nil {
		t.Fatalf("failed to load responder contact: %v", err)
	}
	if contact.Peer.TrustMethod != twincode.TrustInvitationCode {
		t.Fatalf("trust method mismatch: have %q, want %q", contact.Peer.TrustMethod, twincode.TrustInvitationCode)
	}
	if level := contact.Certification(); level != CertLevel2 {
		t.Fatalf("certification mismatch: have %d, want %d", level, CertLevel2)
	}
}

// Tests that a duplicate bind delivery is acknowledged without any state
// change, while a conflicting one is NACKed as a protocol violation.
func TestPairingBindIdempotency(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()

	alice, alicePort, _ := newTestNode(t, exchange, nil)
	bob, _, _ := newTestNode(t, exchange, nil)

	if _, err := alice.CreateProfile("alice"); err != nil {
		t.Fatalf("failed to create initiator profile: %v", err)
	}
	bobProfile, err := bob.CreateProfile("bob")
	if err != nil {
		t.Fatalf("failed to create responder profile: %v", err)
	}
	scanned, err := alicePort.Lookup(bobProfile.TwincodeInbound.ID)
	if err != nil {
		t.Fatalf("failed to look up scanned twincode: %v", err)
	}
	contact, err := alice.CreateContact(scanned, uuid.Nil)
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}
	bob.tasks.wait()
	alice.tasks.wait()

	bound, err := alice.Contact(contact.ID)
	if err != nil {
		t.Fatalf("failed to reload contact: %v", err)
	}
	// Replay the same bind and verify nothing changed
	replayBind(t, alice, bound.TwincodeInbound.ID, bound.PeerPrivateID)
	alice.tasks.wait()

	after, err := alice.Contact(contact.ID)
	if err != nil {
		t.Fatalf("failed to reload contact after replay: %v", err)
	}
	if after.PeerPrivateID != bound.PeerPrivateID {
		t.Fatalf("replayed bind mutated peer: have %v, want %v", after.PeerPrivateID, bound.PeerPrivateID)
	}
	// A bind towards a different twincode on a bound contact is a violation
	replayBind(t, alice, bound.TwincodeInbound.ID, uuid.New())
	alice.tasks.wait()

	if event := wantEvent(t, alice, EventViolation); event.Detail == "" {
		t.Fatalf("violation event carries no detail")
	}
}

// Tests unpairing from our side: the peer is notified and applies its own
// policy, while the local record follows ours.
func TestPairingUnpair(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()

	alice, alicePort, _ := newTestNode(t, exchange, nil)
	bob, _, _ := newTestNode(t, exchange, nil)

	if _, err := alice.CreateProfile("alice"); err != nil {
		t.Fatalf("failed to create initiator profile: %v", err)
	}
	bobProfile, err := bob.CreateProfile("bob")
	if err != nil {
		t.Fatalf("failed to create responder profile: %v", err)
	}
	scanned, err := alicePort.Lookup(bobProfile.TwincodeInbound.ID)
	if err != nil {
		t.Fatalf("failed to look up scanned twincode: %v", err)
	}
	contact, err := alice.CreateContact(scanned, uuid.Nil)
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}
	bob.tasks.wait()
	alice.tasks.wait()

	if err := alice.Unpair(contact.ID); err != nil {
		t.Fatalf("failed to unpair contact: %v", err)
	}
	bob.tasks.wait()

	if _, err := alice.Contact(contact.ID); err != ErrContactNotFound {
		t.Fatalf("unpaired contact error mismatch: have %v, want %v", err, ErrContactNotFound)
	}
	ids, err := bob.Contacts()
	if err != nil {
		t.Fatalf("failed to list responder contacts: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("responder contact survived the unbind: have %d, want 0", len(ids))
	}
}

// Tests the detach unbind policy: the contact record survives a remote
// unbind with its peer twincode cleared out.
func TestPairingUnbindDetach(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()

	alicePort := exchange.Join()
	aliceTransport := newTestTransport()

	alice, err := NewBackend(Config{
		Datadir:      t.TempDir(),
		UnbindPolicy: "detach",
		Transport:    aliceTransport,
		Courier:      alicePort,
		Directory:    alicePort,
	})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	alicePort.Connect(alice)
	defer alice.Close()

	bob, _, _ := newTestNode(t, exchange, nil)

	if _, err := alice.CreateProfile("alice"); err != nil {
		t.Fatalf("failed to create initiator profile: %v", err)
	}
	bobProfile, err := bob.CreateProfile("bob")
	if err != nil {
		t.Fatalf("failed to create responder profile: %v", err)
	}
	scanned, err := alicePort.Lookup(bobProfile.TwincodeInbound.ID)
	if err != nil {
		t.Fatalf("failed to look up scanned twincode: %v", err)
	}
	contact, err := alice.CreateContact(scanned, uuid.Nil)
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}
	bob.tasks.wait()
	alice.tasks.wait()

	// Bob tears the relationship down, Alice only detaches
	ids, err := bob.Contacts()
	if err != nil || len(ids) != 1 {
		t.Fatalf("failed to list responder contacts: %v (%d)", err, len(ids))
	}
	if err := bob.Unpair(ids[0]); err != nil {
		t.Fatalf("failed to unpair contact: %v", err)
	}
	alice.tasks.wait()

	detached, err := alice.Contact(contact.ID)
	if err != nil {
		t.Fatalf("detached contact vanished: %v", err)
	}
	if detached.Peer != nil || detached.PeerPrivateID != uuid.Nil || detached.PeerPublicID != uuid.Nil {
		t.Fatalf("detached contact still holds a peer")
	}
	if !detached.Valid() {
		t.Fatalf("detached contact fails its invariants")
	}
}

// Tests that a pair::refresh resynchronizes the peer twincode's attributes
// without touching the binding state.
func TestPairingRefresh(t *testing.T) {
	t.Parallel()

	exchange := NewMemoryExchange()

	alice, alicePort, _ := newTestNode(t, exchange, nil)
	bob, _, _ := newTestNode(t, exchange, nil)

	if _, err := alice.CreateProfile("alice"); err != nil {
		t.Fatalf("failed to create initiator profile: %v", err)
	}
	bobProfile, err := bob.CreateProfile("bob")
	if err != nil {
		t.Fatalf("failed to create responder profile: %v", err)
	}
	scanned, err := alicePort.Lookup(bobProfile.TwincodeInbound.ID)
	if err != nil {
		t.Fatalf("failed to look up scanned twincode: %v", err)
	}
	contact, err := alice.CreateContact(scanned, uuid.Nil)
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}
	bob.tasks.wait()
	alice.tasks.wait()

	// Bob renames himself and announces the change towards Alice
	ids, err := bob.Contacts()
	if err != nil || len(ids) != 1 {
		t.Fatalf("failed to list responder contacts: %v (%d)", err, len(ids))
	}
	if err := bob.AnnounceRefresh(ids[0], map[string]string{twincode.AttrName: "robert"}); err != nil {
		t.Fatalf("failed to announce refresh: %v", err)
	}
	alice.tasks.wait()

	refreshed, err := alice.Contact(contact.ID)
	if err != nil {
		t.Fatalf("failed to reload contact: %v", err)
	}
	if refreshed.Peer.Name != "robert" {
		t.Fatalf("peer name mismatch: have %q, want %q", refreshed.Peer.Name, "robert")
	}
	if refreshed.PeerPrivateID == uuid.Nil {
		t.Fatalf("refresh disturbed the peer binding")
	}
}
