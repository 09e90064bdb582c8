// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"errors"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/params"
	"github.com/twinnet/go-twinnet/protocols"
	"github.com/twinnet/go-twinnet/protocols/pairing"
	"github.com/twinnet/go-twinnet/twincode"
)

var (
	// ErrAlreadyBound is returned if a contact that already completed its
	// bind exchange is asked to initiate pairing again.
	ErrAlreadyBound = errors.New("contact already bound")
)

// CreateContact starts phase one of the pairing handshake against a peer's
// scanned outbound twincode. The returned contact holds the peer as a public
// twincode only; the relationship upgrades to a private bind asynchronously
// when the peer answers our pair::invite with a pair::bind.
func (b *Backend) CreateContact(peer *twincode.Twincode, space uuid.UUID) (*Contact, error) {
	b.logger.Info("Creating contact", "peer", peer.Fingerprint())

	profile, err := b.Profile()
	if err != nil {
		return nil, err
	}
	if space == uuid.Nil {
		space = profile.SpaceID
	}
	b.lock.RLock()
	existing, err := b.contactByPeer(peer.ID)
	b.lock.RUnlock()
	if err == nil && existing.Bound() {
		return nil, ErrAlreadyBound
	}
	inbound, outbound, err := b.directory.CreatePair(map[string]string{
		twincode.AttrName: profile.Name,
	})
	if err != nil {
		return nil, err
	}
	contact := &Contact{
		ID:               uuid.New(),
		Name:             peer.Name,
		SpaceID:          space,
		TwincodeInbound:  inbound,
		TwincodeOutbound: outbound,
		PeerPublicID:     peer.ID,
		Peer:             peer,
	}
	b.lock.Lock()
	err = b.storeContact(contact)
	b.lock.Unlock()
	if err != nil {
		return nil, err
	}
	// The draft is persisted, inviting the peer is best effort: a failed
	// send leaves a public-peer contact that can re-invite later.
	if err := b.courier.Send(peer.ID, &pairing.Envelope{Invite: &pairing.Invite{TwincodeOutboundID: outbound.ID}}); err != nil {
		b.logger.Warn("Failed to send pairing invite", "contact", contact.ID, "err", err)
	}
	return contact, nil
}

// PairContact resolves a scanned twincode id through the directory and
// starts the pairing handshake against it.
func (b *Backend) PairContact(scanned uuid.UUID, space uuid.UUID) (*Contact, error) {
	peer, err := b.directory.Lookup(scanned)
	if err != nil {
		return nil, err
	}
	return b.CreateContact(peer.WithTrustMethod(twincode.TrustQRCode), space)
}

// onPairInvite runs phase two of the handshake: a remote peer invited us
// through our profile or through one of our invitations. A fresh contact is
// created around the peer's offered twincode as a private peer and our own
// new outbound twincode is bound back to it.
func (b *Backend) onPairInvite(inv *Invocation, space uuid.UUID, trust twincode.TrustMethod, consume *Invitation) protocols.AckCode {
	peer, err := b.directory.Lookup(inv.Payload.Invite.TwincodeOutboundID)
	if err != nil {
		b.logger.Warn("Offered twincode lookup failed", "twincode", inv.Payload.Invite.TwincodeOutboundID, "err", err)
		return protocols.AckItemNotFound
	}
	peer = peer.WithTrustMethod(trust)

	profile, err := b.Profile()
	if err != nil {
		return protocols.AckItemNotFound
	}
	inbound, outbound, err := b.directory.CreatePair(map[string]string{
		twincode.AttrName: profile.Name,
	})
	if err != nil {
		return protocols.AckItemNotFound
	}
	// Bind back first: nothing is persisted until the full transition can
	// succeed, so a transport failure leaves no partial contact behind.
	if err := b.courier.Send(peer.ID, &pairing.Envelope{Bind: &pairing.Bind{TwincodeOutboundID: outbound.ID}}); err != nil {
		b.logger.Warn("Failed to send pairing bind", "peer", peer.Fingerprint(), "err", err)
		return protocols.AckItemNotFound
	}
	contact := &Contact{
		ID:               uuid.New(),
		Name:             peer.Name,
		SpaceID:          space,
		TwincodeInbound:  inbound,
		TwincodeOutbound: outbound,
		PeerPrivateID:    peer.ID,
		Peer:             peer,
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.storeContact(contact); err != nil {
		return protocols.AckItemNotFound
	}
	if consume != nil {
		if consume.Remaining > 0 {
			consume.Remaining--
		}
		if consume.Remaining == 0 {
			b.dropInvitation(consume)
		} else {
			b.storeInvitation(consume)
		}
	}
	b.logger.Info("Paired with remote peer", "contact", contact.ID, "peer", peer.Fingerprint())
	b.emit(Event{Type: EventCertification, Receiver: contact.ID, Level: contact.Certification()})

	return protocols.AckSuccess
}

// onPairBind completes phase one on the inviting side: the peer answered our
// invite, so its public peer twincode is replaced with the private one
// carried in the bind. From here both sides hold each other's private
// outbound twincode.
func (b *Backend) onPairBind(inv *Invocation, contact *Contact) protocols.AckCode {
	bound := inv.Payload.Bind.TwincodeOutboundID
	if contact.Bound() {
		if contact.PeerPrivateID == bound {
			return protocols.AckSuccess // Duplicate delivery, nothing to redo
		}
		b.assert("bind against an already bound contact", contact, inv)
		return protocols.AckBadRequest
	}
	peer, err := b.directory.Lookup(bound)
	if err != nil {
		b.logger.Warn("Bound twincode lookup failed", "twincode", bound, "err", err)
		return protocols.AckItemNotFound
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if contact.Peer != nil && contact.Peer.ID != peer.ID {
		b.dropPeerIndex(contact.Peer.ID)
	}
	contact.PeerPublicID = uuid.Nil
	contact.PeerPrivateID = peer.ID
	contact.Peer = peer

	if err := b.storeContact(contact); err != nil {
		return protocols.AckItemNotFound
	}
	b.logger.Info("Pairing bind completed", "contact", contact.ID, "peer", peer.Fingerprint())
	b.emit(Event{Type: EventCertification, Receiver: contact.ID, Level: contact.Certification()})

	return protocols.AckSuccess
}

// onPairUnbind applies the remote peer's teardown of the relationship, per
// the configured policy either deleting the contact or keeping the record
// with its peer twincode cleared.
func (b *Backend) onPairUnbind(inv *Invocation, contact *Contact) protocols.AckCode {
	b.logger.Info("Peer unbound pairing", "contact", contact.ID, "policy", b.unbindPolicy)

	b.lock.Lock()
	defer b.lock.Unlock()

	if b.unbindPolicy == params.UnbindPolicyDelete {
		if err := b.deleteContact(contact); err != nil {
			return protocols.AckItemNotFound
		}
		b.emit(Event{Type: EventInvalidated, Receiver: contact.ID})
		return protocols.AckSuccess
	}
	if contact.Peer != nil {
		b.dropPeerIndex(contact.Peer.ID)
	}
	contact.Peer = nil
	contact.PeerPublicID = uuid.Nil
	contact.PeerPrivateID = uuid.Nil

	if err := b.storeContact(contact); err != nil {
		return protocols.AckItemNotFound
	}
	return protocols.AckSuccess
}

// onPairRefresh resynchronizes the peer twincode's attributes without ever
// touching the peer binding state. The carried diff is applied directly;
// an empty diff forces a full re-fetch from the directory.
func (b *Backend) onPairRefresh(inv *Invocation, recv Receiver) protocols.AckCode {
	var peer *twincode.Twincode
	switch recv := recv.(type) {
	case *Contact:
		peer = recv.Peer
	case *Group:
		peer = recv.Peer
	}
	if peer == nil {
		return protocols.AckSuccess // No peer twincode, nothing to drift
	}
	var next *twincode.Twincode
	if attrs := inv.Payload.Refresh.Attributes; len(attrs) > 0 {
		next = peer.Apply(attrs)
	} else {
		fetched, err := b.directory.Lookup(peer.ID)
		if err != nil {
			b.logger.Warn("Peer twincode refresh failed", "twincode", peer.ID, "err", err)
			return protocols.AckItemNotFound
		}
		next = fetched.WithTrustMethod(peer.TrustMethod)
	}
	if diff := next.Diff(peer); len(diff) > 0 {
		b.logger.Info("Peer attributes refreshed", "twincode", peer.ID, "changed", diff)
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	switch recv := recv.(type) {
	case *Contact:
		recv.Peer = next
		if err := b.storeContact(recv); err != nil {
			return protocols.AckItemNotFound
		}
	case *Group:
		// Groups are replaced, not mutated: cached member resolutions
		// tied to the old instance retire through the identity check.
		group := *recv
		group.Peer = next
		if err := b.storeGroup(&group); err != nil {
			return protocols.AckItemNotFound
		}
	}
	return protocols.AckSuccess
}

// onMigrationInvite binds the user's other device into a pending account
// migration, mirroring the contact handshake without creating a contact.
func (b *Backend) onMigrationInvite(inv *Invocation, migration *AccountMigration) protocols.AckCode {
	peer, err := b.directory.Lookup(inv.Payload.Invite.TwincodeOutboundID)
	if err != nil {
		return protocols.AckItemNotFound
	}
	if migration.TwincodeOutbound == nil {
		b.assert("migration lacks an outbound twincode", migration, inv)
		return protocols.AckBadRequest
	}
	if err := b.courier.Send(peer.ID, &pairing.Envelope{Bind: &pairing.Bind{TwincodeOutboundID: migration.TwincodeOutbound.ID}}); err != nil {
		return protocols.AckItemNotFound
	}
	migration.PeerID = peer.ID
	migration.Peer = peer

	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.storeMigration(migration); err != nil {
		return protocols.AckItemNotFound
	}
	b.logger.Info("Migration peer bound", "migration", migration.ID, "peer", peer.Fingerprint())

	return protocols.AckSuccess
}

// onMigrationUnbind deletes a migration record on the other device's say-so.
func (b *Backend) onMigrationUnbind(inv *Invocation, migration *AccountMigration) protocols.AckCode {
	b.logger.Info("Migration unbound", "migration", migration.ID)

	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.dropMigration(migration); err != nil {
		return protocols.AckItemNotFound
	}
	b.emit(Event{Type: EventInvalidated, Receiver: migration.ID})

	return protocols.AckSuccess
}

// onGroupRegistered applies the admin identity and the permission masks a
// group announcement carries.
func (b *Backend) onGroupRegistered(inv *Invocation, group *Group) protocols.AckCode {
	registered := inv.Payload.GroupRegistered

	b.lock.Lock()
	defer b.lock.Unlock()

	next := *group
	next.AdminTwincodeID = registered.AdminTwincodeID
	next.AdminPermissions = registered.AdminPermissions
	next.MemberPermissions = registered.MemberPermissions

	if err := b.storeGroup(&next); err != nil {
		return protocols.AckItemNotFound
	}
	b.logger.Info("Group registered", "group", group.ID, "admin", registered.AdminTwincodeID)

	return protocols.AckSuccess
}

// onGroupSubscribe admits a candidate member through a group-scoped
// invitation.
func (b *Backend) onGroupSubscribe(inv *Invocation, invitation *Invitation) protocols.AckCode {
	if invitation.GroupID == uuid.Nil {
		b.assert("group subscription against a contact invitation", invitation, inv)
		return protocols.AckBadRequest
	}
	candidate, err := b.directory.Lookup(inv.Payload.GroupSubscribe.TwincodeOutboundID)
	if err != nil {
		return protocols.AckItemNotFound
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	group, err := b.loadGroup(invitation.GroupID)
	if err != nil {
		return protocols.AckItemNotFound
	}
	member := &GroupMember{
		ID:          uuid.New(),
		GroupID:     group.ID,
		Peer:        candidate,
		Permissions: group.MemberPermissions,
	}
	if err := b.storeMember(member); err != nil {
		return protocols.AckItemNotFound
	}
	if invitation.Remaining > 0 {
		invitation.Remaining--
	}
	if invitation.Remaining == 0 {
		b.dropInvitation(invitation)
	} else {
		b.storeInvitation(invitation)
	}
	b.logger.Info("Group member subscribed", "group", group.ID, "member", member.ID)

	return protocols.AckSuccess
}

// AnnounceRefresh pushes changed attributes of one of our outbound twincodes
// to the bound peer of a contact, asking it to resynchronize its copy.
func (b *Backend) AnnounceRefresh(contact uuid.UUID, attrs map[string]string) error {
	b.lock.RLock()
	c, err := b.loadContact(contact)
	b.lock.RUnlock()
	if err != nil {
		return err
	}
	if !c.Bound() {
		return ErrContactNotPaired
	}
	return b.courier.Send(c.Peer.ID, &pairing.Envelope{Refresh: &pairing.Refresh{Attributes: attrs}})
}
