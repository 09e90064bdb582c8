// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"errors"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/params"
	"github.com/twinnet/go-twinnet/protocols/pairing"
)

var (
	// ErrContactNotFound is returned if a contact is attempted to be accessed
	// but it is not found.
	ErrContactNotFound = errors.New("contact not found")

	// ErrContactNotPaired is returned if an operation needs a completed bind
	// exchange but the contact only holds a public peer, or none at all.
	ErrContactNotPaired = errors.New("contact not paired")

	// ErrGroupNotFound is returned if a group is attempted to be accessed
	// but it is not found.
	ErrGroupNotFound = errors.New("group not found")
)

// Contacts returns the unique ids of all current contacts.
func (b *Backend) Contacts() ([]uuid.UUID, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.listRecords(dbContactPrefix)
}

// Contact retrieves a contact by id.
func (b *Backend) Contact(id uuid.UUID) (*Contact, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.loadContact(id)
}

// UpdateContact overrides the local display name of a contact.
func (b *Backend) UpdateContact(id uuid.UUID, name string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	contact, err := b.loadContact(id)
	if err != nil {
		return err
	}
	if contact.Name == name {
		return nil
	}
	contact.Name = name
	return b.storeContact(contact)
}

// Unpair tears a relationship down from our side: the peer is notified with
// a pair::unbind and the local record follows the configured unbind policy.
func (b *Backend) Unpair(id uuid.UUID) error {
	b.logger.Info("Unpairing contact", "contact", id, "policy", b.unbindPolicy)

	b.lock.Lock()
	contact, err := b.loadContact(id)
	b.lock.Unlock()
	if err != nil {
		return err
	}
	// Best effort notification, a vanished peer should not keep the local
	// record alive
	if contact.Peer != nil {
		if err := b.courier.Send(contact.Peer.ID, &pairing.Envelope{Unbind: &pairing.Unbind{}}); err != nil {
			b.logger.Warn("Failed to notify peer of unbind", "contact", id, "err", err)
		}
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.unbindPolicy == params.UnbindPolicyDelete {
		if err := b.deleteContact(contact); err != nil {
			return err
		}
		b.emit(Event{Type: EventInvalidated, Receiver: contact.ID})
		return nil
	}
	if contact.Peer != nil {
		b.dropPeerIndex(contact.Peer.ID)
	}
	contact.Peer = nil
	contact.PeerPublicID = uuid.Nil
	contact.PeerPrivateID = uuid.Nil

	return b.storeContact(contact)
}

// Groups returns the unique ids of all current groups.
func (b *Backend) Groups() ([]uuid.UUID, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.listRecords(dbGroupPrefix)
}

// Group retrieves a group by id.
func (b *Backend) Group(id uuid.UUID) (*Group, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.loadGroup(id)
}
