// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	// dbTwincodePrefix is the database key for the inbound twincode index,
	// mapping a twincode id onto the receiver owning it.
	dbTwincodePrefix = []byte("twincode-")

	// dbPeerPrefix is the database key for the peer twincode index, mapping
	// a remote peer's outbound twincode onto the local contact bound to it.
	dbPeerPrefix = []byte("peer-")

	// dbMemberTwincodePrefix is the database key for the group member index,
	// mapping a member's outbound twincode onto its member record.
	dbMemberTwincodePrefix = []byte("membertc-")

	// dbContactPrefix is the database key for storing a contact's record.
	dbContactPrefix = []byte("contact-")

	// dbGroupPrefix is the database key for storing a group's record.
	dbGroupPrefix = []byte("group-")

	// dbMemberPrefix is the database key for storing a group member record.
	dbMemberPrefix = []byte("member-")

	// dbCallReceiverPrefix is the database key for storing a call receiver.
	dbCallReceiverPrefix = []byte("callrecv-")

	// dbInvitationPrefix is the database key for storing an invitation.
	dbInvitationPrefix = []byte("invitation-")

	// dbMigrationPrefix is the database key for storing a migration record.
	dbMigrationPrefix = []byte("migration-")

	// dbProfileRecPrefix is the database key for storing the profile record.
	dbProfileRecPrefix = []byte("profile-")

	// dbProfileKey is the database key for the singleton local profile id.
	dbProfileKey = []byte("profile")

	// ErrReceiverNotFound is returned if a twincode does not resolve to any
	// local receiver of the requested kinds.
	ErrReceiverNotFound = errors.New("receiver not found")
)

// twincodeIndex is the value stored in the inbound twincode index.
type twincodeIndex struct {
	Kind   KindSet   `json:"kind"`
	Record uuid.UUID `json:"record"`
}

// dbKey assembles a database key from a prefix and a record id.
func dbKey(prefix []byte, id uuid.UUID) []byte {
	return append(append([]byte{}, prefix...), id[:]...)
}

// putJSON marshals a record and stores it under its prefixed id.
func (b *Backend) putJSON(prefix []byte, id uuid.UUID, record interface{}) error {
	blob, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return b.database.Put(dbKey(prefix, id), blob, nil)
}

// getJSON loads and unmarshals a record stored under its prefixed id.
func (b *Backend) getJSON(prefix []byte, id uuid.UUID, record interface{}) error {
	blob, err := b.database.Get(dbKey(prefix, id), nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(blob, record)
}

// listRecords returns the record ids stored under a prefix.
func (b *Backend) listRecords(prefix []byte) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	it := b.database.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	for it.Next() {
		id, err := uuid.FromBytes(it.Key()[len(prefix):])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, it.Error()
}

// indexTwincode records which receiver owns an inbound twincode.
func (b *Backend) indexTwincode(tc uuid.UUID, kind KindSet, record uuid.UUID) error {
	return b.putJSON(dbTwincodePrefix, tc, &twincodeIndex{Kind: kind, Record: record})
}

// unindexTwincode drops an inbound twincode from the resolution index.
func (b *Backend) unindexTwincode(tc uuid.UUID) {
	b.database.Delete(dbKey(dbTwincodePrefix, tc), nil)
}

// resolveReceiver resolves an inbound twincode id to the local receiver
// owning it, restricted to the requested kinds. Contacts failing their
// persistence invariants are torn down on sight and reported as missing.
func (b *Backend) resolveReceiver(tc uuid.UUID, kinds KindSet) (Receiver, error) {
	index := new(twincodeIndex)
	if err := b.getJSON(dbTwincodePrefix, tc, index); err != nil {
		return nil, ErrReceiverNotFound
	}
	if index.Kind&kinds == 0 {
		return nil, ErrReceiverNotFound
	}
	switch index.Kind {
	case KindContact:
		contact, err := b.loadContact(index.Record)
		if err != nil {
			return nil, ErrReceiverNotFound
		}
		if !contact.Valid() {
			b.invalidateContact(contact)
			return nil, ErrReceiverNotFound
		}
		return contact, nil

	case KindGroup:
		group, err := b.loadGroup(index.Record)
		if err != nil {
			return nil, ErrReceiverNotFound
		}
		return group, nil

	case KindCallReceiver:
		receiver := new(CallReceiver)
		if err := b.getJSON(dbCallReceiverPrefix, index.Record, receiver); err != nil {
			return nil, ErrReceiverNotFound
		}
		return receiver, nil

	case KindInvitation:
		invitation, err := b.loadInvitation(index.Record)
		if err != nil {
			return nil, ErrReceiverNotFound
		}
		if !invitation.Usable(b.clock.Now()) {
			// A dead invitation is indistinguishable from a missing one
			// for remote peers, they only learn it stopped resolving.
			b.dropInvitation(invitation)
			return nil, ErrReceiverNotFound
		}
		return invitation, nil

	case KindProfile:
		profile, err := b.loadProfile()
		if err != nil || profile.ID != index.Record {
			return nil, ErrReceiverNotFound
		}
		return profile, nil

	case KindAccountMigration:
		migration := new(AccountMigration)
		if err := b.getJSON(dbMigrationPrefix, index.Record, migration); err != nil {
			return nil, ErrReceiverNotFound
		}
		return migration, nil
	}
	return nil, ErrReceiverNotFound
}

// storeContact persists a contact and maintains the inbound and peer
// twincode indexes.
func (b *Backend) storeContact(contact *Contact) error {
	if err := b.putJSON(dbContactPrefix, contact.ID, contact); err != nil {
		return err
	}
	if contact.TwincodeInbound != nil {
		if err := b.indexTwincode(contact.TwincodeInbound.ID, KindContact, contact.ID); err != nil {
			return err
		}
	}
	if contact.Peer != nil {
		return b.putJSON(dbPeerPrefix, contact.Peer.ID, contact.ID)
	}
	return nil
}

// loadContact retrieves a contact record by id.
func (b *Backend) loadContact(id uuid.UUID) (*Contact, error) {
	contact := new(Contact)
	if err := b.getJSON(dbContactPrefix, id, contact); err != nil {
		return nil, ErrContactNotFound
	}
	return contact, nil
}

// contactByPeer retrieves the contact bound to a remote peer's outbound
// twincode, used when a stale remote pairing needs re-binding.
func (b *Backend) contactByPeer(peer uuid.UUID) (*Contact, error) {
	var id uuid.UUID
	if err := b.getJSON(dbPeerPrefix, peer, &id); err != nil {
		return nil, ErrContactNotFound
	}
	return b.loadContact(id)
}

// dropPeerIndex removes a peer twincode from the contact lookup index.
func (b *Backend) dropPeerIndex(peer uuid.UUID) {
	b.database.Delete(dbKey(dbPeerPrefix, peer), nil)
}

// deleteContact removes a contact and all its index entries.
func (b *Backend) deleteContact(contact *Contact) error {
	if contact.TwincodeInbound != nil {
		b.unindexTwincode(contact.TwincodeInbound.ID)
	}
	if contact.Peer != nil {
		b.dropPeerIndex(contact.Peer.ID)
	}
	return b.database.Delete(dbKey(dbContactPrefix, contact.ID), nil)
}

// invalidateContact tears down a contact that no longer holds its
// persistence invariants and fans the loss out to the event stream.
func (b *Backend) invalidateContact(contact *Contact) {
	b.logger.Warn("Invalidating inconsistent contact", "contact", contact.ID)
	if err := b.deleteContact(contact); err != nil {
		b.logger.Error("Failed to delete invalid contact", "contact", contact.ID, "err", err)
	}
	b.emit(Event{Type: EventInvalidated, Receiver: contact.ID})
}

// storeGroup persists a group, maintains its inbound index and replaces the
// cached resolution instance. Mutations must come in as fresh Group values:
// the previous instance stays untouched so member cache entries tied to it
// die off through the identity check.
func (b *Backend) storeGroup(group *Group) error {
	if err := b.putJSON(dbGroupPrefix, group.ID, group); err != nil {
		return err
	}
	if group.TwincodeInbound != nil {
		if err := b.indexTwincode(group.TwincodeInbound.ID, KindGroup, group.ID); err != nil {
			return err
		}
	}
	b.groups.replace(group)
	return nil
}

// loadGroup retrieves a group by id, preferring the cached instance so that
// repeated resolutions observe the same object identity.
func (b *Backend) loadGroup(id uuid.UUID) (*Group, error) {
	if group := b.groups.get(id); group != nil {
		return group, nil
	}
	group := new(Group)
	if err := b.getJSON(dbGroupPrefix, id, group); err != nil {
		return nil, ErrGroupNotFound
	}
	b.groups.replace(group)
	return group, nil
}

// storeMember persists a group member record and indexes its outbound
// twincode for caller resolution.
func (b *Backend) storeMember(member *GroupMember) error {
	if err := b.putJSON(dbMemberPrefix, member.ID, member); err != nil {
		return err
	}
	if member.Peer != nil {
		return b.putJSON(dbMemberTwincodePrefix, member.Peer.ID, member.ID)
	}
	return nil
}

// memberByTwincode resolves a caller twincode to the group member record it
// belongs to, bound to the given owning group instance.
func (b *Backend) memberByTwincode(group *Group, tc uuid.UUID) (*GroupMember, error) {
	if member := b.members.lookup(group, tc); member != nil {
		return member, nil
	}
	var id uuid.UUID
	if err := b.getJSON(dbMemberTwincodePrefix, tc, &id); err != nil {
		return nil, ErrReceiverNotFound
	}
	member := new(GroupMember)
	if err := b.getJSON(dbMemberPrefix, id, member); err != nil {
		return nil, ErrReceiverNotFound
	}
	if member.GroupID != group.ID {
		return nil, ErrReceiverNotFound
	}
	member.group = group
	b.members.store(tc, member)

	return member, nil
}

// storeCallReceiver persists a call receiver and indexes its inbound
// twincode.
func (b *Backend) storeCallReceiver(receiver *CallReceiver) error {
	if err := b.putJSON(dbCallReceiverPrefix, receiver.ID, receiver); err != nil {
		return err
	}
	if receiver.TwincodeInbound != nil {
		return b.indexTwincode(receiver.TwincodeInbound.ID, KindCallReceiver, receiver.ID)
	}
	return nil
}

// storeInvitation persists an invitation and indexes its inbound twincode.
func (b *Backend) storeInvitation(invitation *Invitation) error {
	if err := b.putJSON(dbInvitationPrefix, invitation.ID, invitation); err != nil {
		return err
	}
	if invitation.TwincodeInbound != nil {
		return b.indexTwincode(invitation.TwincodeInbound.ID, KindInvitation, invitation.ID)
	}
	return nil
}

// loadInvitation retrieves an invitation by id.
func (b *Backend) loadInvitation(id uuid.UUID) (*Invitation, error) {
	invitation := new(Invitation)
	if err := b.getJSON(dbInvitationPrefix, id, invitation); err != nil {
		return nil, ErrInvitationNotFound
	}
	return invitation, nil
}

// dropInvitation removes an invitation and its index entry.
func (b *Backend) dropInvitation(invitation *Invitation) error {
	if invitation.TwincodeInbound != nil {
		b.unindexTwincode(invitation.TwincodeInbound.ID)
	}
	return b.database.Delete(dbKey(dbInvitationPrefix, invitation.ID), nil)
}

// storeMigration persists a migration record and indexes its inbound
// twincode.
func (b *Backend) storeMigration(migration *AccountMigration) error {
	if err := b.putJSON(dbMigrationPrefix, migration.ID, migration); err != nil {
		return err
	}
	if migration.TwincodeInbound != nil {
		return b.indexTwincode(migration.TwincodeInbound.ID, KindAccountMigration, migration.ID)
	}
	return nil
}

// dropMigration removes a migration record and its index entry.
func (b *Backend) dropMigration(migration *AccountMigration) error {
	if migration.TwincodeInbound != nil {
		b.unindexTwincode(migration.TwincodeInbound.ID)
	}
	return b.database.Delete(dbKey(dbMigrationPrefix, migration.ID), nil)
}

// storeProfile persists the singleton local profile and its indexes.
func (b *Backend) storeProfile(profile *Profile) error {
	if err := b.putJSON(dbProfileRecPrefix, profile.ID, profile); err != nil {
		return err
	}
	blob, err := json.Marshal(profile.ID)
	if err != nil {
		return err
	}
	if err := b.database.Put(dbProfileKey, blob, nil); err != nil {
		return err
	}
	if profile.TwincodeInbound != nil {
		return b.indexTwincode(profile.TwincodeInbound.ID, KindProfile, profile.ID)
	}
	return nil
}

// loadProfile retrieves the singleton local profile.
func (b *Backend) loadProfile() (*Profile, error) {
	blob, err := b.database.Get(dbProfileKey, nil)
	if err != nil {
		return nil, ErrProfileNotFound
	}
	var id uuid.UUID
	if err := json.Unmarshal(blob, &id); err != nil {
		return nil, err
	}
	profile := new(Profile)
	if err := b.getJSON(dbProfileRecPrefix, id, profile); err != nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}
