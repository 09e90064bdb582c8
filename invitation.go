// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/twincode"
)

var (
	// ErrInvitationNotFound is returned if an invitation is attempted to be
	// accessed but it is not found.
	ErrInvitationNotFound = errors.New("invitation not found")
)

// Invitation is a scoped pairing entry point. Remote peers addressing its
// inbound twincode may initiate the pairing handshake, optionally bounded
// by a maximum use count and an expiry deadline. Group-scoped invitations
// admit subscribers into the group instead of creating contacts.
type Invitation struct {
	ID      uuid.UUID `json:"id"`
	Label   string    `json:"label,omitempty"` // Free-form note on what the invitation was shared for
	SpaceID uuid.UUID `json:"spaceId"`

	TwincodeInbound  *twincode.Twincode `json:"twincodeInbound,omitempty"`
	TwincodeOutbound *twincode.Twincode `json:"twincodeOutbound,omitempty"`

	GroupID   uuid.UUID `json:"groupId,omitempty"` // Group the invitation admits into, if group scoped
	Remaining int       `json:"remaining"`         // Uses left, negative means unlimited
	Expires   time.Time `json:"expires,omitempty"` // Deadline after which the invitation is dead, zero means never
}

func (inv *Invitation) Kind() KindSet                { return KindInvitation }
func (inv *Invitation) Inbound() *twincode.Twincode  { return inv.TwincodeInbound }
func (inv *Invitation) Outbound() *twincode.Twincode { return inv.TwincodeOutbound }
func (inv *Invitation) receiver()                    {}

// Usable reports whether the invitation may still admit a peer at the given
// time.
func (inv *Invitation) Usable(now time.Time) bool {
	if inv.Remaining == 0 {
		return false
	}
	return inv.Expires.IsZero() || now.Before(inv.Expires)
}

// CreateInvitation registers a new pairing invitation, backed by a freshly
// created identity twincode pair. A group id scopes the invitation to group
// subscription; uses caps how many peers may pair through it (negative
// meaning unlimited) and a non-zero expiry bounds its lifetime.
func (b *Backend) CreateInvitation(label string, space uuid.UUID, group uuid.UUID, uses int, expires time.Time) (*Invitation, error) {
	b.logger.Info("Creating pairing invitation", "label", label, "uses", uses)

	inbound, outbound, err := b.directory.CreatePair(map[string]string{
		twincode.AttrCapabilities: twincode.KindDefaults(twincode.KindInvitation).Encode(),
	})
	if err != nil {
		return nil, err
	}
	invitation := &Invitation{
		ID:               uuid.New(),
		Label:            label,
		SpaceID:          space,
		TwincodeInbound:  inbound,
		TwincodeOutbound: outbound,
		GroupID:          group,
		Remaining:        uses,
		Expires:          expires,
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.storeInvitation(invitation); err != nil {
		return nil, err
	}
	return invitation, nil
}

// Invitations returns the unique ids of all live invitations.
func (b *Backend) Invitations() ([]uuid.UUID, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.listRecords(dbInvitationPrefix)
}

// Invitation retrieves a single invitation by id.
func (b *Backend) Invitation(id uuid.UUID) (*Invitation, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.loadInvitation(id)
}

// DeleteInvitation withdraws an invitation so no further peers can pair
// through it.
func (b *Backend) DeleteInvitation(id uuid.UUID) error {
	b.logger.Info("Deleting pairing invitation", "invitation", id)

	b.lock.Lock()
	defer b.lock.Unlock()

	invitation, err := b.loadInvitation(id)
	if err != nil {
		return err
	}
	return b.dropInvitation(invitation)
}
