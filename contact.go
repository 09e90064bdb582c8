// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/twincode"
)

// CertLevel is the derived trust tier of a contact relationship, computed
// from signature and mutual trust-flag state.
type CertLevel int

const (
	// CertLevel0 means at least one side's twincode is unsigned.
	CertLevel0 CertLevel = iota

	// CertLevel1 means both sides are signed but neither trusts the other.
	CertLevel1

	// CertLevel2 means one side marked the other trusted, or the peer
	// twincode arrived through an invitation code.
	CertLevel2

	// CertLevel3 means one side marked the other trusted and the peer
	// twincode also arrived through an invitation code.
	CertLevel3

	// CertLevel4 means both sides mark each other trusted.
	CertLevel4
)

// Contact is a bidirectional relationship with a remote peer. It owns an
// identity twincode pair (how we are addressed, how we present ourselves)
// and tracks the peer's outbound twincode in one of three consistent shapes:
// no peer at all, a public peer obtained by scanning the remote side's
// shared code, or a private peer obtained through a completed bind exchange.
type Contact struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name,omitempty"` // Local override of the peer's display name
	SpaceID uuid.UUID `json:"spaceId"`        // The single space owning the contact

	TwincodeInbound  *twincode.Twincode `json:"twincodeInbound,omitempty"`
	TwincodeOutbound *twincode.Twincode `json:"twincodeOutbound,omitempty"`

	PeerPublicID  uuid.UUID          `json:"peerPublicId,omitempty"`  // Peer twincode id known from a public scan
	PeerPrivateID uuid.UUID          `json:"peerPrivateId,omitempty"` // Peer twincode id obtained through our bind exchange
	Peer          *twincode.Twincode `json:"peer,omitempty"`          // The peer's outbound twincode as known to us
}

func (c *Contact) Kind() KindSet                { return KindContact }
func (c *Contact) Inbound() *twincode.Twincode  { return c.TwincodeInbound }
func (c *Contact) Outbound() *twincode.Twincode { return c.TwincodeOutbound }
func (c *Contact) receiver()                    {}

// Valid reports whether the contact may remain persisted: it needs its full
// identity twincode pair, exactly one owning space and a consistent peer
// twincode shape. Invalid contacts are detected by the store and torn down.
func (c *Contact) Valid() bool {
	if (c.TwincodeInbound == nil) != (c.TwincodeOutbound == nil) {
		return false
	}
	if c.TwincodeInbound == nil || c.SpaceID == uuid.Nil {
		return false
	}
	switch {
	case c.PeerPublicID == uuid.Nil && c.PeerPrivateID == uuid.Nil:
		return c.Peer == nil
	case c.PeerPrivateID != uuid.Nil:
		return c.PeerPublicID == uuid.Nil && c.Peer != nil && c.Peer.ID == c.PeerPrivateID
	default:
		return c.Peer != nil && c.Peer.ID == c.PeerPublicID
	}
}

// Bound reports whether the contact completed a private bind exchange with
// its peer.
func (c *Contact) Bound() bool {
	return c.PeerPrivateID != uuid.Nil
}

// AcceptsData decides whether a data session from the given caller twincode
// may be admitted on this contact. A private peer twincode must be bound,
// and a present caller id must match it; an absent caller id is only let
// through while the peer twincode is unsigned, rejecting spoofed callers
// on signed relationships.
func (c *Contact) AcceptsData(caller uuid.UUID) bool {
	if c.PeerPrivateID == uuid.Nil || c.Peer == nil {
		return false
	}
	if caller == uuid.Nil {
		return !c.Peer.Signed
	}
	return caller == c.Peer.ID
}

// Certification derives the trust tier of the relationship. The signature
// check gates everything: an unsigned twincode on either side pins the
// level to zero no matter what the trust flags claim.
func (c *Contact) Certification() CertLevel {
	local, peer := c.TwincodeOutbound, c.Peer
	if local == nil || peer == nil || !local.Signed || !peer.Signed {
		return CertLevel0
	}
	var (
		peerTrusts = peer.Caps().Trusted == local.ID.String()
		weTrust    = local.Caps().Trusted == peer.ID.String()
		invited    = peer.TrustMethod == twincode.TrustInvitationCode
	)
	switch {
	case peerTrusts && weTrust:
		return CertLevel4
	case (peerTrusts || weTrust) && invited:
		return CertLevel3
	case peerTrusts || weTrust || invited:
		return CertLevel2
	}
	return CertLevel1
}
