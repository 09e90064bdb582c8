// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

// Package pairing defines the pairing and group protocol messages carried
// by store-and-forward invocations between twincodes.
package pairing

import (
	"github.com/google/uuid"
)

// Action identifiers of the attribute protocol, stable across versions.
const (
	ActionInvite          = "pair::invite"
	ActionBind            = "pair::bind"
	ActionUnbind          = "pair::unbind"
	ActionRefresh         = "pair::refresh"
	ActionGroupRegistered = "group::registered"
	ActionGroupSubscribe  = "group::subscribe"
)

// Envelope is an envelope containing all possible payloads received through
// the pairing and group wire protocols. Exactly one field is non-nil.
type Envelope struct {
	Invite          *Invite
	Bind            *Bind
	Unbind          *Unbind
	Refresh         *Refresh
	GroupRegistered *GroupRegistered
	GroupSubscribe  *GroupSubscribe
}

// Action derives the wire action identifier from the populated payload.
func (env *Envelope) Action() string {
	switch {
	case env.Invite != nil:
		return ActionInvite
	case env.Bind != nil:
		return ActionBind
	case env.Unbind != nil:
		return ActionUnbind
	case env.Refresh != nil:
		return ActionRefresh
	case env.GroupRegistered != nil:
		return ActionGroupRegistered
	case env.GroupSubscribe != nil:
		return ActionGroupSubscribe
	}
	return ""
}

// Invite asks the receiver to create its half of a contact relationship and
// bind back towards the offered outbound twincode.
type Invite struct {
	TwincodeOutboundID uuid.UUID // Sender's freshly created outbound twincode
}

// Bind completes an earlier invite, carrying the responder's own outbound
// twincode for the initiator to adopt as its private peer.
type Bind struct {
	TwincodeOutboundID uuid.UUID // Responder's outbound twincode
}

// Unbind tears down an established relationship. It carries no payload, the
// addressed inbound twincode identifies the relationship.
type Unbind struct{}

// Refresh signals that attributes changed on the sender's side and should
// be re-fetched and re-applied by the receiver.
type Refresh struct {
	Attributes map[string]string // Changed attribute names and values
}

// GroupRegistered announces that a group was registered with its admin and
// the permission masks applying to the admin and ordinary members.
type GroupRegistered struct {
	AdminTwincodeID   uuid.UUID // Outbound twincode of the group admin
	AdminPermissions  uint32    // Capability mask granted to the admin
	MemberPermissions uint32    // Capability mask granted to plain members
}

// GroupSubscribe asks a group-scoped invitation to admit the candidate
// member identified by the offered outbound twincode.
type GroupSubscribe struct {
	TwincodeOutboundID uuid.UUID // Candidate member's outbound twincode
}
