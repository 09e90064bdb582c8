// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"github.com/twinnet/go-twinnet/twincode"
)

// KindSet is a bit set of receiver kinds used to constrain twincode
// resolution to the object types a caller can meaningfully handle.
type KindSet uint8

const (
	KindContact KindSet = 1 << iota
	KindGroup
	KindGroupMember
	KindCallReceiver
	KindInvitation
	KindProfile
	KindAccountMigration

	// KindAny matches every receiver kind.
	KindAny = KindContact | KindGroup | KindGroupMember | KindCallReceiver | KindInvitation | KindProfile | KindAccountMigration

	// KindConnectable matches the receiver kinds a live connection offer
	// may legitimately resolve to.
	KindConnectable = KindContact | KindGroup | KindCallReceiver | KindProfile | KindAccountMigration
)

// String returns a printable tag for a single-kind set, for log lines and
// protocol violation reports.
func (ks KindSet) String() string {
	switch ks {
	case KindContact:
		return "contact"
	case KindGroup:
		return "group"
	case KindGroupMember:
		return "group-member"
	case KindCallReceiver:
		return "call-receiver"
	case KindInvitation:
		return "invitation"
	case KindProfile:
		return "profile"
	case KindAccountMigration:
		return "account-migration"
	}
	return "unknown"
}

// Receiver is any local domain object that can own twincodes and be the
// target of an invocation or a connection offer. The set of implementations
// is closed: the router and the admission control dispatch over it with
// exhaustive type switches.
type Receiver interface {
	// Kind returns the receiver's kind tag.
	Kind() KindSet

	// Inbound returns the twincode remote peers address the receiver by,
	// or nil when the receiver owns none.
	Inbound() *twincode.Twincode

	// Outbound returns the identity the receiver presents to its peer,
	// or nil when the receiver owns none.
	Outbound() *twincode.Twincode

	// receiver marks the implementation as part of the closed set.
	receiver()
}
