// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

// Package params contains constants relevant to all subsystems.
package params

import "time"

const (
	// TwincodeDomain is the JID domain suffix identifying inbound twincode
	// addresses. Connection offers addressed to any other domain are not
	// meant for this subsystem and are terminated outright.
	TwincodeDomain = "twincode.twinnet.org"

	// UnbindPolicyDelete deletes a contact outright when the remote peer
	// unbinds the relationship.
	UnbindPolicyDelete = "delete"

	// UnbindPolicyDetach keeps the contact record when the remote peer
	// unbinds, only clearing the peer twincode out of it.
	UnbindPolicyDetach = "detach"
)

const (
	// MemberCacheSize is the number of resolved group members kept around
	// to avoid repeated database scans on busy group calls.
	MemberCacheSize = 512

	// EventQueueSize is the number of undelivered backend events buffered
	// before fresh ones start getting dropped.
	EventQueueSize = 64

	// RebindSuppression is the time window within which repeated stale
	// pairing re-bind attempts towards the same caller are suppressed.
	RebindSuppression = 10 * time.Minute
)
