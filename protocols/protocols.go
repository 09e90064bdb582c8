// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

// Package protocols defines the codes and messages common for all protocols.
package protocols

// AckCode is the acknowledgment returned to the transport for a consumed
// invocation. The remote side holds a store-and-forward queue keyed on these
// acknowledgments, so every invocation must produce exactly one.
type AckCode string

const (
	// AckSuccess acknowledges an invocation that was routed and processed.
	AckSuccess AckCode = "SUCCESS"

	// AckBadRequest rejects an invocation that violated the protocol, so
	// the sender does not spin-retry it indefinitely.
	AckBadRequest AckCode = "BAD_REQUEST"

	// AckItemNotFound rejects an invocation whose target does not resolve
	// locally. The sender may legitimately retry later.
	AckItemNotFound AckCode = "ITEM_NOT_FOUND"
)

// Reason is the termination reason sent back on a live connection offer
// that was not accepted.
type Reason string

const (
	ReasonGeneralError  Reason = "GENERAL_ERROR"
	ReasonGone          Reason = "GONE"
	ReasonBusy          Reason = "BUSY"
	ReasonNotAuthorized Reason = "NOT_AUTHORIZED"
	ReasonTimeout       Reason = "TIMEOUT"
)
