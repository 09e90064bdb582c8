// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"fmt"

	"github.com/twinnet/go-twinnet/protocols"
	"github.com/twinnet/go-twinnet/protocols/pairing"
	"github.com/twinnet/go-twinnet/twincode"
)

// DeliverInvocation hands a received protocol invocation over to the serial
// queue of its target twincode. The call returns immediately; routing and
// the acknowledgment happen asynchronously on the queue worker.
func (b *Backend) DeliverInvocation(inv *Invocation) {
	b.tasks.enqueue(inv.Inbound, func() {
		b.courier.Ack(inv.ID, b.route(inv))
	})
}

// route resolves the invocation's target receiver and dispatches on the
// receiver kind and message kind pair. Every pair outside the protocol
// table is a violation: reported once to the assertion channel and NACKed
// so the sender does not spin-retry it, with the receiver left untouched.
func (b *Backend) route(inv *Invocation) protocols.AckCode {
	b.lock.RLock()
	recv, err := b.resolveReceiver(inv.Inbound, KindAny)
	b.lock.RUnlock()
	if err != nil {
		b.logger.Debug("Invocation target unknown", "twincode", inv.Inbound, "action", inv.Payload.Action())
		return protocols.AckItemNotFound
	}
	action := inv.Payload.Action()

	switch recv := recv.(type) {
	case *Profile:
		if action == pairing.ActionInvite {
			return b.onPairInvite(inv, recv.SpaceID, twincode.TrustNone, nil)
		}

	case *Invitation:
		switch action {
		case pairing.ActionInvite:
			return b.onPairInvite(inv, recv.SpaceID, twincode.TrustInvitationCode, recv)
		case pairing.ActionGroupSubscribe:
			return b.onGroupSubscribe(inv, recv)
		}

	case *Contact:
		switch action {
		case pairing.ActionBind:
			return b.onPairBind(inv, recv)
		case pairing.ActionUnbind:
			return b.onPairUnbind(inv, recv)
		case pairing.ActionRefresh:
			return b.onPairRefresh(inv, recv)
		}

	case *Group:
		switch action {
		case pairing.ActionGroupRegistered:
			return b.onGroupRegistered(inv, recv)
		case pairing.ActionRefresh:
			return b.onPairRefresh(inv, recv)
		}

	case *AccountMigration:
		switch action {
		case pairing.ActionInvite:
			return b.onMigrationInvite(inv, recv)
		case pairing.ActionUnbind:
			return b.onMigrationUnbind(inv, recv)
		}

	case *CallReceiver, *GroupMember:
		// No invocation is ever legal against these, fall through
	}
	b.assert("invocation not accepted by receiver", recv, inv)
	return protocols.AckBadRequest
}

// assert reports a protocol violation once to the assertion channel. These
// never reach legitimate users, they exist for diagnostics only.
func (b *Backend) assert(reason string, recv Receiver, inv *Invocation) {
	detail := fmt.Sprintf("%s: receiver %s, action %s", reason, recv.Kind(), inv.Payload.Action())
	b.logger.Error("Protocol violation", "invocation", inv.ID, "detail", detail)
	b.emit(Event{Type: EventViolation, Detail: detail})
}
