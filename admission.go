// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/params"
	"github.com/twinnet/go-twinnet/protocols"
	"github.com/twinnet/go-twinnet/protocols/pairing"
	"github.com/twinnet/go-twinnet/twincode"
)

var (
	// errBadAddress is returned when a connection address does not parse as
	// an inbound twincode JID.
	errBadAddress = errors.New("malformed twincode address")
)

// parseAddress splits a connection address of the shape
// `<inbound-uuid>@<domain>[/<caller-uuid>]` into its twincode components,
// rejecting foreign domains and malformed ids.
func parseAddress(address, domain string) (inbound uuid.UUID, caller uuid.UUID, err error) {
	local, remainder, ok := strings.Cut(address, "@")
	if !ok {
		return uuid.Nil, uuid.Nil, errBadAddress
	}
	host, resource, _ := strings.Cut(remainder, "/")
	if host != domain {
		return uuid.Nil, uuid.Nil, errBadAddress
	}
	if inbound, err = uuid.Parse(local); err != nil {
		return uuid.Nil, uuid.Nil, errBadAddress
	}
	if resource != "" {
		if caller, err = uuid.Parse(resource); err != nil {
			return uuid.Nil, uuid.Nil, errBadAddress
		}
	}
	return inbound, caller, nil
}

// DeliverOffer feeds an incoming live connection offer into the admission
// control. Malformed addresses are terminated on the caller's thread; all
// further processing queues up behind whatever invocations are already
// pending against the same inbound twincode, so a bind in flight lands
// before the admission decision gets made.
func (b *Backend) DeliverOffer(address string, offer Offer) {
	inbound, caller, err := parseAddress(address, b.domain)
	if err != nil {
		b.logger.Warn("Rejecting malformed connection address", "conn", offer.Conn, "address", address)
		b.transport.Terminate(offer.Conn, protocols.ReasonGeneralError)
		return
	}
	b.tasks.enqueue(inbound, func() {
		b.admit(inbound, caller, offer)
	})
}

// admit resolves the offer's target receiver and decides its fate: accept
// it as a call or a data session, or terminate it with a reason code.
func (b *Backend) admit(inbound, caller uuid.UUID, offer Offer) {
	b.lock.RLock()
	recv, err := b.resolveReceiver(inbound, KindConnectable)
	b.lock.RUnlock()
	if err != nil {
		b.logger.Debug("Connection target unknown", "conn", offer.Conn, "twincode", inbound)
		b.transport.Terminate(offer.Conn, protocols.ReasonGone)
		return
	}
	// A caller resource against a group addresses one specific member
	if group, ok := recv.(*Group); ok && caller != uuid.Nil {
		b.lock.RLock()
		member, err := b.memberByTwincode(group, caller)
		b.lock.RUnlock()
		if err != nil {
			b.transport.Terminate(offer.Conn, protocols.ReasonGone)
			return
		}
		recv = member
	}
	switch recv := recv.(type) {
	case *AccountMigration:
		// Device handovers are owned by the migration flow, whatever the
		// offer flags claim; admission never terminates these.
		b.logger.Info("Incoming migration connection", "conn", offer.Conn, "migration", recv.ID)
		b.emit(Event{Type: EventMigration, Conn: offer.Conn, Receiver: recv.ID})
		return

	case *Profile:
		// A caller addressing our profile holds a stale pairing record on
		// its side: nudge it with a fresh bind, then turn the offer away.
		if caller != uuid.Nil {
			b.rebind(caller)
		}
		b.transport.Terminate(offer.Conn, protocols.ReasonGeneralError)
		return
	}
	switch {
	case offer.Audio || offer.Video:
		b.admitCall(recv, caller, offer)

	case offer.Data:
		b.admitData(recv, caller, offer)

	default:
		b.logger.Warn("Rejecting offer without media flags", "conn", offer.Conn)
		b.transport.Terminate(offer.Conn, protocols.ReasonGeneralError)
	}
}

// admitCall accepts a live call on a visible receiver or turns it away as
// busy, leaving a missed call record behind.
func (b *Backend) admitCall(recv Receiver, caller uuid.UUID, offer Offer) {
	if !b.visible(recv) {
		b.logger.Info("Receiver not visible, recording missed call", "conn", offer.Conn)
		b.transport.Terminate(offer.Conn, protocols.ReasonBusy)
		b.recordMissedCall(recv, caller, offer)
		return
	}
	b.transport.AcceptCall(offer.Conn, offer.Audio, offer.Video)
	b.emit(Event{Type: EventIncomingCall, Conn: offer.Conn, Receiver: receiverID(recv), Video: offer.Video})
}

// admitData accepts a plain data session if the receiver's trust rules let
// the caller through. This already runs behind the per-twincode barrier, so
// any pair::bind queued ahead of the offer has been applied by now.
func (b *Backend) admitData(recv Receiver, caller uuid.UUID, offer Offer) {
	if recv.Outbound() == nil {
		b.transport.Terminate(offer.Conn, protocols.ReasonGeneralError)
		return
	}
	var accept bool
	switch recv := recv.(type) {
	case *Contact:
		accept = recv.AcceptsData(caller)
	case *CallReceiver, *GroupMember:
		accept = true
	case *Group:
		// A bare group is not a session endpoint, only its members are
	}
	if !accept {
		b.logger.Info("Rejecting unauthorized data session", "conn", offer.Conn, "caller", caller)
		b.transport.Terminate(offer.Conn, protocols.ReasonNotAuthorized)
		return
	}
	b.transport.AcceptData(offer.Conn)
}

// visible reports whether a receiver currently surfaces incoming calls: its
// inbound twincode must carry the visibility capability and any configured
// availability schedule must contain the current time.
func (b *Backend) visible(recv Receiver) bool {
	tc := recv.Inbound()
	if tc == nil {
		if member, ok := recv.(*GroupMember); ok && member.group != nil {
			tc = member.group.TwincodeInbound
		}
	}
	if tc == nil {
		return false
	}
	caps := tc.Caps()
	if !caps.Has(twincode.FlagVisibility) {
		return false
	}
	return scheduleContains(caps.Schedule, b.clock.Now())
}

// scheduleContains evaluates an `HH:MM-HH:MM` availability window against a
// wall clock instant. Overnight windows wrap across midnight; an absent or
// unparsable schedule never restricts anything.
func scheduleContains(schedule string, now time.Time) bool {
	if schedule == "" {
		return true
	}
	from, until, ok := strings.Cut(schedule, "-")
	if !ok {
		return true
	}
	start, err := time.Parse("15:04", from)
	if err != nil {
		return true
	}
	end, err := time.Parse("15:04", until)
	if err != nil {
		return true
	}
	var (
		minute = now.Hour()*60 + now.Minute()
		lo     = start.Hour()*60 + start.Minute()
		hi     = end.Hour()*60 + end.Minute()
	)
	if lo <= hi {
		return minute >= lo && minute < hi
	}
	return minute >= lo || minute < hi
}

// rebind makes a best effort, one shot attempt to repair a remote peer's
// stale pairing record by re-sending our bind towards its caller twincode.
// Attempts within the suppression window are swallowed.
func (b *Backend) rebind(caller uuid.UUID) {
	b.lock.Lock()
	last, ok := b.rebinds[caller]
	now := b.clock.Now()
	if ok && now.Sub(last) < params.RebindSuppression {
		b.lock.Unlock()
		return
	}
	b.rebinds[caller] = now

	contact, err := b.contactByPeer(caller)
	b.lock.Unlock()

	if err != nil || contact.TwincodeOutbound == nil {
		b.logger.Debug("No pairing to repair for stale caller", "caller", caller)
		return
	}
	b.logger.Info("Re-binding stale remote pairing", "contact", contact.ID, "caller", caller)
	if err := b.courier.Send(caller, &pairing.Envelope{Bind: &pairing.Bind{TwincodeOutboundID: contact.TwincodeOutbound.ID}}); err != nil {
		b.logger.Warn("Stale pairing re-bind failed", "caller", caller, "err", err)
	}
}

// receiverID digs out the record id a receiver is persisted under.
func receiverID(recv Receiver) uuid.UUID {
	switch recv := recv.(type) {
	case *Contact:
		return recv.ID
	case *Group:
		return recv.ID
	case *GroupMember:
		return recv.ID
	case *CallReceiver:
		return recv.ID
	case *Invitation:
		return recv.ID
	case *Profile:
		return recv.ID
	case *AccountMigration:
		return recv.ID
	}
	return uuid.Nil
}
