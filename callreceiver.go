// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"errors"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/twincode"
)

var (
	// ErrCallReceiverNotFound is returned if a call receiver is attempted to
	// be accessed but it is not found.
	ErrCallReceiverNotFound = errors.New("call receiver not found")
)

// CallReceiver is a standing open call endpoint (a "click to call" target
// published outside the contact graph). It accepts sessions from anyone who
// knows its inbound twincode, without a bound peer relationship.
type CallReceiver struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name,omitempty"`
	SpaceID uuid.UUID `json:"spaceId"`

	TwincodeInbound  *twincode.Twincode `json:"twincodeInbound,omitempty"`
	TwincodeOutbound *twincode.Twincode `json:"twincodeOutbound,omitempty"`
}

func (cr *CallReceiver) Kind() KindSet                { return KindCallReceiver }
func (cr *CallReceiver) Inbound() *twincode.Twincode  { return cr.TwincodeInbound }
func (cr *CallReceiver) Outbound() *twincode.Twincode { return cr.TwincodeOutbound }
func (cr *CallReceiver) receiver()                    {}

// CreateCallReceiver publishes a new open call endpoint backed by a fresh
// identity twincode pair.
func (b *Backend) CreateCallReceiver(name string, space uuid.UUID) (*CallReceiver, error) {
	b.logger.Info("Creating call receiver", "name", name)

	inbound, outbound, err := b.directory.CreatePair(map[string]string{
		twincode.AttrName:         name,
		twincode.AttrCapabilities: twincode.KindDefaults(twincode.KindCallReceiver).Encode(),
	})
	if err != nil {
		return nil, err
	}
	receiver := &CallReceiver{
		ID:               uuid.New(),
		Name:             name,
		SpaceID:          space,
		TwincodeInbound:  inbound,
		TwincodeOutbound: outbound,
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.storeCallReceiver(receiver); err != nil {
		return nil, err
	}
	return receiver, nil
}

// CallReceivers returns the unique ids of all published call endpoints.
func (b *Backend) CallReceivers() ([]uuid.UUID, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.listRecords(dbCallReceiverPrefix)
}

// DeleteCallReceiver withdraws an open call endpoint.
func (b *Backend) DeleteCallReceiver(id uuid.UUID) error {
	b.logger.Info("Deleting call receiver", "receiver", id)

	b.lock.Lock()
	defer b.lock.Unlock()

	receiver := new(CallReceiver)
	if err := b.getJSON(dbCallReceiverPrefix, id, receiver); err != nil {
		return ErrCallReceiverNotFound
	}
	if receiver.TwincodeInbound != nil {
		b.unindexTwincode(receiver.TwincodeInbound.ID)
	}
	return b.database.Delete(dbKey(dbCallReceiverPrefix, id), nil)
}
