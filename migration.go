// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"errors"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/twincode"
)

var (
	// ErrMigrationNotFound is returned if an account migration record is
	// attempted to be accessed but it is not found.
	ErrMigrationNotFound = errors.New("account migration not found")
)

// AccountMigration tracks a device handover in progress. It follows the same
// invite/bind handshake shape as a contact, but the bound peer is the user's
// own other device and no contact relationship ever comes out of it.
type AccountMigration struct {
	ID uuid.UUID `json:"id"`

	TwincodeInbound  *twincode.Twincode `json:"twincodeInbound,omitempty"`
	TwincodeOutbound *twincode.Twincode `json:"twincodeOutbound,omitempty"`

	PeerID uuid.UUID          `json:"peerId,omitempty"` // Outbound twincode of the other device, once bound
	Peer   *twincode.Twincode `json:"peer,omitempty"`
}

func (am *AccountMigration) Kind() KindSet                { return KindAccountMigration }
func (am *AccountMigration) Inbound() *twincode.Twincode  { return am.TwincodeInbound }
func (am *AccountMigration) Outbound() *twincode.Twincode { return am.TwincodeOutbound }
func (am *AccountMigration) receiver()                    {}

// Bound reports whether the other device completed the handshake.
func (am *AccountMigration) Bound() bool {
	return am.PeerID != uuid.Nil
}

// CreateAccountMigration registers a migration record with a fresh identity
// twincode pair for the other device to pair against.
func (b *Backend) CreateAccountMigration() (*AccountMigration, error) {
	b.logger.Info("Creating account migration")

	inbound, outbound, err := b.directory.CreatePair(map[string]string{
		twincode.AttrCapabilities: twincode.KindDefaults(twincode.KindAccountMigration).Encode(),
	})
	if err != nil {
		return nil, err
	}
	migration := &AccountMigration{
		ID:               uuid.New(),
		TwincodeInbound:  inbound,
		TwincodeOutbound: outbound,
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.storeMigration(migration); err != nil {
		return nil, err
	}
	return migration, nil
}

// AccountMigrations returns the unique ids of all pending migrations.
func (b *Backend) AccountMigrations() ([]uuid.UUID, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.listRecords(dbMigrationPrefix)
}
