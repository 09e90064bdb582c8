// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"errors"

	"github.com/google/uuid"
	"github.com/twinnet/go-twinnet/twincode"
)

var (
	// ErrProfileNotFound is returned if a profile is attempted to be accessed
	// but none exists locally.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists is returned if a new profile is attempted to be created
	// but one already exists.
	ErrProfileExists = errors.New("profile already exists")
)

// Profile is the local user's own identity record and the default pairing
// entry point: a first-ever pair invite from an unknown peer lands on the
// profile's inbound twincode.
type Profile struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name,omitempty"`
	SpaceID uuid.UUID `json:"spaceId"` // Default space newly paired contacts land in

	TwincodeInbound  *twincode.Twincode `json:"twincodeInbound,omitempty"`
	TwincodeOutbound *twincode.Twincode `json:"twincodeOutbound,omitempty"`
}

func (p *Profile) Kind() KindSet                { return KindProfile }
func (p *Profile) Inbound() *twincode.Twincode  { return p.TwincodeInbound }
func (p *Profile) Outbound() *twincode.Twincode { return p.TwincodeOutbound }
func (p *Profile) receiver()                    {}

// CreateProfile creates the local user's profile with a fresh identity
// twincode pair and a default space.
func (b *Backend) CreateProfile(name string) (*Profile, error) {
	b.logger.Info("Creating local profile", "name", name)

	b.lock.Lock()
	defer b.lock.Unlock()

	if _, err := b.loadProfile(); err == nil {
		return nil, ErrProfileExists
	}
	inbound, outbound, err := b.directory.CreatePair(map[string]string{
		twincode.AttrName: name,
	})
	if err != nil {
		return nil, err
	}
	profile := &Profile{
		ID:               uuid.New(),
		Name:             name,
		SpaceID:          uuid.New(),
		TwincodeInbound:  inbound,
		TwincodeOutbound: outbound,
	}
	if err := b.storeProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Profile retrieves the local user's profile.
func (b *Backend) Profile() (*Profile, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.loadProfile()
}

// UpdateProfile renames the local user's profile.
func (b *Backend) UpdateProfile(name string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	profile, err := b.loadProfile()
	if err != nil {
		return err
	}
	if profile.Name == name {
		return nil
	}
	profile.Name = name
	return b.storeProfile(profile)
}
