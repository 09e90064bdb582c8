// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

// Package twincode models the anonymous cryptographic identities exchanged
// between peers and the capability attributes they carry.
package twincode

import (
	"encoding/hex"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// TrustMethod tags how a twincode was obtained, which feeds the certification
// level derivation on contacts.
type TrustMethod string

const (
	// TrustNone means the twincode arrived without any out-of-band proof.
	TrustNone TrustMethod = ""

	// TrustQRCode means the twincode was scanned off the peer's shared code.
	TrustQRCode TrustMethod = "qrcode"

	// TrustInvitationCode means the twincode arrived through a one-time
	// invitation code exchange, a stronger signal than a public scan.
	TrustInvitationCode TrustMethod = "invitation-code"
)

// Attribute names a twincode can carry. The capability attribute is the one
// this package can actually interpret, the rest are opaque payload.
const (
	AttrName         = "name"
	AttrDescription  = "description"
	AttrAvatar       = "avatar"
	AttrCapabilities = "capabilities"
)

// Twincode is an opaque addressable identity. Instances are immutable value
// objects once fetched: attribute changes produce a new instance via Apply,
// never a mutation of an existing one.
type Twincode struct {
	ID           uuid.UUID   `json:"id"`                    // Stable identity of the twincode
	Name         string      `json:"name,omitempty"`        // Display name attribute
	Description  string      `json:"description,omitempty"` // Free-form description attribute
	Avatar       string      `json:"avatar,omitempty"`      // Opaque avatar reference, handled elsewhere
	Capabilities string      `json:"capabilities,omitempty"` // Raw capability attribute string
	Signed       bool        `json:"signed"`                // Whether the twincode carries a valid signature
	TrustMethod  TrustMethod `json:"trustMethod,omitempty"` // How the twincode was obtained

	caps *Capabilities // Lazily decoded capability view
	once sync.Once     // Guard to only ever decode once
}

// Caps returns the decoded capability view, parsing the raw attribute on
// first use.
func (tc *Twincode) Caps() Capabilities {
	tc.once.Do(func() {
		caps := ParseCapabilities(tc.Capabilities)
		tc.caps = &caps
	})
	return *tc.caps
}

// Fingerprint returns a short hex digest of the twincode's identity and
// attributes, meant for log lines rather than security decisions.
func (tc *Twincode) Fingerprint() string {
	hasher := sha3.New256()
	hasher.Write(tc.ID[:])
	hasher.Write([]byte(tc.Name))
	hasher.Write([]byte(tc.Description))
	hasher.Write([]byte(tc.Avatar))
	hasher.Write([]byte(tc.Capabilities))
	return hex.EncodeToString(hasher.Sum(nil)[:8])
}

// Apply returns a new twincode with the given attributes overridden. The
// receiver is left untouched; identity, signature and trust facts carry over.
func (tc *Twincode) Apply(attrs map[string]string) *Twincode {
	next := &Twincode{
		ID:           tc.ID,
		Name:         tc.Name,
		Description:  tc.Description,
		Avatar:       tc.Avatar,
		Capabilities: tc.Capabilities,
		Signed:       tc.Signed,
		TrustMethod:  tc.TrustMethod,
	}
	for name, value := range attrs {
		switch name {
		case AttrName:
			next.Name = value
		case AttrDescription:
			next.Description = value
		case AttrAvatar:
			next.Avatar = value
		case AttrCapabilities:
			next.Capabilities = value
		}
	}
	return next
}

// WithTrustMethod returns a copy of the twincode tagged with how it was
// obtained locally. The tag is a local fact, never part of the remote
// attribute state.
func (tc *Twincode) WithTrustMethod(method TrustMethod) *Twincode {
	next := tc.Apply(nil)
	next.TrustMethod = method
	return next
}

// Diff lists the attribute names whose values differ from a previous
// instance of the same twincode.
func (tc *Twincode) Diff(prev *Twincode) []string {
	var changed []string
	if prev.Name != tc.Name {
		changed = append(changed, AttrName)
	}
	if prev.Description != tc.Description {
		changed = append(changed, AttrDescription)
	}
	if prev.Avatar != tc.Avatar {
		changed = append(changed, AttrAvatar)
	}
	if prev.Capabilities != tc.Capabilities {
		changed = append(changed, AttrCapabilities)
	}
	return changed
}
