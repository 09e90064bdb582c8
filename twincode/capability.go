// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twincode

import (
	"strings"
)

// Kind is the class tag a twincode's capability attribute may carry. It
// describes what sort of local object the twincode addresses and implies
// which capabilities the twincode may hold at all.
type Kind string

const (
	KindInvitation       Kind = "invitation"
	KindContact          Kind = "contact"
	KindGroup            Kind = "group"
	KindGroupMember      Kind = "group-member"
	KindTwinroom         Kind = "twinroom"
	KindAccountMigration Kind = "account-migration"
	KindSpace            Kind = "space"
	KindCallReceiver     Kind = "call-receiver"
)

// Flag is a single toggleable capability bit.
type Flag uint32

const (
	FlagAdmin Flag = 1 << iota
	FlagData
	FlagAudio
	FlagVideo
	FlagAcceptAudio
	FlagAcceptVideo
	FlagVisibility
	FlagOwner
	FlagModerate
	FlagInvite
	FlagTransfer
	FlagGroupCall
	FlagAutoAnswerCall
	FlagDiscreet
	FlagZoomable
	FlagNotZoomable
)

// capability ties a wire label to its flag bit and its default state when
// the attribute string does not mention it.
type capability struct {
	label string // Token used on the capability attribute lines
	flag  Flag   // Bit the token toggles
	def   bool   // Whether the bit is set when the token is absent
}

// registry enumerates every toggleable capability in serialization order.
// Unknown labels received off the wire are skipped for forward compatibility,
// so this table is the single authority on what this node understands.
var registry = []capability{
	{"admin", FlagAdmin, false},
	{"data", FlagData, true},
	{"audio", FlagAudio, true},
	{"video", FlagVideo, true},
	{"accept-audio", FlagAcceptAudio, true},
	{"accept-video", FlagAcceptVideo, true},
	{"visibility", FlagVisibility, true},
	{"owner", FlagOwner, false},
	{"moderate", FlagModerate, false},
	{"invite", FlagInvite, false},
	{"transfer", FlagTransfer, false},
	{"group-call", FlagGroupCall, false},
	{"auto-answer-call", FlagAutoAnswerCall, false},
	{"discreet", FlagDiscreet, false},
	{"zoomable", FlagZoomable, false},
	{"not-zoomable", FlagNotZoomable, false},
}

// callFlags are the capabilities involved in live audio/video calling.
const callFlags = FlagAudio | FlagVideo | FlagAcceptAudio | FlagAcceptVideo | FlagGroupCall | FlagAutoAnswerCall

// overrides maps a kind to the flags it forcibly clears. A group (or a
// space, or a migration record) is not a callable endpoint, whatever its
// attribute string claims.
var overrides = map[Kind]Flag{
	KindGroup:            callFlags,
	KindSpace:            callFlags,
	KindAccountMigration: callFlags,
}

// kinds enumerates the valid class tags for parsing.
var kinds = map[Kind]bool{
	KindInvitation:       true,
	KindContact:          true,
	KindGroup:            true,
	KindGroupMember:      true,
	KindTwinroom:         true,
	KindAccountMigration: true,
	KindSpace:            true,
	KindCallReceiver:     true,
}

// Capabilities is the decoded view over a twincode's capability attribute:
// the kind tag, the toggleable flag set and the optional schedule and
// trusted-peer assignments, both opaque to the codec itself.
type Capabilities struct {
	Kind     Kind   // Class of object the twincode addresses
	Flags    Flag   // Currently active capability bits
	Schedule string // Opaque availability schedule, empty if unset
	Trusted  string // Opaque trusted peer twincode id, empty if unset
}

// DefaultCapabilities returns the capability set an absent attribute string
// decodes to: a plain contact with the default-on flags and nothing else.
func DefaultCapabilities() Capabilities {
	return Capabilities{Kind: KindContact, Flags: defaultFlags(KindContact)}
}

// KindDefaults returns the capability set a twincode of the given kind
// starts out with: the kind tag plus that kind's effective default flags.
func KindDefaults(kind Kind) Capabilities {
	return Capabilities{Kind: kind, Flags: defaultFlags(kind)}
}

// defaultFlags computes the effective default flag set for a kind, which is
// the registry defaults minus whatever the kind's override clears.
func defaultFlags(kind Kind) Flag {
	var flags Flag
	for _, c := range registry {
		if c.def {
			flags |= c.flag
		}
	}
	return flags &^ overrides[kind]
}

// ParseCapabilities decodes a raw capability attribute string. The input is
// newline delimited; each line either toggles a registered capability (with
// a `!` prefix clearing it), or assigns `class`, `schedule` or `trusted`.
// The first `class` line wins and its override mask applies from that point
// on, so toggles can never resurrect a capability the kind forbids. Unknown
// tokens are dropped without complaint.
func ParseCapabilities(raw string) Capabilities {
	caps := DefaultCapabilities()
	if raw == "" {
		return caps
	}
	classed := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			switch key {
			case "class":
				if classed || !kinds[Kind(value)] {
					continue
				}
				classed = true
				caps.Kind = Kind(value)
				caps.Flags &^= overrides[caps.Kind]
			case "schedule":
				caps.Schedule = value
			case "trusted":
				caps.Trusted = value
			}
			continue
		}
		label, clear := line, false
		if strings.HasPrefix(label, "!") {
			label, clear = label[1:], true
		}
		for _, c := range registry {
			if c.label != label {
				continue
			}
			if clear {
				caps.Flags &^= c.flag
			} else {
				caps.Flags |= c.flag &^ overrides[caps.Kind]
			}
			break
		}
	}
	return caps
}

// Encode serializes the capability set back into attribute form. The result
// is the empty string for the canonical default set (a plain contact with
// nothing remarkable), in which case no attribute should be written at all.
// Only deviations from the kind's effective defaults are emitted, keeping
// re-serialization a no-op diff when every value matches its default.
func (caps Capabilities) Encode() string {
	var lines []string
	if caps.Kind != KindContact {
		lines = append(lines, "class="+string(caps.Kind))
	}
	defaults := defaultFlags(caps.Kind)
	for _, c := range registry {
		def, cur := defaults&c.flag != 0, caps.Flags&c.flag != 0
		switch {
		case def && !cur:
			lines = append(lines, "!"+c.label)
		case !def && cur:
			lines = append(lines, c.label)
		}
	}
	if caps.Schedule != "" {
		lines = append(lines, "schedule="+caps.Schedule)
	}
	if caps.Trusted != "" {
		lines = append(lines, "trusted="+caps.Trusted)
	}
	return strings.Join(lines, "\n")
}

// Has reports whether a capability bit is currently active.
func (caps Capabilities) Has(flag Flag) bool {
	return caps.Flags&flag != 0
}
