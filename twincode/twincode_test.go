// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twincode

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

// Tests that applying attribute updates produces a fresh twincode instance
// and leaves the original untouched.
func TestTwincodeApply(t *testing.T) {
	t.Parallel()

	orig := &Twincode{
		ID:     uuid.New(),
		Name:   "Alice",
		Signed: true,
	}
	next := orig.Apply(map[string]string{
		AttrName:         "Alice at work",
		AttrCapabilities: "!visibility",
		"nonsense":       "ignored",
	})
	if orig.Name != "Alice" || orig.Capabilities != "" {
		t.Fatalf("original twincode mutated: %+v", orig)
	}
	if next.ID != orig.ID || !next.Signed {
		t.Fatalf("identity facts not carried over: %+v", next)
	}
	if next.Name != "Alice at work" || next.Capabilities != "!visibility" {
		t.Fatalf("attributes not applied: %+v", next)
	}
	if next.Caps().Has(FlagVisibility) {
		t.Errorf("updated capabilities not decoded")
	}
}

// Tests that attribute diffs name exactly the changed attributes.
func TestTwincodeDiff(t *testing.T) {
	t.Parallel()

	orig := &Twincode{ID: uuid.New(), Name: "Bob", Avatar: "ref-1"}
	next := orig.Apply(map[string]string{
		AttrName:        "Bobby",
		AttrDescription: "travelling",
	})
	diff := next.Diff(orig)
	if want := []string{AttrName, AttrDescription}; !reflect.DeepEqual(diff, want) {
		t.Fatalf("diff mismatch: have %v, want %v", diff, want)
	}
	if diff := orig.Apply(nil).Diff(orig); diff != nil {
		t.Fatalf("no-op update produced a diff: %v", diff)
	}
}

// Tests that fingerprints track attribute content, not instance identity.
func TestTwincodeFingerprint(t *testing.T) {
	t.Parallel()

	tc := &Twincode{ID: uuid.New(), Name: "Carol"}
	if tc.Fingerprint() != tc.Apply(nil).Fingerprint() {
		t.Errorf("identical twincodes disagree on fingerprint")
	}
	if tc.Fingerprint() == tc.Apply(map[string]string{AttrName: "Carole"}).Fingerprint() {
		t.Errorf("attribute change not reflected in fingerprint")
	}
}
