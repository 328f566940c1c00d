package prefs

import (
	"errors"
	"testing"
)

func TestNewSetValidation(t *testing.T) {
	if _, err := NewSet(nil); !errors.Is(err, ErrNoDescriptors) {
		t.Fatalf("error = %v, want ErrNoDescriptors", err)
	}

	_, err := NewSet([]Descriptor{
		{StoreKey: "theme", HookName: "--theme"},
		{StoreKey: "theme", HookName: "--other"},
	})
	if !errors.Is(err, ErrDuplicateStoreKey) {
		t.Fatalf("error = %v, want ErrDuplicateStoreKey", err)
	}

	_, err = NewSet([]Descriptor{
		{StoreKey: "theme", HookName: "--theme"},
		{StoreKey: "other", HookName: "--theme"},
	})
	if !errors.Is(err, ErrDuplicateHookName) {
		t.Fatalf("error = %v, want ErrDuplicateHookName", err)
	}

	// Descriptor validation runs before duplicate checks.
	_, err = NewSet([]Descriptor{{StoreKey: "theme", HookName: "nope"}})
	if !errors.Is(err, ErrHookNameInvalid) {
		t.Fatalf("error = %v, want ErrHookNameInvalid", err)
	}
}

func TestSetPreservesInputOrder(t *testing.T) {
	input := []Descriptor{
		{StoreKey: "z_last", HookName: "--z-last", DefaultValue: "1"},
		{StoreKey: "a_first", HookName: "--a-first", DefaultValue: "2"},
	}
	set, err := NewSet(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("Len = %d, want 2", set.Len())
	}
	got := set.Descriptors()
	if got[0].StoreKey != "z_last" || got[1].StoreKey != "a_first" {
		t.Fatalf("order not preserved: %+v", got)
	}
}

func TestSetCopiesDescriptorsBothWays(t *testing.T) {
	input := []Descriptor{{StoreKey: "theme", HookName: "--theme", DefaultValue: "system"}}
	set, err := NewSet(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input[0].DefaultValue = "mutated"
	if got := set.Descriptors()[0].DefaultValue; got != "system" {
		t.Fatalf("caller mutation leaked in: %q", got)
	}

	out := set.Descriptors()
	out[0].DefaultValue = "mutated"
	if got := set.Descriptors()[0].DefaultValue; got != "system" {
		t.Fatalf("returned slice mutation leaked in: %q", got)
	}
}

func TestSetFingerprint(t *testing.T) {
	a := []Descriptor{
		{StoreKey: "sidebar_width", HookName: "--sidebar-width", DefaultValue: "280px"},
		{StoreKey: "color_theme", HookName: "--color-theme", DefaultValue: "system"},
	}

	first, err := NewSet(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewSet(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Fingerprint() != second.Fingerprint() {
		t.Fatalf("same contents produced different fingerprints")
	}
	if len(first.Fingerprint()) != 16 {
		t.Fatalf("fingerprint length = %d, want 16", len(first.Fingerprint()))
	}

	reordered, err := NewSet([]Descriptor{a[1], a[0]})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reordered.Fingerprint() == first.Fingerprint() {
		t.Fatalf("order change did not change fingerprint")
	}
}

// Field contents are length-prefixed before hashing, so two sets whose
// concatenated fields agree but whose field boundaries differ must not
// collide.
func TestSetFingerprintFieldBoundaries(t *testing.T) {
	left, err := NewSet([]Descriptor{{StoreKey: "a", HookName: "--b", DefaultValue: "cd"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	right, err := NewSet([]Descriptor{{StoreKey: "a", HookName: "--bc", DefaultValue: "d"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if left.Fingerprint() == right.Fingerprint() {
		t.Fatalf("boundary shift did not change fingerprint")
	}
}

func TestSetNilReceiver(t *testing.T) {
	var set *Set
	if set.Len() != 0 || set.Descriptors() != nil || set.Fingerprint() != "" {
		t.Fatalf("nil set should behave as empty")
	}
}
