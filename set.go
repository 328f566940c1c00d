package prefs

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrNoDescriptors indicates Set construction received an empty sequence.
	ErrNoDescriptors = errors.New("prefs: at least one descriptor is required")
	// ErrDuplicateStoreKey indicates two descriptors share a store key, the
	// only configuration the delimiter-bounded lookup cannot distinguish.
	ErrDuplicateStoreKey = errors.New("prefs: duplicate store key")
	// ErrDuplicateHookName indicates two descriptors target the same hook.
	ErrDuplicateHookName = errors.New("prefs: duplicate hook name")
)

// Set is an immutable, ordered descriptor collection validated for the
// collision rules a shared store and a shared hook namespace impose. Emission
// order is input order; it is never re-sorted.
type Set struct {
	descriptors []Descriptor
	fingerprint string
	cache       ProgramCache
}

// SetOption configures Set construction.
type SetOption func(*Set)

// SetWithProgramCache memoizes synthesized routines on cache, keyed by the
// set fingerprint.
func SetWithProgramCache(cache ProgramCache) SetOption {
	return func(s *Set) {
		s.cache = cache
	}
}

// NewSet validates descriptors and captures them in input order. Descriptors
// are copied so later mutation of the caller's slice cannot alter the set.
func NewSet(descriptors []Descriptor, opts ...SetOption) (*Set, error) {
	if len(descriptors) == 0 {
		return nil, ErrNoDescriptors
	}

	seenKeys := make(map[string]struct{}, len(descriptors))
	seenHooks := make(map[string]struct{}, len(descriptors))
	copied := make([]Descriptor, len(descriptors))
	for i, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seenKeys[d.StoreKey]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStoreKey, d.StoreKey)
		}
		if _, ok := seenHooks[d.HookName]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateHookName, d.HookName)
		}
		seenKeys[d.StoreKey] = struct{}{}
		seenHooks[d.HookName] = struct{}{}
		copied[i] = d
	}

	set := &Set{
		descriptors: copied,
		fingerprint: fingerprintDescriptors(copied),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(set)
		}
	}
	return set, nil
}

// Descriptors returns a copy of the descriptors in emission order.
func (s *Set) Descriptors() []Descriptor {
	if s == nil || len(s.descriptors) == 0 {
		return nil
	}
	out := make([]Descriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

// Len returns the number of descriptors in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.descriptors)
}

// Fingerprint returns a deterministic identity for the set contents, stable
// across processes. Two sets with the same descriptors in the same order
// share a fingerprint.
func (s *Set) Fingerprint() string {
	if s == nil {
		return ""
	}
	return s.fingerprint
}

func fingerprintDescriptors(descriptors []Descriptor) string {
	h := sha256.New()
	for _, d := range descriptors {
		writeLenPrefixed(h, d.StoreKey)
		writeLenPrefixed(h, d.HookName)
		writeLenPrefixed(h, d.DefaultValue)
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}

func writeLenPrefixed(h interface{ Write([]byte) (int, error) }, field string) {
	var size [4]byte
	n := len(field)
	size[0] = byte(n >> 24)
	size[1] = byte(n >> 16)
	size[2] = byte(n >> 8)
	size[3] = byte(n)
	h.Write(size[:])
	h.Write([]byte(field))
}
