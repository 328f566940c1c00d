package prefs

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-prefs/internal/jstext"
)

// Descriptor names one persisted preference value: the key it is stored under
// in the combined store string, the pre-paint hook (CSS custom property) the
// initialization routine primes with it, and the value used when the store has
// no entry. Descriptors are created once at configuration time and never
// mutated afterwards.
type Descriptor struct {
	StoreKey     string
	HookName     string
	DefaultValue string
}

var (
	// ErrStoreKeyRequired indicates a descriptor without a store key.
	ErrStoreKeyRequired = errors.New("descriptor: store key must be provided")
	// ErrStoreKeyInvalid indicates a store key that would break the
	// delimiter-bounded lookup emitted by the synthesizer.
	ErrStoreKeyInvalid = errors.New("descriptor: store key must be a cookie-name token")
	// ErrHookNameRequired indicates a descriptor without a hook name.
	ErrHookNameRequired = errors.New("descriptor: hook name must be provided")
	// ErrHookNameInvalid indicates a hook name that is not a custom-property
	// identifier.
	ErrHookNameInvalid = errors.New("descriptor: hook name must be a -- prefixed custom-property identifier")
)

// NewDescriptor builds a validated Descriptor.
func NewDescriptor(storeKey, hookName, defaultValue string) (Descriptor, error) {
	d := Descriptor{
		StoreKey:     storeKey,
		HookName:     hookName,
		DefaultValue: defaultValue,
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Validate checks the identifier fields. The default value is unconstrained:
// it is only ever embedded as an escaped literal or percent-encoded on write.
func (d Descriptor) Validate() error {
	if d.StoreKey == "" {
		return ErrStoreKeyRequired
	}
	for i := 0; i < len(d.StoreKey); i++ {
		if !isCookieToken(d.StoreKey[i]) {
			return fmt.Errorf("%w: %q", ErrStoreKeyInvalid, d.StoreKey)
		}
	}
	if d.HookName == "" {
		return ErrHookNameRequired
	}
	if len(d.HookName) < 3 || d.HookName[0] != '-' || d.HookName[1] != '-' {
		return fmt.Errorf("%w: %q", ErrHookNameInvalid, d.HookName)
	}
	for _, r := range d.HookName[2:] {
		if !isHookIdent(r) {
			return fmt.Errorf("%w: %q", ErrHookNameInvalid, d.HookName)
		}
	}
	return nil
}

// HTTPCookie returns the server-side write for value with the same attributes
// the client write path uses: site-root path, one-year max-age, lax same-site
// policy, and the value percent-encoded exactly as the in-document write would
// encode it. HttpOnly stays false so the synthesized routine can read the
// entry back out of document.cookie.
func (d Descriptor) HTTPCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     d.StoreKey,
		Value:    jstext.EncodeURIComponent(value),
		Path:     StorePath,
		MaxAge:   StoreMaxAge,
		SameSite: http.SameSiteLaxMode,
		HttpOnly: false,
	}
}

// isCookieToken reports whether c is legal in a cookie name per RFC 6265.
// Everything that could collide with the "; key=" search pattern (spaces,
// semicolons, equals signs) is a separator and therefore excluded.
func isCookieToken(c byte) bool {
	if c <= 0x20 || c >= 0x7f {
		return false
	}
	switch c {
	case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"', '/', '[', ']', '?', '=', '{', '}':
		return false
	}
	return true
}

func isHookIdent(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	case r >= 0x80:
		return true
	}
	return false
}
