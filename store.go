package prefs

import (
	"strings"

	"github.com/goliatone/go-prefs/internal/jstext"
)

const (
	// StorePath is the path attribute applied to every persisted-store write.
	StorePath = "/"
	// StoreMaxAge is the lifetime in seconds of every persisted-store write,
	// one year.
	StoreMaxAge = 31536000

	storeDelimiter  = "; "
	storeWriteAttrs = "; path=/; max-age=31536000; SameSite=Lax"
)

// LookupStore resolves key inside a combined store string ("a=1; b=2; c=3")
// and falls back to fallback when the key has no entry. It is the exact Go
// counterpart of the lookup the synthesized routine performs: the buffer is
// prefixed with "; " so that searching for "; key=" can only match a complete,
// delimiter-bounded entry. A stored name that merely contains key ("x-sw" or
// "swx" against "sw") never matches, because the character before the match
// must be the delimiter and the character after key must be "=". The value is
// returned verbatim, without percent-decoding; a missing trailing delimiter is
// treated as end of entry.
func LookupStore(store, key, fallback string) string {
	buf := storeDelimiter + store
	pattern := storeDelimiter + key + "="
	i := strings.Index(buf, pattern)
	if i < 0 {
		return fallback
	}
	start := i + len(pattern)
	if end := strings.IndexByte(buf[start:], ';'); end >= 0 {
		return buf[start : start+end]
	}
	return buf[start:]
}

// FormatStoreWrite renders the persisted-store write for key and value:
// percent-encoded value, site-root path, one-year max-age, lax same-site
// policy. Encoding is write-side only. LookupStore and the synthesized
// routine never decode, so values carrying reserved store characters
// round-trip in encoded form.
func FormatStoreWrite(key, value string) string {
	return key + "=" + jstext.EncodeURIComponent(value) + storeWriteAttrs
}
