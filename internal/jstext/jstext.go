package jstext

import (
	"fmt"
	"strings"
)

// EscapeString renders s as a double-quoted JavaScript string literal. The
// output is safe to embed in an inline <script> body: `<` is escaped so a
// value containing "</script>" cannot terminate the surrounding element, and
// U+2028/U+2029 are escaped because they are line terminators in JavaScript
// source but legal in string data.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '<', 0x2028, 0x2029:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// EncodeURIComponent percent-encodes s with the exact character set of the
// ECMAScript encodeURIComponent built-in: ALPHA, DIGIT and - _ . ! ~ * ' ( )
// pass through, every other byte of the UTF-8 encoding becomes %XX with
// uppercase hex digits. The stdlib escapers do not match: url.QueryEscape
// turns spaces into '+', url.PathEscape leaves sub-delimiters like '=' and
// '&' alone.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
