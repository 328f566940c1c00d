package prefs

import (
	"html/template"
	"strings"

	"github.com/goliatone/go-prefs/internal/jstext"
)

// The routine is assembled from fixed fragments so output is byte-identical
// for identical input. It reads document.cookie exactly once into a buffer
// normalized with a leading "; ", defines the shared lookup once, then emits
// one setProperty call per descriptor. Inside the lookup, a missing trailing
// delimiter falls through to a slice that runs to end of buffer.
const (
	scriptOpen = `(function(){var b="; "+document.cookie;` +
		`function v(k,d){var p="; "+k+"=";var i=b.indexOf(p);if(i<0)return d;` +
		`var j=i+p.length;var e=b.indexOf(";",j);return e<0?b.slice(j):b.slice(j,e)}` +
		`var s=document.documentElement.style;`
	scriptClose = `})();`
)

// Synthesize validates descriptors and emits the shared initialization
// routine for them. The output is pure program text with no external
// dependencies, intended to be inlined at the earliest possible point of the
// document body, before any content whose layout reads the hooks. Identical
// descriptor sequences produce identical bytes, so callers may cache the
// result keyed on their own configuration identity.
func Synthesize(descriptors ...Descriptor) (string, error) {
	set, err := NewSet(descriptors)
	if err != nil {
		return "", err
	}
	return set.Synthesize(), nil
}

// Synthesize emits the initialization routine for the set, consulting the
// configured ProgramCache first when one is present.
func (s *Set) Synthesize() string {
	if s.cache != nil {
		if cached, ok := s.cache.Get(s.fingerprint); ok {
			if text, ok := cached.(string); ok {
				return text
			}
		}
	}
	text := synthesizeText(s.descriptors)
	if s.cache != nil {
		s.cache.Set(s.fingerprint, text)
	}
	return text
}

func synthesizeText(descriptors []Descriptor) string {
	var b strings.Builder
	b.Grow(len(scriptOpen) + len(scriptClose) + 48*len(descriptors))
	b.WriteString(scriptOpen)
	for _, d := range descriptors {
		b.WriteString("s.setProperty(")
		b.WriteString(jstext.EscapeString(d.HookName))
		b.WriteString(",v(")
		b.WriteString(jstext.EscapeString(d.StoreKey))
		b.WriteString(",")
		b.WriteString(jstext.EscapeString(d.DefaultValue))
		b.WriteString("));")
	}
	b.WriteString(scriptClose)
	return b.String()
}

// ScriptTagOption configures ScriptTag output.
type ScriptTagOption func(*scriptTagConfig)

type scriptTagConfig struct {
	nonce string
}

// WithNonce adds a CSP nonce attribute to the emitted script element.
func WithNonce(nonce string) ScriptTagOption {
	return func(cfg *scriptTagConfig) {
		cfg.nonce = nonce
	}
}

// ScriptTag wraps the synthesized routine in a <script> element typed as
// template.HTML, which tells html/template hosts to inject it verbatim
// instead of escaping or diffing it. The routine body is already inline-safe:
// every "<" inside embedded literals is escaped, so no descriptor content can
// close the element early.
func (s *Set) ScriptTag(opts ...ScriptTagOption) template.HTML {
	cfg := scriptTagConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	var b strings.Builder
	b.WriteString("<script")
	if cfg.nonce != "" {
		b.WriteString(` nonce="`)
		b.WriteString(template.HTMLEscapeString(cfg.nonce))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(s.Synthesize())
	b.WriteString("</script>")
	return template.HTML(b.String())
}
