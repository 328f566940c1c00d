package domsim

import (
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-prefs"
)

// Page simulates the document surfaces the preference runtime touches: a
// cookie jar with assignment semantics, the root element's style map, and a
// frame queue for mount signals. It implements prefs.Document, so a test can
// bind cells against it and then replay the same bytes a browser would see.
type Page struct {
	mu      sync.Mutex
	cookies []cookie
	style   map[string]string
	frame   []func()
}

type cookie struct {
	name  string
	value string
}

var _ prefs.Document = (*Page)(nil)

// NewPage constructs an empty page.
func NewPage() *Page {
	return &Page{style: make(map[string]string)}
}

// SetCookie applies one document.cookie assignment: the name=value pair
// before the first attribute is stored verbatim, a max-age attribute of zero
// or less deletes the entry, and repeated names update in place. Other
// attributes are accepted and ignored, which matches how a jar treats path
// and SameSite on a single-origin page.
func (p *Page) SetCookie(entry string) {
	segments := strings.Split(entry, ";")
	pair := strings.TrimSpace(segments[0])
	name, value, found := strings.Cut(pair, "=")
	if !found || name == "" {
		return
	}

	expired := false
	for _, segment := range segments[1:] {
		attr := strings.TrimSpace(segment)
		attrName, attrValue, _ := strings.Cut(attr, "=")
		if !strings.EqualFold(strings.TrimSpace(attrName), "max-age") {
			continue
		}
		age, err := strconv.Atoi(strings.TrimSpace(attrValue))
		if err == nil && age <= 0 {
			expired = true
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.cookies {
		if existing.name != name {
			continue
		}
		if expired {
			p.cookies = append(p.cookies[:i], p.cookies[i+1:]...)
			return
		}
		p.cookies[i].value = value
		return
	}
	if !expired {
		p.cookies = append(p.cookies, cookie{name: name, value: value})
	}
}

// CookieString renders the jar the way document.cookie reads: "a=1; b=2",
// values verbatim as stored.
func (p *Page) CookieString() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	parts := make([]string, 0, len(p.cookies))
	for _, c := range p.cookies {
		parts = append(parts, c.name+"="+c.value)
	}
	return strings.Join(parts, "; ")
}

// Cookie returns the stored value for name, still in its encoded form.
func (p *Page) Cookie(name string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.cookies {
		if c.name == name {
			return c.value, true
		}
	}
	return "", false
}

// Hook implements prefs.Document.
func (p *Page) Hook(name string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	value, ok := p.style[name]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// SetHook implements prefs.Document.
func (p *Page) SetHook(name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.style == nil {
		p.style = make(map[string]string)
	}
	p.style[name] = value
}

// WriteStore implements prefs.Document.
func (p *Page) WriteStore(entry string) {
	p.SetCookie(entry)
}

// RequestFrame queues fn for the next Flush.
func (p *Page) RequestFrame(fn func()) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.frame = append(p.frame, fn)
	p.mu.Unlock()
}

// Flush runs the callbacks queued so far, in order. Callbacks queued during
// a flush wait for the next one, like frames do.
func (p *Page) Flush() {
	p.mu.Lock()
	pending := p.frame
	p.frame = nil
	p.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// FrameSignal returns a mount signal that fires when the page's frame queue
// flushes, standing in for requestAnimationFrame.
func (p *Page) FrameSignal() prefs.MountSignal {
	return prefs.MountSignalFunc(p.RequestFrame)
}
