//go:build js && wasm

package prefs

import "syscall/js"

type browserDocument struct {
	doc js.Value
}

// BrowserDocument returns a Document backed by the page's global document,
// or nil when no document global exists.
func BrowserDocument() Document {
	doc := js.Global().Get("document")
	if !doc.Truthy() {
		return nil
	}
	return &browserDocument{doc: doc}
}

func (b *browserDocument) rootStyle() js.Value {
	return b.doc.Get("documentElement").Get("style")
}

func (b *browserDocument) Hook(name string) (string, bool) {
	value := b.rootStyle().Call("getPropertyValue", name).String()
	if value == "" {
		return "", false
	}
	return value, true
}

func (b *browserDocument) SetHook(name, value string) {
	b.rootStyle().Call("setProperty", name, value)
}

func (b *browserDocument) WriteStore(entry string) {
	b.doc.Set("cookie", entry)
}

// AnimationFrameSignal returns a MountSignal that fires on the next
// animation frame, the earliest point at which the rendered tree is
// attached to the live page.
func AnimationFrameSignal() MountSignal {
	return MountSignalFunc(func(fn func()) {
		var cb js.Func
		cb = js.FuncOf(func(js.Value, []js.Value) any {
			cb.Release()
			fn()
			return nil
		})
		js.Global().Call("requestAnimationFrame", cb)
	})
}
