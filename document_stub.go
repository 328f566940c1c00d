//go:build !(js && wasm)

package prefs

// BrowserDocument returns nil outside a browser build. Binding cells with a
// nil Document is the document-generation phase: seeds come from defaults
// and writes stay in memory.
func BrowserDocument() Document { return nil }

// AnimationFrameSignal returns nil outside a browser build; a nil signal on
// Bind means the cell mounts immediately when a Document is present.
func AnimationFrameSignal() MountSignal { return nil }
