package prefs

// Document is the narrow slice of a live document the runtime touches: the
// pre-paint hook namespace (custom properties on the root element) and the
// persisted-store write channel. A nil Document means the code is running in
// the document-generation phase, where neither exists yet.
type Document interface {
	// Hook reads a pre-paint hook by name; ok is false when the hook is
	// unset. By the time any cell reads it, the synthesized routine has
	// already primed every declared hook.
	Hook(name string) (value string, ok bool)
	// SetHook writes a pre-paint hook.
	SetHook(name, value string)
	// WriteStore applies one persisted-store write; entry carries the full
	// "key=value; attributes" string produced by FormatStoreWrite.
	WriteStore(entry string)
}

// MountSignal registers the one-shot callback a UI runtime fires after its
// tree first attaches to a live rendering surface. Implementations must
// invoke fn at most once; a signal that never fires simply leaves the cell
// unmounted, which needs no cleanup.
type MountSignal interface {
	OnMount(fn func())
}

// MountSignalFunc adapts a registration function to MountSignal.
type MountSignalFunc func(fn func())

// OnMount implements MountSignal.
func (f MountSignalFunc) OnMount(fn func()) {
	if f != nil && fn != nil {
		f(fn)
	}
}
