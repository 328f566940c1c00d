package prefs

// ProgramCache stores reusable build products keyed by strings: compiled
// guard programs keyed by their rule text, and synthesized initialization
// routines keyed by set fingerprint. Implementations decide eviction; the
// library treats entries as immutable once stored.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
