package prefs

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-prefs/internal/hydrate"
)

var (
	// ErrGuardEngineUnknown reports a manifest guard engine with no
	// reconstructible implementation, e.g. a custom Guard supplied in code.
	ErrGuardEngineUnknown = errors.New("prefs: unknown guard engine")
	// ErrManifestDrift reports a manifest whose fingerprint no longer matches
	// the preferences it lists, usually a hand-edit after generation.
	ErrManifestDrift = errors.New("prefs: manifest fingerprint does not match its preferences")
)

// ManifestLoadOption configures manifest-driven registry reconstruction.
type ManifestLoadOption func(*manifestLoadConfig)

type manifestLoadConfig struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// ManifestWithProgramCache shares cache across every guard engine the loader
// reconstructs.
func ManifestWithProgramCache(cache ProgramCache) ManifestLoadOption {
	return func(cfg *manifestLoadConfig) {
		cfg.cache = cache
	}
}

// ManifestWithFunctionRegistry exposes registry's functions to reconstructed
// guard rules. The registry is cloned.
func ManifestWithFunctionRegistry(registry *FunctionRegistry) ManifestLoadOption {
	return func(cfg *manifestLoadConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

func applyManifestLoadOptions(opts []ManifestLoadOption) manifestLoadConfig {
	cfg := manifestLoadConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// ManifestFromPayload decodes a manifest out of a loosely typed payload, the
// shape config services and embedded documents hand over. source names the
// payload origin in errors. Unknown fields are rejected and every entry is
// validated as a descriptor, so a broken payload fails here pointing at the
// offending entry rather than midway through registry reconstruction.
func ManifestFromPayload(source string, payload map[string]any) (Manifest, error) {
	decoder := hydrate.NewDecoder[Manifest](
		hydrate.WithDisallowUnknownFields[Manifest](),
		hydrate.WithPostHook[Manifest](validateManifestEntries),
	)
	return decoder.Decode(hydrate.Context{Source: source}, payload)
}

func validateManifestEntries(_ hydrate.Context, m *Manifest) error {
	if len(m.Preferences) == 0 {
		return ErrNoDescriptors
	}
	for i, entry := range m.Preferences {
		desc := Descriptor{
			StoreKey:     entry.StoreKey,
			HookName:     entry.HookName,
			DefaultValue: entry.DefaultValue,
		}
		if err := desc.Validate(); err != nil {
			return fmt.Errorf("preference %d (%q): %w", i, entry.StoreKey, err)
		}
	}
	return nil
}

// RegistryFromManifest rebuilds the registry a manifest was generated from:
// descriptors in manifest order, guard rules recompiled on their named
// engines. Engines that exist only in code ("custom") cannot be rebuilt and
// fail with ErrGuardEngineUnknown. A non-empty fingerprint is verified
// against the rebuilt set, so a manifest edited after generation fails with
// ErrManifestDrift instead of silently shipping different defaults.
func RegistryFromManifest(m Manifest, opts ...ManifestLoadOption) (*Registry, error) {
	if len(m.Preferences) == 0 {
		return nil, ErrNoDescriptors
	}
	cfg := applyManifestLoadOptions(opts)
	registry := NewRegistry()
	for _, entry := range m.Preferences {
		desc := Descriptor{
			StoreKey:     entry.StoreKey,
			HookName:     entry.HookName,
			DefaultValue: entry.DefaultValue,
		}
		cellOpts, err := cellOptionsForEntry(entry, cfg)
		if err != nil {
			return nil, err
		}
		if _, err := registry.Define(desc, cellOpts...); err != nil {
			return nil, err
		}
	}
	if m.Fingerprint != "" {
		set, err := registry.Set()
		if err != nil {
			return nil, err
		}
		if set.Fingerprint() != m.Fingerprint {
			return nil, fmt.Errorf("%w: manifest %q, preferences %q", ErrManifestDrift, m.Fingerprint, set.Fingerprint())
		}
	}
	return registry, nil
}

// RegistryFromPayload decodes payload as a manifest and rebuilds its registry
// in one step.
func RegistryFromPayload(source string, payload map[string]any, opts ...ManifestLoadOption) (*Registry, error) {
	m, err := ManifestFromPayload(source, payload)
	if err != nil {
		return nil, err
	}
	return RegistryFromManifest(m, opts...)
}

func cellOptionsForEntry(entry ManifestEntry, cfg manifestLoadConfig) ([]CellOption, error) {
	if entry.GuardRule == "" {
		return nil, nil
	}
	opts := []CellOption{WithGuardRule(entry.GuardRule)}
	if entry.GuardEngine == "" {
		// No engine recorded: the cell falls back to its default engine.
		if cfg.cache != nil {
			opts = append(opts, WithGuardCache(cfg.cache))
		}
		if cfg.functions != nil {
			opts = append(opts, WithGuardFunctions(cfg.functions))
		}
		return opts, nil
	}
	guard, err := guardForEngine(entry.GuardEngine, cfg)
	if err != nil {
		return nil, err
	}
	return append(opts, WithGuard(guard)), nil
}

func guardForEngine(engine string, cfg manifestLoadConfig) (Guard, error) {
	switch engine {
	case "expr":
		var opts []ExprGuardOption
		if cfg.cache != nil {
			opts = append(opts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.functions != nil {
			opts = append(opts, ExprWithFunctionRegistry(cfg.functions))
		}
		return NewExprGuard(opts...), nil
	case "cel":
		var opts []CELGuardOption
		if cfg.cache != nil {
			opts = append(opts, CELWithProgramCache(cfg.cache))
		}
		if cfg.functions != nil {
			opts = append(opts, CELWithFunctionRegistry(cfg.functions))
		}
		return NewCELGuard(opts...), nil
	case "js":
		var opts []JSGuardOption
		if cfg.cache != nil {
			opts = append(opts, JSWithProgramCache(cfg.cache))
		}
		if cfg.functions != nil {
			opts = append(opts, JSWithFunctionRegistry(cfg.functions))
		}
		return NewJSGuard(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrGuardEngineUnknown, engine)
	}
}
