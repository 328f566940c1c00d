package prefs

import "encoding/json"

// ManifestEntry describes one declared preference.
type ManifestEntry struct {
	StoreKey     string `json:"store_key"`
	HookName     string `json:"hook_name"`
	DefaultValue string `json:"default_value"`
	GuardEngine  string `json:"guard_engine,omitempty"`
	GuardRule    string `json:"guard_rule,omitempty"`
}

// Manifest is the machine-readable description of a preference set: one
// entry per descriptor in definition order plus the set fingerprint. Build
// pipelines diff manifests to catch declaration drift between deploys.
type Manifest struct {
	Fingerprint string          `json:"fingerprint"`
	Preferences []ManifestEntry `json:"preferences"`
}

// ToJSON serialises the manifest for transport or storage.
func (m Manifest) ToJSON() ([]byte, error) {
	type alias Manifest
	return json.Marshal(alias(m))
}

// ManifestFromJSON deserialises a payload previously generated via ToJSON.
func ManifestFromJSON(payload []byte) (Manifest, error) {
	type alias Manifest
	var manifest alias
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return Manifest{}, err
	}
	return Manifest(manifest), nil
}

// Manifest describes the set's descriptors. Guard columns stay empty here;
// guards belong to cells, not the synthesized set.
func (s *Set) Manifest() Manifest {
	entries := make([]ManifestEntry, 0, len(s.descriptors))
	for _, desc := range s.descriptors {
		entries = append(entries, ManifestEntry{
			StoreKey:     desc.StoreKey,
			HookName:     desc.HookName,
			DefaultValue: desc.DefaultValue,
		})
	}
	return Manifest{
		Fingerprint: s.Fingerprint(),
		Preferences: entries,
	}
}

// Manifest describes every defined preference including its guard, in
// definition order.
func (r *Registry) Manifest() (Manifest, error) {
	set, err := r.Set()
	if err != nil {
		return Manifest{}, err
	}
	manifest := set.Manifest()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range manifest.Preferences {
		cell, ok := r.cells[manifest.Preferences[i].StoreKey]
		if !ok {
			continue
		}
		manifest.Preferences[i].GuardEngine = cell.engine
		manifest.Preferences[i].GuardRule = cell.rule
	}
	return manifest, nil
}
