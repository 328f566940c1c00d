package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_manifest.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			options := buildOptions(tc)
			decoder := NewDecoder[manifestDocument](options...)

			ctx := Context{Source: tc.Source}

			result, err := decoder.Decode(ctx, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}

			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded manifest mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestDecodeNilPayload(t *testing.T) {
	decoder := NewDecoder[manifestDocument]()
	_, err := decoder.Decode(Context{Source: "config-service"}, nil)
	if err == nil {
		t.Fatal("expected error for nil payload")
	}
	if !strings.Contains(err.Error(), `payload is nil for "config-service"`) {
		t.Fatalf("error should name the source, got %v", err)
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	payload := map[string]any{
		"fingerprint": "abc",
		"preferences": []any{
			map[string]any{"store_key": "w", "hook_name": "--w", "default": "280px"},
		},
	}
	decoder := NewDecoder[manifestDocument](
		WithPreHook[manifestDocument](legacyDefaultsPreHook),
	)
	if _, err := decoder.Decode(Context{Source: "inline"}, payload); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	entry := payload["preferences"].([]any)[0].(map[string]any)
	if _, ok := entry["default"]; !ok {
		t.Fatal("pre-hook mutated the caller's payload")
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[manifestDocument] {
	options := []DecoderOption[manifestDocument]{}

	for _, optName := range tc.Options {
		switch optName {
		case "use_number":
			options = append(options, WithUseNumber[manifestDocument]())
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[manifestDocument]())
		}
	}

	for _, hookName := range tc.PreHooks {
		switch hookName {
		case "legacy_defaults":
			options = append(options, WithPreHook[manifestDocument](legacyDefaultsPreHook))
		case "stringify_defaults":
			options = append(options, WithPreHook[manifestDocument](stringifyDefaultsPreHook))
		}
	}

	for _, hookName := range tc.PostHooks {
		switch hookName {
		case "require_entries":
			options = append(options, WithPostHook[manifestDocument](requireEntriesPostHook))
		}
	}

	if tc.CustomDecoder != "" {
		switch tc.CustomDecoder {
		case "embedded_manifest":
			options = append(options, WithCustomDecoder[manifestDocument](embeddedManifestDecoder))
		}
	}

	return options
}

// legacyDefaultsPreHook migrates the first manifest schema, which stored the
// fallback under "default" instead of "default_value".
func legacyDefaultsPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	entries, ok := payload["preferences"].([]any)
	if !ok {
		return payload, nil
	}
	for _, item := range entries {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if legacy, exists := entry["default"]; exists {
			if _, taken := entry["default_value"]; !taken {
				entry["default_value"] = legacy
			}
			delete(entry, "default")
		}
	}
	return payload, nil
}

// stringifyDefaultsPreHook converts numeric defaults written by config
// authors into the string values the store contract requires.
func stringifyDefaultsPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	entries, ok := payload["preferences"].([]any)
	if !ok {
		return payload, nil
	}
	for _, item := range entries {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		switch v := entry["default_value"].(type) {
		case float64:
			entry["default_value"] = strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			entry["default_value"] = v.String()
		}
	}
	return payload, nil
}

func requireEntriesPostHook(_ Context, doc *manifestDocument) error {
	if doc == nil {
		return errors.New("manifest is nil")
	}
	if len(doc.Preferences) == 0 {
		return errors.New("manifest has no preferences")
	}
	return nil
}

// embeddedManifestDecoder handles config stores that double-encode the
// manifest as a JSON string under "manifest".
func embeddedManifestDecoder(ctx Context, payload map[string]any) (manifestDocument, error) {
	var zero manifestDocument
	raw, ok := payload["manifest"].(string)
	if !ok || raw == "" {
		return zero, fmt.Errorf("missing embedded manifest for %q", ctx.Source)
	}
	var out manifestDocument
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return zero, err
	}
	return out, nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name          string           `json:"name"`
	Source        string           `json:"source"`
	Input         map[string]any   `json:"input"`
	Expect        manifestDocument `json:"expect"`
	ExpectErr     string           `json:"expectErr"`
	PreHooks      []string         `json:"preHooks"`
	PostHooks     []string         `json:"postHooks"`
	Options       []string         `json:"options"`
	CustomDecoder string           `json:"customDecoder"`
}

// manifestDocument mirrors the root package's manifest shape. The root
// package depends on this one, so the mirror avoids an import cycle.
type manifestDocument struct {
	Fingerprint string            `json:"fingerprint"`
	Preferences []preferenceEntry `json:"preferences"`
}

type preferenceEntry struct {
	StoreKey     string `json:"store_key"`
	HookName     string `json:"hook_name"`
	DefaultValue string `json:"default_value"`
	GuardEngine  string `json:"guard_engine"`
	GuardRule    string `json:"guard_rule"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
