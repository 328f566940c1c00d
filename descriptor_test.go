package prefs

import (
	"errors"
	"net/http"
	"testing"
)

func TestDescriptorValidate(t *testing.T) {
	cases := []struct {
		name    string
		desc    Descriptor
		wantErr error
	}{
		{"valid", Descriptor{StoreKey: "sidebar_width", HookName: "--sidebar-width", DefaultValue: "280px"}, nil},
		{"valid empty default", Descriptor{StoreKey: "density", HookName: "--density"}, nil},
		{"valid unicode hook", Descriptor{StoreKey: "theme", HookName: "--thème"}, nil},
		{"missing store key", Descriptor{HookName: "--x-y"}, ErrStoreKeyRequired},
		{"store key with space", Descriptor{StoreKey: "side bar", HookName: "--sidebar"}, ErrStoreKeyInvalid},
		{"store key with equals", Descriptor{StoreKey: "a=b", HookName: "--ab"}, ErrStoreKeyInvalid},
		{"store key with semicolon", Descriptor{StoreKey: "a;b", HookName: "--ab"}, ErrStoreKeyInvalid},
		{"store key non-ascii", Descriptor{StoreKey: "thème", HookName: "--theme"}, ErrStoreKeyInvalid},
		{"missing hook name", Descriptor{StoreKey: "theme"}, ErrHookNameRequired},
		{"hook without prefix", Descriptor{StoreKey: "theme", HookName: "theme"}, ErrHookNameInvalid},
		{"hook prefix only", Descriptor{StoreKey: "theme", HookName: "--"}, ErrHookNameInvalid},
		{"hook single dash", Descriptor{StoreKey: "theme", HookName: "-theme"}, ErrHookNameInvalid},
		{"hook with space", Descriptor{StoreKey: "theme", HookName: "--the me"}, ErrHookNameInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.desc.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewDescriptor(t *testing.T) {
	d, err := NewDescriptor("color_theme", "--color-theme", "system")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.StoreKey != "color_theme" || d.HookName != "--color-theme" || d.DefaultValue != "system" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}

	if _, err := NewDescriptor("", "--x-y", ""); !errors.Is(err, ErrStoreKeyRequired) {
		t.Fatalf("error = %v, want ErrStoreKeyRequired", err)
	}
}

func TestDescriptorHTTPCookie(t *testing.T) {
	d := Descriptor{StoreKey: "sidebar_width", HookName: "--sidebar-width", DefaultValue: "280px"}
	c := d.HTTPCookie("20 rem")
	if c.Name != "sidebar_width" {
		t.Fatalf("Name = %q", c.Name)
	}
	// Same encoding the in-document write path applies.
	if c.Value != "20%20rem" {
		t.Fatalf("Value = %q, want %q", c.Value, "20%20rem")
	}
	if c.Path != StorePath || c.MaxAge != StoreMaxAge {
		t.Fatalf("attributes = %q %d, want %q %d", c.Path, c.MaxAge, StorePath, StoreMaxAge)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("SameSite = %v", c.SameSite)
	}
	if c.HttpOnly {
		t.Fatalf("HttpOnly must stay false so the routine can read the entry")
	}
}
