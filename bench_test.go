package prefs

import (
	"fmt"
	"testing"
)

func benchmarkDescriptors(n int) []Descriptor {
	descriptors := make([]Descriptor, n)
	for i := 0; i < n; i++ {
		descriptors[i] = Descriptor{
			StoreKey:     fmt.Sprintf("pref_%d", i),
			HookName:     fmt.Sprintf("--pref-%d", i),
			DefaultValue: fmt.Sprintf("%dpx", 200+i),
		}
	}
	return descriptors
}

func BenchmarkSynthesize(b *testing.B) {
	set, err := NewSet(benchmarkDescriptors(10))
	if err != nil {
		b.Fatalf("set: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if out := set.Synthesize(); out == "" {
			b.Fatal("empty routine")
		}
	}
}

func BenchmarkSynthesizeCached(b *testing.B) {
	set, err := NewSet(benchmarkDescriptors(10), SetWithProgramCache(newMemoryCache()))
	if err != nil {
		b.Fatalf("set: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if out := set.Synthesize(); out == "" {
			b.Fatal("empty routine")
		}
	}
}

func BenchmarkLookupStore(b *testing.B) {
	// Worst case for the scan: the queried key sits at the end of the buffer.
	var buffer string
	for i := 0; i < 10; i++ {
		if i > 0 {
			buffer += "; "
		}
		buffer += fmt.Sprintf("pref_%d=%dpx", i, 200+i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if got := LookupStore(buffer, "pref_9", "0px"); got != "209px" {
			b.Fatalf("lookup returned %q", got)
		}
	}
}

func BenchmarkGuardAllow(b *testing.B) {
	guard := NewExprGuard(ExprWithProgramCache(newMemoryCache()))
	compiled, err := guard.Compile(`value endsWith "px"`)
	if err != nil {
		b.Fatalf("compile: %v", err)
	}
	gctx := GuardContext{Key: "sidebar_width", Value: "320px", Phase: GuardPhaseWrite}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		allowed, err := compiled.Allow(gctx)
		if err != nil {
			b.Fatalf("allow: %v", err)
		}
		if !allowed {
			b.Fatal("unexpected rejection")
		}
	}
}
