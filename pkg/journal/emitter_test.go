package journal

import (
	"context"
	"testing"
)

func TestEmitterDisabled(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: false})

	if emitter.Enabled() {
		t.Fatalf("expected disabled emitter")
	}
	err := emitter.Emit(context.Background(), Event{Verb: VerbUpdated, ObjectType: ObjectTypePreference, ObjectID: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("disabled emitter delivered %d events", len(capture.Events))
	}
}

func TestEmitterWithoutHooksStaysDisabled(t *testing.T) {
	emitter := NewEmitter(nil, Config{Enabled: true})
	if emitter.Enabled() {
		t.Fatalf("expected disabled emitter without hooks")
	}

	// nil entries do not count as hooks.
	emitter = NewEmitter(Hooks{nil, nil}, Config{Enabled: true})
	if emitter.Enabled() {
		t.Fatalf("expected disabled emitter with only nil hooks")
	}
}

func TestEmitterAppliesDefaultChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	err := emitter.Emit(context.Background(), Event{Verb: VerbUpdated, ObjectType: ObjectTypePreference, ObjectID: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Events) != 1 || capture.Events[0].Channel != "preferences" {
		t.Fatalf("events = %+v", capture.Events)
	}
}

func TestEmitterKeepsExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "settings"})

	_ = emitter.Emit(context.Background(), Event{Verb: VerbUpdated, ObjectType: ObjectTypePreference, ObjectID: "a"})
	_ = emitter.Emit(context.Background(), Event{Verb: VerbUpdated, ObjectType: ObjectTypePreference, ObjectID: "b", Channel: "override"})

	if capture.Events[0].Channel != "settings" {
		t.Fatalf("default channel = %q", capture.Events[0].Channel)
	}
	if capture.Events[1].Channel != "override" {
		t.Fatalf("explicit channel = %q", capture.Events[1].Channel)
	}
}

func TestEmitterNilReceiver(t *testing.T) {
	var emitter *Emitter
	if emitter.Enabled() {
		t.Fatalf("nil emitter reported enabled")
	}
	if err := emitter.Emit(context.Background(), Event{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
