package journal

import (
	"strings"
	"time"
)

// Verbs and object types carried by preference lifecycle events.
const (
	VerbSeeded  = "preference.seeded"
	VerbUpdated = "preference.updated"

	ObjectTypePreference = "preference"
)

// PreferenceEventInput describes the common fields for preference lifecycle
// events.
type PreferenceEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Key        string
	Hook       string
	OldValue   string
	NewValue   string
	Origin     string
	Persisted  bool
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildSeededEvent constructs a normalized event for a binding seed: the
// value a cell adopted when it entered a scope.
func BuildSeededEvent(input PreferenceEventInput) Event {
	return buildPreferenceEvent(VerbSeeded, input)
}

// BuildUpdatedEvent constructs a normalized event for a write through a
// binding's Set.
func BuildUpdatedEvent(input PreferenceEventInput) Event {
	return buildPreferenceEvent(VerbUpdated, input)
}

func buildPreferenceEvent(verb string, input PreferenceEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Hook != "" {
		metadata = ensureMetadata(metadata)
		metadata["hook"] = input.Hook
	}
	if input.Origin != "" {
		metadata = ensureMetadata(metadata)
		metadata["origin"] = input.Origin
	}
	if verb == VerbUpdated {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
		metadata["new_value"] = input.NewValue
	} else if input.NewValue != "" {
		metadata = ensureMetadata(metadata)
		metadata["value"] = input.NewValue
	}
	metadata = ensureMetadata(metadata)
	metadata["persisted"] = input.Persisted

	objectID := strings.TrimSpace(input.Key)
	if objectID == "" {
		objectID = ObjectTypePreference
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypePreference,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
