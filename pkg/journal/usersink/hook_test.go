package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-prefs/pkg/journal"
	"github.com/goliatone/go-prefs/pkg/journal/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()

	event := journal.Event{
		ID:         "evt-1",
		Verb:       journal.VerbUpdated,
		ActorID:    actorID.String(),
		UserID:     userID.String(),
		TenantID:   tenantID.String(),
		ObjectType: journal.ObjectTypePreference,
		ObjectID:   "sidebar_width",
		Channel:    "settings",
		Metadata: map[string]any{
			"old_value": "280px",
			"new_value": "340px",
		},
		OccurredAt: now,
	}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != userID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity fields: %+v", record)
	}
	if record.Verb != journal.VerbUpdated || record.ObjectType != journal.ObjectTypePreference || record.ObjectID != "sidebar_width" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "settings" {
		t.Fatalf("expected channel settings got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["old_value"] != "280px" || record.Data["new_value"] != "340px" {
		t.Fatalf("expected metadata passthrough got %+v", record.Data)
	}
	if record.Data["event_id"] != "evt-1" {
		t.Fatalf("expected event_id metadata got %v", record.Data["event_id"])
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), journal.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyNilSink(t *testing.T) {
	hook := usersink.Hook{}
	err := hook.Notify(context.Background(), journal.Event{
		Verb:       journal.VerbSeeded,
		ObjectType: journal.ObjectTypePreference,
		ObjectID:   "sidebar_width",
	})
	if err != nil {
		t.Fatalf("expected nil error without sink, got %v", err)
	}
}

func TestHookNotifyInvalidIdentityFallsBackToNilUUID(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), journal.Event{
		Verb:       journal.VerbUpdated,
		ActorID:    "ops-team",
		ObjectType: journal.ObjectTypePreference,
		ObjectID:   "sidebar_width",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected uuid.Nil for unparseable actor, got %s", sink.records[0].ActorID)
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	sinkErr := errors.New("sink down")
	sink := &recordingSink{err: sinkErr}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), journal.Event{
		Verb:       journal.VerbUpdated,
		ObjectType: journal.ObjectTypePreference,
		ObjectID:   "sidebar_width",
	})
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
}
