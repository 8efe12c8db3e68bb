package store

import (
	"context"
	"errors"
	"testing"

	"github.com/prepwise/interview-coach/internal/model"
)

func testSnapshot(id string) *Snapshot {
	return &Snapshot{
		ID: id,
		Context: model.SessionContext{
			Role:  "Backend Engineer",
			Level: model.LevelMid,
		},
		Phase: model.PhaseIdle,
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	snap := testSnapshot("s1")
	if err := s.Create(ctx, snap); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if snap.Version != 1 {
		t.Errorf("Version = %d, want 1", snap.Version)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Context.Role != "Backend Engineer" || got.Version != 1 {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreUpdateIncrementsVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	snap := testSnapshot("s1")
	if err := s.Create(ctx, snap); err != nil {
		t.Fatalf("Create: %v", err)
	}

	snap.Phase = model.PhaseSpeaking
	snap.Transcript = []model.Turn{{Speaker: model.SpeakerInterviewer, Text: "Hi"}}
	if err := s.Update(ctx, snap); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if snap.Version != 2 {
		t.Errorf("Version = %d, want 2", snap.Version)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Phase != model.PhaseSpeaking || len(got.Transcript) != 1 {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestMemoryStoreUpdateVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	snap := testSnapshot("s1")
	if err := s.Create(ctx, snap); err != nil {
		t.Fatalf("Create: %v", err)
	}

	stale := testSnapshot("s1")
	stale.Version = 99
	if err := s.Update(ctx, stale); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("err = %v, want ErrVersionConflict", err)
	}
}

func TestMemoryStoreUpdateNotFound(t *testing.T) {
	s := NewMemoryStore()
	snap := testSnapshot("ghost")
	snap.Version = 1
	if err := s.Update(context.Background(), snap); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Create(ctx, testSnapshot("s1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	snap := testSnapshot("s1")
	snap.Transcript = []model.Turn{{Speaker: model.SpeakerInterviewer, Text: "Hi"}}
	if err := s.Create(ctx, snap); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Transcript[0].Text = "mutated"

	again, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Transcript[0].Text != "Hi" {
		t.Error("Get must return an isolated copy")
	}
}
