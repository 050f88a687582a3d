package storage

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/rapat/domain/entities"
)

func TestMemorySaveIsolatesCallerMutation(t *testing.T) {
	repo := NewMemory(zaptest.NewLogger(t))

	session := &entities.Session{
		ID:         "s-1",
		Title:      "Standup",
		Status:     entities.SessionStatusEnded,
		Transcript: []entities.TranscriptEntry{{Speaker: "You", Text: "hello"}},
	}
	if err := repo.Save(context.Background(), session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating after save must not reach the archive.
	session.Transcript[0].Text = "mutated"
	session.Title = "changed"

	archived := repo.All()
	if len(archived) != 1 {
		t.Fatalf("archived %d sessions, want 1", len(archived))
	}
	if archived[0].Title != "Standup" {
		t.Errorf("archived title = %q, want Standup", archived[0].Title)
	}
	if archived[0].Transcript[0].Text != "hello" {
		t.Errorf("archived transcript = %q, want hello", archived[0].Transcript[0].Text)
	}
}

func TestMemoryPreservesSaveOrder(t *testing.T) {
	repo := NewMemory(zaptest.NewLogger(t))

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Save(context.Background(), &entities.Session{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	archived := repo.All()
	if len(archived) != 3 {
		t.Fatalf("archived %d sessions, want 3", len(archived))
	}
	for i, id := range []string{"a", "b", "c"} {
		if archived[i].ID != id {
			t.Errorf("archived[%d].ID = %q, want %q", i, archived[i].ID, id)
		}
	}
}
