package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/timw/docuflow/internal/config"
	"github.com/timw/docuflow/internal/domain"
)

func testRepo(t *testing.T) *RunRepository {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	return NewRunRepository(db)
}

func TestCreateAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	run := &domain.PipelineRun{
		ID:        "run-1",
		Filename:  "invoice.pdf",
		State:     domain.RunStateStaged,
		StartedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Filename != "invoice.pdf" || got.State != domain.RunStateStaged {
		t.Errorf("got %q/%q, want invoice.pdf/staged", got.Filename, got.State)
	}
}

func TestUpdateTransitions(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	run := &domain.PipelineRun{
		ID:        "run-1",
		Filename:  "invoice.pdf",
		State:     domain.RunStateStaged,
		StartedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	run.State = domain.RunStateArchived
	run.Attempts = 2
	run.DocumentID = "doc1"
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if err := repo.Update(ctx, run); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.State != domain.RunStateArchived {
		t.Errorf("State = %q, want archived", got.State)
	}
	if got.Attempts != 2 || got.DocumentID != "doc1" {
		t.Errorf("Attempts/DocumentID = %d/%q, want 2/doc1", got.Attempts, got.DocumentID)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt not persisted")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := testRepo(t)
	if _, err := repo.GetByID(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing run, got nil")
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, state := range []domain.RunState{domain.RunStateArchived, domain.RunStateFailed, domain.RunStateTimedOut} {
		run := &domain.PipelineRun{
			ID:        "run-" + string(rune('a'+i)),
			Filename:  "doc.pdf",
			State:     state,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	runs, total, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(runs) != 2 {
		t.Fatalf("page size = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Errorf("order = %s, %s; want run-c, run-b", runs[0].ID, runs[1].ID)
	}

	rest, _, err := repo.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != "run-a" {
		t.Errorf("second page = %v, want run-a", rest)
	}
}
