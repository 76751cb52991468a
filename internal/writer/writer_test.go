package writer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalridge/cruxe/internal/store"
)

func newTestWriter(t *testing.T) (*Writer, *store.Store) {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	if err := s.UpsertProject(store.Project{ProjectID: "proj", RootPath: "/tmp/proj"}); err != nil {
		t.Fatalf("upsert project: %v", err)
	}
	w := &Writer{Store: s, FTSDir: filepath.Join(t.TempDir(), "fts")}
	t.Cleanup(func() { w.Close() })
	return w, s
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestBootstrapIndexesFilesAndSymbols(t *testing.T) {
	w, s := newTestWriter(t)
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n")

	out, err := w.Sync(context.Background(), Request{ProjectID: "proj", Ref: "main", WorktreeRoot: root})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if out.FilesIndexed != 1 {
		t.Fatalf("expected 1 file indexed, got %d", out.FilesIndexed)
	}
	if out.SymbolsExtracted != 1 {
		t.Fatalf("expected 1 symbol extracted, got %d", out.SymbolsExtracted)
	}

	symbols, err := s.SymbolsByPath("proj", "main", "main.go")
	if err != nil {
		t.Fatalf("symbols by path: %v", err)
	}
	if len(symbols) != 1 || symbols[0].Name != "Hello" {
		t.Fatalf("unexpected symbols %+v", symbols)
	}

	branch, err := s.GetBranchState("proj", "main")
	if err != nil {
		t.Fatalf("get branch state: %v", err)
	}
	if branch == nil || branch.Status != "ready" {
		t.Fatalf("expected branch state ready, got %+v", branch)
	}

	job, err := s.LatestJob("proj", "main")
	if err != nil {
		t.Fatalf("latest job: %v", err)
	}
	if job == nil || job.State != store.JobStatePublished {
		t.Fatalf("expected published job, got %+v", job)
	}
}

func TestSyncRejectsConcurrentJob(t *testing.T) {
	w, s := newTestWriter(t)
	if err := s.CreateJob(store.IndexJob{JobID: "running", ProjectID: "proj", Ref: "main", State: store.JobStateRunning}); err != nil {
		t.Fatalf("seed active job: %v", err)
	}

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")

	_, err := w.Sync(context.Background(), Request{ProjectID: "proj", Ref: "main", WorktreeRoot: root})
	if err != store.ErrJobInFlight {
		t.Fatalf("expected ErrJobInFlight, got %v", err)
	}
}
