package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestSyncBootstrapsGitlessProject(t *testing.T) {
	dataDir := t.TempDir()
	router, err := NewRouter(dataDir, 8, nil, true)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	t.Cleanup(router.CloseAll)

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc Hello() string { return \"hi\" }\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	syncer := &Syncer{Router: router, WorktreeDir: t.TempDir()}
	out, err := syncer.Sync(context.Background(), "proj", root, "working", nil)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if out.FilesIndexed != 1 {
		t.Fatalf("expected 1 file indexed, got %d", out.FilesIndexed)
	}
}

func TestSyncCollapsesConcurrentRequestsForSameRef(t *testing.T) {
	dataDir := t.TempDir()
	router, err := NewRouter(dataDir, 8, nil, true)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	t.Cleanup(router.CloseAll)

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc Hello() string { return \"hi\" }\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	syncer := &Syncer{Router: router, WorktreeDir: t.TempDir()}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := syncer.Sync(context.Background(), "proj2", root, "working", nil)
			errs[i] = err
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
}
