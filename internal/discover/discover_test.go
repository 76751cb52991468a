package discover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverBasic(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.py"), []byte("def main(): pass\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	res, err := Discover(ctx, dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(res.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(res.Files))
	}
	for _, f := range res.Files {
		if f.Path == "" || f.RelPath == "" || f.Language == "" {
			t.Errorf("incomplete FileInfo: %+v", f)
		}
	}
}

func TestDiscoverCancellation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Discover(ctx, dir, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDiscoverGitignoreNegation(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, ".gitignore"), "*.go\n!keep.go\n")
	mustWrite(t, filepath.Join(dir, "skip.go"), "package main\n")
	mustWrite(t, filepath.Join(dir, "keep.go"), "package main\n")

	res, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	var names []string
	for _, f := range res.Files {
		names = append(names, f.RelPath)
	}
	if len(names) != 1 || names[0] != "keep.go" {
		t.Fatalf("expected only keep.go, got %v", names)
	}
}

func TestDiscoverSkipsBuiltinDirs(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "node_modules", "pkg", "index.ts"), "export const x = 1;\n")
	mustWrite(t, filepath.Join(dir, "main.ts"), "export const y = 2;\n")

	res, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0].RelPath != "main.ts" {
		t.Fatalf("expected only main.ts, got %+v", res.Files)
	}
}

func TestDiscoverMaxFileSizeWarning(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "big.go"), "package main\n// "+string(make([]byte, 100))+"\n")

	res, err := Discover(context.Background(), dir, &Options{MaxFileSize: 10})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected file to be skipped, got %+v", res.Files)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Reason != "file_too_large" {
		t.Fatalf("expected file_too_large warning, got %+v", res.Warnings)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
