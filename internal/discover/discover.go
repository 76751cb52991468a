// Package discover walks a repository and yields the source files Cruxe
// should index, honoring a three-layer ignore chain: built-in defaults,
// .gitignore, and .cruxeignore (both supporting "!" negation).
package discover

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/signalridge/cruxe/internal/lang"
)

// defaultIgnoreDirs are directory names skipped unconditionally.
var defaultIgnoreDirs = map[string]bool{
	".cache": true, ".git": true, ".hg": true, ".svn": true,
	".idea": true, ".vs": true, ".vscode": true,
	".mypy_cache": true, ".pytest_cache": true, ".ruff_cache": true,
	".tox": true, ".nox": true, ".venv": true, "venv": true, "env": true,
	".npm": true, ".yarn": true, ".pnpm-store": true,
	"__pycache__": true, "node_modules": true, "bower_components": true,
	"target": true, "build": true, "dist": true, "out": true, "bin": true, "obj": true,
	"coverage": true, "htmlcov": true, "vendor": true, "Pods": true,
	"site-packages": true, "tmp": true, "temp": true,
}

// defaultIgnoreSuffixes are binary/build-artifact file suffixes skipped
// unconditionally.
var defaultIgnoreSuffixes = []string{
	".pyc", ".pyo", ".o", ".a", ".so", ".dll", ".dylib", ".class", ".exe", ".wasm",
}

// DefaultMaxFileSize is the maximum file size, in bytes, discovered
// files may have before being skipped with a warning.
const DefaultMaxFileSize = 4 << 20 // 4 MiB

// FileInfo describes one discovered source file.
type FileInfo struct {
	Path     string // absolute path
	RelPath  string // relative to repo root, slash-separated
	Language lang.Language
	Size     int64
}

// Warning records a file or directory skipped for a reportable reason
// (as opposed to silently, for ordinary ignore-chain matches).
type Warning struct {
	Path   string
	Reason string
}

// Options configures discovery.
type Options struct {
	// MaxFileSize overrides DefaultMaxFileSize when non-zero.
	MaxFileSize int64
	// ExtraIgnoreFile is an additional ignore file to load alongside
	// .gitignore/.cruxeignore (mainly for tests).
	ExtraIgnoreFile string
}

// Result is the outcome of a Discover call.
type Result struct {
	Files    []FileInfo
	Warnings []Warning
}

// Discover walks repoPath and returns every file Cruxe can parse,
// applying the built-in ignore list, then .gitignore, then
// .cruxeignore, in that order; later files may negate earlier ones with
// a "!" prefix exactly as git itself does.
func Discover(ctx context.Context, repoPath string, opts *Options) (*Result, error) {
	repoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	maxSize := int64(DefaultMaxFileSize)
	if opts != nil && opts.MaxFileSize > 0 {
		maxSize = opts.MaxFileSize
	}

	matcher := loadIgnoreChain(repoPath, opts)

	res := &Result{}
	err = filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(repoPath, path)
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && (defaultIgnoreDirs[info.Name()] || matcher.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher.MatchesPath(rel) {
			return nil
		}
		for _, suffix := range defaultIgnoreSuffixes {
			if strings.HasSuffix(path, suffix) {
				return nil
			}
		}

		ext := filepath.Ext(path)
		l, ok := lang.LanguageForExtension(ext)
		if !ok {
			return nil
		}

		if info.Size() > maxSize {
			res.Warnings = append(res.Warnings, Warning{Path: rel, Reason: "file_too_large"})
			return nil
		}

		res.Files = append(res.Files, FileInfo{
			Path:     path,
			RelPath:  rel,
			Language: l,
			Size:     info.Size(),
		})
		return nil
	})

	return res, err
}

// loadIgnoreChain compiles .gitignore and .cruxeignore (if present) into
// a single matcher. Missing files contribute no patterns.
func loadIgnoreChain(repoPath string, opts *Options) *gitignore.GitIgnore {
	var lines []string
	lines = append(lines, readIgnoreFile(filepath.Join(repoPath, ".gitignore"))...)
	lines = append(lines, readIgnoreFile(filepath.Join(repoPath, ".cruxeignore"))...)
	if opts != nil && opts.ExtraIgnoreFile != "" {
		lines = append(lines, readIgnoreFile(opts.ExtraIgnoreFile)...)
	}
	return gitignore.CompileIgnoreLines(lines...)
}

func readIgnoreFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimRight(line, "\r")
		out = append(out, trimmed)
	}
	return out
}
