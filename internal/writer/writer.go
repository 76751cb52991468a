// Package writer runs the incremental (and full-bootstrap) indexing
// sync: discover changed files, extract their symbols/snippets/edges,
// and commit them so that no query ever observes a file half-indexed.
// It owns the index job's state machine end to end, mirroring the
// teacher pipeline's single-transaction Run but generalized to the
// spec's diff-driven, ref-scoped overlay model instead of a from-
// scratch full pass every time.
package writer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/signalridge/cruxe/internal/discover"
	"github.com/signalridge/cruxe/internal/extract"
	"github.com/signalridge/cruxe/internal/fts"
	"github.com/signalridge/cruxe/internal/ids"
	"github.com/signalridge/cruxe/internal/lang"
	"github.com/signalridge/cruxe/internal/parser"
	"github.com/signalridge/cruxe/internal/store"
	"github.com/signalridge/cruxe/internal/vcs"
)

// Writer commits one project's indexed state into the relational
// store and the full-text index together.
type Writer struct {
	Store  *store.Store
	FTSDir string
	VCS    *vcs.Adapter // nil for a git-less project

	fts *fts.Index
}

// Request describes one sync call.
type Request struct {
	ProjectID string
	Ref       string
	// WorktreeRoot is the filesystem directory to read files from,
	// already checked out to Ref (see vcs.Adapter.EnsureWorktree).
	WorktreeRoot string
}

// Outcome summarizes what a sync did.
type Outcome struct {
	JobID            string
	FilesScanned     int
	FilesIndexed     int
	SymbolsExtracted int
	AncestryBreak    bool
	Warnings         []string
}

func (w *Writer) openFTS() (*fts.Index, error) {
	if w.fts != nil {
		return w.fts, nil
	}
	idx, err := fts.Open(w.FTSDir)
	if err != nil {
		return nil, fmt.Errorf("open fts index: %w", err)
	}
	w.fts = idx
	return idx, nil
}

// Close releases the writer's open full-text index handle, if any.
func (w *Writer) Close() error {
	if w.fts == nil {
		return nil
	}
	err := w.fts.Close()
	w.fts = nil
	return err
}

// Sync runs the full algorithm: begin job, diff against the last
// indexed commit (or bootstrap when there is none), process every
// changed file atomically, and publish. It enforces at most one active
// sync per (project, ref) via the store's job lifecycle.
func (w *Writer) Sync(ctx context.Context, req Request) (*Outcome, error) {
	job := store.IndexJob{
		JobID:     uuid.NewString(),
		ProjectID: req.ProjectID,
		Ref:       req.Ref,
		SyncID:    uuid.NewString(),
		State:     store.JobStateQueued,
	}
	if err := w.Store.CreateJob(job); err != nil {
		return nil, err
	}
	if err := w.Store.TransitionJob(job.JobID, store.JobStateRunning, ""); err != nil {
		return nil, err
	}

	out, err := w.runSync(ctx, req, &job)
	if err != nil {
		_ = w.Store.TransitionJob(job.JobID, store.JobStateFailed, err.Error())
		return out, err
	}

	_ = w.Store.UpdateJobProgress(job.JobID, out.FilesScanned, out.FilesIndexed, out.SymbolsExtracted, 100, "")

	if err := w.Store.TransitionJob(job.JobID, store.JobStateValidating, ""); err != nil {
		return out, err
	}
	if err := w.Store.TransitionJob(job.JobID, store.JobStatePublished, ""); err != nil {
		return out, err
	}
	return out, nil
}

func (w *Writer) runSync(ctx context.Context, req Request, job *store.IndexJob) (*Outcome, error) {
	out := &Outcome{JobID: job.JobID}

	prior, err := w.Store.GetBranchState(req.ProjectID, req.Ref)
	if err != nil {
		return out, fmt.Errorf("get branch state: %w", err)
	}

	head := "working"
	if w.VCS != nil {
		head, err = w.VCS.ResolveRef(req.Ref)
		if err != nil {
			return out, fmt.Errorf("resolve ref %s: %w", req.Ref, err)
		}
	}

	lastIndexed := ""
	mergeBase := ""
	if prior != nil {
		lastIndexed = prior.LastIndexedCommit
		mergeBase = prior.MergeBaseCommit
	}

	ancestryBreak := false
	if lastIndexed != "" && w.VCS != nil {
		isAnc, err := w.VCS.IsAncestor(lastIndexed, head)
		if err != nil {
			return out, fmt.Errorf("is ancestor: %w", err)
		}
		ancestryBreak = !isAnc
	}
	out.AncestryBreak = ancestryBreak

	switch {
	case lastIndexed == "" || ancestryBreak:
		if ancestryBreak {
			slog.Warn("writer.ancestry_break", "project", req.ProjectID, "ref", req.Ref, "last_indexed", lastIndexed, "head", head)
			if err := w.Store.DeleteBranchState(req.ProjectID, req.Ref); err != nil {
				return out, fmt.Errorf("discard overlay on ancestry break: %w", err)
			}
		}
		if w.VCS != nil && lastIndexed != "" {
			mergeBase, err = w.VCS.MergeBase(lastIndexed, head)
			if err != nil {
				mergeBase = head
			}
		} else {
			mergeBase = head
		}
		if err := w.bootstrap(ctx, req, job.JobID, out); err != nil {
			return out, err
		}
	default:
		if w.VCS != nil {
			mergeBase, err = w.VCS.MergeBase(lastIndexed, head)
			if err != nil {
				return out, fmt.Errorf("merge base: %w", err)
			}
			changes, err := w.VCS.DiffNameStatus(lastIndexed, head)
			if err != nil {
				return out, fmt.Errorf("diff name status: %w", err)
			}
			if err := w.applyChanges(ctx, req, job.JobID, changes, out); err != nil {
				return out, err
			}
		}
	}

	stats, err := w.Store.Stats(req.ProjectID, req.Ref)
	if err != nil {
		return out, fmt.Errorf("stats: %w", err)
	}

	err = w.Store.UpsertBranchState(store.BranchState{
		ProjectID:         req.ProjectID,
		Ref:               req.Ref,
		LastIndexedCommit: head,
		MergeBaseCommit:   mergeBase,
		FileCount:         stats.FileCount,
		SymbolCount:       stats.SymbolCount,
		Status:            "ready",
	})
	if err != nil {
		return out, fmt.Errorf("upsert branch state: %w", err)
	}

	return out, nil
}

// bootstrap indexes every discoverable file from scratch, used for a
// project's first sync on a ref and for ancestry-break rebuilds. It
// rebuilds the full-text index via a staged atomic directory swap
// rather than incremental batch upserts, since every document is being
// rewritten anyway.
func (w *Writer) bootstrap(ctx context.Context, req Request, jobID string, out *Outcome) error {
	result, err := discover.Discover(ctx, req.WorktreeRoot, nil)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	out.FilesScanned = len(result.Files)
	total := len(result.Files)
	for _, warn := range result.Warnings {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %s", warn.Path, warn.Reason))
	}

	known := extract.KnownFiles{}
	for _, f := range result.Files {
		known[f.RelPath] = true
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close live fts index: %w", err)
	}

	rebuildErr := fts.RebuildStaged(w.FTSDir, func(staged *fts.Index) error {
		for _, f := range result.Files {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			content, err := os.ReadFile(f.Path)
			if err != nil {
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s: read failed: %v", f.RelPath, err))
				continue
			}
			res, err := w.processFile(req, f.RelPath, f.Language, content, known)
			if err != nil {
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %v", f.RelPath, err))
				continue
			}
			if err := indexFileDocs(staged, req.Ref, f.RelPath, content, res); err != nil {
				return fmt.Errorf("index %s: %w", f.RelPath, err)
			}
			out.FilesIndexed++
			out.SymbolsExtracted += len(res.Symbols)
			w.reportProgress(jobID, out, total)
		}
		return nil
	})
	if rebuildErr != nil {
		return fmt.Errorf("rebuild fts index: %w", rebuildErr)
	}
	return nil
}

// progressReportEvery bounds how often a running sync writes its
// counters back to index_jobs: once per file would serialize every
// write behind the job row's lock for no benefit to a polling caller.
const progressReportEvery = 25

// reportProgress persists out's running counters to the job row every
// progressReportEvery files, so a concurrent index_status poll sees
// live files_scanned/files_indexed/symbols_extracted/estimated_pct
// instead of only the value from the previous sync.
func (w *Writer) reportProgress(jobID string, out *Outcome, total int) {
	if out.FilesScanned == 0 || out.FilesScanned%progressReportEvery != 0 {
		return
	}
	pct := 0.0
	if total > 0 {
		pct = math.Min(99, float64(out.FilesScanned)/float64(total)*100)
	}
	if err := w.Store.UpdateJobProgress(jobID, out.FilesScanned, out.FilesIndexed, out.SymbolsExtracted, pct, ""); err != nil {
		slog.Warn("writer.progress_update_failed", "job_id", jobID, "err", err)
	}
}

// applyChanges processes a name-status diff incrementally, writing
// each file's rows atomically and keeping the live full-text index in
// sync with direct batch upserts rather than a staged rebuild.
func (w *Writer) applyChanges(ctx context.Context, req Request, jobID string, changes []vcs.Change, out *Outcome) error {
	index, err := w.openFTS()
	if err != nil {
		return err
	}

	known := extract.KnownFiles{}
	for _, c := range changes {
		if c.Kind != vcs.Deleted {
			known[c.Path] = true
		}
	}

	total := len(changes)
	for _, c := range changes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch c.Kind {
		case vcs.Deleted:
			if err := w.removePath(req, index, c.Path, "deleted"); err != nil {
				return fmt.Errorf("remove %s: %w", c.Path, err)
			}
		case vcs.Renamed:
			if err := w.removePath(req, index, c.OldPath, "replaced"); err != nil {
				return fmt.Errorf("remove renamed-from %s: %w", c.OldPath, err)
			}
			if err := w.upsertPath(ctx, req, index, c.Path, known, out); err != nil {
				return fmt.Errorf("index renamed-to %s: %w", c.Path, err)
			}
		default: // Added, Modified
			if err := w.upsertPath(ctx, req, index, c.Path, known, out); err != nil {
				return fmt.Errorf("index %s: %w", c.Path, err)
			}
		}
		out.FilesScanned++
		w.reportProgress(jobID, out, total)
	}
	return nil
}

func (w *Writer) upsertPath(ctx context.Context, req Request, index *fts.Index, relPath string, known extract.KnownFiles, out *Outcome) error {
	l, ok := lang.LanguageForExtension(filepath.Ext(relPath))
	if !ok {
		return nil
	}
	content, err := os.ReadFile(filepath.Join(req.WorktreeRoot, relPath))
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: read failed: %v", relPath, err))
		return nil
	}

	prevSymbolIDs, prevSnippetHashes, err := w.priorFileKeys(req.ProjectID, req.Ref, relPath)
	if err != nil {
		return err
	}

	res, err := w.processFile(req, relPath, l, content, known)
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %v", relPath, err))
		return nil
	}

	if err := index.DeleteFileDocs(req.Ref, relPath, prevSymbolIDs, prevSnippetHashes); err != nil {
		return fmt.Errorf("delete stale fts docs: %w", err)
	}
	if err := indexFileDocs(index, req.Ref, relPath, content, res); err != nil {
		return fmt.Errorf("index fresh fts docs: %w", err)
	}

	out.FilesIndexed++
	out.SymbolsExtracted += len(res.Symbols)
	return nil
}

func (w *Writer) removePath(req Request, index *fts.Index, relPath, tombstoneType string) error {
	prevSymbolIDs, prevSnippetHashes, err := w.priorFileKeys(req.ProjectID, req.Ref, relPath)
	if err != nil {
		return err
	}

	err = w.Store.WithTransaction(func(tx *store.Store) error {
		if err := tx.ReplaceFileSymbols(req.ProjectID, req.Ref, relPath, nil); err != nil {
			return err
		}
		if err := tx.ReplaceFileSnippets(req.ProjectID, req.Ref, relPath, nil); err != nil {
			return err
		}
		fromIDs := append([]string{ids.FileSymbolID(relPath)}, prevSymbolIDs...)
		if err := tx.ReplaceFileEdges(req.ProjectID, req.Ref, fromIDs, nil); err != nil {
			return err
		}
		if err := tx.DeleteFile(req.ProjectID, req.Ref, relPath); err != nil {
			return err
		}
		return tx.PutTombstone(store.Tombstone{
			ProjectID:     req.ProjectID,
			Ref:           req.Ref,
			Path:          relPath,
			TombstoneType: tombstoneType,
		})
	})
	if err != nil {
		return fmt.Errorf("remove file rows: %w", err)
	}

	return index.DeleteFileDocs(req.Ref, relPath, prevSymbolIDs, prevSnippetHashes)
}

func (w *Writer) priorFileKeys(projectID, ref, relPath string) (symbolIDs, snippetHashes []string, err error) {
	symbols, err := w.Store.SymbolsByPath(projectID, ref, relPath)
	if err != nil {
		return nil, nil, fmt.Errorf("prior symbols for %s: %w", relPath, err)
	}
	for _, sym := range symbols {
		symbolIDs = append(symbolIDs, sym.SymbolStableID)
	}

	snippets, err := w.Store.SnippetsOverlapping(projectID, ref, relPath, 0, math.MaxInt32)
	if err != nil {
		return nil, nil, fmt.Errorf("prior snippets for %s: %w", relPath, err)
	}
	for _, snip := range snippets {
		snippetHashes = append(snippetHashes, snip.SnippetHash)
	}
	return symbolIDs, snippetHashes, nil
}

// processFile parses and extracts one file's content and commits its
// symbols, edges and snippet rows within a single transaction, clearing
// any stale tombstone for the path it re-adds.
func (w *Writer) processFile(req Request, relPath string, l lang.Language, content []byte, known extract.KnownFiles) (*extract.Result, error) {
	tree, err := parser.Parse(l, content)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	res, err := extract.Extract(tree, content, l, req.ProjectID, relPath, req.Ref, known)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	info, statErr := os.Stat(filepath.Join(req.WorktreeRoot, relPath))
	var size int64
	if statErr == nil {
		size = info.Size()
	}

	err = w.Store.WithTransaction(func(tx *store.Store) error {
		if err := tx.ReplaceFileSymbols(req.ProjectID, req.Ref, relPath, res.Symbols); err != nil {
			return err
		}
		if err := tx.ReplaceFileSnippets(req.ProjectID, req.Ref, relPath, res.Snippets); err != nil {
			return err
		}
		fromIDs := append([]string{ids.FileSymbolID(relPath)}, res.SymbolIDs...)
		if err := tx.ReplaceFileEdges(req.ProjectID, req.Ref, fromIDs, res.Edges); err != nil {
			return err
		}
		if err := tx.UpsertFile(store.FileRecord{
			ProjectID:   req.ProjectID,
			Ref:         req.Ref,
			Path:        relPath,
			Language:    string(l),
			ContentHash: ids.ContentHash(content),
			Size:        size,
			Mtime:       store.Now(),
		}); err != nil {
			return err
		}
		return tx.ClearTombstone(req.ProjectID, req.Ref, relPath)
	})
	if err != nil {
		return nil, fmt.Errorf("commit file rows: %w", err)
	}

	return res, nil
}

// indexFileDocs writes one file's full-text documents: the file
// summary doc plus one doc per extracted symbol and snippet.
func indexFileDocs(index *fts.Index, ref, relPath string, content []byte, res *extract.Result) error {
	head := string(content)
	if len(head) > 2048 {
		head = head[:2048]
	}
	if err := index.IndexFile(fts.FileDoc{
		Path:        relPath,
		Filename:    filepath.Base(relPath),
		ContentHead: head,
		Ref:         ref,
	}); err != nil {
		return err
	}

	for _, sym := range res.Symbols {
		err := index.IndexSymbol(fts.SymbolDoc{
			SymbolExact:    sym.Name,
			QualifiedName:  sym.QualifiedName,
			Signature:      sym.Signature,
			Path:           sym.Path,
			Content:        sym.Signature,
			Ref:            ref,
			Role:           sym.Role,
			Kind:           sym.Kind,
			Language:       sym.Language,
			SymbolStableID: sym.SymbolStableID,
			LineStart:      sym.LineStart,
			LineEnd:        sym.LineEnd,
		})
		if err != nil {
			return err
		}
	}

	for _, snip := range res.Snippets {
		err := index.IndexSnippet(snip.SnippetHash, fts.SnippetDoc{
			Content: snip.Body,
			Path:    snip.Path,
			Imports: snip.ImportsContext,
			Ref:     ref,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
