// Package fts is the full-text index: three logical document
// collections (symbols, snippets, files) behind code-aware tokenizers,
// published as a directory bleve opens directly and replaced atomically
// by renaming a freshly built staging directory over it.
package fts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"
)

// Index wraps one project's published bleve directory.
type Index struct {
	dir string
	idx bleve.Index
}

// Open opens the published index at dir, creating it with the
// package's mapping if it doesn't exist yet.
func Open(dir string) (*Index, error) {
	idx, err := bleve.Open(dir)
	if err == nil {
		return &Index{dir: dir, idx: idx}, nil
	}
	idx, err = bleve.New(dir, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create fts index at %s: %w", dir, err)
	}
	return &Index{dir: dir, idx: idx}, nil
}

// Close releases the underlying bleve index handle.
func (x *Index) Close() error {
	return x.idx.Close()
}

// SymbolDoc is the document shape for the symbols collection.
type SymbolDoc struct {
	Type           string `json:"_type"`
	SymbolExact    string `json:"symbol_exact"`
	QualifiedName  string `json:"qualified_name"`
	Signature      string `json:"signature"`
	Path           string `json:"path"`
	Content        string `json:"content"`
	Ref            string `json:"ref"`
	Role           string `json:"role"`
	Kind           string `json:"kind"`
	Language       string `json:"language"`
	SymbolStableID string `json:"symbol_stable_id"`
	LineStart      int    `json:"line_start"`
	LineEnd        int    `json:"line_end"`
}

// SnippetDoc is the document shape for the snippets collection.
type SnippetDoc struct {
	Type    string `json:"_type"`
	Content string `json:"content"`
	Path    string `json:"path"`
	Imports string `json:"imports"`
	Ref     string `json:"ref"`
}

// FileDoc is the document shape for the files collection.
type FileDoc struct {
	Type        string `json:"_type"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	ContentHead string `json:"content_head"`
	Ref         string `json:"ref"`
}

func docID(ref, kind, key string) string {
	return ref + "::" + kind + "::" + key
}

// IndexSymbol upserts one symbol document, keyed by its stable id.
func (x *Index) IndexSymbol(d SymbolDoc) error {
	d.Type = TypeSymbol
	return x.idx.Index(docID(d.Ref, TypeSymbol, d.SymbolStableID), d)
}

// IndexSnippet upserts one snippet document, keyed by its content hash.
func (x *Index) IndexSnippet(snippetHash string, d SnippetDoc) error {
	d.Type = TypeSnippet
	return x.idx.Index(docID(d.Ref, TypeSnippet, snippetHash), d)
}

// IndexFile upserts one file document, keyed by path.
func (x *Index) IndexFile(d FileDoc) error {
	d.Type = TypeFile
	return x.idx.Index(docID(d.Ref, TypeFile, d.Path), d)
}

// DeleteFileDocs removes every document (symbols, snippets, file) that
// originated from path on ref, mirroring the state store's per-file
// atomic replacement: the writer calls this before re-indexing a
// changed file's fresh symbol/snippet set.
func (x *Index) DeleteFileDocs(ref, path string, symbolIDs, snippetHashes []string) error {
	batch := x.idx.NewBatch()
	batch.Delete(docID(ref, TypeFile, path))
	for _, id := range symbolIDs {
		batch.Delete(docID(ref, TypeSymbol, id))
	}
	for _, h := range snippetHashes {
		batch.Delete(docID(ref, TypeSnippet, h))
	}
	if err := x.idx.Batch(batch); err != nil {
		return fmt.Errorf("delete file docs: %w", err)
	}
	return nil
}

// DeleteRef removes every document carrying ref, used when a branch's
// overlay is dropped or evicted.
func (x *Index) DeleteRef(ref string) error {
	query := bleve.NewTermQuery(ref)
	query.SetField("ref")
	req := bleve.NewSearchRequest(query)
	req.Size = 10000
	req.Fields = nil
	for {
		res, err := x.idx.Search(req)
		if err != nil {
			return fmt.Errorf("delete ref search: %w", err)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := x.idx.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := x.idx.Batch(batch); err != nil {
			return fmt.Errorf("delete ref batch: %w", err)
		}
	}
}

// Hit is one search result, identified by its bleve document id and
// carrying the stored field values the query layer needs to merge
// full-text hits back with relational symbol/snippet rows.
type Hit struct {
	ID     string
	Score  float64
	Fields map[string]interface{}
}

// Search runs query against docType's analyzed fields, scoped to ref,
// returning the topN highest-scoring hits.
func (x *Index) Search(query, ref, docType string, topN int) ([]Hit, error) {
	textQuery := bleve.NewQueryStringQuery(query)
	refQuery := bleve.NewTermQuery(ref)
	refQuery.SetField("ref")
	typeQuery := bleve.NewTermQuery(docType)
	typeQuery.SetField("_type")

	conjunct := bleve.NewConjunctionQuery(textQuery, refQuery, typeQuery)
	req := bleve.NewSearchRequestOptions(conjunct, topN, 0, false)
	req.Fields = []string{"*"}

	res, err := x.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score, Fields: h.Fields})
	}
	return hits, nil
}

// RebuildStaged builds an entirely new index into a sibling staging
// directory via populate, then atomically publishes it by renaming the
// staging directory over the current one. Used for full reindex and
// for the ancestry-break rebuild path in the sync algorithm; ordinary
// incremental syncs call IndexSymbol/IndexSnippet/IndexFile directly
// against the live index, relying on bleve's own segment-commit
// durability for each batch.
func RebuildStaged(liveDir string, populate func(staged *Index) error) error {
	parent := filepath.Dir(liveDir)
	stagingDir := filepath.Join(parent, fmt.Sprintf(".staging-%d", time.Now().UnixNano()))
	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}

	staged, err := bleve.New(stagingDir, buildMapping())
	if err != nil {
		return fmt.Errorf("create staging index: %w", err)
	}
	stagedIdx := &Index{dir: stagingDir, idx: staged}

	if err := populate(stagedIdx); err != nil {
		stagedIdx.Close()
		os.RemoveAll(stagingDir)
		return fmt.Errorf("populate staging index: %w", err)
	}
	if err := stagedIdx.Close(); err != nil {
		os.RemoveAll(stagingDir)
		return fmt.Errorf("close staging index: %w", err)
	}

	backupDir := liveDir + ".prev"
	os.RemoveAll(backupDir)
	if _, err := os.Stat(liveDir); err == nil {
		if err := os.Rename(liveDir, backupDir); err != nil {
			os.RemoveAll(stagingDir)
			return fmt.Errorf("back up live dir: %w", err)
		}
	}
	if err := os.Rename(stagingDir, liveDir); err != nil {
		os.Rename(backupDir, liveDir)
		return fmt.Errorf("publish staging dir: %w", err)
	}
	os.RemoveAll(backupDir)
	return nil
}
