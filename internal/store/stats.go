package store

import "fmt"

// ProjectStats aggregates counts used to answer index_status and
// health_check without the caller needing to know the schema.
type ProjectStats struct {
	FileCount     int
	SymbolCount   int
	SnippetCount  int
	EdgeCount     int
	UnresolvedEdgeCount int
	RefCount      int
}

// Stats computes aggregate counts for (project, ref).
func (s *Store) Stats(projectID, ref string) (ProjectStats, error) {
	var st ProjectStats
	queries := []struct {
		dest *int
		sql  string
	}{
		{&st.FileCount, `SELECT COUNT(*) FROM files WHERE project_id=? AND ref=?`},
		{&st.SymbolCount, `SELECT COUNT(*) FROM symbols WHERE project_id=? AND ref=?`},
		{&st.SnippetCount, `SELECT COUNT(*) FROM snippets WHERE project_id=? AND ref=?`},
		{&st.EdgeCount, `SELECT COUNT(*) FROM symbol_edges WHERE project_id=? AND ref=?`},
		{&st.UnresolvedEdgeCount, `SELECT COUNT(*) FROM symbol_edges WHERE project_id=? AND ref=? AND to_symbol_id IS NULL`},
	}
	for _, qr := range queries {
		if err := s.q.QueryRow(qr.sql, projectID, ref).Scan(qr.dest); err != nil {
			return st, fmt.Errorf("stats: %w", err)
		}
	}
	if err := s.q.QueryRow(`SELECT COUNT(*) FROM branch_state WHERE project_id=?`, projectID).Scan(&st.RefCount); err != nil {
		return st, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// DatabaseSizeBytes reports the on-disk size of the project database,
// used by health_check's storage pressure signal. Returns 0 for an
// in-memory store.
func (s *Store) DatabaseSizeBytes() (int64, error) {
	if s.dbPath == ":memory:" {
		return 0, nil
	}
	var pageCount, pageSize int64
	if err := s.q.QueryRow(`PRAGMA page_count`).Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	if err := s.q.QueryRow(`PRAGMA page_size`).Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("page size: %w", err)
	}
	return pageCount * pageSize, nil
}
