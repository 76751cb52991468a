package store

import "fmt"

// BranchState mirrors one row of the branch_state table: the
// publication record for a single (project, ref) index.
type BranchState struct {
	ProjectID          string
	Ref                string
	LastIndexedCommit  string
	MergeBaseCommit    string
	FileCount          int
	SymbolCount        int
	Status             string // not_indexed | indexing | ready | stale | corrupt
	SchemaVersion      int
	LastAccessedAt     string
	EvictionEligibleAt string
	IsDefaultBranch    bool
}

// UpsertBranchState publishes or refreshes the state record for a ref.
func (s *Store) UpsertBranchState(b BranchState) error {
	if b.LastAccessedAt == "" {
		b.LastAccessedAt = Now()
	}
	if b.SchemaVersion == 0 {
		b.SchemaVersion = SchemaVersion
	}
	_, err := s.q.Exec(`
		INSERT INTO branch_state (project_id, ref, last_indexed_commit, merge_base_commit, file_count, symbol_count,
			status, schema_version, last_accessed_at, eviction_eligible_at, is_default_branch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, ref) DO UPDATE SET
			last_indexed_commit=excluded.last_indexed_commit, merge_base_commit=excluded.merge_base_commit,
			file_count=excluded.file_count, symbol_count=excluded.symbol_count, status=excluded.status,
			schema_version=excluded.schema_version, last_accessed_at=excluded.last_accessed_at,
			eviction_eligible_at=excluded.eviction_eligible_at, is_default_branch=excluded.is_default_branch`,
		b.ProjectID, b.Ref, b.LastIndexedCommit, b.MergeBaseCommit, b.FileCount, b.SymbolCount,
		b.Status, b.SchemaVersion, b.LastAccessedAt, b.EvictionEligibleAt, boolToInt(b.IsDefaultBranch))
	if err != nil {
		return fmt.Errorf("upsert branch state: %w", err)
	}
	return nil
}

// TouchBranchAccess updates last_accessed_at, the column
// EvictionCandidates orders by. The workspace router does not call it.
func (s *Store) TouchBranchAccess(projectID, ref string) error {
	_, err := s.q.Exec(`UPDATE branch_state SET last_accessed_at=? WHERE project_id=? AND ref=?`, Now(), projectID, ref)
	if err != nil {
		return fmt.Errorf("touch branch access: %w", err)
	}
	return nil
}

func scanBranchState(row interface{ Scan(...any) error }) (*BranchState, error) {
	var b BranchState
	var isDefault int
	if err := row.Scan(&b.ProjectID, &b.Ref, &b.LastIndexedCommit, &b.MergeBaseCommit, &b.FileCount, &b.SymbolCount,
		&b.Status, &b.SchemaVersion, &b.LastAccessedAt, &b.EvictionEligibleAt, &isDefault); err != nil {
		return nil, err
	}
	b.IsDefaultBranch = isDefault != 0
	return &b, nil
}

const branchColumns = `project_id, ref, last_indexed_commit, merge_base_commit, file_count, symbol_count,
	status, schema_version, last_accessed_at, eviction_eligible_at, is_default_branch`

// GetBranchState fetches the state record for (project, ref).
func (s *Store) GetBranchState(projectID, ref string) (*BranchState, error) {
	row := s.q.QueryRow(`SELECT `+branchColumns+` FROM branch_state WHERE project_id=? AND ref=?`, projectID, ref)
	b, err := scanBranchState(row)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return b, nil
}

// ListBranchStates returns every indexed ref for a project, for
// list_refs.
func (s *Store) ListBranchStates(projectID string) ([]BranchState, error) {
	rows, err := s.q.Query(`SELECT `+branchColumns+` FROM branch_state WHERE project_id=? ORDER BY last_accessed_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list branch states: %w", err)
	}
	defer rows.Close()

	var out []BranchState
	for rows.Next() {
		b, err := scanBranchState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// EvictionCandidates returns non-default refs ordered oldest-accessed
// first. The workspace router's LRU does not consult it.
func (s *Store) EvictionCandidates(projectID string) ([]BranchState, error) {
	rows, err := s.q.Query(`SELECT `+branchColumns+` FROM branch_state
		WHERE project_id=? AND is_default_branch=0 ORDER BY last_accessed_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("eviction candidates: %w", err)
	}
	defer rows.Close()

	var out []BranchState
	for rows.Next() {
		b, err := scanBranchState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// DeleteBranchState removes a ref's state record along with every
// symbol, edge, snippet and file row scoped to it, used when an
// evicted or explicitly dropped ref is purged.
func (s *Store) DeleteBranchState(projectID, ref string) error {
	return s.WithTransaction(func(tx *Store) error {
		tables := []string{"symbols", "symbol_edges", "snippets", "files", "tombstones", "vector_records", "branch_state"}
		for _, t := range tables {
			if _, err := tx.q.Exec(`DELETE FROM `+t+` WHERE project_id=? AND ref=?`, projectID, ref); err != nil {
				return fmt.Errorf("delete branch state from %s: %w", t, err)
			}
		}
		return nil
	})
}
