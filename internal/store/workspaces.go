package store

import "fmt"

// KnownWorkspace mirrors one row of the known_workspaces table: a path
// the server has previously resolved to a project_id, used to answer
// subsequent tool calls without re-walking for a VCS root.
type KnownWorkspace struct {
	Path           string
	ProjectID      string
	AutoDiscovered bool
	LastUsedAt     string
}

// UpsertKnownWorkspace records or refreshes a path's project binding.
func (s *Store) UpsertKnownWorkspace(w KnownWorkspace) error {
	if w.LastUsedAt == "" {
		w.LastUsedAt = Now()
	}
	_, err := s.q.Exec(`
		INSERT INTO known_workspaces (path, project_id, auto_discovered, last_used_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET project_id=excluded.project_id, last_used_at=excluded.last_used_at`,
		w.Path, w.ProjectID, boolToInt(w.AutoDiscovered), w.LastUsedAt)
	if err != nil {
		return fmt.Errorf("upsert known workspace: %w", err)
	}
	return nil
}

// GetKnownWorkspace looks up a path's bound project, if any.
func (s *Store) GetKnownWorkspace(path string) (*KnownWorkspace, error) {
	row := s.q.QueryRow(`SELECT path, project_id, auto_discovered, last_used_at FROM known_workspaces WHERE path=?`, path)
	var w KnownWorkspace
	var auto int
	if err := row.Scan(&w.Path, &w.ProjectID, &auto, &w.LastUsedAt); err != nil {
		return nil, mapNoRows(err)
	}
	w.AutoDiscovered = auto != 0
	return &w, nil
}

// ListKnownWorkspaces returns every registered path, most recently
// used first. Nothing prewarms from this list.
func (s *Store) ListKnownWorkspaces() ([]KnownWorkspace, error) {
	rows, err := s.q.Query(`SELECT path, project_id, auto_discovered, last_used_at FROM known_workspaces ORDER BY last_used_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list known workspaces: %w", err)
	}
	defer rows.Close()

	var out []KnownWorkspace
	for rows.Next() {
		var w KnownWorkspace
		var auto int
		if err := rows.Scan(&w.Path, &w.ProjectID, &auto, &w.LastUsedAt); err != nil {
			return nil, err
		}
		w.AutoDiscovered = auto != 0
		out = append(out, w)
	}
	return out, rows.Err()
}

// DeleteKnownWorkspace removes a path's binding, e.g. when its root no
// longer exists on disk.
func (s *Store) DeleteKnownWorkspace(path string) error {
	_, err := s.q.Exec(`DELETE FROM known_workspaces WHERE path=?`, path)
	if err != nil {
		return fmt.Errorf("delete known workspace: %w", err)
	}
	return nil
}
