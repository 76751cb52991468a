package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Project is the root registration record for an indexed repository.
type Project struct {
	ProjectID  string
	RootPath   string
	VCSMode    bool
	DefaultRef string
	CreatedAt  string
}

// ErrNotFound is returned when a lookup finds no matching row.
var ErrNotFound = errors.New("not found")

// UpsertProject registers a project, or updates its root/vcs metadata
// if it already exists. project_id is assumed stable (it's a content
// hash of the real path), so this is effectively idempotent registration.
func (s *Store) UpsertProject(p Project) error {
	if p.CreatedAt == "" {
		p.CreatedAt = Now()
	}
	_, err := s.q.Exec(`
		INSERT INTO projects (project_id, root_path, vcs_mode, default_ref, schema_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET root_path=excluded.root_path, vcs_mode=excluded.vcs_mode, default_ref=excluded.default_ref`,
		p.ProjectID, p.RootPath, boolToInt(p.VCSMode), p.DefaultRef, SchemaVersion, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

// GetProject fetches a project by id.
func (s *Store) GetProject(projectID string) (*Project, error) {
	row := s.q.QueryRow(`SELECT project_id, root_path, vcs_mode, default_ref, created_at FROM projects WHERE project_id=?`, projectID)
	var p Project
	var vcsMode int
	if err := row.Scan(&p.ProjectID, &p.RootPath, &vcsMode, &p.DefaultRef, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	p.VCSMode = vcsMode != 0
	return &p, nil
}

// DeleteProject removes a project and (via ON DELETE CASCADE) every row
// that references it.
func (s *Store) DeleteProject(projectID string) error {
	_, err := s.q.Exec(`DELETE FROM projects WHERE project_id=?`, projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
