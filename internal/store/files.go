package store

import "fmt"

// FileRecord mirrors one row of the files table.
type FileRecord struct {
	ProjectID   string
	Ref         string
	Path        string
	Language    string
	ContentHash string
	Size        int64
	Mtime       string
	SourceLayer string
}

// UpsertFile replaces the file record for (project, ref, path) atomically.
func (s *Store) UpsertFile(f FileRecord) error {
	if f.SourceLayer == "" {
		f.SourceLayer = "base"
	}
	_, err := s.q.Exec(`
		INSERT INTO files (project_id, ref, path, language, content_hash, size, mtime, source_layer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, ref, path) DO UPDATE SET
			language=excluded.language, content_hash=excluded.content_hash,
			size=excluded.size, mtime=excluded.mtime, source_layer=excluded.source_layer`,
		f.ProjectID, f.Ref, f.Path, f.Language, f.ContentHash, f.Size, f.Mtime, f.SourceLayer)
	if err != nil {
		return fmt.Errorf("upsert file: %w", err)
	}
	return nil
}

// DeleteFile removes the file record for (project, ref, path). Used
// when a rename or delete is processed, in the same transaction that
// writes its tombstone.
func (s *Store) DeleteFile(projectID, ref, path string) error {
	_, err := s.q.Exec(`DELETE FROM files WHERE project_id=? AND ref=? AND path=?`, projectID, ref, path)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// GetFile fetches a file's record.
func (s *Store) GetFile(projectID, ref, path string) (*FileRecord, error) {
	row := s.q.QueryRow(`SELECT project_id, ref, path, language, content_hash, size, mtime, source_layer
		FROM files WHERE project_id=? AND ref=? AND path=?`, projectID, ref, path)
	var f FileRecord
	if err := row.Scan(&f.ProjectID, &f.Ref, &f.Path, &f.Language, &f.ContentHash, &f.Size, &f.Mtime, &f.SourceLayer); err != nil {
		return nil, mapNoRows(err)
	}
	return &f, nil
}

// ListFiles returns every file record for (project, ref), covering both
// base and overlay layers; callers apply tombstone suppression.
func (s *Store) ListFiles(projectID, ref string) ([]FileRecord, error) {
	rows, err := s.q.Query(`SELECT project_id, ref, path, language, content_hash, size, mtime, source_layer
		FROM files WHERE project_id=? AND ref=? ORDER BY path`, projectID, ref)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ProjectID, &f.Ref, &f.Path, &f.Language, &f.ContentHash, &f.Size, &f.Mtime, &f.SourceLayer); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Tombstone mirrors one row of the tombstones table.
type Tombstone struct {
	ProjectID     string
	Ref           string
	Path          string
	TombstoneType string // deleted | replaced
	CreatedAt     string
}

// PutTombstone records that path is suppressed on ref, masking any base
// row at query time.
func (s *Store) PutTombstone(t Tombstone) error {
	if t.CreatedAt == "" {
		t.CreatedAt = Now()
	}
	_, err := s.q.Exec(`
		INSERT INTO tombstones (project_id, ref, path, tombstone_type, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, ref, path) DO UPDATE SET tombstone_type=excluded.tombstone_type, created_at=excluded.created_at`,
		t.ProjectID, t.Ref, t.Path, t.TombstoneType, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("put tombstone: %w", err)
	}
	return nil
}

// ListTombstones returns every tombstoned path for (project, ref).
func (s *Store) ListTombstones(projectID, ref string) (map[string]Tombstone, error) {
	rows, err := s.q.Query(`SELECT project_id, ref, path, tombstone_type, created_at FROM tombstones WHERE project_id=? AND ref=?`, projectID, ref)
	if err != nil {
		return nil, fmt.Errorf("list tombstones: %w", err)
	}
	defer rows.Close()

	out := map[string]Tombstone{}
	for rows.Next() {
		var t Tombstone
		if err := rows.Scan(&t.ProjectID, &t.Ref, &t.Path, &t.TombstoneType, &t.CreatedAt); err != nil {
			return nil, err
		}
		out[t.Path] = t
	}
	return out, rows.Err()
}

// ClearTombstone removes a tombstone, e.g. when a path is re-added on
// an overlay ref after having been deleted.
func (s *Store) ClearTombstone(projectID, ref, path string) error {
	_, err := s.q.Exec(`DELETE FROM tombstones WHERE project_id=? AND ref=? AND path=?`, projectID, ref, path)
	if err != nil {
		return fmt.Errorf("clear tombstone: %w", err)
	}
	return nil
}
