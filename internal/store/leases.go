package store

import "fmt"

// WorktreeLease mirrors one row of the worktree_leases table: the
// refcounted checkout the VCS adapter materializes for a non-default
// ref while it's being indexed or queried.
type WorktreeLease struct {
	ProjectID  string
	Ref        string
	Path       string
	Refcount   int
	OwnerPID   int
	AcquiredAt string
	Status     string // held | releasing | orphaned
}

// AcquireLease increments the refcount for (project, ref), creating the
// lease row if it doesn't exist yet.
func (s *Store) AcquireLease(projectID, ref, path string, ownerPID int) error {
	existing, err := s.GetLease(projectID, ref)
	if err != nil && err != ErrNotFound {
		return err
	}
	if existing != nil {
		_, err := s.q.Exec(`UPDATE worktree_leases SET refcount=refcount+1, status='held' WHERE project_id=? AND ref=?`, projectID, ref)
		if err != nil {
			return fmt.Errorf("acquire lease: %w", err)
		}
		return nil
	}
	_, err = s.q.Exec(`
		INSERT INTO worktree_leases (project_id, ref, path, refcount, owner_pid, acquired_at, status)
		VALUES (?, ?, ?, 1, ?, ?, 'held')`,
		projectID, ref, path, ownerPID, Now())
	if err != nil {
		return fmt.Errorf("acquire lease: %w", err)
	}
	return nil
}

// ReleaseLease decrements the refcount, marking the lease releasing
// once it hits zero so a reaper can reclaim the worktree.
func (s *Store) ReleaseLease(projectID, ref string) error {
	_, err := s.q.Exec(`UPDATE worktree_leases SET refcount=MAX(refcount-1, 0) WHERE project_id=? AND ref=?`, projectID, ref)
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	_, err = s.q.Exec(`UPDATE worktree_leases SET status='releasing' WHERE project_id=? AND ref=? AND refcount=0`, projectID, ref)
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

// GetLease fetches the lease record for (project, ref).
func (s *Store) GetLease(projectID, ref string) (*WorktreeLease, error) {
	row := s.q.QueryRow(`SELECT project_id, ref, path, refcount, owner_pid, acquired_at, status
		FROM worktree_leases WHERE project_id=? AND ref=?`, projectID, ref)
	var l WorktreeLease
	if err := row.Scan(&l.ProjectID, &l.Ref, &l.Path, &l.Refcount, &l.OwnerPID, &l.AcquiredAt, &l.Status); err != nil {
		return nil, mapNoRows(err)
	}
	return &l, nil
}

// OrphanedLeases returns leases whose owner process no longer exists,
// using isAlive to probe each owner_pid. The caller supplies isAlive
// since liveness checking is platform-specific and belongs in the
// lifecycle package, not here.
func (s *Store) OrphanedLeases(isAlive func(pid int) bool) ([]WorktreeLease, error) {
	rows, err := s.q.Query(`SELECT project_id, ref, path, refcount, owner_pid, acquired_at, status FROM worktree_leases WHERE status != 'orphaned'`)
	if err != nil {
		return nil, fmt.Errorf("orphaned leases: %w", err)
	}
	defer rows.Close()

	var out []WorktreeLease
	for rows.Next() {
		var l WorktreeLease
		if err := rows.Scan(&l.ProjectID, &l.Ref, &l.Path, &l.Refcount, &l.OwnerPID, &l.AcquiredAt, &l.Status); err != nil {
			return nil, err
		}
		if !isAlive(l.OwnerPID) {
			out = append(out, l)
		}
	}
	return out, rows.Err()
}

// MarkLeaseOrphaned flags a lease for reclamation by the reaper.
func (s *Store) MarkLeaseOrphaned(projectID, ref string) error {
	_, err := s.q.Exec(`UPDATE worktree_leases SET status='orphaned' WHERE project_id=? AND ref=?`, projectID, ref)
	if err != nil {
		return fmt.Errorf("mark lease orphaned: %w", err)
	}
	return nil
}

// DeleteLease removes the lease row outright, once the worktree itself
// has been removed from disk.
func (s *Store) DeleteLease(projectID, ref string) error {
	_, err := s.q.Exec(`DELETE FROM worktree_leases WHERE project_id=? AND ref=?`, projectID, ref)
	if err != nil {
		return fmt.Errorf("delete lease: %w", err)
	}
	return nil
}
