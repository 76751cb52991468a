package store

import (
	"fmt"
)

// Index job states, matching the state machine in the spec's Index Job
// Lifecycle: queued -> running -> validating -> published | failed | rolled_back.
const (
	JobStateQueued     = "queued"
	JobStateRunning    = "running"
	JobStateValidating = "validating"
	JobStatePublished  = "published"
	JobStateFailed     = "failed"
	JobStateRolledBack = "rolled_back"
)

// IndexJob mirrors one row of the index_jobs table.
type IndexJob struct {
	JobID             string
	ProjectID         string
	Ref               string
	SyncID            string
	State             string
	ProgressToken     string
	FilesScanned      int
	FilesIndexed      int
	SymbolsExtracted  int
	EstimatedPct      float64
	StartedAt         string
	UpdatedAt         string
	FailureReason     string
}

// ErrJobInFlight is returned by CreateJob when an active job already
// exists for (project, ref), enforcing sync_in_progress semantics.
var ErrJobInFlight = fmt.Errorf("index job already in flight for this ref")

// CreateJob inserts a new job in the queued state, rejecting the
// request if another job for (project_id, ref) is still active
// (queued, running or validating).
func (s *Store) CreateJob(job IndexJob) error {
	active, err := s.ActiveJob(job.ProjectID, job.Ref)
	if err != nil {
		return err
	}
	if active != nil {
		return ErrJobInFlight
	}
	if job.StartedAt == "" {
		job.StartedAt = Now()
	}
	if job.UpdatedAt == "" {
		job.UpdatedAt = job.StartedAt
	}
	if job.State == "" {
		job.State = JobStateQueued
	}
	_, err = s.q.Exec(`
		INSERT INTO index_jobs (job_id, project_id, ref, sync_id, state, progress_token,
			files_scanned, files_indexed, symbols_extracted, estimated_pct, started_at, updated_at, failure_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.JobID, job.ProjectID, job.Ref, job.SyncID, job.State, job.ProgressToken,
		job.FilesScanned, job.FilesIndexed, job.SymbolsExtracted, job.EstimatedPct, job.StartedAt, job.UpdatedAt, job.FailureReason)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// UpdateJobProgress advances counters and the progress token without
// changing state, called repeatedly while a job is running.
func (s *Store) UpdateJobProgress(jobID string, filesScanned, filesIndexed, symbolsExtracted int, estimatedPct float64, progressToken string) error {
	_, err := s.q.Exec(`
		UPDATE index_jobs SET files_scanned=?, files_indexed=?, symbols_extracted=?, estimated_pct=?, progress_token=?, updated_at=?
		WHERE job_id=?`,
		filesScanned, filesIndexed, symbolsExtracted, estimatedPct, progressToken, Now(), jobID)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// TransitionJob moves a job to a new state, recording failureReason
// when transitioning to failed.
func (s *Store) TransitionJob(jobID, state, failureReason string) error {
	_, err := s.q.Exec(`UPDATE index_jobs SET state=?, failure_reason=?, updated_at=? WHERE job_id=?`,
		state, failureReason, Now(), jobID)
	if err != nil {
		return fmt.Errorf("transition job: %w", err)
	}
	return nil
}

func scanJob(row interface{ Scan(...any) error }) (*IndexJob, error) {
	var j IndexJob
	if err := row.Scan(&j.JobID, &j.ProjectID, &j.Ref, &j.SyncID, &j.State, &j.ProgressToken,
		&j.FilesScanned, &j.FilesIndexed, &j.SymbolsExtracted, &j.EstimatedPct, &j.StartedAt, &j.UpdatedAt, &j.FailureReason); err != nil {
		return nil, err
	}
	return &j, nil
}

const jobColumns = `job_id, project_id, ref, sync_id, state, progress_token,
	files_scanned, files_indexed, symbols_extracted, estimated_pct, started_at, updated_at, failure_reason`

// GetJob fetches one job by id.
func (s *Store) GetJob(jobID string) (*IndexJob, error) {
	row := s.q.QueryRow(`SELECT `+jobColumns+` FROM index_jobs WHERE job_id=?`, jobID)
	job, err := scanJob(row)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return job, nil
}

// ActiveJob returns the in-flight job for (project, ref), or nil if
// none is active. Used both to enforce at-most-one-active-job and to
// answer index_status's active_job field.
func (s *Store) ActiveJob(projectID, ref string) (*IndexJob, error) {
	row := s.q.QueryRow(`SELECT `+jobColumns+` FROM index_jobs
		WHERE project_id=? AND ref=? AND state IN (?, ?, ?) ORDER BY started_at DESC LIMIT 1`,
		projectID, ref, JobStateQueued, JobStateRunning, JobStateValidating)
	job, err := scanJob(row)
	if err != nil {
		mapped := mapNoRows(err)
		if mapped == ErrNotFound {
			return nil, nil
		}
		return nil, mapped
	}
	return job, nil
}

// LatestJob returns the most recently started job for (project, ref)
// regardless of state, used to report the outcome of the last sync.
func (s *Store) LatestJob(projectID, ref string) (*IndexJob, error) {
	row := s.q.QueryRow(`SELECT `+jobColumns+` FROM index_jobs
		WHERE project_id=? AND ref=? ORDER BY started_at DESC LIMIT 1`, projectID, ref)
	job, err := scanJob(row)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return job, nil
}
