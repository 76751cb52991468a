package store

// SchemaVersion is bumped whenever initSchema's DDL changes in a way
// that isn't purely additive, and is recorded in branch_state. Nothing
// compares the recorded value against this one: every tool response
// reports schema_status=compatible.
const SchemaVersion = 1

func (s *Store) initSchema() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS projects (
		project_id TEXT PRIMARY KEY,
		root_path TEXT NOT NULL,
		vcs_mode INTEGER NOT NULL DEFAULT 0,
		default_ref TEXT NOT NULL DEFAULT 'live',
		schema_version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS files (
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		path TEXT NOT NULL,
		language TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		size INTEGER NOT NULL,
		mtime TEXT NOT NULL,
		source_layer TEXT NOT NULL DEFAULT 'base',
		PRIMARY KEY (project_id, ref, path)
	);
	CREATE INDEX IF NOT EXISTS idx_files_hash ON files(project_id, ref, content_hash);

	CREATE TABLE IF NOT EXISTS symbols (
		symbol_stable_id TEXT NOT NULL,
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		name TEXT NOT NULL,
		qualified_name TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		role TEXT NOT NULL,
		language TEXT NOT NULL,
		path TEXT NOT NULL,
		line_start INTEGER NOT NULL DEFAULT 0,
		line_end INTEGER NOT NULL DEFAULT 0,
		signature TEXT NOT NULL DEFAULT '',
		normalized_signature TEXT NOT NULL DEFAULT '',
		parent_symbol_id TEXT NOT NULL DEFAULT '',
		source_layer TEXT NOT NULL DEFAULT 'base',
		PRIMARY KEY (project_id, ref, symbol_stable_id)
	);
	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(project_id, ref, name);
	CREATE INDEX IF NOT EXISTS idx_symbols_qn ON symbols(project_id, ref, qualified_name);
	CREATE INDEX IF NOT EXISTS idx_symbols_path ON symbols(project_id, ref, path);
	CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(project_id, ref, kind);
	CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(project_id, ref, parent_symbol_id);

	CREATE TABLE IF NOT EXISTS snippets (
		snippet_hash TEXT NOT NULL,
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		path TEXT NOT NULL,
		line_start INTEGER NOT NULL,
		line_end INTEGER NOT NULL,
		body TEXT NOT NULL,
		imports_context TEXT NOT NULL DEFAULT '',
		source_layer TEXT NOT NULL DEFAULT 'base',
		PRIMARY KEY (project_id, ref, snippet_hash)
	);
	CREATE INDEX IF NOT EXISTS idx_snippets_path_range ON snippets(project_id, ref, path, line_start, line_end);

	CREATE TABLE IF NOT EXISTS symbol_edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		from_symbol_id TEXT NOT NULL,
		to_symbol_id TEXT,
		to_name TEXT NOT NULL DEFAULT '',
		edge_type TEXT NOT NULL,
		confidence TEXT NOT NULL,
		source_location TEXT NOT NULL DEFAULT '',
		source_layer TEXT NOT NULL DEFAULT 'base'
	);
	CREATE INDEX IF NOT EXISTS idx_edges_from ON symbol_edges(project_id, ref, from_symbol_id, edge_type);
	CREATE INDEX IF NOT EXISTS idx_edges_to ON symbol_edges(project_id, ref, to_symbol_id, edge_type);
	CREATE INDEX IF NOT EXISTS idx_edges_to_name ON symbol_edges(project_id, ref, to_name, edge_type);

	CREATE TABLE IF NOT EXISTS index_jobs (
		job_id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		sync_id TEXT NOT NULL,
		state TEXT NOT NULL,
		progress_token TEXT NOT NULL DEFAULT '',
		files_scanned INTEGER NOT NULL DEFAULT 0,
		files_indexed INTEGER NOT NULL DEFAULT 0,
		symbols_extracted INTEGER NOT NULL DEFAULT 0,
		estimated_pct REAL NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		failure_reason TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_active ON index_jobs(project_id, ref, state);

	CREATE TABLE IF NOT EXISTS branch_state (
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		last_indexed_commit TEXT NOT NULL DEFAULT '',
		merge_base_commit TEXT NOT NULL DEFAULT '',
		file_count INTEGER NOT NULL DEFAULT 0,
		symbol_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'not_indexed',
		schema_version INTEGER NOT NULL DEFAULT 1,
		last_accessed_at TEXT NOT NULL,
		eviction_eligible_at TEXT NOT NULL DEFAULT '',
		is_default_branch INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, ref)
	);

	CREATE TABLE IF NOT EXISTS tombstones (
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		path TEXT NOT NULL,
		tombstone_type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (project_id, ref, path)
	);

	CREATE TABLE IF NOT EXISTS worktree_leases (
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		path TEXT NOT NULL,
		refcount INTEGER NOT NULL DEFAULT 0,
		owner_pid INTEGER NOT NULL,
		acquired_at TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'held',
		PRIMARY KEY (project_id, ref)
	);

	CREATE TABLE IF NOT EXISTS known_workspaces (
		path TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		auto_discovered INTEGER NOT NULL DEFAULT 0,
		last_used_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vector_records (
		project_id TEXT NOT NULL,
		ref TEXT NOT NULL,
		symbol_stable_id TEXT NOT NULL DEFAULT '',
		snippet_hash TEXT NOT NULL DEFAULT '',
		embedding_model_id TEXT NOT NULL,
		embedding_model_version TEXT NOT NULL,
		dimensions INTEGER NOT NULL,
		vector BLOB NOT NULL,
		PRIMARY KEY (project_id, ref, symbol_stable_id, snippet_hash, embedding_model_id, embedding_model_version)
	);
	CREATE INDEX IF NOT EXISTS idx_vectors_model ON vector_records(project_id, ref, embedding_model_id, embedding_model_version);
	`
	_, err := s.db.Exec(ddl)
	return err
}
