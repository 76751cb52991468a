package store

import "fmt"

// Snippet mirrors one row of the snippets table.
type Snippet struct {
	SnippetHash    string
	ProjectID      string
	Ref            string
	Path           string
	LineStart      int
	LineEnd        int
	Body           string
	ImportsContext string
	SourceLayer    string
}

// ReplaceFileSnippets swaps the snippet set for path, mirroring the
// symbol/edge per-file replacement contract.
func (s *Store) ReplaceFileSnippets(projectID, ref, path string, snippets []Snippet) error {
	if _, err := s.q.Exec(`DELETE FROM snippets WHERE project_id=? AND ref=? AND path=?`, projectID, ref, path); err != nil {
		return fmt.Errorf("delete file snippets: %w", err)
	}
	for _, snip := range snippets {
		if snip.SourceLayer == "" {
			snip.SourceLayer = "base"
		}
		_, err := s.q.Exec(`
			INSERT INTO snippets (snippet_hash, project_id, ref, path, line_start, line_end, body, imports_context, source_layer)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(project_id, ref, snippet_hash) DO UPDATE SET
				path=excluded.path, line_start=excluded.line_start, line_end=excluded.line_end,
				body=excluded.body, imports_context=excluded.imports_context, source_layer=excluded.source_layer`,
			snip.SnippetHash, snip.ProjectID, snip.Ref, snip.Path, snip.LineStart, snip.LineEnd, snip.Body, snip.ImportsContext, snip.SourceLayer)
		if err != nil {
			return fmt.Errorf("upsert snippet: %w", err)
		}
	}
	return nil
}

// SnippetsOverlapping returns snippets on path whose line range
// intersects [lineStart, lineEnd], used to join snippet hits back to
// symbol relations after fusion.
func (s *Store) SnippetsOverlapping(projectID, ref, path string, lineStart, lineEnd int) ([]Snippet, error) {
	rows, err := s.q.Query(`SELECT snippet_hash, project_id, ref, path, line_start, line_end, body, imports_context, source_layer
		FROM snippets WHERE project_id=? AND ref=? AND path=? AND line_start<=? AND line_end>=?`,
		projectID, ref, path, lineEnd, lineStart)
	if err != nil {
		return nil, fmt.Errorf("snippets overlapping: %w", err)
	}
	defer rows.Close()

	var out []Snippet
	for rows.Next() {
		var snip Snippet
		if err := rows.Scan(&snip.SnippetHash, &snip.ProjectID, &snip.Ref, &snip.Path, &snip.LineStart, &snip.LineEnd, &snip.Body, &snip.ImportsContext, &snip.SourceLayer); err != nil {
			return nil, err
		}
		out = append(out, snip)
	}
	return out, rows.Err()
}
