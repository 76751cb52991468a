package store

import "fmt"

// SymbolEdge mirrors one row of the symbol_edges table. ToSymbolID is
// empty for unresolved edges, which instead populate ToName.
type SymbolEdge struct {
	ID             int64
	ProjectID      string
	Ref            string
	FromSymbolID   string
	ToSymbolID     string // empty when unresolved
	ToName         string
	EdgeType       string // imports | calls | references | implements | extends
	Confidence     string // static | heuristic
	SourceLocation string
	SourceLayer    string
}

// ReplaceFileEdges deletes every edge whose from_symbol_id originates in
// path (the file-level pseudo-id plus any symbol defined there) and
// inserts the new set. Mirrors ReplaceFileSymbols's per-file atomic
// replacement contract.
func (s *Store) ReplaceFileEdges(projectID, ref string, fromIDs []string, edges []SymbolEdge) error {
	for _, from := range fromIDs {
		if _, err := s.q.Exec(`DELETE FROM symbol_edges WHERE project_id=? AND ref=? AND from_symbol_id=?`, projectID, ref, from); err != nil {
			return fmt.Errorf("delete file edges: %w", err)
		}
	}
	for _, e := range edges {
		if err := s.insertEdge(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertEdge(e SymbolEdge) error {
	if e.SourceLayer == "" {
		e.SourceLayer = "base"
	}
	var toID any
	if e.ToSymbolID != "" {
		toID = e.ToSymbolID
	}
	_, err := s.q.Exec(`
		INSERT INTO symbol_edges (project_id, ref, from_symbol_id, to_symbol_id, to_name, edge_type, confidence, source_location, source_layer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ProjectID, e.Ref, e.FromSymbolID, toID, e.ToName, e.EdgeType, e.Confidence, e.SourceLocation, e.SourceLayer)
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}
	return nil
}

func scanEdges(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]SymbolEdge, error) {
	var out []SymbolEdge
	for rows.Next() {
		var e SymbolEdge
		var toID *string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Ref, &e.FromSymbolID, &toID, &e.ToName, &e.EdgeType, &e.Confidence, &e.SourceLocation, &e.SourceLayer); err != nil {
			return nil, err
		}
		if toID != nil {
			e.ToSymbolID = *toID
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const edgeColumns = `id, project_id, ref, from_symbol_id, to_symbol_id, to_name, edge_type, confidence, source_location, source_layer`

// EdgesFrom returns outgoing edges of edgeType from fromSymbolID
// (forward traversal: calls, imports, implements, extends).
func (s *Store) EdgesFrom(projectID, ref, fromSymbolID, edgeType string) ([]SymbolEdge, error) {
	rows, err := s.q.Query(`SELECT `+edgeColumns+` FROM symbol_edges WHERE project_id=? AND ref=? AND from_symbol_id=? AND edge_type=?`,
		projectID, ref, fromSymbolID, edgeType)
	if err != nil {
		return nil, fmt.Errorf("edges from: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// EdgesTo returns incoming edges of edgeType resolving to toSymbolID
// (reverse traversal: callers, importers, implementers).
func (s *Store) EdgesTo(projectID, ref, toSymbolID, edgeType string) ([]SymbolEdge, error) {
	rows, err := s.q.Query(`SELECT `+edgeColumns+` FROM symbol_edges WHERE project_id=? AND ref=? AND to_symbol_id=? AND edge_type=?`,
		projectID, ref, toSymbolID, edgeType)
	if err != nil {
		return nil, fmt.Errorf("edges to: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// EdgesToName returns every edge (resolved or not) whose target name
// matches name, used to list find_references' results (UnresolvedCount
// supplies its unresolved_count).
func (s *Store) EdgesToName(projectID, ref, name, edgeType string) ([]SymbolEdge, error) {
	rows, err := s.q.Query(`SELECT `+edgeColumns+` FROM symbol_edges WHERE project_id=? AND ref=? AND (to_name=? OR to_symbol_id IN (
		SELECT symbol_stable_id FROM symbols WHERE project_id=? AND ref=? AND name=?)) AND edge_type=?`,
		projectID, ref, name, projectID, ref, name, edgeType)
	if err != nil {
		return nil, fmt.Errorf("edges to name: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// UnresolvedCount returns the number of edges matching name with a NULL
// to_symbol_id, per the spec's find_references contract.
func (s *Store) UnresolvedCount(projectID, ref, name string) (int, error) {
	var count int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM symbol_edges WHERE project_id=? AND ref=? AND to_name=? AND to_symbol_id IS NULL`,
		projectID, ref, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unresolved count: %w", err)
	}
	return count, nil
}
