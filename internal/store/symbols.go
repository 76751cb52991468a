package store

import "fmt"

// Symbol mirrors one row of the symbols table.
type Symbol struct {
	SymbolStableID      string
	ProjectID           string
	Ref                 string
	Name                string
	QualifiedName       string
	Kind                string
	Role                string
	Language            string
	Path                string
	LineStart           int
	LineEnd             int
	Signature           string
	NormalizedSignature string
	ParentSymbolID      string
	SourceLayer         string
}

// ReplaceFileSymbols deletes every symbol previously attributed to path
// on (project, ref) and inserts the new set, within the caller's
// transaction. This is the per-file atomic replacement the writer
// relies on: a file's symbol set is always swapped as a unit.
func (s *Store) ReplaceFileSymbols(projectID, ref, path string, symbols []Symbol) error {
	if _, err := s.q.Exec(`DELETE FROM symbols WHERE project_id=? AND ref=? AND path=?`, projectID, ref, path); err != nil {
		return fmt.Errorf("delete file symbols: %w", err)
	}
	for _, sym := range symbols {
		if err := s.upsertSymbol(sym); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertSymbol(sym Symbol) error {
	if sym.SourceLayer == "" {
		sym.SourceLayer = "base"
	}
	_, err := s.q.Exec(`
		INSERT INTO symbols (symbol_stable_id, project_id, ref, name, qualified_name, kind, role, language, path,
			line_start, line_end, signature, normalized_signature, parent_symbol_id, source_layer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, ref, symbol_stable_id) DO UPDATE SET
			name=excluded.name, qualified_name=excluded.qualified_name, kind=excluded.kind, role=excluded.role,
			language=excluded.language, path=excluded.path, line_start=excluded.line_start, line_end=excluded.line_end,
			signature=excluded.signature, normalized_signature=excluded.normalized_signature,
			parent_symbol_id=excluded.parent_symbol_id, source_layer=excluded.source_layer`,
		sym.SymbolStableID, sym.ProjectID, sym.Ref, sym.Name, sym.QualifiedName, sym.Kind, sym.Role, sym.Language, sym.Path,
		sym.LineStart, sym.LineEnd, sym.Signature, sym.NormalizedSignature, sym.ParentSymbolID, sym.SourceLayer)
	if err != nil {
		return fmt.Errorf("upsert symbol: %w", err)
	}
	return nil
}

func scanSymbols(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]Symbol, error) {
	var out []Symbol
	for rows.Next() {
		var sym Symbol
		if err := rows.Scan(&sym.SymbolStableID, &sym.ProjectID, &sym.Ref, &sym.Name, &sym.QualifiedName, &sym.Kind,
			&sym.Role, &sym.Language, &sym.Path, &sym.LineStart, &sym.LineEnd, &sym.Signature,
			&sym.NormalizedSignature, &sym.ParentSymbolID, &sym.SourceLayer); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

const symbolColumns = `symbol_stable_id, project_id, ref, name, qualified_name, kind, role, language, path,
	line_start, line_end, signature, normalized_signature, parent_symbol_id, source_layer`

// GetSymbol fetches one symbol by its stable id.
func (s *Store) GetSymbol(projectID, ref, stableID string) (*Symbol, error) {
	row := s.q.QueryRow(`SELECT `+symbolColumns+` FROM symbols WHERE project_id=? AND ref=? AND symbol_stable_id=?`, projectID, ref, stableID)
	var sym Symbol
	if err := row.Scan(&sym.SymbolStableID, &sym.ProjectID, &sym.Ref, &sym.Name, &sym.QualifiedName, &sym.Kind,
		&sym.Role, &sym.Language, &sym.Path, &sym.LineStart, &sym.LineEnd, &sym.Signature,
		&sym.NormalizedSignature, &sym.ParentSymbolID, &sym.SourceLayer); err != nil {
		return nil, mapNoRows(err)
	}
	return &sym, nil
}

// SymbolsByName returns every symbol named exactly name on (project, ref).
func (s *Store) SymbolsByName(projectID, ref, name string) ([]Symbol, error) {
	rows, err := s.q.Query(`SELECT `+symbolColumns+` FROM symbols WHERE project_id=? AND ref=? AND name=? ORDER BY path, line_start`, projectID, ref, name)
	if err != nil {
		return nil, fmt.Errorf("symbols by name: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SymbolsLike returns symbols whose name or qualified_name contains
// pattern (case-insensitive substring match). No query path or tool
// handler calls it; locate_symbol uses SymbolsByName.
func (s *Store) SymbolsLike(projectID, ref, pattern string, limit int) ([]Symbol, error) {
	rows, err := s.q.Query(`SELECT `+symbolColumns+` FROM symbols
		WHERE project_id=? AND ref=? AND (name LIKE ? ESCAPE '\' OR qualified_name LIKE ? ESCAPE '\')
		ORDER BY length(name) ASC LIMIT ?`,
		projectID, ref, "%"+escapeLike(pattern)+"%", "%"+escapeLike(pattern)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("symbols like: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SymbolsByPath returns every symbol defined in path, ordered by
// position, for get_file_outline.
func (s *Store) SymbolsByPath(projectID, ref, path string) ([]Symbol, error) {
	rows, err := s.q.Query(`SELECT `+symbolColumns+` FROM symbols WHERE project_id=? AND ref=? AND path=? ORDER BY line_start`, projectID, ref, path)
	if err != nil {
		return nil, fmt.Errorf("symbols by path: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SymbolChildren returns the direct children of parentSymbolID (used to
// walk ancestors/descendants in get_symbol_hierarchy).
func (s *Store) SymbolChildren(projectID, ref, parentSymbolID string) ([]Symbol, error) {
	rows, err := s.q.Query(`SELECT `+symbolColumns+` FROM symbols WHERE project_id=? AND ref=? AND parent_symbol_id=? ORDER BY line_start`, projectID, ref, parentSymbolID)
	if err != nil {
		return nil, fmt.Errorf("symbol children: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
