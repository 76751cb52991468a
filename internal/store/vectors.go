package store

import "fmt"

// VectorRecord mirrors one row of the vector_records table. Exactly one
// of SymbolStableID/SnippetHash is populated depending on what the
// embedding was computed over.
type VectorRecord struct {
	ProjectID             string
	Ref                   string
	SymbolStableID        string
	SnippetHash           string
	EmbeddingModelID      string
	EmbeddingModelVersion string
	Dimensions            int
	Vector                []byte
}

// UpsertVector stores or replaces one embedding.
func (s *Store) UpsertVector(v VectorRecord) error {
	_, err := s.q.Exec(`
		INSERT INTO vector_records (project_id, ref, symbol_stable_id, snippet_hash, embedding_model_id, embedding_model_version, dimensions, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, ref, symbol_stable_id, snippet_hash, embedding_model_id, embedding_model_version)
		DO UPDATE SET dimensions=excluded.dimensions, vector=excluded.vector`,
		v.ProjectID, v.Ref, v.SymbolStableID, v.SnippetHash, v.EmbeddingModelID, v.EmbeddingModelVersion, v.Dimensions, v.Vector)
	if err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

// VectorsForModel returns every vector on (project, ref) computed with
// exactly (modelID, modelVersion), enforcing the spec's rule that
// similarity scoring never mixes vectors across model versions.
func (s *Store) VectorsForModel(projectID, ref, modelID, modelVersion string) ([]VectorRecord, error) {
	rows, err := s.q.Query(`
		SELECT project_id, ref, symbol_stable_id, snippet_hash, embedding_model_id, embedding_model_version, dimensions, vector
		FROM vector_records WHERE project_id=? AND ref=? AND embedding_model_id=? AND embedding_model_version=?`,
		projectID, ref, modelID, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("vectors for model: %w", err)
	}
	defer rows.Close()

	var out []VectorRecord
	for rows.Next() {
		var v VectorRecord
		if err := rows.Scan(&v.ProjectID, &v.Ref, &v.SymbolStableID, &v.SnippetHash, &v.EmbeddingModelID, &v.EmbeddingModelVersion, &v.Dimensions, &v.Vector); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// VectorCount reports how many embeddings exist for (project, ref)
// under any model. vector.Open picks its size tier from the records it
// loads, not from this count.
func (s *Store) VectorCount(projectID, ref string) (int, error) {
	var count int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM vector_records WHERE project_id=? AND ref=?`, projectID, ref).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("vector count: %w", err)
	}
	return count, nil
}

// DeleteVectorsForSymbols removes embeddings tied to symbols. The
// writer's sync does not call it, so a replaced symbol set leaves its
// embeddings in place.
func (s *Store) DeleteVectorsForSymbols(projectID, ref string, symbolStableIDs []string) error {
	for _, id := range symbolStableIDs {
		if _, err := s.q.Exec(`DELETE FROM vector_records WHERE project_id=? AND ref=? AND symbol_stable_id=?`, projectID, ref, id); err != nil {
			return fmt.Errorf("delete vectors for symbol: %w", err)
		}
	}
	return nil
}
