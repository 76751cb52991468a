package fts

import "github.com/blevesearch/bleve/v2"

const (
	TypeSymbol  = "symbol"
	TypeSnippet = "snippet"
	TypeFile    = "file"
)

func analyzedField(analyzer string) *bleve.TextFieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = analyzer
	return fm
}

func keywordField() *bleve.TextFieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = "keyword"
	return fm
}

func storedOnlyField() *bleve.TextFieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Index = false
	fm.Store = true
	return fm
}

func storedNumberField() *bleve.NumericFieldMapping {
	fm := bleve.NewNumericFieldMapping()
	fm.Index = false
	fm.Store = true
	return fm
}

// buildMapping constructs the three logical document collections the
// spec requires: symbols, snippets and files, each carrying a ref
// field filtered at query time.
func buildMapping() *bleve.IndexMapping {
	im := bleve.NewIndexMapping()
	im.TypeField = "_type"
	im.DefaultAnalyzer = CamelCaseAnalyzer

	symbolMapping := bleve.NewDocumentMapping()
	symbolMapping.AddFieldMappingsAt("symbol_exact", keywordField())
	symbolMapping.AddFieldMappingsAt("qualified_name", analyzedField(DottedNameAnalyzer))
	symbolMapping.AddFieldMappingsAt("signature", analyzedField(CamelCaseAnalyzer))
	symbolMapping.AddFieldMappingsAt("path", analyzedField(PathAnalyzer))
	symbolMapping.AddFieldMappingsAt("content", analyzedField(CamelCaseAnalyzer))
	symbolMapping.AddFieldMappingsAt("ref", keywordField())
	for _, f := range []string{"role", "kind", "language", "symbol_stable_id"} {
		symbolMapping.AddFieldMappingsAt(f, storedOnlyField())
	}
	symbolMapping.AddFieldMappingsAt("line_start", storedNumberField())
	symbolMapping.AddFieldMappingsAt("line_end", storedNumberField())
	im.AddDocumentMapping(TypeSymbol, symbolMapping)

	snippetMapping := bleve.NewDocumentMapping()
	snippetMapping.AddFieldMappingsAt("content", analyzedField(CamelCaseAnalyzer))
	snippetMapping.AddFieldMappingsAt("path", analyzedField(PathAnalyzer))
	snippetMapping.AddFieldMappingsAt("imports", analyzedField(DottedNameAnalyzer))
	snippetMapping.AddFieldMappingsAt("ref", keywordField())
	im.AddDocumentMapping(TypeSnippet, snippetMapping)

	fileMapping := bleve.NewDocumentMapping()
	fileMapping.AddFieldMappingsAt("path", analyzedField(PathAnalyzer))
	fileMapping.AddFieldMappingsAt("filename", analyzedField(SnakeCaseAnalyzer))
	fileMapping.AddFieldMappingsAt("content_head", analyzedField(CamelCaseAnalyzer))
	fileMapping.AddFieldMappingsAt("ref", keywordField())
	im.AddDocumentMapping(TypeFile, fileMapping)

	return im
}
