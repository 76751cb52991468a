// Package extract is the single language-neutral symbol/edge mapper:
// one walk over a parsed syntax tree, driven entirely by a
// lang.LanguageSpec's node-type tables, replacing what the teacher did
// with dozens of per-language extraction functions.
package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/signalridge/cruxe/internal/fqn"
	"github.com/signalridge/cruxe/internal/ids"
	"github.com/signalridge/cruxe/internal/lang"
	"github.com/signalridge/cruxe/internal/parser"
	"github.com/signalridge/cruxe/internal/store"
)

// Result holds everything one file's extraction pass produced.
type Result struct {
	Symbols  []store.Symbol
	Edges    []store.SymbolEdge
	Snippets []store.Snippet
	// SymbolIDs lists every stable id produced, handed to the writer so
	// it can atomically replace this file's prior rows.
	SymbolIDs []string
}

// KnownFiles is the set of project-relative paths currently indexed,
// consulted by the best-effort import resolver to decide whether a
// relative import target resolves locally.
type KnownFiles map[string]bool

// Extract walks tree and produces the symbols, edges and snippets
// defined in relPath.
func Extract(tree *tree_sitter.Tree, source []byte, l lang.Language, project, relPath, ref string, known KnownFiles) (*Result, error) {
	spec := lang.ForLanguage(l)
	if spec == nil {
		return &Result{}, nil
	}

	res := &Result{}
	fileID := ids.FileSymbolID(relPath)

	funcKinds := toSet(spec.FunctionNodeTypes)
	classKinds := toSet(spec.ClassNodeTypes)
	callKinds := toSet(spec.CallNodeTypes)
	importKinds := toSet(spec.ImportNodeTypes)

	var importsContext []string

	computeQN := func(scopeChain []string, name string) string {
		return fqn.Compute(l, project, relPath, scopeChain, name)
	}

	parser.Walk(tree.RootNode(), func(node *tree_sitter.Node) bool {
		kind := node.Kind()
		switch {
		case funcKinds[kind]:
			if sym := extractFunction(node, source, l, relPath, ref, spec, computeQN); sym != nil {
				res.Symbols = append(res.Symbols, *sym)
				res.SymbolIDs = append(res.SymbolIDs, sym.SymbolStableID)
				res.Snippets = append(res.Snippets, snippetForSymbol(node, source, ref, relPath, *sym))
			}
		// impl_item stays in ClassNodeTypes so the scope walk treats it
		// as a scope (its methods qualify under the type it extends),
		// but it never produces its own symbol row: the type it extends
		// already has one.
		case classKinds[kind] && kind != "impl_item":
			if sym := extractClass(node, source, l, relPath, ref, spec, computeQN); sym != nil {
				res.Symbols = append(res.Symbols, *sym)
				res.SymbolIDs = append(res.SymbolIDs, sym.SymbolStableID)
				res.Snippets = append(res.Snippets, snippetForSymbol(node, source, ref, relPath, *sym))
			}
		case importKinds[kind]:
			if target := strings.TrimSpace(parser.NodeText(node, source)); target != "" {
				importsContext = append(importsContext, target)
			}
		}
		switch {
		case callKinds[kind]:
			if edge := extractCallEdge(node, source, l, project, relPath, ref, spec, fileID, computeQN); edge != nil {
				res.Edges = append(res.Edges, *edge)
			}
		case importKinds[kind]:
			res.Edges = append(res.Edges, extractImportEdges(node, source, l, relPath, ref, fileID, known)...)
		}
		return true
	})

	if len(importsContext) > 0 {
		ctx := strings.Join(importsContext, "\n")
		for i := range res.Snippets {
			res.Snippets[i].ImportsContext = ctx
		}
	}

	return res, nil
}

// snippetForSymbol derives a snippet row from a symbol's own definition
// node: its full text is the body, and its line range and snippet_hash
// let the writer join it back to the symbol by path+range overlap.
func snippetForSymbol(node *tree_sitter.Node, source []byte, ref, relPath string, sym store.Symbol) store.Snippet {
	body := parser.NodeText(node, source)
	return store.Snippet{
		SnippetHash: ids.SnippetHash(body),
		Ref:         ref,
		Path:        relPath,
		LineStart:   sym.LineStart,
		LineEnd:     sym.LineEnd,
		Body:        body,
	}
}

func extractFunction(node *tree_sitter.Node, source []byte, l lang.Language, relPath, ref string, spec *lang.LanguageSpec, computeQN func([]string, string) string) *store.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := strings.TrimSpace(parser.NodeText(nameNode, source))
	if name == "" {
		return nil
	}

	kind := KindFunction
	if node.ChildByFieldName("receiver") != nil || hasEnclosingScope(node, spec) {
		kind = KindMethod
	}
	role := RoleOf(kind)

	scopeChain := parentScopeChain(node, source, spec)
	qn := computeQN(scopeChain, name)

	fullText := parser.NodeText(node, source)
	raw := rawSignature(fullText)
	normalized := normalizeSignature(raw)

	start := int(node.StartPosition().Row) + 1
	end := int(node.EndPosition().Row) + 1

	stableID := ids.SymbolStableID(string(l), kind, qn, normalized)

	var parentID string
	if scopeChain != nil {
		if pid, ok := findEnclosingCallableID(node, source, l, "", relPath, spec, func(sc []string, n string) string { return computeQN(sc, n) }); ok {
			parentID = pid
		}
	}

	return &store.Symbol{
		SymbolStableID:      stableID,
		Ref:                 ref,
		Name:                name,
		QualifiedName:       qn,
		Kind:                kind,
		Role:                role,
		Language:            string(l),
		Path:                relPath,
		LineStart:           start,
		LineEnd:             end,
		Signature:           raw,
		NormalizedSignature: normalized,
		ParentSymbolID:      parentID,
	}
}

func extractClass(node *tree_sitter.Node, source []byte, l lang.Language, relPath, ref string, spec *lang.LanguageSpec, computeQN func([]string, string) string) *store.Symbol {
	nameNode := scopeNameNode(node)
	if nameNode == nil {
		return nil
	}
	name := strings.TrimSpace(parser.NodeText(nameNode, source))
	if name == "" {
		return nil
	}

	kind := disambiguateKind(l, node.Kind())
	scopeChain := parentScopeChain(node, source, spec)
	qn := computeQN(scopeChain, name)

	start := int(node.StartPosition().Row) + 1
	end := int(node.EndPosition().Row) + 1

	stableID := ids.SymbolStableID(string(l), kind, qn, "")

	return &store.Symbol{
		SymbolStableID: stableID,
		Ref:            ref,
		Name:           name,
		QualifiedName:  qn,
		Kind:           kind,
		Role:           RoleOf(kind),
		Language:       string(l),
		Path:           relPath,
		LineStart:      start,
		LineEnd:        end,
	}
}

func calleeName(node *tree_sitter.Node, source []byte) string {
	target := node.ChildByFieldName("function")
	if target == nil {
		target = node.ChildByFieldName("method")
	}
	if target == nil {
		return ""
	}
	if field := target.ChildByFieldName("property"); field != nil {
		return strings.TrimSpace(parser.NodeText(field, source))
	}
	if field := target.ChildByFieldName("field"); field != nil {
		return strings.TrimSpace(parser.NodeText(field, source))
	}
	if field := target.ChildByFieldName("name"); field != nil {
		return strings.TrimSpace(parser.NodeText(field, source))
	}
	text := strings.TrimSpace(parser.NodeText(target, source))
	if idx := strings.LastIndexAny(text, ".:"); idx >= 0 {
		text = text[idx+1:]
		text = strings.TrimLeft(text, ":")
	}
	return text
}

func extractCallEdge(node *tree_sitter.Node, source []byte, l lang.Language, project, relPath, ref string, spec *lang.LanguageSpec, fileID string, computeQN func([]string, string) string) *store.SymbolEdge {
	name := calleeName(node, source)
	if name == "" {
		return nil
	}

	fromID := fileID
	if id, ok := findEnclosingCallableID(node, source, l, project, relPath, spec, computeQN); ok {
		fromID = id
	}

	return &store.SymbolEdge{
		Ref:            ref,
		FromSymbolID:   fromID,
		ToName:         name,
		EdgeType:       "calls",
		Confidence:     "heuristic",
		SourceLocation: relPath,
	}
}

func extractImportEdges(node *tree_sitter.Node, source []byte, l lang.Language, relPath, ref, fileID string, known KnownFiles) []store.SymbolEdge {
	raw := strings.TrimSpace(parser.NodeText(node, source))
	if raw == "" {
		return nil
	}
	target := importTarget(node, source, l)
	if target == "" {
		return nil
	}

	resolved := resolveImport(l, relPath, target, known)
	edge := store.SymbolEdge{
		Ref:            ref,
		FromSymbolID:   fileID,
		ToName:         target,
		EdgeType:       "imports",
		Confidence:     "heuristic",
		SourceLocation: relPath,
	}
	if resolved != "" {
		edge.ToSymbolID = ids.FileSymbolID(resolved)
	}
	return []store.SymbolEdge{edge}
}

func importTarget(node *tree_sitter.Node, source []byte, l lang.Language) string {
	for _, field := range []string{"source", "path", "name"} {
		if n := node.ChildByFieldName(field); n != nil {
			return strings.Trim(strings.TrimSpace(parser.NodeText(n, source)), `"'`)
		}
	}
	return strings.TrimSpace(parser.NodeText(node, source))
}
