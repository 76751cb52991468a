package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/signalridge/cruxe/internal/ids"
	"github.com/signalridge/cruxe/internal/lang"
	"github.com/signalridge/cruxe/internal/parser"
)

func toSet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		out[v] = true
	}
	return out
}

// scopeNameNode returns the node holding a scope's own name. impl_item
// is the one grammar shape that names itself via its "type" field
// rather than "name" — `impl Foo { ... }` has no name field at all.
func scopeNameNode(node *tree_sitter.Node) *tree_sitter.Node {
	if node.Kind() == "impl_item" {
		return node.ChildByFieldName("type")
	}
	return node.ChildByFieldName("name")
}

// parentScopeChain walks upward from node collecting the names of every
// enclosing function/class scope, outermost first, stopping at the
// module root. Nodes of any other kind (bodies/blocks) are passed through
// without contributing a segment.
func parentScopeChain(node *tree_sitter.Node, source []byte, spec *lang.LanguageSpec) []string {
	funcKinds := toSet(spec.FunctionNodeTypes)
	classKinds := toSet(spec.ClassNodeTypes)
	moduleKinds := toSet(spec.ModuleNodeTypes)

	var reversed []string
	current := node.Parent()
	for current != nil {
		kind := current.Kind()
		if moduleKinds[kind] {
			break
		}
		if funcKinds[kind] || classKinds[kind] {
			nameNode := scopeNameNode(current)
			if nameNode != nil {
				if name := strings.TrimSpace(parser.NodeText(nameNode, source)); name != "" {
					reversed = append(reversed, name)
				}
			}
		}
		current = current.Parent()
	}

	chain := make([]string, len(reversed))
	for i, name := range reversed {
		chain[len(reversed)-1-i] = name
	}
	return chain
}

// hasEnclosingScope reports whether node sits inside another
// function/class scope rather than directly at module level, the
// condition the spec's function-to-method promotion keys off of.
func hasEnclosingScope(node *tree_sitter.Node, spec *lang.LanguageSpec) bool {
	funcKinds := toSet(spec.FunctionNodeTypes)
	classKinds := toSet(spec.ClassNodeTypes)
	moduleKinds := toSet(spec.ModuleNodeTypes)

	current := node.Parent()
	for current != nil {
		kind := current.Kind()
		if moduleKinds[kind] {
			return false
		}
		if funcKinds[kind] || classKinds[kind] {
			return true
		}
		current = current.Parent()
	}
	return false
}

// findEnclosingCallableID returns the stable id of the nearest enclosing
// callable scope's symbol (computed the same way extractFunction computes
// it), used to attribute a call site to its calling symbol. found is
// false when the node sits at module level; callers then fall back to
// the file pseudo-id.
func findEnclosingCallableID(node *tree_sitter.Node, source []byte, l lang.Language, project, relPath string, spec *lang.LanguageSpec, compute func(scopeChain []string, name string) string) (id string, found bool) {
	funcKinds := toSet(spec.FunctionNodeTypes)
	current := node.Parent()
	for current != nil {
		if funcKinds[current.Kind()] {
			nameNode := scopeNameNode(current)
			if nameNode == nil {
				current = current.Parent()
				continue
			}
			name := strings.TrimSpace(parser.NodeText(nameNode, source))
			if name == "" {
				current = current.Parent()
				continue
			}
			chain := parentScopeChain(current, source, spec)
			kind := KindFunction
			if current.ChildByFieldName("receiver") != nil || hasEnclosingScope(current, spec) {
				kind = KindMethod
			}
			sig := normalizeSignature(rawSignature(parser.NodeText(current, source)))
			return ids.SymbolStableID(string(l), kind, compute(chain, name), sig), true
		}
		current = current.Parent()
	}
	return "", false
}
