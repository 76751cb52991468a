// Package lang holds the per-language tree-sitter node-type tables that
// drive scanning, parsing and symbol extraction for the languages Cruxe
// understands: Go, Rust, Python, and TypeScript/TSX.
package lang

// Language identifies one of the source languages Cruxe indexes.
type Language string

const (
	Go         Language = "go"
	Rust       Language = "rust"
	Python     Language = "python"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
)

// LanguageSpec describes how a tree-sitter grammar's node kinds map onto
// Cruxe's generic symbol model for one language. Every language
// registered through Register supplies the same shape; node-type lists
// that don't apply to a language are left nil.
type LanguageSpec struct {
	Language Language

	FileExtensions []string

	// FunctionNodeTypes are grammar node kinds that denote a callable
	// (free function, method, closure, arrow function...).
	FunctionNodeTypes []string
	// ClassNodeTypes are grammar node kinds that denote a type
	// definition (class, struct, enum, interface, trait, type alias...).
	// Extractors disambiguate which concrete kind a match is by
	// consulting the node's own grammar type, not this list alone.
	ClassNodeTypes []string
	// FieldNodeTypes are grammar node kinds for struct/class members.
	FieldNodeTypes []string
	// ModuleNodeTypes are the grammar's top-level/translation-unit node
	// kind(s), used as the root scope when walking parent chains.
	ModuleNodeTypes []string
	// CallNodeTypes are grammar node kinds representing a call
	// expression, used to build call edges.
	CallNodeTypes []string
	// ImportNodeTypes / ImportFromTypes are grammar node kinds for
	// import/use/require statements, used to build import edges.
	ImportNodeTypes []string
	ImportFromTypes []string
	// PackageIndicators are file names that mark a directory as a
	// package root (e.g. __init__.py). fqn.ModulePath does not read
	// them; it folds __init__ and index files by name.
	PackageIndicators []string

	// QualifiedNameSeparator joins a symbol's scope chain into its
	// qualified name. Defaults to "." when empty; Rust uses "::".
	QualifiedNameSeparator string

	// TransparentNodeTypes lists grammar node kinds (bodies/blocks) that
	// are not scopes of their own. Nothing reads it: the parent-scope
	// walk passes through every node kind that is not a function, class
	// or module scope.
	TransparentNodeTypes []string

	// The remaining fields aren't used for symbol extraction, and no
	// rerank or context signal reads them either.
	BranchingNodeTypes      []string
	VariableNodeTypes       []string
	AssignmentNodeTypes     []string
	ThrowNodeTypes          []string
	EnvAccessMemberPatterns []string
}

// Separator returns the qualified-name join separator for this spec.
func (s *LanguageSpec) Separator() string {
	if s.QualifiedNameSeparator != "" {
		return s.QualifiedNameSeparator
	}
	return "."
}

var registry = map[Language]*LanguageSpec{}
var byExt = map[string]*LanguageSpec{}

// Register adds a language spec to the registry. Called from each
// language file's init().
func Register(spec *LanguageSpec) {
	registry[spec.Language] = spec
	for _, ext := range spec.FileExtensions {
		byExt[ext] = spec
	}
}

// AllLanguages returns every registered language.
func AllLanguages() []Language {
	return []Language{Go, Rust, Python, TypeScript, TSX}
}

// ForLanguage looks up a spec by language identifier.
func ForLanguage(l Language) *LanguageSpec {
	return registry[l]
}

// ForExtension looks up a spec by file extension (including the dot).
func ForExtension(ext string) *LanguageSpec {
	return byExt[ext]
}

// LanguageForExtension is a convenience wrapper returning just the
// language identifier.
func LanguageForExtension(ext string) (Language, bool) {
	spec, ok := byExt[ext]
	if !ok {
		return "", false
	}
	return spec.Language, true
}
