package extract

import "github.com/signalridge/cruxe/internal/lang"

// Symbol kinds, shared across all four languages.
const (
	KindFunction  = "function"
	KindMethod    = "method"
	KindClass     = "class"
	KindStruct    = "struct"
	KindEnum      = "enum"
	KindInterface = "interface"
	KindTrait     = "trait"
	KindTypeAlias = "type_alias"
	KindField     = "field"
	KindModule    = "module"
)

// Symbol roles, the total function of Kind spec.md's data model
// requires: every kind maps to exactly one of these.
const (
	RoleType      = "type"
	RoleCallable  = "callable"
	RoleValue     = "value"
	RoleNamespace = "namespace"
	RoleAlias     = "alias"
)

// RoleOf derives a symbol's role from its kind. Struct/enum/interface/
// trait/class are nominal types; type_alias gets its own Alias role
// rather than folding into Type, since it names an existing type
// rather than declaring one; function/method are callables; field is
// a value binding; module is a namespace.
func RoleOf(kind string) string {
	switch kind {
	case KindClass, KindStruct, KindEnum, KindInterface, KindTrait:
		return RoleType
	case KindTypeAlias:
		return RoleAlias
	case KindFunction, KindMethod:
		return RoleCallable
	case KindModule:
		return RoleNamespace
	case KindField:
		return RoleValue
	default:
		return RoleValue
	}
}

// disambiguateKind maps a class-like grammar node kind to a concrete
// symbol kind. Most languages have one node kind per concept; Rust and
// TypeScript overload a single ClassNodeTypes bucket across several
// concepts that need their own label.
func disambiguateKind(l lang.Language, nodeKind string) string {
	switch nodeKind {
	case "struct_item", "union_item":
		return KindStruct
	case "enum_item", "enum_declaration":
		return KindEnum
	case "type_item", "type_alias", "type_alias_declaration":
		return KindTypeAlias
	case "trait_item":
		return KindTrait
	case "interface_declaration":
		return KindInterface
	case "impl_item":
		return KindStruct
	case "class_declaration", "class", "abstract_class_declaration", "class_definition":
		return KindClass
	case "internal_module":
		return KindModule
	default:
		return KindClass
	}
}
