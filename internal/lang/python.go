package lang

func init() {
	Register(&LanguageSpec{
		Language:          Python,
		FileExtensions:    []string{".py", ".pyi"},
		FunctionNodeTypes: []string{"function_definition", "lambda"},
		ClassNodeTypes:    []string{"class_definition"},
		ModuleNodeTypes:   []string{"module"},
		CallNodeTypes:     []string{"call", "with_statement"},
		ImportNodeTypes:   []string{"import_statement"},
		ImportFromTypes:   []string{"import_from_statement"},
		PackageIndicators:    []string{"__init__.py"},
		TransparentNodeTypes: []string{"block"},

		BranchingNodeTypes:      []string{"if_statement", "for_statement", "while_statement", "try_statement", "except_clause", "match_statement"},
		VariableNodeTypes:       []string{"assignment"},
		AssignmentNodeTypes:     []string{"assignment", "augmented_assignment"},
		ThrowNodeTypes:          []string{"raise_statement"},
		EnvAccessMemberPatterns: []string{"os.environ", "os.getenv"},
	})
}
