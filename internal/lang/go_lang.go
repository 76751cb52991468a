package lang

func init() {
	Register(&LanguageSpec{
		Language:          Go,
		FileExtensions:    []string{".go"},
		FunctionNodeTypes: []string{"function_declaration", "method_declaration", "func_literal"},
		ClassNodeTypes:    []string{"type_spec", "type_alias"},
		FieldNodeTypes:    []string{"field_declaration"},
		ModuleNodeTypes:   []string{"source_file"},
		CallNodeTypes:     []string{"call_expression"},
		ImportNodeTypes:   []string{"import_declaration"},
		ImportFromTypes:   []string{"import_declaration"},
		TransparentNodeTypes: []string{"block"},

		BranchingNodeTypes:      []string{"if_statement", "for_statement", "switch_statement", "select_statement", "case_clause", "default_case"},
		VariableNodeTypes:       []string{"var_declaration", "const_declaration"},
		AssignmentNodeTypes:     []string{"assignment_statement", "short_var_declaration"},
		EnvAccessMemberPatterns: []string{"os.Getenv", "os.LookupEnv"},
	})
}
