package fts

import (
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/registry"
)

// Analyzer names registered with bleve's mapping, one per code-aware
// tokenizer the index requires.
const (
	CamelCaseAnalyzer  = "code_camel"
	SnakeCaseAnalyzer  = "code_snake"
	DottedNameAnalyzer = "code_dotted"
	PathAnalyzer       = "code_path"
)

func init() {
	registry.RegisterTokenFilter(CamelCaseAnalyzer, func(map[string]interface{}, *registry.Cache) (analysis.TokenFilter, error) {
		return splitFilter{split: splitCamelCase}, nil
	})
	registry.RegisterTokenFilter(SnakeCaseAnalyzer, func(map[string]interface{}, *registry.Cache) (analysis.TokenFilter, error) {
		return splitFilter{split: splitOnRunes('_')}, nil
	})
	registry.RegisterTokenFilter(DottedNameAnalyzer, func(map[string]interface{}, *registry.Cache) (analysis.TokenFilter, error) {
		return splitFilter{split: splitOnRunes('.')}, nil
	})
	registry.RegisterTokenFilter(PathAnalyzer, func(map[string]interface{}, *registry.Cache) (analysis.TokenFilter, error) {
		return splitFilter{split: splitOnRunes('/', '.')}, nil
	})

	for _, name := range []string{CamelCaseAnalyzer, SnakeCaseAnalyzer, DottedNameAnalyzer, PathAnalyzer} {
		name := name
		registry.RegisterAnalyzer(name, func(config map[string]interface{}, cache *registry.Cache) (analysis.Analyzer, error) {
			tokenizer, err := cache.TokenizerNamed(single.Name)
			if err != nil {
				return nil, err
			}
			splitter, err := cache.TokenFilterNamed(name)
			if err != nil {
				return nil, err
			}
			lower, err := cache.TokenFilterNamed(lowercase.Name)
			if err != nil {
				return nil, err
			}
			return &analysis.DefaultAnalyzer{
				Tokenizer:    tokenizer,
				TokenFilters: []analysis.TokenFilter{splitter, lower},
			}, nil
		})
	}
}

// splitFilter keeps the original token (so exact-match phrase queries
// against the untouched identifier still hit) and appends whatever
// sub-tokens split produces.
type splitFilter struct {
	split func(string) []string
}

func (f splitFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := make(analysis.TokenStream, 0, len(input))
	for _, tok := range input {
		out = append(out, tok)
		parts := f.split(string(tok.Term))
		if len(parts) <= 1 {
			continue
		}
		for _, p := range parts {
			if p == "" {
				continue
			}
			out = append(out, &analysis.Token{
				Term:     []byte(p),
				Start:    tok.Start,
				End:      tok.End,
				Position: tok.Position,
				Type:     analysis.AlphaNumeric,
			})
		}
	}
	return out
}

// splitCamelCase splits validateUserToken into [validate, user, token,
// validateUserToken]: the split parts are lowercased, and the last element
// restores the whole identifier in its original case (the analyzer's
// lowercase filter lowercases it afterwards).
func splitCamelCase(s string) []string {
	runes := []rune(s)
	var parts []string
	var cur []rune
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
			parts = append(parts, string(cur))
			cur = nil
		}
		cur = append(cur, unicode.ToLower(r))
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	if len(parts) > 1 {
		parts = append(parts, string(runes))
	}
	return parts
}

func splitOnRunes(seps ...rune) func(string) []string {
	isSep := func(r rune) bool {
		for _, sep := range seps {
			if r == sep {
				return true
			}
		}
		return false
	}
	return func(s string) []string {
		var parts []string
		var cur []rune
		for _, r := range s {
			if isSep(r) {
				if len(cur) > 0 {
					parts = append(parts, string(cur))
					cur = nil
				}
				continue
			}
			cur = append(cur, r)
		}
		if len(cur) > 0 {
			parts = append(parts, string(cur))
		}
		return parts
	}
}
