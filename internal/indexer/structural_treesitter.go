package indexer

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// symbolSet names the node kinds that each become their own chunk, and the
// node kinds that get collapsed into a single leading "imports" chunk.
// Grounded on Aman-CERP-amanmcp's LanguageConfig registry.
type symbolSet struct {
	lang     *sitter.Language
	symbols  map[string]bool
	imports  map[string]bool
	terminal map[string]bool // symbol kinds whose children are never walked for more chunks
}

var treeSitterLanguages = map[string]symbolSet{
	"typescript": {
		lang: typescript.GetLanguage(),
		symbols: map[string]bool{
			"class_declaration":      true,
			"interface_declaration":  true,
			"function_declaration":   true,
			"method_definition":      true,
			"type_alias_declaration": true,
			"lexical_declaration":    true,
		},
		imports: map[string]bool{"import_statement": true},
	},
	"javascript": {
		lang: javascript.GetLanguage(),
		symbols: map[string]bool{
			"class_declaration":    true,
			"function_declaration": true,
			"method_definition":    true,
			"lexical_declaration":  true,
		},
		imports: map[string]bool{"import_statement": true},
	},
	"python": {
		lang: python.GetLanguage(),
		symbols: map[string]bool{
			"class_definition":      true,
			"function_definition":   true,
			"decorated_definition":  true,
		},
		imports:  map[string]bool{"import_statement": true, "import_from_statement": true},
		terminal: map[string]bool{"decorated_definition": true},
	},
	"java": {
		lang: java.GetLanguage(),
		symbols: map[string]bool{
			"class_declaration":     true,
			"interface_declaration": true,
			"enum_declaration":      true,
			"method_declaration":    true,
		},
		imports: map[string]bool{"import_declaration": true},
	},
	"cpp": {
		lang: cpp.GetLanguage(),
		symbols: map[string]bool{
			"function_definition": true,
			"class_specifier":     true,
			"struct_specifier":    true,
			"enum_specifier":      true,
			"namespace_definition": true,
		},
		imports: map[string]bool{"preproc_include": true},
	},
	"rust": {
		lang: rust.GetLanguage(),
		symbols: map[string]bool{
			"function_item": true,
			"struct_item":   true,
			"enum_item":     true,
			"trait_item":    true,
			"impl_item":     true,
			"mod_item":      true,
		},
		imports: map[string]bool{"use_declaration": true},
	},
}

// splitStructural dispatches to the per-language structural splitter. It
// returns nil (not an empty slice) when the language is unsupported or the
// parse fails, signaling the caller to fall back to the size-based
// splitter; it returns an empty, non-nil slice when parsing succeeded but
// found no symbol-defining nodes at all.
func splitStructural(text, language, filePath string) []Chunk {
	if language == "go" {
		return splitGo(text, filePath)
	}

	set, ok := treeSitterLanguages[language]
	if !ok {
		return nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(set.lang)

	source := []byte(text)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return nil
	}
	defer tree.Close()

	lines := strings.Split(text, "\n")

	var chunks []Chunk
	var importStart, importEnd int = -1, -1

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}

		kind := n.Type()
		switch {
		case set.imports[kind]:
			row := int(n.StartPoint().Row)
			endRow := int(n.EndPoint().Row)
			if importStart == -1 || row < importStart {
				importStart = row
			}
			if endRow > importEnd {
				importEnd = endRow
			}
		case set.symbols[kind]:
			startLine := int(n.StartPoint().Row) + 1
			endLine := int(n.EndPoint().Row) + 1
			chunks = append(chunks, Chunk{
				Content:   joinLines(lines, startLine, endLine),
				Language:  language,
				FilePath:  filePath,
				StartLine: startLine,
				EndLine:   endLine,
			})
			if set.terminal[kind] {
				return
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())

	if importStart != -1 {
		importChunk := Chunk{
			Content:   joinLines(lines, importStart+1, importEnd+1),
			Language:  language,
			FilePath:  filePath,
			StartLine: importStart + 1,
			EndLine:   importEnd + 1,
		}
		chunks = append([]Chunk{importChunk}, chunks...)
	}

	if chunks == nil {
		chunks = []Chunk{}
	}
	return chunks
}
