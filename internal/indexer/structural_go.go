package indexer

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// splitGo extracts one chunk per top-level declaration: every import
// block collapses into a single chunk, and every GenDecl (type/const/var)
// or FuncDecl becomes its own chunk spanning its full source range.
// Generalized from the teacher's parser.go, which walked the same AST to
// extract symbol *metadata* rather than full chunk boundaries.
func splitGo(text, filePath string) []Chunk {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, text, parser.ParseComments)
	if err != nil {
		return nil
	}

	lines := strings.Split(text, "\n")

	chunks := []Chunk{}
	var importStart, importEnd token.Pos

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok == token.IMPORT {
				if importStart == 0 || d.Pos() < importStart {
					importStart = d.Pos()
				}
				if d.End() > importEnd {
					importEnd = d.End()
				}
				continue
			}
			chunks = append(chunks, chunkFromSpan(fset, lines, filePath, d.Pos(), d.End()))
		case *ast.FuncDecl:
			chunks = append(chunks, chunkFromSpan(fset, lines, filePath, d.Pos(), d.End()))
		}
	}

	if importStart != 0 {
		importChunk := chunkFromSpan(fset, lines, filePath, importStart, importEnd)
		chunks = append([]Chunk{importChunk}, chunks...)
	}

	return chunks
}

func chunkFromSpan(fset *token.FileSet, lines []string, filePath string, start, end token.Pos) Chunk {
	startLine := fset.Position(start).Line
	endLine := fset.Position(end).Line
	return Chunk{
		Content:   joinLines(lines, startLine, endLine),
		Language:  "go",
		FilePath:  filePath,
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// joinLines extracts source lines startLine..endLine inclusive (1-indexed).
func joinLines(lines []string, startLine, endLine int) string {
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine || startLine > len(lines) {
		return ""
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}
