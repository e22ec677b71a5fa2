package indexer

import (
	"path/filepath"
	"strings"
)

// extensionLanguage maps a lowercase file extension (with leading dot) to
// the language name used by the splitter and stored alongside chunks.
var extensionLanguage = map[string]string{
	".ts":       "typescript",
	".tsx":      "typescript",
	".js":       "javascript",
	".jsx":      "javascript",
	".mjs":      "javascript",
	".cjs":      "javascript",
	".py":       "python",
	".java":     "java",
	".cpp":      "cpp",
	".cc":       "cpp",
	".cxx":      "cpp",
	".hpp":      "cpp",
	".hh":       "cpp",
	".c":        "c",
	".h":        "c",
	".cs":       "csharp",
	".go":       "go",
	".rs":       "rust",
	".php":      "php",
	".rb":       "ruby",
	".swift":    "swift",
	".kt":       "kotlin",
	".kts":      "kotlin",
	".scala":    "scala",
	".m":        "objective-c",
	".mm":       "objective-c",
	".ipynb":    "jupyter",
	".md":       "markdown",
	".markdown": "markdown",
}

// DefaultExtensions is the default indexable extension allow-list.
var DefaultExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
	".py", ".java", ".cpp", ".cc", ".cxx", ".hpp", ".hh", ".c", ".h",
	".cs", ".go", ".rs", ".php", ".rb", ".swift", ".kt", ".kts", ".scala",
	".m", ".mm", ".ipynb", ".md", ".markdown",
}

// LanguageForPath returns the language name for a file path's extension,
// falling back to "text" for anything not in the map.
func LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguage[ext]; ok {
		return lang
	}
	return "text"
}

// structuralLanguages is the set of languages with a structural splitter.
// Every other language falls straight to the size-based fallback.
var structuralLanguages = map[string]bool{
	"go":         true,
	"typescript": true,
	"javascript": true,
	"python":     true,
	"java":       true,
	"cpp":        true,
	"rust":       true,
}
