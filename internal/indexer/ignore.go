package indexer

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

type compiledRule struct {
	raw     string
	isDir   bool // trailing "/": matches a path component exactly
	hasPath bool // contains "/" (after stripping a trailing "/"): matches the full relative path
	g       glob.Glob
}

// IgnoreMatcher answers whether a relative path should be excluded from
// walking and hashing. Rules are layered from several sources and
// duplicate patterns (by raw text) are collapsed, first occurrence wins.
type IgnoreMatcher struct {
	rules []compiledRule
}

// NewIgnoreMatcher compiles the ignore rule set from one or more ordered
// rule-source slices (builtin, repo-local, user-global, operator-supplied).
// Patterns are simplified: "**" is not treated specially and collapses to
// "*" semantics, matching spec.md's intentionally simplified glob engine.
func NewIgnoreMatcher(ruleSources ...[]string) (*IgnoreMatcher, error) {
	seen := make(map[string]bool)
	m := &IgnoreMatcher{}

	for _, source := range ruleSources {
		for _, raw := range source {
			pattern := strings.TrimSpace(raw)
			if pattern == "" || strings.HasPrefix(pattern, "#") {
				continue
			}
			if seen[pattern] {
				continue
			}
			seen[pattern] = true

			rule, err := compileRule(pattern)
			if err != nil {
				return nil, err
			}
			m.rules = append(m.rules, rule)
		}
	}

	return m, nil
}

func compileRule(pattern string) (compiledRule, error) {
	isDir := strings.HasSuffix(pattern, "/")
	body := strings.TrimSuffix(pattern, "/")
	hasPath := strings.Contains(body, "/")

	simplified := simplifyGlob(body)
	g, err := glob.Compile(simplified, '/')
	if err != nil {
		return compiledRule{}, err
	}

	return compiledRule{raw: pattern, isDir: isDir, hasPath: hasPath, g: g}, nil
}

// simplifyGlob collapses any run of one or more "*" into a single "*",
// so "**/foo" and "*/foo" and "foo/**" all behave identically: this
// engine does not distinguish directory-spanning "**" from a plain "*".
func simplifyGlob(pattern string) string {
	var b strings.Builder
	runLength := 0
	for _, r := range pattern {
		if r == '*' {
			runLength++
			continue
		}
		if runLength > 0 {
			b.WriteByte('*')
			runLength = 0
		}
		b.WriteRune(r)
	}
	if runLength > 0 {
		b.WriteByte('*')
	}
	return b.String()
}

// Match reports whether relPath (slash-separated, relative to the
// codebase root) should be ignored: either a rule matches it directly, or
// any ancestor directory component matches a directory rule.
func (m *IgnoreMatcher) Match(relPath string) bool {
	if m == nil {
		return false
	}

	relPath = filepath.ToSlash(relPath)
	relPath = strings.TrimPrefix(relPath, "./")
	components := strings.Split(relPath, "/")
	base := components[len(components)-1]

	for _, rule := range m.rules {
		switch {
		case rule.isDir:
			for _, c := range components {
				if rule.g.Match(c) {
					return true
				}
			}
		case rule.hasPath:
			if rule.g.Match(relPath) {
				return true
			}
		default:
			if rule.g.Match(base) {
				return true
			}
		}
	}

	return false
}

// loadIgnoreFile reads a gitignore-style file, one pattern per line,
// blank lines and "#" comments skipped. Missing files are not an error.
func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}

// repoLocalIgnoreFiles finds dotfiles at the codebase root whose name ends
// in "ignore" (.gitignore, .contextignore, .dockerignore, ...).
func repoLocalIgnoreFiles(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var patterns []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, ".") || !strings.HasSuffix(name, "ignore") {
			continue
		}
		lines, err := loadIgnoreFile(filepath.Join(root, name))
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, lines...)
	}
	return patterns, nil
}

// globalIgnorePatterns loads the user-global ignore file, if any.
func globalIgnorePatterns() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, nil
	}
	return loadIgnoreFile(filepath.Join(home, DefaultGlobalIgnoreRelPath))
}

// BuildIgnoreMatcher assembles the full layered ignore set for a codebase
// root: builtin defaults, repo-local dotfiles, the user-global ignore
// file, then any operator-supplied patterns, in that order.
func BuildIgnoreMatcher(root string, operatorPatterns []string) (*IgnoreMatcher, error) {
	repoLocal, err := repoLocalIgnoreFiles(root)
	if err != nil {
		return nil, err
	}
	global, err := globalIgnorePatterns()
	if err != nil {
		return nil, err
	}
	return NewIgnoreMatcher(DefaultIgnorePatterns, repoLocal, global, operatorPatterns)
}
