package lang

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// baselineSkip is the registry's baseline skip set (spec §4.A): VCS
// directories, vendor/build output, dependency caches, and generated lock
// files. Plugins may layer additional patterns on top via .gitignore.
var baselineSkip = []string{
	".git",
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	"venv",
	"dist",
	"build",
	".next",
	".nuxt",
	"target",
	"bin",
	"obj",
	".idea",
	".vscode",
	"*.log",
	"*.lock",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"go.sum",
	"Cargo.lock",
	"*.min.js",
	"*.min.css",
	"*.map",
}

// SkipSet decides whether a path should be excluded from discovery:
// the baseline set plus whatever the project's .gitignore adds.
type SkipSet struct {
	extra []string
}

// NewSkipSet builds a SkipSet for root, loading .gitignore if present.
func NewSkipSet(root string) *SkipSet {
	s := &SkipSet{}
	s.loadGitignore(root)
	return s
}

func (s *SkipSet) loadGitignore(root string) {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.extra = append(s.extra, line)
	}
}

// Match reports whether relPath (isDir indicates directory-ness) should be
// skipped.
func (s *SkipSet) Match(relPath string, isDir bool) bool {
	name := filepath.Base(relPath)
	for _, pattern := range baselineSkip {
		if matchSkipPattern(pattern, name, relPath, isDir) {
			return true
		}
	}
	for _, pattern := range s.extra {
		if matchSkipPattern(pattern, name, relPath, isDir) {
			return true
		}
	}
	return false
}

func matchSkipPattern(pattern, name, path string, isDir bool) bool {
	if strings.HasPrefix(pattern, "!") {
		return false
	}
	if strings.HasSuffix(pattern, "/") {
		if !isDir {
			return false
		}
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		pattern = strings.TrimPrefix(pattern, "/")
		matched, _ := filepath.Match(pattern, path)
		return matched
	}
	if strings.Contains(pattern, "*") {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		matched, _ := filepath.Match(pattern, path)
		return matched
	}
	if name == pattern {
		return true
	}
	// A slash-less gitignore pattern matches at any directory depth, but as
	// a whole path component — not as a substring of an unrelated name.
	for _, component := range strings.Split(path, "/") {
		if component == pattern {
			return true
		}
	}
	return false
}
