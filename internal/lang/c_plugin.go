package lang

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var cIncludeQuoted = regexp.MustCompile(`^\s*#include\s*"([^"]+)"`)

// CPlugin resolves C/C++ `#include "..."` directives (quoted, local
// headers only; `#include <...>` names system/third-party headers and is
// always dropped). Spec §4.A's probe order: file directory, then the
// project's declared source directories, then project-root subdirectories.
type CPlugin struct{}

// NewCPlugin constructs the C/C++ language plugin.
func NewCPlugin() *CPlugin { return &CPlugin{} }

func (p *CPlugin) ID() string          { return "c" }
func (p *CPlugin) DisplayName() string { return "C/C++" }
func (p *CPlugin) FileExtensions() []string {
	return []string{".c", ".h", ".cc", ".cpp", ".cxx", ".hpp", ".hh"}
}

func (p *CPlugin) DetectProject(root string) bool {
	for _, marker := range []string{"CMakeLists.txt", "Makefile", "configure.ac"} {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			return true
		}
	}
	return false
}

func (p *CPlugin) SourceDirs(root string) []string {
	var dirs []string
	for _, d := range []string{"src", "include", "lib"} {
		if info, err := os.Stat(filepath.Join(root, d)); err == nil && info.IsDir() {
			dirs = append(dirs, filepath.Join(root, d))
		}
	}
	return append(dirs, root)
}

func (p *CPlugin) PackageName(root string) string { return "" }

func (p *CPlugin) DiscoverFiles(dir string) ([]string, error) {
	return DiscoverFiles(dir, dir, p.FileExtensions(), NewSkipSet(dir))
}

func (p *CPlugin) ClearCache(root string) {}

func (p *CPlugin) ParseImports(file string, ctx ImportContext) []string {
	fileDir := filepath.Dir(file)
	probeDirs := append([]string{fileDir}, p.SourceDirs(ctx.ProjectRoot)...)

	seen := make(map[string]struct{})
	var out []string
	for _, line := range strings.Split(ctx.Content, "\n") {
		m := cIncludeQuoted.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		header := filepath.FromSlash(m[1])
		target := ""
		for _, dir := range probeDirs {
			candidate := filepath.Join(dir, header)
			if _, err := os.Stat(candidate); err == nil {
				target = candidate
				break
			}
		}
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

func (p *CPlugin) ClassifyLayer(relPath string) (string, bool) {
	if strings.HasSuffix(relPath, ".h") || strings.HasSuffix(relPath, ".hpp") {
		return "header", true
	}
	return "", false
}
