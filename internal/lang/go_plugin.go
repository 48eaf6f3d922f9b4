package lang

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
)

// goImportLine matches both single-line `import "path"` and each quoted
// entry inside a `import (...)` block, with an optional alias — including
// the blank (`_`) and dot (`.`) aliases, neither of which is \w.
var goImportLine = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"\s*$`)
var goImportSingle = regexp.MustCompile(`^\s*import\s+(?:[\w.]+\s+)?"([^"]+)"`)
var goImportBlockStart = regexp.MustCompile(`^\s*import\s*\(`)

// GoPlugin resolves imports for Go source using the module path declared
// in go.mod, the same file the teacher's detector parses via
// golang.org/x/mod/modfile for manifest metadata.
type GoPlugin struct {
	mu          sync.Mutex
	modulePaths map[string]string // projectRoot -> module path, "" if none
}

// NewGoPlugin constructs the Go language plugin.
func NewGoPlugin() *GoPlugin {
	return &GoPlugin{modulePaths: make(map[string]string)}
}

func (p *GoPlugin) ID() string             { return "go" }
func (p *GoPlugin) DisplayName() string    { return "Go" }
func (p *GoPlugin) FileExtensions() []string { return []string{".go"} }

func (p *GoPlugin) DetectProject(root string) bool {
	_, err := os.Stat(filepath.Join(root, "go.mod"))
	return err == nil
}

func (p *GoPlugin) SourceDirs(root string) []string {
	return []string{root}
}

func (p *GoPlugin) PackageName(root string) string {
	return p.modulePath(root)
}

func (p *GoPlugin) DiscoverFiles(dir string) ([]string, error) {
	return DiscoverFiles(dir, dir, p.FileExtensions(), NewSkipSet(dir))
}

func (p *GoPlugin) modulePath(root string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if mp, ok := p.modulePaths[root]; ok {
		return mp
	}
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		p.modulePaths[root] = ""
		return ""
	}
	mf, err := modfile.Parse("go.mod", data, nil)
	if err != nil || mf.Module == nil {
		p.modulePaths[root] = ""
		return ""
	}
	p.modulePaths[root] = mf.Module.Mod.Path
	return mf.Module.Mod.Path
}

func (p *GoPlugin) ClearCache(root string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.modulePaths, root)
}

// ParseImports regex-scans for import declarations and resolves any path
// prefixed by the project's module path to a directory under projectRoot;
// everything else (standard library, third-party modules) is dropped.
func (p *GoPlugin) ParseImports(file string, ctx ImportContext) []string {
	modPath := p.modulePath(ctx.ProjectRoot)
	if modPath == "" {
		return nil
	}

	var raw []string
	inBlock := false
	for _, line := range strings.Split(ctx.Content, "\n") {
		if !inBlock {
			if m := goImportSingle.FindStringSubmatch(line); m != nil {
				raw = append(raw, m[1])
				continue
			}
			if goImportBlockStart.MatchString(line) {
				inBlock = true
			}
			continue
		}
		if strings.TrimSpace(line) == ")" {
			inBlock = false
			continue
		}
		if m := goImportLine.FindStringSubmatch(line); m != nil {
			raw = append(raw, m[1])
		}
	}

	seen := make(map[string]struct{})
	var resolved []string
	for _, imp := range raw {
		if imp != modPath && !strings.HasPrefix(imp, modPath+"/") {
			continue
		}
		rest := strings.TrimPrefix(imp, modPath)
		rest = strings.TrimPrefix(rest, "/")
		pkgDir := filepath.Join(ctx.ProjectRoot, filepath.FromSlash(rest))
		for _, target := range p.resolvePackageDir(pkgDir) {
			if _, ok := seen[target]; ok {
				continue
			}
			seen[target] = struct{}{}
			resolved = append(resolved, target)
		}
	}
	return resolved
}

// resolvePackageDir expands a Go import to every source file in the
// imported package directory (spec §4.A "directory-module languages": an
// import names a package, not a single file).
func (p *GoPlugin) resolvePackageDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		if strings.HasSuffix(e.Name(), "_test.go") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files
}

func (p *GoPlugin) ClassifyLayer(relPath string) (string, bool) {
	switch {
	case strings.HasPrefix(relPath, "cmd/"):
		return "entrypoint", true
	case strings.HasPrefix(relPath, "internal/"):
		return "internal", true
	case strings.HasPrefix(relPath, "pkg/"):
		return "public-api", true
	default:
		return "", false
	}
}
