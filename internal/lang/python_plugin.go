package lang

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

var (
	pyFromImport = regexp.MustCompile(`^\s*from\s+(\.*[\w.]*)\s+import\s+(.+)$`)
	pyImport     = regexp.MustCompile(`^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)
)

// pyProjectManifest mirrors just enough of pyproject.toml to read the
// declared package name, following the teacher's PyProject/ProjectSection
// shape (trimmed to what import resolution needs).
type pyProjectManifest struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// PythonPlugin resolves Python relative and absolute package imports by
// filesystem probing; it never imports the `ast` module's Go equivalent,
// matching the core's explicit non-goal of syntax-tree construction.
type PythonPlugin struct {
	mu       sync.Mutex
	pkgNames map[string]string
}

// NewPythonPlugin constructs the Python language plugin.
func NewPythonPlugin() *PythonPlugin { return &PythonPlugin{pkgNames: make(map[string]string)} }

func (p *PythonPlugin) ID() string               { return "python" }
func (p *PythonPlugin) DisplayName() string      { return "Python" }
func (p *PythonPlugin) FileExtensions() []string { return []string{".py"} }

func (p *PythonPlugin) DetectProject(root string) bool {
	for _, marker := range []string{"pyproject.toml", "setup.py", "requirements.txt"} {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			return true
		}
	}
	return false
}

func (p *PythonPlugin) SourceDirs(root string) []string {
	if info, err := os.Stat(filepath.Join(root, "src")); err == nil && info.IsDir() {
		return []string{filepath.Join(root, "src"), root}
	}
	return []string{root}
}

func (p *PythonPlugin) PackageName(root string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name, ok := p.pkgNames[root]; ok {
		return name
	}
	name := p.readManifest(root)
	p.pkgNames[root] = name
	return name
}

func (p *PythonPlugin) readManifest(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return ""
	}
	var manifest pyProjectManifest
	if _, err := toml.Decode(string(data), &manifest); err != nil {
		return ""
	}
	if manifest.Project.Name != "" {
		return manifest.Project.Name
	}
	return manifest.Tool.Poetry.Name
}

func (p *PythonPlugin) ClearCache(root string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pkgNames, root)
}

func (p *PythonPlugin) DiscoverFiles(dir string) ([]string, error) {
	return DiscoverFiles(dir, dir, p.FileExtensions(), NewSkipSet(dir))
}

// ParseImports handles `from .x import y`, `from ..x.y import z` and plain
// `import x.y` forms. Relative imports resolve against the file's own
// directory; absolute imports are tried against every declared source
// directory in turn.
func (p *PythonPlugin) ParseImports(file string, ctx ImportContext) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}

	fileDir := filepath.Dir(file)
	srcDirs := p.SourceDirs(ctx.ProjectRoot)

	for _, line := range strings.Split(ctx.Content, "\n") {
		if m := pyFromImport.FindStringSubmatch(line); m != nil {
			module, names := m[1], m[2]
			dots := 0
			for dots < len(module) && module[dots] == '.' {
				dots++
			}
			rest := strings.TrimLeft(module, ".")
			if dots > 0 {
				base := fileDir
				for i := 1; i < dots; i++ {
					base = filepath.Dir(base)
				}
				if rest != "" {
					add(p.resolveModule(base, rest))
				} else {
					for _, nm := range splitImportNames(names) {
						add(p.resolveModule(base, nm))
					}
				}
				continue
			}
			for _, dir := range srcDirs {
				if resolved := p.resolveModule(dir, rest); resolved != "" {
					add(resolved)
					break
				}
			}
			continue
		}
		if m := pyImport.FindStringSubmatch(line); m != nil {
			for _, mod := range strings.Split(m[1], ",") {
				mod = strings.TrimSpace(mod)
				for _, dir := range srcDirs {
					if resolved := p.resolveModule(dir, mod); resolved != "" {
						add(resolved)
						break
					}
				}
			}
		}
	}
	return out
}

func splitImportNames(names string) []string {
	names = strings.Trim(names, "() ")
	var out []string
	for _, n := range strings.Split(names, ",") {
		n = strings.TrimSpace(n)
		if idx := strings.Index(n, " as "); idx >= 0 {
			n = n[:idx]
		}
		if n != "" && n != "*" {
			out = append(out, n)
		}
	}
	return out
}

// resolveModule probes base/rel.py then base/rel/__init__.py, rel given
// as dotted notation.
func (p *PythonPlugin) resolveModule(base, rel string) string {
	if rel == "" {
		if _, err := os.Stat(filepath.Join(base, "__init__.py")); err == nil {
			return filepath.Join(base, "__init__.py")
		}
		return ""
	}
	parts := strings.Split(rel, ".")
	path := filepath.Join(append([]string{base}, parts...)...)
	if _, err := os.Stat(path + ".py"); err == nil {
		return path + ".py"
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		initPath := filepath.Join(path, "__init__.py")
		if _, err := os.Stat(initPath); err == nil {
			return initPath
		}
	}
	return ""
}

func (p *PythonPlugin) ClassifyLayer(relPath string) (string, bool) {
	switch {
	case strings.Contains(relPath, "/tests/"), strings.HasPrefix(relPath, "tests/"):
		return "test", true
	case strings.Contains(relPath, "/models/"):
		return "model", true
	default:
		return "", false
	}
}
