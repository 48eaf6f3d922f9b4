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
	rustModDecl  = regexp.MustCompile(`^\s*(?:pub\s+)?mod\s+(\w+)\s*;`)
	rustUseDecl  = regexp.MustCompile(`^\s*(?:pub\s+)?use\s+(crate|self|super)((?:::\w+)*)`)
)

// cargoManifest mirrors the fields of Cargo.toml that import resolution
// needs: the crate name (for `crate::` paths) and workspace members.
type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

// RustPlugin resolves `mod` declarations and `crate::`/`self::`/`super::`
// use paths by filesystem probing against Rust's module-file conventions
// (sibling file, sibling directory's mod.rs, or same-named .rs file).
type RustPlugin struct {
	mu       sync.Mutex
	crateSrc map[string]string // projectRoot -> src dir (workspace-aware)
}

// NewRustPlugin constructs the Rust language plugin.
func NewRustPlugin() *RustPlugin { return &RustPlugin{crateSrc: make(map[string]string)} }

func (p *RustPlugin) ID() string               { return "rust" }
func (p *RustPlugin) DisplayName() string      { return "Rust" }
func (p *RustPlugin) FileExtensions() []string { return []string{".rs"} }

func (p *RustPlugin) DetectProject(root string) bool {
	_, err := os.Stat(filepath.Join(root, "Cargo.toml"))
	return err == nil
}

func (p *RustPlugin) SourceDirs(root string) []string {
	manifest := p.readManifest(root)
	if manifest != nil && manifest.Workspace != nil {
		var dirs []string
		for _, member := range manifest.Workspace.Members {
			dirs = append(dirs, filepath.Join(root, filepath.FromSlash(member), "src"))
		}
		return dirs
	}
	return []string{filepath.Join(root, "src")}
}

func (p *RustPlugin) PackageName(root string) string {
	manifest := p.readManifest(root)
	if manifest == nil {
		return ""
	}
	return manifest.Package.Name
}

func (p *RustPlugin) readManifest(root string) *cargoManifest {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil
	}
	var m cargoManifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil
	}
	return &m
}

func (p *RustPlugin) ClearCache(root string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.crateSrc, root)
}

func (p *RustPlugin) DiscoverFiles(dir string) ([]string, error) {
	return DiscoverFiles(dir, dir, p.FileExtensions(), NewSkipSet(dir))
}

func (p *RustPlugin) ParseImports(file string, ctx ImportContext) []string {
	fileDir := filepath.Dir(file)
	srcDirs := p.SourceDirs(ctx.ProjectRoot)
	var crateRoot string
	for _, d := range srcDirs {
		if isWithinDir(file, d) {
			crateRoot = d
			break
		}
	}
	if crateRoot == "" && len(srcDirs) > 0 {
		crateRoot = srcDirs[0]
	}

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

	for _, line := range strings.Split(ctx.Content, "\n") {
		if m := rustModDecl.FindStringSubmatch(line); m != nil {
			add(resolveRustModule(fileDir, m[1]))
			continue
		}
		if m := rustUseDecl.FindStringSubmatch(line); m != nil {
			base := fileDir
			if m[1] == "crate" {
				base = crateRoot
			} else if m[1] == "super" {
				base = filepath.Dir(fileDir)
			}
			segments := strings.Split(strings.TrimPrefix(m[2], "::"), "::")
			if len(segments) > 0 && segments[0] != "" {
				add(resolveRustModule(base, segments[0]))
			}
		}
	}
	return out
}

// resolveRustModule probes dir/name.rs then dir/name/mod.rs.
func resolveRustModule(dir, name string) string {
	candidate := filepath.Join(dir, name+".rs")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	modPath := filepath.Join(dir, name, "mod.rs")
	if _, err := os.Stat(modPath); err == nil {
		return modPath
	}
	return ""
}

func (p *RustPlugin) ClassifyLayer(relPath string) (string, bool) {
	if strings.Contains(relPath, "/bin/") {
		return "binary", true
	}
	return "", false
}
