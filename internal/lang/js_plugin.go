package lang

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var jsSpecifier = regexp.MustCompile(`(?:import\s+(?:[\w*{}\s,]+\s+from\s+)?|export\s+(?:[\w*{}\s,]+\s+from\s+)?|require\s*\(\s*|import\s*\(\s*)['"]([^'"]+)['"]`)

var jsResolveExt = []string{"", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// JSPlugin resolves ES module / CommonJS imports for JavaScript and
// TypeScript. Path aliases (the tsconfig "paths" equivalent) are not
// parsed from a tsconfig file directly; per the project's own
// .impactgraph.yaml override map, supplied via SetAliases, matching how
// the teacher's Config.Overrides field layers project-specific settings
// on top of detected defaults.
type JSPlugin struct {
	mu      sync.Mutex
	aliases map[string]map[string]string // projectRoot -> alias prefix -> target dir
}

// NewJSPlugin constructs the JavaScript/TypeScript plugin.
func NewJSPlugin() *JSPlugin {
	return &JSPlugin{aliases: make(map[string]map[string]string)}
}

// SetAliases installs the alias-prefix → target-directory map for a
// project root, cached until ClearCache is called on rebuild.
func (p *JSPlugin) SetAliases(root string, aliases map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aliases[root] = aliases
}

func (p *JSPlugin) ID() string          { return "javascript" }
func (p *JSPlugin) DisplayName() string { return "JavaScript/TypeScript" }
func (p *JSPlugin) FileExtensions() []string {
	return []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}
}

func (p *JSPlugin) DetectProject(root string) bool {
	_, err := os.Stat(filepath.Join(root, "package.json"))
	return err == nil
}

func (p *JSPlugin) SourceDirs(root string) []string {
	for _, d := range []string{"src", "lib", "app"} {
		if info, err := os.Stat(filepath.Join(root, d)); err == nil && info.IsDir() {
			return []string{filepath.Join(root, d), root}
		}
	}
	return []string{root}
}

func (p *JSPlugin) PackageName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return ""
	}
	// package.json's "name" field is a single flat string; a tiny scan
	// avoids pulling in a JSON dependency for one field.
	re := regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
	if m := re.FindSubmatch(data); m != nil {
		return string(m[1])
	}
	return ""
}

func (p *JSPlugin) DiscoverFiles(dir string) ([]string, error) {
	return DiscoverFiles(dir, dir, p.FileExtensions(), NewSkipSet(dir))
}

func (p *JSPlugin) ClearCache(root string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.aliases, root)
}

func (p *JSPlugin) ParseImports(file string, ctx ImportContext) []string {
	p.mu.Lock()
	aliases := p.aliases[ctx.ProjectRoot]
	p.mu.Unlock()

	fileDir := filepath.Dir(file)
	seen := make(map[string]struct{})
	var out []string

	for _, m := range jsSpecifier.FindAllStringSubmatch(ctx.Content, -1) {
		spec := m[1]
		var candidateBase string

		switch {
		case strings.HasPrefix(spec, "."):
			candidateBase = filepath.Join(fileDir, filepath.FromSlash(spec))
		default:
			// Pick the longest matching alias prefix deterministically — map
			// iteration order is randomized, and overlapping aliases like
			// "@/" and "@/components/" must resolve the same way every run.
			// A trailing "/" on an alias prefix is optional.
			bestPrefix := ""
			for prefix := range aliases {
				key := strings.TrimSuffix(prefix, "/")
				if spec != key && !strings.HasPrefix(spec, key+"/") {
					continue
				}
				if len(prefix) > len(bestPrefix) {
					bestPrefix = prefix
				}
			}
			if bestPrefix == "" {
				continue // bare specifier: node stdlib or third-party package
			}
			rest := strings.TrimPrefix(strings.TrimPrefix(spec, strings.TrimSuffix(bestPrefix, "/")), "/")
			candidateBase = filepath.Join(aliases[bestPrefix], filepath.FromSlash(rest))
		}

		target := resolveJSFile(candidateBase)
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

// resolveJSFile tries extension variants, then index files under the
// candidate as a directory.
func resolveJSFile(base string) string {
	for _, ext := range jsResolveExt {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	if info, err := os.Stat(base); err == nil && info.IsDir() {
		for _, ext := range jsResolveExt[1:] {
			indexPath := filepath.Join(base, "index"+ext)
			if _, err := os.Stat(indexPath); err == nil {
				return indexPath
			}
		}
	}
	return ""
}

func (p *JSPlugin) ClassifyLayer(relPath string) (string, bool) {
	switch {
	case strings.Contains(relPath, "/components/"):
		return "component", true
	case strings.Contains(relPath, "/hooks/"):
		return "hook", true
	case strings.Contains(relPath, "/pages/"), strings.Contains(relPath, "/routes/"):
		return "route", true
	default:
		return "", false
	}
}
