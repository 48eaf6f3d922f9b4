// Package lang implements the language plugin registry (spec §4.A): one
// plugin per source language, each able to detect a project, enumerate
// source roots and files, and resolve a file's imports to other internal
// files using regex scanning plus filesystem probing. No plugin builds a
// syntax tree; that is an explicit non-goal of the core.
package lang

import "strings"

// isWithinDir reports whether path is dir itself or lives under dir,
// treating dir as a directory boundary rather than a bare string prefix —
// e.g. "/repo/core/src-gen" is not within "/repo/core/src".
func isWithinDir(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, "/")+"/")
}

// ImportContext carries the inputs a plugin needs to resolve one file's
// imports: the project root (for module/alias-rooted imports), the source
// directory the file was discovered under, and the file's already-loaded
// content (the watcher's content cache supplies this so plugins never
// re-read from disk during steady-state operation).
type ImportContext struct {
	ProjectRoot string
	SourceDir   string
	Content     string
}

// Plugin is the contract every language implementation satisfies. Plugins
// are registered in a fixed, compile-time list (NewRegistry); there is no
// runtime plugin discovery.
type Plugin interface {
	ID() string
	DisplayName() string
	FileExtensions() []string

	// DetectProject reports whether root looks like a project in this
	// language (a manifest or build marker file is present in root).
	DetectProject(root string) bool

	// SourceDirs returns the directories under root that hold this
	// language's sources, most-specific first.
	SourceDirs(root string) []string

	// PackageName returns the project's declared module/package name, or
	// "" if none is declared or the manifest can't be read.
	PackageName(root string) string

	// DiscoverFiles lists this plugin's source files under dir.
	DiscoverFiles(dir string) ([]string, error)

	// ParseImports resolves file's imports to absolute paths of other
	// internal files. MUST NOT panic; unreadable or unparseable content
	// yields an empty list.
	ParseImports(file string, ctx ImportContext) []string

	// ClassifyLayer optionally tags a relative path with an architectural
	// layer, used only for visualisation.
	ClassifyLayer(relPath string) (string, bool)

	// ClearCache drops any per-project-root configuration cache (e.g. a
	// parsed path-alias map) this plugin keeps. Called on graph rebuild.
	ClearCache(root string)
}

// Registry holds the fixed, process-wide list of plugins.
type Registry struct {
	plugins []Plugin
}

// NewRegistry constructs the registry with every supported language.
func NewRegistry() *Registry {
	return &Registry{
		plugins: []Plugin{
			NewGoPlugin(),
			NewPythonPlugin(),
			NewJSPlugin(),
			NewRustPlugin(),
			NewCPlugin(),
		},
	}
}

// Plugins returns the full fixed list.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// DetectLanguages returns every plugin whose DetectProject is true for
// root.
func (r *Registry) DetectLanguages(root string) []Plugin {
	var detected []Plugin
	for _, p := range r.plugins {
		if p.DetectProject(root) {
			detected = append(detected, p)
		}
	}
	return detected
}

// PluginForFile dispatches by file extension, returning nil if no
// registered plugin claims it.
func (r *Registry) PluginForFile(path string) Plugin {
	ext := extensionOf(path)
	for _, p := range r.plugins {
		for _, e := range p.FileExtensions() {
			if e == ext {
				return p
			}
		}
	}
	return nil
}

// ClearCaches clears every plugin's per-project-root cache for root.
func (r *Registry) ClearCaches(root string) {
	for _, p := range r.plugins {
		p.ClearCache(root)
	}
}
