package lang

import (
	"path/filepath"
	"testing"
)

func TestJSPlugin_DetectProjectRequiresPackageJSON(t *testing.T) {
	dir := t.TempDir()
	p := NewJSPlugin()
	if p.DetectProject(dir) {
		t.Fatal("expected no package.json to mean no detected project")
	}
	writeFile(t, filepath.Join(dir, "package.json"), `{"name": "widgets"}`)
	if !p.DetectProject(dir) {
		t.Fatal("expected package.json to detect the project")
	}
}

func TestJSPlugin_PackageNameFromPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name": "widgets", "version": "1.0.0"}`)
	p := NewJSPlugin()
	if got := p.PackageName(dir); got != "widgets" {
		t.Fatalf("expected widgets, got %q", got)
	}
}

func TestJSPlugin_ParseImportsResolvesRelativeImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "util.ts"), "export const x = 1;\n")
	writeFile(t, filepath.Join(dir, "src", "main.ts"), "import { x } from './util';\n")

	p := NewJSPlugin()
	resolved := p.ParseImports(filepath.Join(dir, "src", "main.ts"), ImportContext{
		ProjectRoot: dir,
		Content:     "import { x } from './util';\n",
	})

	if len(resolved) != 1 || resolved[0] != filepath.Join(dir, "src", "util.ts") {
		t.Fatalf("expected util.ts resolved, got %v", resolved)
	}
}

func TestJSPlugin_ParseImportsResolvesAliasAfterSetAliases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "components", "Button.tsx"), "export {};\n")

	p := NewJSPlugin()
	p.SetAliases(dir, map[string]string{"@": filepath.Join(dir, "src")})

	resolved := p.ParseImports(filepath.Join(dir, "src", "pages", "Home.tsx"), ImportContext{
		ProjectRoot: dir,
		Content:     "import Button from '@/components/Button';\n",
	})

	if len(resolved) != 1 || resolved[0] != filepath.Join(dir, "src", "components", "Button.tsx") {
		t.Fatalf("expected Button.tsx resolved via alias, got %v", resolved)
	}
}

func TestJSPlugin_ParseImportsSkipsBareSpecifierWithoutAlias(t *testing.T) {
	dir := t.TempDir()
	p := NewJSPlugin()
	resolved := p.ParseImports(filepath.Join(dir, "main.ts"), ImportContext{
		ProjectRoot: dir,
		Content:     "import React from 'react';\n",
	})
	if len(resolved) != 0 {
		t.Fatalf("expected a bare third-party specifier to resolve to nothing, got %v", resolved)
	}
}

func TestJSPlugin_ParseImportsResolvesIndexFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "widgets", "index.ts"), "export {};\n")
	writeFile(t, filepath.Join(dir, "src", "main.ts"), "import widgets from './widgets';\n")

	p := NewJSPlugin()
	resolved := p.ParseImports(filepath.Join(dir, "src", "main.ts"), ImportContext{
		ProjectRoot: dir,
		Content:     "import widgets from './widgets';\n",
	})

	if len(resolved) != 1 || resolved[0] != filepath.Join(dir, "src", "widgets", "index.ts") {
		t.Fatalf("expected widgets/index.ts resolved, got %v", resolved)
	}
}

func TestJSPlugin_ClearCacheRemovesAliases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "components", "Button.tsx"), "export {};\n")

	p := NewJSPlugin()
	p.SetAliases(dir, map[string]string{"@": filepath.Join(dir, "src")})
	p.ClearCache(dir)

	resolved := p.ParseImports(filepath.Join(dir, "src", "pages", "Home.tsx"), ImportContext{
		ProjectRoot: dir,
		Content:     "import Button from '@/components/Button';\n",
	})
	if len(resolved) != 0 {
		t.Fatalf("expected the alias to be gone after ClearCache, got %v", resolved)
	}
}
