package lang

import (
	"path/filepath"
	"testing"
)

func TestCPlugin_DetectProjectMarkers(t *testing.T) {
	p := NewCPlugin()
	dir := t.TempDir()
	if p.DetectProject(dir) {
		t.Fatal("expected no markers to mean no detected project")
	}
	writeFile(t, filepath.Join(dir, "Makefile"), "all:\n\ttrue\n")
	if !p.DetectProject(dir) {
		t.Fatal("expected a Makefile to detect the project")
	}
}

func TestCPlugin_ParseImportsResolvesQuotedIncludeInFileDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "util.h"), "#pragma once\n")
	writeFile(t, filepath.Join(dir, "src", "main.c"), "#include \"util.h\"\n")

	p := NewCPlugin()
	resolved := p.ParseImports(filepath.Join(dir, "src", "main.c"), ImportContext{
		ProjectRoot: dir,
		Content:     "#include \"util.h\"\n",
	})

	if len(resolved) != 1 || resolved[0] != filepath.Join(dir, "src", "util.h") {
		t.Fatalf("expected util.h resolved in the file's own directory, got %v", resolved)
	}
}

func TestCPlugin_ParseImportsSkipsAngleBracketSystemHeaders(t *testing.T) {
	dir := t.TempDir()
	p := NewCPlugin()
	resolved := p.ParseImports(filepath.Join(dir, "main.c"), ImportContext{
		ProjectRoot: dir,
		Content:     "#include <stdio.h>\n",
	})
	if len(resolved) != 0 {
		t.Fatalf("expected system header to resolve to nothing, got %v", resolved)
	}
}

func TestCPlugin_ParseImportsProbesSourceDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "include", "widgets.h"), "#pragma once\n")
	writeFile(t, filepath.Join(dir, "src", "main.c"), "#include \"widgets.h\"\n")

	p := NewCPlugin()
	resolved := p.ParseImports(filepath.Join(dir, "src", "main.c"), ImportContext{
		ProjectRoot: dir,
		Content:     "#include \"widgets.h\"\n",
	})

	if len(resolved) != 1 || resolved[0] != filepath.Join(dir, "include", "widgets.h") {
		t.Fatalf("expected widgets.h resolved via the include/ source dir probe, got %v", resolved)
	}
}
