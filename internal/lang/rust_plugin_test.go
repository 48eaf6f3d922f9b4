package lang

import (
	"path/filepath"
	"testing"
)

func TestRustPlugin_DetectProjectRequiresCargoToml(t *testing.T) {
	dir := t.TempDir()
	p := NewRustPlugin()
	if p.DetectProject(dir) {
		t.Fatal("expected no Cargo.toml to mean no detected project")
	}
	writeFile(t, filepath.Join(dir, "Cargo.toml"), "[package]\nname = \"widgets\"\n")
	if !p.DetectProject(dir) {
		t.Fatal("expected Cargo.toml to detect the project")
	}
}

func TestRustPlugin_PackageNameFromCargoToml(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), "[package]\nname = \"widgets\"\n")
	p := NewRustPlugin()
	if got := p.PackageName(dir); got != "widgets" {
		t.Fatalf("expected widgets, got %q", got)
	}
}

func TestRustPlugin_SourceDirsFollowsWorkspaceMembers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), "[workspace]\nmembers = [\"crate_a\", \"crate_b\"]\n")
	p := NewRustPlugin()
	dirs := p.SourceDirs(dir)
	if len(dirs) != 2 {
		t.Fatalf("expected 2 workspace member src dirs, got %v", dirs)
	}
	if dirs[0] != filepath.Join(dir, "crate_a", "src") {
		t.Errorf("expected crate_a/src first, got %q", dirs[0])
	}
}

func TestRustPlugin_ParseImportsResolvesModDecl(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), "[package]\nname = \"widgets\"\n")
	writeFile(t, filepath.Join(dir, "src", "util.rs"), "pub fn helper() {}\n")

	p := NewRustPlugin()
	resolved := p.ParseImports(filepath.Join(dir, "src", "lib.rs"), ImportContext{
		ProjectRoot: dir,
		Content:     "mod util;\n",
	})

	if len(resolved) != 1 || resolved[0] != filepath.Join(dir, "src", "util.rs") {
		t.Fatalf("expected util.rs resolved via mod decl, got %v", resolved)
	}
}

func TestRustPlugin_ParseImportsResolvesCrateUse(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), "[package]\nname = \"widgets\"\n")
	writeFile(t, filepath.Join(dir, "src", "util.rs"), "pub fn helper() {}\n")

	p := NewRustPlugin()
	resolved := p.ParseImports(filepath.Join(dir, "src", "lib.rs"), ImportContext{
		ProjectRoot: dir,
		Content:     "use crate::util::helper;\n",
	})

	if len(resolved) != 1 || resolved[0] != filepath.Join(dir, "src", "util.rs") {
		t.Fatalf("expected util.rs resolved via crate:: use path, got %v", resolved)
	}
}
