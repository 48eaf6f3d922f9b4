package coupling

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Priyans-hu/impactgraph/internal/graph"
	"github.com/Priyans-hu/impactgraph/pkg/types"
)

func runGit(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	return cmd.Run()
}

func writeAndCommit(t *testing.T, dir string, files map[string]string, message string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := runGit(dir, "add", "."); err != nil {
		t.Fatalf("git add failed: %v", err)
	}
	if err := runGit(dir, "commit", "-m", message); err != nil {
		t.Fatalf("git commit failed: %v", err)
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "coupling-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	if err := runGit(dir, "init"); err != nil {
		t.Fatalf("git init failed: %v", err)
	}
	if err := runGit(dir, "config", "user.email", "test@test.com"); err != nil {
		t.Fatalf("git config email failed: %v", err)
	}
	if err := runGit(dir, "config", "user.name", "Test User"); err != nil {
		t.Fatalf("git config name failed: %v", err)
	}
	return dir
}

func TestMine_NotARepository(t *testing.T) {
	dir, err := os.MkdirTemp("", "not-a-repo")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	m := New()
	result := m.Mine(context.Background(), dir, Options{})

	if len(result.Couplings) != 0 {
		t.Fatalf("expected an empty result for a non-repository, got %v", result.Couplings)
	}
}

func TestMine_CoChangedPairAboveThresholds(t *testing.T) {
	dir := initRepo(t)

	// A and B co-change three times; A and C co-change once.
	writeAndCommit(t, dir, map[string]string{"a.go": "1", "b.go": "1"}, "first")
	writeAndCommit(t, dir, map[string]string{"a.go": "2", "b.go": "2"}, "second")
	writeAndCommit(t, dir, map[string]string{"a.go": "3", "b.go": "3"}, "third")
	writeAndCommit(t, dir, map[string]string{"a.go": "4", "c.go": "1"}, "fourth")

	m := New()
	result := m.Mine(context.Background(), dir, Options{MinSupport: 3, MinConfidence: 0.3})

	if result.CommitsAnalysed != 4 {
		t.Fatalf("expected 4 commits analysed, got %d", result.CommitsAnalysed)
	}
	if len(result.Couplings) != 1 {
		t.Fatalf("expected exactly one coupling above threshold, got %v", result.Couplings)
	}
	c := result.Couplings[0]
	if c.CoChangeCount != 3 {
		t.Errorf("expected co-change count 3, got %d", c.CoChangeCount)
	}
	if c.Confidence != 0.75 {
		t.Errorf("expected confidence 0.75 (3/4), got %f", c.Confidence)
	}
}

func TestMine_ByFileKeyedByAbsoluteNormalizedFileID(t *testing.T) {
	dir := initRepo(t)
	writeAndCommit(t, dir, map[string]string{"a.go": "1", "b.go": "1"}, "first")
	writeAndCommit(t, dir, map[string]string{"a.go": "2", "b.go": "2"}, "second")
	writeAndCommit(t, dir, map[string]string{"a.go": "3", "b.go": "3"}, "third")

	m := New()
	result := m.Mine(context.Background(), dir, Options{MinSupport: 1, MinConfidence: 0})

	want := graph.Normalize(filepath.Join(dir, "a.go"))
	if _, ok := result.ByFile[want]; !ok {
		t.Fatalf("expected ByFile to be keyed by the absolute, normalized FileID %q, got keys %v", want, keysOf(result.ByFile))
	}
}

func keysOf(m map[types.FileID][]types.Coupling) []types.FileID {
	out := make([]types.FileID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestMine_CachedResultReusedWithinTTL(t *testing.T) {
	dir := initRepo(t)
	writeAndCommit(t, dir, map[string]string{"a.go": "1"}, "first")

	m := New()
	first := m.Mine(context.Background(), dir, Options{})

	writeAndCommit(t, dir, map[string]string{"a.go": "2", "b.go": "1"}, "second")
	second := m.Mine(context.Background(), dir, Options{})

	if second.CommitsAnalysed != first.CommitsAnalysed {
		t.Errorf("expected the cached result to be reused without re-mining, first=%d second=%d",
			first.CommitsAnalysed, second.CommitsAnalysed)
	}

	m.Invalidate(dir)
	third := m.Mine(context.Background(), dir, Options{})
	if third.CommitsAnalysed != 2 {
		t.Errorf("expected a fresh mine after Invalidate to see 2 commits, got %d", third.CommitsAnalysed)
	}
}

func TestMine_MaxFilesPerCommitExcludesMassCommits(t *testing.T) {
	dir := initRepo(t)
	files := make(map[string]string, 25)
	for i := 0; i < 25; i++ {
		files[filepath.Join("f", string(rune('a'+i))+".go")] = "x"
	}
	if err := os.MkdirAll(filepath.Join(dir, "f"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	writeAndCommit(t, dir, files, "mass refactor")

	if err := os.MkdirAll(filepath.Join(dir, "g"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	writeAndCommit(t, dir, map[string]string{"g/a.go": "1", "g/b.go": "1"}, "normal")

	m := New()
	result := m.Mine(context.Background(), dir, Options{MaxFilesPerCommit: 20, MinSupport: 1, MinConfidence: 0})

	for _, c := range result.Couplings {
		if strings.Contains(string(c.File1), "/f/") || strings.Contains(string(c.File2), "/f/") {
			t.Errorf("expected the 25-file commit to be excluded from coupling stats, got %+v", c)
		}
	}
}
