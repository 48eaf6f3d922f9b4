package graph

import (
	"testing"

	"github.com/Priyans-hu/impactgraph/pkg/types"
)

func TestNormalize_RelativeBecomesAbsoluteSlash(t *testing.T) {
	id := Normalize("./foo/bar.go")
	if id == "" {
		t.Fatal("expected a non-empty normalised id")
	}
	if string(id)[0] != '/' {
		t.Errorf("expected an absolute path, got %q", id)
	}
}

func TestGraph_AddAndRemoveFileNode(t *testing.T) {
	g := New("/proj", []string{"/proj"}, []string{"go"})
	f := types.FileID("/proj/a.go")

	g.AddFileNode(f)
	if !g.Has(f) {
		t.Fatal("expected file to be tracked after AddFileNode")
	}
	if g.FileCount() != 1 {
		t.Fatalf("expected 1 tracked file, got %d", g.FileCount())
	}

	g.RemoveFileNode(f)
	if g.Has(f) {
		t.Fatal("expected file to be gone after RemoveFileNode")
	}
}

func TestGraph_SetForwardDeduplicates(t *testing.T) {
	g := New("/proj", []string{"/proj"}, []string{"go"})
	a, b := types.FileID("/proj/a.go"), types.FileID("/proj/b.go")

	g.SetForward(a, []types.FileID{b, b, b})
	if got := g.Forward(a); len(got) != 1 {
		t.Fatalf("expected SetForward to dedupe, got %v", got)
	}
}

func TestGraph_ReverseEdgeInvariant(t *testing.T) {
	g := New("/proj", []string{"/proj"}, []string{"go"})
	a, b := types.FileID("/proj/a.go"), types.FileID("/proj/b.go")
	g.AddFileNode(a)
	g.AddFileNode(b)

	g.SetForward(a, []types.FileID{b})
	g.AddReverseEdge(b, a)

	rev := g.Reverse(b)
	if len(rev) != 1 || rev[0] != a {
		t.Fatalf("expected b's reverse adjacency to contain a, got %v", rev)
	}

	g.RemoveReverseEdge(b, a)
	if len(g.Reverse(b)) != 0 {
		t.Fatalf("expected reverse edge removed, got %v", g.Reverse(b))
	}
}

func TestGraph_RemoveReverseEdgeDoesNotCorruptPriorSnapshot(t *testing.T) {
	g := New("/proj", []string{"/proj"}, []string{"go"})
	a, b, c := types.FileID("/proj/a.go"), types.FileID("/proj/b.go"), types.FileID("/proj/c.go")
	g.AddFileNode(a)
	g.AddFileNode(b)
	g.AddFileNode(c)
	g.AddReverseEdge(c, a)
	g.AddReverseEdge(c, b)

	snapshot := g.Reverse(c)
	snapshotCopy := append([]types.FileID(nil), snapshot...)

	g.RemoveReverseEdge(c, a)

	if len(snapshot) != len(snapshotCopy) {
		t.Fatalf("expected the earlier snapshot's length to be untouched, got %v want %v", snapshot, snapshotCopy)
	}
	for i := range snapshot {
		if snapshot[i] != snapshotCopy[i] {
			t.Errorf("expected the earlier snapshot to retain its original values at index %d, got %v want %v", i, snapshot, snapshotCopy)
		}
	}
}

func TestGraph_RelativePath(t *testing.T) {
	g := New("/proj", []string{"/proj/src"}, []string{"go"})
	rel := g.RelativePath(types.FileID("/proj/src/pkg/file.go"))
	if rel != "pkg/file.go" {
		t.Errorf("expected pkg/file.go, got %q", rel)
	}
}

func TestGraph_EdgeCount(t *testing.T) {
	g := New("/proj", []string{"/proj"}, []string{"go"})
	a, b, c := types.FileID("/proj/a.go"), types.FileID("/proj/b.go"), types.FileID("/proj/c.go")
	g.SetForward(a, []types.FileID{b, c})
	g.SetForward(b, []types.FileID{c})

	if g.EdgeCount() != 3 {
		t.Fatalf("expected 3 edges, got %d", g.EdgeCount())
	}
}
