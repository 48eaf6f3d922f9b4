package scc

import (
	"testing"

	"github.com/Priyans-hu/impactgraph/internal/graph"
	"github.com/Priyans-hu/impactgraph/pkg/types"
)

func buildGraph(edges map[string][]string) *graph.Graph {
	g := graph.New("/proj", []string{"/proj"}, []string{"go"})
	for f := range edges {
		g.AddFileNode(types.FileID(f))
	}
	for f, targets := range edges {
		for _, t := range targets {
			g.AddFileNode(types.FileID(t))
		}
		g.SetForward(types.FileID(f), toFileIDs(targets))
	}
	for f, targets := range edges {
		for _, t := range targets {
			g.AddReverseEdge(types.FileID(t), types.FileID(f))
		}
	}
	return g
}

func toFileIDs(in []string) []types.FileID {
	out := make([]types.FileID, len(in))
	for i, s := range in {
		out[i] = types.FileID(s)
	}
	return out
}

func TestCompute_AcyclicChain(t *testing.T) {
	g := buildGraph(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": nil,
	})

	result := Compute(g)

	if result.SCCCount() != 3 {
		t.Fatalf("expected 3 singleton SCCs, got %d", result.SCCCount())
	}
	if result.CyclicSCCCount() != 0 {
		t.Fatalf("expected no cyclic SCCs, got %d", result.CyclicSCCCount())
	}

	cIdx := result.NodeToComponent[types.FileID("c")]
	bIdx := result.NodeToComponent[types.FileID("b")]
	aIdx := result.NodeToComponent[types.FileID("a")]

	order := result.Condensed.TopoOrder
	pos := make(map[int]int, len(order))
	for i, idx := range order {
		pos[idx] = i
	}

	if pos[cIdx] > pos[bIdx] || pos[bIdx] > pos[aIdx] {
		t.Errorf("expected topo order with dependencies first: c=%d b=%d a=%d", pos[cIdx], pos[bIdx], pos[aIdx])
	}
}

func TestCompute_DetectsCycle(t *testing.T) {
	g := buildGraph(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	})

	result := Compute(g)

	if result.SCCCount() != 1 {
		t.Fatalf("expected a single SCC for the 3-cycle, got %d", result.SCCCount())
	}
	if result.CyclicSCCCount() != 1 {
		t.Fatalf("expected the SCC to be flagged cyclic, got %d cyclic", result.CyclicSCCCount())
	}

	idx := result.NodeToComponent[types.FileID("a")]
	if idx != result.NodeToComponent[types.FileID("b")] || idx != result.NodeToComponent[types.FileID("c")] {
		t.Fatal("expected all three files to share one component index")
	}
}

func TestCompute_SelfEdgeIsNotCyclic(t *testing.T) {
	g := buildGraph(map[string][]string{
		"a": {"a"},
	})

	result := Compute(g)

	if result.SCCCount() != 1 {
		t.Fatalf("expected 1 singleton SCC, got %d", result.SCCCount())
	}
	if result.CyclicSCCCount() != 0 {
		t.Fatalf("a self-edge alone should not count as a cycle, got %d cyclic", result.CyclicSCCCount())
	}
}

func TestCompute_EmptyGraph(t *testing.T) {
	g := graph.New("/proj", nil, nil)
	result := Compute(g)

	if result.SCCCount() != 0 {
		t.Fatalf("expected 0 SCCs for an empty graph, got %d", result.SCCCount())
	}
	if len(result.Condensed.TopoOrder) != 0 {
		t.Fatalf("expected empty topo order, got %v", result.Condensed.TopoOrder)
	}
}

func TestKahnTopoOrder_DependenciesBeforeDependents(t *testing.T) {
	// diamond: a -> b, a -> c, b -> d, c -> d
	g := buildGraph(map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d"},
		"d": nil,
	})

	result := Compute(g)
	order := result.Condensed.TopoOrder
	pos := make(map[int]int, len(order))
	for i, idx := range order {
		pos[idx] = i
	}

	dIdx := result.NodeToComponent[types.FileID("d")]
	aIdx := result.NodeToComponent[types.FileID("a")]
	if pos[dIdx] > pos[aIdx] {
		t.Errorf("expected d (a leaf dependency) before a (the root), got d=%d a=%d", pos[dIdx], pos[aIdx])
	}
}
