// Package scc computes strongly-connected components over the dependency
// graph, condenses them into an acyclic graph, and produces a topological
// order of components with dependencies ordered before dependents.
package scc

import (
	"log/slog"
	"sort"

	"github.com/Priyans-hu/impactgraph/internal/graph"
	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// CondensedNode is one SCC collapsed to a single node in the condensation.
type CondensedNode struct {
	Index    int
	Files    []types.FileID
	Size     int
	IsCyclic bool
}

// Condensation is the acyclic graph obtained by collapsing each SCC.
type Condensation struct {
	Nodes     []CondensedNode
	Forward   map[int][]int
	Reverse   map[int][]int
	TopoOrder []int
}

// Result is the SCC engine's output: the partition, the file→component
// index, and the condensation with its topological order.
type Result struct {
	Components      [][]types.FileID
	NodeToComponent map[types.FileID]int
	Condensed       *Condensation
}

// SCCCount and CyclicSCCCount are convenience accessors used by the impact
// analyser.
func (r *Result) SCCCount() int { return len(r.Components) }

func (r *Result) CyclicSCCCount() int {
	n := 0
	for _, c := range r.Condensed.Nodes {
		if c.IsCyclic {
			n++
		}
	}
	return n
}

// Compute runs iterative Tarjan over g's Forward adjacency, then builds the
// condensation and its Kahn topological order. Self-edges are ignored for
// SCC purposes; disconnected nodes form singleton SCCs.
func Compute(g *graph.Graph) *Result {
	files := g.Files()
	t := newTarjan(g, files)
	components := t.run()

	nodeToComponent := make(map[types.FileID]int, len(files))
	for i, comp := range components {
		for _, f := range comp {
			nodeToComponent[f] = i
		}
	}

	condensed := condense(g, components, nodeToComponent)

	return &Result{
		Components:      components,
		NodeToComponent: nodeToComponent,
		Condensed:       condensed,
	}
}

// tarjan holds the iterative Tarjan state machine.
type tarjan struct {
	g         *graph.Graph
	index     map[types.FileID]int
	lowlink   map[types.FileID]int
	onStack   map[types.FileID]bool
	stack     []types.FileID
	nextIndex int
	result    [][]types.FileID
}

func newTarjan(g *graph.Graph, files []types.FileID) *tarjan {
	return &tarjan{
		g:       g,
		index:   make(map[types.FileID]int, len(files)),
		lowlink: make(map[types.FileID]int, len(files)),
		onStack: make(map[types.FileID]bool, len(files)),
	}
}

// frame is one explicit call-stack entry for the iterative DFS: the node
// being visited and how far through its successor list we've progressed.
type frame struct {
	node    types.FileID
	succ    []types.FileID
	succIdx int
}

func (t *tarjan) run() [][]types.FileID {
	files := t.g.Files()
	for _, f := range files {
		if _, visited := t.index[f]; !visited {
			t.strongconnect(f)
		}
	}
	return t.result
}

func (t *tarjan) strongconnect(start types.FileID) {
	var callStack []*frame

	push := func(node types.FileID) {
		t.index[node] = t.nextIndex
		t.lowlink[node] = t.nextIndex
		t.nextIndex++
		t.stack = append(t.stack, node)
		t.onStack[node] = true
		callStack = append(callStack, &frame{node: node, succ: t.successors(node)})
	}

	push(start)

	for len(callStack) > 0 {
		top := callStack[len(callStack)-1]

		if top.succIdx < len(top.succ) {
			next := top.succ[top.succIdx]
			top.succIdx++

			if _, visited := t.index[next]; !visited {
				push(next)
				continue
			}
			if t.onStack[next] {
				if t.index[next] < t.lowlink[top.node] {
					t.lowlink[top.node] = t.index[next]
				}
			}
			continue
		}

		// All successors processed; pop and propagate lowlink to caller.
		callStack = callStack[:len(callStack)-1]
		if t.lowlink[top.node] == t.index[top.node] {
			var comp []types.FileID
			for {
				n := len(t.stack) - 1
				f := t.stack[n]
				t.stack = t.stack[:n]
				t.onStack[f] = false
				comp = append(comp, f)
				if f == top.node {
					break
				}
			}
			t.result = append(t.result, comp)
		}
		if len(callStack) > 0 {
			caller := callStack[len(callStack)-1]
			if t.lowlink[top.node] < t.lowlink[caller.node] {
				t.lowlink[caller.node] = t.lowlink[top.node]
			}
		}
	}
}

// successors returns f's forward neighbours with self-edges removed.
func (t *tarjan) successors(f types.FileID) []types.FileID {
	targets := t.g.Forward(f)
	out := make([]types.FileID, 0, len(targets))
	for _, target := range targets {
		if target != f {
			out = append(out, target)
		}
	}
	return out
}

// condense builds the SCC condensation and its Kahn topological order.
func condense(g *graph.Graph, components [][]types.FileID, nodeToComponent map[types.FileID]int) *Condensation {
	nodes := make([]CondensedNode, len(components))
	for i, comp := range components {
		nodes[i] = CondensedNode{
			Index:    i,
			Files:    comp,
			Size:     len(comp),
			IsCyclic: len(comp) > 1,
		}
	}

	forward := make(map[int][]int)
	reverse := make(map[int][]int)
	edgeSeen := make(map[[2]int]struct{})

	for _, comp := range components {
		u := nodeToComponent[comp[0]]
		for _, f := range comp {
			for _, target := range g.Forward(f) {
				v := nodeToComponent[target]
				if v == u {
					continue
				}
				key := [2]int{u, v}
				if _, ok := edgeSeen[key]; ok {
					continue
				}
				edgeSeen[key] = struct{}{}
				forward[u] = append(forward[u], v)
				reverse[v] = append(reverse[v], u)
			}
		}
	}

	return &Condensation{
		Nodes:     nodes,
		Forward:   forward,
		Reverse:   reverse,
		TopoOrder: kahnTopoOrder(len(nodes), forward),
	}
}

// kahnTopoOrder runs Kahn's algorithm starting from SCCs with zero
// outgoing forward edges (leaves of the dependency relation), producing an
// order where dependencies precede dependents. If the result is short of
// n (should be impossible on an acyclic condensation), the engine logs an
// invariant-violation warning and appends the missing nodes in arbitrary
// order rather than failing the build.
func kahnTopoOrder(n int, forward map[int][]int) []int {
	outDegree := make([]int, n)
	for u, targets := range forward {
		outDegree[u] = len(targets)
	}

	var queue []int
	for i := 0; i < n; i++ {
		if outDegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	sort.Ints(queue)

	// predecessors[v] = SCCs that import v (i.e. reverse of forward).
	predecessors := make(map[int][]int)
	for u, targets := range forward {
		for _, v := range targets {
			predecessors[v] = append(predecessors[v], u)
		}
	}

	var order []int
	seen := make([]bool, n)
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if seen[v] {
			continue
		}
		seen[v] = true
		order = append(order, v)

		var unlocked []int
		for _, u := range predecessors[v] {
			outDegree[u]--
			if outDegree[u] == 0 {
				unlocked = append(unlocked, u)
			}
		}
		sort.Ints(unlocked)
		queue = append(queue, unlocked...)
	}

	if len(order) < n {
		slog.Warn("scc: topological sort produced fewer nodes than components, appending remainder",
			"got", len(order), "want", n)
		for i := 0; i < n; i++ {
			if !seen[i] {
				order = append(order, i)
			}
		}
	}

	return order
}
