// Package graph holds the dependency graph store: the set of tracked files
// and their forward/reverse adjacency, plus the source roots and detected
// languages recorded during a build.
package graph

import (
	"path/filepath"
	"sort"

	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// Normalize turns a filesystem path into the canonical FileID form: an
// absolute path with forward-slash separators on every platform.
func Normalize(path string) types.FileID {
	abs := path
	if !filepath.IsAbs(abs) {
		if a, err := filepath.Abs(abs); err == nil {
			abs = a
		}
	}
	return types.FileID(filepath.ToSlash(filepath.Clean(abs)))
}

// Graph is the store described in spec §3: Files, Forward, Reverse, Roots,
// Languages, ProjectRoot. Reading is lock-free once built; after Build,
// mutation is the exclusive province of the incremental updater
// (internal/updater).
type Graph struct {
	ProjectRoot string
	Roots       []string
	Languages   []string

	files   map[types.FileID]struct{}
	forward map[types.FileID][]types.FileID
	reverse map[types.FileID][]types.FileID
}

// New returns an empty graph rooted at projectRoot.
func New(projectRoot string, roots []string, languages []string) *Graph {
	return &Graph{
		ProjectRoot: projectRoot,
		Roots:       roots,
		Languages:   languages,
		files:       make(map[types.FileID]struct{}),
		forward:     make(map[types.FileID][]types.FileID),
		reverse:     make(map[types.FileID][]types.FileID),
	}
}

// Has reports whether f is currently tracked.
func (g *Graph) Has(f types.FileID) bool {
	_, ok := g.files[f]
	return ok
}

// Files returns every tracked file identifier. The slice is a fresh copy.
func (g *Graph) Files() []types.FileID {
	out := make([]types.FileID, 0, len(g.files))
	for f := range g.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FileCount returns the number of tracked files.
func (g *Graph) FileCount() int { return len(g.files) }

// Forward returns the (deduplicated, order-stable) list of files f imports.
// The returned slice must not be mutated by the caller.
func (g *Graph) Forward(f types.FileID) []types.FileID {
	return g.forward[f]
}

// Reverse returns the list of files that import f. The returned slice must
// not be mutated by the caller.
func (g *Graph) Reverse(f types.FileID) []types.FileID {
	return g.reverse[f]
}

// EdgeCount is derived on demand by summing Forward list lengths.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, targets := range g.forward {
		n += len(targets)
	}
	return n
}

// CanonicalRoot is the first entry of Roots, used for relative-path display.
func (g *Graph) CanonicalRoot() string {
	if len(g.Roots) == 0 {
		return g.ProjectRoot
	}
	return g.Roots[0]
}

// RelativePath renders f relative to the canonical source root using
// forward slashes, the contract every file identifier must honour at the
// API boundary (spec §4.B).
func (g *Graph) RelativePath(f types.FileID) string {
	rel, err := filepath.Rel(g.CanonicalRoot(), string(f))
	if err != nil {
		return string(f)
	}
	return filepath.ToSlash(rel)
}

// --- mutation surface, called by Build and internal/updater ---

// AddFileNode inserts f into Files with empty adjacency, a no-op if already
// present.
func (g *Graph) AddFileNode(f types.FileID) {
	if _, ok := g.files[f]; ok {
		return
	}
	g.files[f] = struct{}{}
	if g.forward[f] == nil {
		g.forward[f] = nil
	}
	if g.reverse[f] == nil {
		g.reverse[f] = nil
	}
}

// RemoveFileNode deletes f from Files, Forward and Reverse. Callers must
// already have unwound f's edges via RemoveForwardEdge/RemoveReverseEdge.
func (g *Graph) RemoveFileNode(f types.FileID) {
	delete(g.files, f)
	delete(g.forward, f)
	delete(g.reverse, f)
}

// SetForward replaces f's forward adjacency wholesale (deduplicated).
func (g *Graph) SetForward(f types.FileID, targets []types.FileID) {
	g.forward[f] = dedupe(targets)
}

// AddReverseEdge appends src to dst's reverse list if not already present.
func (g *Graph) AddReverseEdge(dst, src types.FileID) {
	for _, s := range g.reverse[dst] {
		if s == src {
			return
		}
	}
	g.reverse[dst] = append(g.reverse[dst], src)
}

// RemoveReverseEdge removes src from dst's reverse list.
func (g *Graph) RemoveReverseEdge(dst, src types.FileID) {
	g.reverse[dst] = removeFrom(g.reverse[dst], src)
}

// AddForwardEdge appends dst to src's forward list if not already present.
func (g *Graph) AddForwardEdge(src, dst types.FileID) {
	for _, d := range g.forward[src] {
		if d == dst {
			return
		}
	}
	g.forward[src] = append(g.forward[src], dst)
}

// RemoveForwardEdge removes dst from src's forward list.
func (g *Graph) RemoveForwardEdge(src, dst types.FileID) {
	g.forward[src] = removeFrom(g.forward[src], dst)
}

// dedupe returns in with duplicate FileIDs removed, preserving order of
// first occurrence.
func dedupe(in []types.FileID) []types.FileID {
	seen := make(map[types.FileID]struct{}, len(in))
	out := make([]types.FileID, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// removeFrom returns list with target removed, into a fresh backing array.
// Forward/Reverse callers are documented to not mutate the returned slice,
// but they're never required to copy it either — reusing list's backing
// array here would silently corrupt any such slice still held by a caller
// across this mutation.
func removeFrom(list []types.FileID, target types.FileID) []types.FileID {
	var out []types.FileID
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
