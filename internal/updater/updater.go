// Package updater implements the incremental updater (spec §4.F): applying
// a single file add/modify/remove event to the graph, recomputing SCCs
// when edges changed, and invalidating exactly the affected memo entries.
package updater

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Priyans-hu/impactgraph/internal/graph"
	"github.com/Priyans-hu/impactgraph/internal/lang"
	"github.com/Priyans-hu/impactgraph/internal/memo"
	"github.com/Priyans-hu/impactgraph/internal/scc"
	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// Updater owns the single-file event handler. It mutates Graph directly,
// recomputes the SCC result in place via the SCC pointer slot, and
// invalidates Cache for the reverse-transitive closure of every change —
// the same three core stores the session object owns (spec §3 "Lifecycle
// & ownership").
type Updater struct {
	Graph    *graph.Graph
	Registry *lang.Registry
	Cache    *memo.Cache
	SCC      *scc.Result // replaced in place by Apply when edges change
}

// New constructs an Updater bound to the session's shared stores.
func New(g *graph.Graph, registry *lang.Registry, cache *memo.Cache, sccResult *scc.Result) *Updater {
	return &Updater{Graph: g, Registry: registry, Cache: cache, SCC: sccResult}
}

// Apply applies one change event's Added/Modified/Deleted semantics and
// returns the structural delta. All three operations are idempotent under
// replay and preserve the invariant `b ∈ Forward[a] ⇔ a ∈ Reverse[b]`.
func (u *Updater) Apply(event types.ChangeEvent) types.IncrementalUpdateResult {
	switch event.Type {
	case types.Deleted:
		return u.applyRemoved(event.FilePath)
	case types.Added:
		if u.Graph.Has(event.FilePath) {
			return u.applyModified(event.FilePath, event.NewContent)
		}
		return u.applyAdded(event.FilePath, event.NewContent)
	default: // Modified
		return u.applyModified(event.FilePath, event.NewContent)
	}
}

func (u *Updater) applyModified(f types.FileID, content string) types.IncrementalUpdateResult {
	oldDeps := append([]types.FileID(nil), u.Graph.Forward(f)...)
	newDeps := u.resolveImports(f, content)

	added, removed := diffEdges(f, oldDeps, newDeps)
	for _, t := range removed {
		u.Graph.RemoveReverseEdge(t, f)
	}
	for _, t := range added {
		u.Graph.AddReverseEdge(t, f)
	}
	u.Graph.SetForward(f, newDeps)

	return u.finalize(f, added, removed, true)
}

func (u *Updater) applyAdded(f types.FileID, content string) types.IncrementalUpdateResult {
	u.Graph.AddFileNode(f)
	newDeps := u.resolveImports(f, content)

	for _, t := range newDeps {
		u.Graph.AddReverseEdge(t, f)
	}
	u.Graph.SetForward(f, newDeps)

	result := u.finalize(f, edgesOf(f, newDeps), nil, false)

	// Best-effort mitigation for the "pre-existing importers don't see a
	// brand-new file until the next rebuild" lag: re-parse the files most
	// likely to reference f — those already tracked in f's own directory
	// or a sibling of it — instead of a full rebuild.
	siblingsChanged := u.rescanSiblings(f, &result)

	// A single SCC recompute covers both f's own edges and any sibling
	// edges the rescan found — finalize's own recompute is deferred above
	// so adding a file with imports doesn't pay for two full Tarjan/Kahn
	// passes when the rescan also finds changes.
	if result.EdgesChanged || siblingsChanged {
		u.recomputeSCC()
	}

	return result
}

// rescanSiblings re-resolves imports for every already-tracked file whose
// directory is f's own directory or a sibling of it, picking up edges to
// the newly added f that applyAdded itself can't discover (it only knows
// f's own imports, not who imports f). Unreadable candidates are skipped;
// this is a bounded, best-effort pass, not a substitute for a full rebuild.
// It reports whether any sibling's edges changed but does not recompute
// SCC itself — the caller recomputes once, after both this and its own
// edge changes are known.
func (u *Updater) rescanSiblings(f types.FileID, result *types.IncrementalUpdateResult) bool {
	changed := false
	for _, candidate := range u.siblingCandidates(f) {
		data, err := os.ReadFile(string(candidate))
		if err != nil {
			continue
		}

		oldDeps := append([]types.FileID(nil), u.Graph.Forward(candidate)...)
		newDeps := u.resolveImports(candidate, string(data))
		added, removed := diffEdges(candidate, oldDeps, newDeps)
		if len(added) == 0 && len(removed) == 0 {
			continue
		}

		for _, t := range removed {
			u.Graph.RemoveReverseEdge(t, candidate)
		}
		for _, t := range added {
			u.Graph.AddReverseEdge(t, candidate)
		}
		u.Graph.SetForward(candidate, newDeps)

		affected := reverseTransitiveClosure(u.Graph, candidate)
		u.invalidateCache(candidate, affected, added, removed)

		result.AddedEdges = append(result.AddedEdges, added...)
		result.RemovedEdges = append(result.RemovedEdges, removed...)
		result.AffectedFiles = append(result.AffectedFiles, affected...)
		changed = true
	}
	if changed {
		result.EdgesChanged = true
	}
	return changed
}

// siblingCandidates returns every other tracked file living in f's own
// directory, or in a directory that shares f's parent directory.
func (u *Updater) siblingCandidates(f types.FileID) []types.FileID {
	dir := filepath.Dir(string(f))
	parent := filepath.Dir(dir)

	var candidates []types.FileID
	for _, file := range u.Graph.Files() {
		if file == f {
			continue
		}
		fileDir := filepath.Dir(string(file))
		if fileDir == dir || filepath.Dir(fileDir) == parent {
			candidates = append(candidates, file)
		}
	}
	return candidates
}

func (u *Updater) applyRemoved(f types.FileID) types.IncrementalUpdateResult {
	// Collect the reverse-transitive closure before mutating, per spec.
	affected := reverseTransitiveClosure(u.Graph, f)

	forward := append([]types.FileID(nil), u.Graph.Forward(f)...)
	reverse := append([]types.FileID(nil), u.Graph.Reverse(f)...)

	for _, t := range forward {
		u.Graph.RemoveReverseEdge(t, f)
	}
	for _, s := range reverse {
		u.Graph.RemoveForwardEdge(s, f)
	}
	u.Graph.RemoveFileNode(f)

	removed := edgesOf(f, forward)
	for _, s := range reverse {
		removed = append(removed, types.Edge{From: s, To: f})
	}

	if u.Cache != nil {
		u.Cache.Invalidate(append(affected, f))
		for _, t := range forward {
			u.Cache.Invalidate(append(reverseTransitiveClosure(u.Graph, t), t))
		}
	}
	if len(removed) > 0 {
		u.recomputeSCC()
	}

	return types.IncrementalUpdateResult{
		RemovedEdges:  removed,
		EdgesChanged:  len(removed) > 0,
		AffectedFiles: affected,
	}
}

// finalize computes the reverse-transitive closure (on the graph as it
// stands after insertion/modification), invalidates the memo cache for it,
// and returns the IncrementalUpdateResult. It recomputes the SCC result
// itself only when recomputeNow is true; applyAdded passes false and
// recomputes once itself after also folding in rescanSiblings' edges, so a
// single Added event never pays for two full SCC passes.
func (u *Updater) finalize(f types.FileID, added, removed []types.Edge, recomputeNow bool) types.IncrementalUpdateResult {
	affected := reverseTransitiveClosure(u.Graph, f)
	edgesChanged := len(added) > 0 || len(removed) > 0

	u.invalidateCache(f, affected, added, removed)
	if edgesChanged && recomputeNow {
		u.recomputeSCC()
	}

	return types.IncrementalUpdateResult{
		AddedEdges:    added,
		RemovedEdges:  removed,
		EdgesChanged:  edgesChanged,
		AffectedFiles: affected,
	}
}

// invalidateCache drops f's own reverse-transitive closure from the memo
// cache, plus — for every edge endpoint touched by this change — that
// endpoint's own reverse-transitive closure. A new or removed edge f->t
// changes t's set of transitive dependents (it now does or doesn't count f
// among them), so any cached ImpactResult keyed on t is stale too, not just
// ones keyed on f's dependents.
func (u *Updater) invalidateCache(f types.FileID, affected []types.FileID, added, removed []types.Edge) {
	if u.Cache == nil {
		return
	}
	u.Cache.Invalidate(append(affected, f))
	for _, e := range added {
		u.Cache.Invalidate(append(reverseTransitiveClosure(u.Graph, e.To), e.To))
	}
	for _, e := range removed {
		u.Cache.Invalidate(append(reverseTransitiveClosure(u.Graph, e.To), e.To))
	}
}

func (u *Updater) recomputeSCC() {
	result := scc.Compute(u.Graph)
	*u.SCC = *result
}

// resolveImports dispatches to the file's plugin and filters resolved
// targets down to files already tracked in the graph.
func (u *Updater) resolveImports(f types.FileID, content string) []types.FileID {
	plugin := u.Registry.PluginForFile(string(f))
	if plugin == nil {
		return nil
	}
	sourceDir := u.inferSourceDir(f)
	raw := plugin.ParseImports(string(f), lang.ImportContext{
		ProjectRoot: u.Graph.ProjectRoot,
		SourceDir:   sourceDir,
		Content:     content,
	})

	seen := make(map[types.FileID]struct{}, len(raw))
	var out []types.FileID
	for _, imp := range raw {
		id := graph.Normalize(imp)
		if !u.Graph.Has(id) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (u *Updater) inferSourceDir(f types.FileID) string {
	best := u.Graph.ProjectRoot
	for _, root := range u.Graph.Roots {
		if isWithinRoot(string(f), root) && len(root) > len(best) {
			best = root
		}
	}
	return best
}

// isWithinRoot reports whether path is root itself or lives under root,
// treating root as a directory boundary rather than a bare string prefix
// (so "/repo/internal-tools/x.go" is not considered within "/repo/internal").
func isWithinRoot(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/")
}

func diffEdges(f types.FileID, oldDeps, newDeps []types.FileID) (added, removed []types.Edge) {
	oldSet := toSet(oldDeps)
	newSet := toSet(newDeps)
	for _, d := range newDeps {
		if _, ok := oldSet[d]; !ok {
			added = append(added, types.Edge{From: f, To: d})
		}
	}
	for _, d := range oldDeps {
		if _, ok := newSet[d]; !ok {
			removed = append(removed, types.Edge{From: f, To: d})
		}
	}
	return added, removed
}

func edgesOf(from types.FileID, targets []types.FileID) []types.Edge {
	edges := make([]types.Edge, 0, len(targets))
	for _, t := range targets {
		edges = append(edges, types.Edge{From: from, To: t})
	}
	return edges
}

func toSet(files []types.FileID) map[types.FileID]struct{} {
	set := make(map[types.FileID]struct{}, len(files))
	for _, f := range files {
		set[f] = struct{}{}
	}
	return set
}

// reverseTransitiveClosure returns every file reachable from f by walking
// Reverse edges, excluding f itself.
func reverseTransitiveClosure(g *graph.Graph, f types.FileID) []types.FileID {
	visited := map[types.FileID]struct{}{f: {}}
	queue := []types.FileID{f}
	var out []types.FileID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, pred := range g.Reverse(cur) {
			if _, ok := visited[pred]; ok {
				continue
			}
			visited[pred] = struct{}{}
			out = append(out, pred)
			queue = append(queue, pred)
		}
	}
	return out
}
