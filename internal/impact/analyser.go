// Package impact implements the impact analyser (spec §4.E): given a
// file, it returns direct and transitive dependents, a per-file cascade
// level, circular-cluster membership and a four-level risk tag, consulting
// the memo cache transparently.
package impact

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Priyans-hu/impactgraph/internal/graph"
	"github.com/Priyans-hu/impactgraph/internal/memo"
	"github.com/Priyans-hu/impactgraph/internal/scc"
	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// CouplingLookup returns the highest-confidence hidden couplings for a
// file; wired by the session to internal/coupling without impact needing
// to import it directly.
type CouplingLookup func(file types.FileID) []types.Coupling

// Options controls optional enrichment of an impact query.
type Options struct {
	IncludeCoupling bool
}

// Analyser answers impact queries against a graph, an optional SCC result,
// and a memo cache.
type Analyser struct {
	Graph           *graph.Graph
	SCC             *scc.Result // nil falls back to plain reverse BFS
	Cache           *memo.Cache
	CouplingLookup  CouplingLookup
}

// New constructs an Analyser. scc may be nil (plain BFS fallback); cache
// may be nil (no memoisation, slow path always runs).
func New(g *graph.Graph, sccResult *scc.Result, cache *memo.Cache) *Analyser {
	return &Analyser{Graph: g, SCC: sccResult, Cache: cache}
}

// AnalyseImpact answers "if file changes, what else is affected". Returns
// a *graph.FileNotInGraphError if f is not currently tracked.
func (a *Analyser) AnalyseImpact(f types.FileID, opts Options) (*types.ImpactResult, error) {
	if !a.Graph.Has(f) {
		return nil, &graph.FileNotInGraphError{File: string(f)}
	}

	result := a.fastPath(f)
	if result == nil {
		result = a.slowPath(f)
		a.store(f, result)
	} else {
		slog.Debug("impact analyser: memo hit", "file", f)
	}

	if opts.IncludeCoupling && a.CouplingLookup != nil {
		result.HiddenCouplings = a.hiddenCouplings(f)
	}

	return result, nil
}

// fastPath consults the memo cache. On hit it reconstitutes
// directDependents from the live Reverse adjacency (so a cache hit never
// serves stale direct-edge data) and derives transitiveDependents as the
// cached impact set minus those direct dependents.
func (a *Analyser) fastPath(f types.FileID) *types.ImpactResult {
	if a.Cache == nil {
		return nil
	}
	entry, ok := a.Cache.Get(f)
	if !ok {
		return nil
	}

	direct := a.Graph.Reverse(f)
	directSet := toSet(direct)

	var transitive []types.FileID
	for _, file := range entry.ImpactSet {
		if _, isDirect := directSet[file]; !isDirect {
			transitive = append(transitive, file)
		}
	}

	return &types.ImpactResult{
		FilePath:             f,
		RelativePath:         a.Graph.RelativePath(f),
		RiskLevel:            entry.RiskLevel,
		DirectDependents:     append([]types.FileID(nil), direct...),
		TransitiveDependents: transitive,
		TotalImpacted:        entry.DirectCount + entry.TransitiveCount,
		CascadeLevels:        entry.CascadeLevels,
		SCCCount:             a.sccCount(),
		CyclicSCCCount:       a.cyclicSCCCount(),
		FromCache:            true,
	}
}

// slowPath runs a fresh BFS: SCC-aware over the condensation when an SCC
// result is available, otherwise plain reverse BFS over Reverse.
func (a *Analyser) slowPath(f types.FileID) *types.ImpactResult {
	if a.SCC != nil {
		return a.sccAwareBFS(f)
	}
	return a.plainBFS(f)
}

func (a *Analyser) sccAwareBFS(f types.FileID) *types.ImpactResult {
	componentIdx, ok := a.SCC.NodeToComponent[f]
	if !ok {
		return a.plainBFS(f)
	}
	component := a.SCC.Condensed.Nodes[componentIdx]

	cascadeLevels := make(map[types.FileID]int)
	var circularCluster []types.FileID
	if component.IsCyclic {
		for _, file := range component.Files {
			if file == f {
				continue
			}
			circularCluster = append(circularCluster, file)
			cascadeLevels[file] = 0
		}
	}

	// BFS over condensed reverse edges, labelling each visited SCC with
	// its distance from the subject's component.
	visited := map[int]int{componentIdx: 0}
	queue := []int{componentIdx}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		dist := visited[cur]
		for _, pred := range a.SCC.Condensed.Reverse[cur] {
			if _, seen := visited[pred]; seen {
				continue
			}
			visited[pred] = dist + 1
			queue = append(queue, pred)
		}
	}

	for idx, dist := range visited {
		if idx == componentIdx {
			continue
		}
		for _, file := range a.SCC.Condensed.Nodes[idx].Files {
			cascadeLevels[file] = dist
		}
	}
	delete(cascadeLevels, f)

	direct := append([]types.FileID(nil), a.Graph.Reverse(f)...)
	if component.IsCyclic {
		directSet := toSet(direct)
		for _, file := range circularCluster {
			if _, ok := directSet[file]; !ok {
				direct = append(direct, file)
			}
		}
	}
	directSet := toSet(direct)

	var transitive []types.FileID
	for file := range cascadeLevels {
		if _, isDirect := directSet[file]; !isDirect {
			transitive = append(transitive, file)
		}
	}

	total := len(direct) + len(transitive)
	return &types.ImpactResult{
		FilePath:             f,
		RelativePath:         a.Graph.RelativePath(f),
		RiskLevel:            types.ClassifyRisk(total),
		DirectDependents:     direct,
		TransitiveDependents: transitive,
		TotalImpacted:        total,
		CascadeLevels:        cascadeLevels,
		CircularCluster:      circularCluster,
		SCCCount:             a.sccCount(),
		CyclicSCCCount:       a.cyclicSCCCount(),
		FromCache:            false,
	}
}

// plainBFS is the fallback used when no SCC result is present: a reverse
// BFS over Reverse with no SCC collapsing.
func (a *Analyser) plainBFS(f types.FileID) *types.ImpactResult {
	cascadeLevels := make(map[types.FileID]int)
	visited := map[types.FileID]struct{}{f: {}}
	queue := []types.FileID{f}
	level := 0
	for len(queue) > 0 {
		level++
		var next []types.FileID
		for _, cur := range queue {
			for _, pred := range a.Graph.Reverse(cur) {
				if _, seen := visited[pred]; seen {
					continue
				}
				visited[pred] = struct{}{}
				cascadeLevels[pred] = level
				next = append(next, pred)
			}
		}
		queue = next
	}

	direct := append([]types.FileID(nil), a.Graph.Reverse(f)...)
	directSet := toSet(direct)
	var transitive []types.FileID
	for file := range cascadeLevels {
		if _, isDirect := directSet[file]; !isDirect {
			transitive = append(transitive, file)
		}
	}

	total := len(direct) + len(transitive)
	return &types.ImpactResult{
		FilePath:             f,
		RelativePath:         a.Graph.RelativePath(f),
		RiskLevel:            types.ClassifyRisk(total),
		DirectDependents:     direct,
		TransitiveDependents: transitive,
		TotalImpacted:        total,
		CascadeLevels:        cascadeLevels,
		FromCache:            false,
	}
}

func (a *Analyser) store(f types.FileID, result *types.ImpactResult) {
	if a.Cache == nil {
		return
	}
	impactSet := append(append([]types.FileID(nil), result.DirectDependents...), result.TransitiveDependents...)
	a.Cache.Set(f, &memo.Entry{
		ImpactSet:       impactSet,
		DirectCount:     len(result.DirectDependents),
		TransitiveCount: len(result.TransitiveDependents),
		RiskLevel:       result.RiskLevel,
		CascadeLevels:   result.CascadeLevels,
		ComputedAt:      time.Now(),
	})
}

// hiddenCouplings attaches up to five highest-confidence couplings whose
// other side is not already a known import edge in either direction.
func (a *Analyser) hiddenCouplings(f types.FileID) []types.Coupling {
	couplings := a.CouplingLookup(f)
	if len(couplings) == 0 {
		return nil
	}

	forwardSet := toSet(a.Graph.Forward(f))
	reverseSet := toSet(a.Graph.Reverse(f))

	var hidden []types.Coupling
	for _, c := range couplings {
		other := c.File1
		if other == f {
			other = c.File2
		}
		if _, ok := forwardSet[other]; ok {
			continue
		}
		if _, ok := reverseSet[other]; ok {
			continue
		}
		hidden = append(hidden, c)
		if len(hidden) == 5 {
			break
		}
	}
	return hidden
}

func (a *Analyser) sccCount() int {
	if a.SCC == nil {
		return 0
	}
	return a.SCC.SCCCount()
}

func (a *Analyser) cyclicSCCCount() int {
	if a.SCC == nil {
		return 0
	}
	return a.SCC.CyclicSCCCount()
}

func toSet(files []types.FileID) map[types.FileID]struct{} {
	set := make(map[types.FileID]struct{}, len(files))
	for _, f := range files {
		set[f] = struct{}{}
	}
	return set
}

// GetHubFiles ranks files by reverse fan-in (spec §6 getHubFiles),
// optionally floored by minDependents so large graphs don't surface
// trivially-connected leaves at low topN values.
func GetHubFiles(g *graph.Graph, topN, minDependents int) []types.HubFile {
	var hubs []types.HubFile
	for _, f := range g.Files() {
		count := len(g.Reverse(f))
		if count < minDependents {
			continue
		}
		hubs = append(hubs, types.HubFile{
			File:           f,
			DependentCount: count,
			RiskLevel:      types.ClassifyRisk(count),
		})
	}
	sortHubsDescending(hubs)
	if topN > 0 && len(hubs) > topN {
		hubs = hubs[:topN]
	}
	return hubs
}

func sortHubsDescending(hubs []types.HubFile) {
	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].DependentCount != hubs[j].DependentCount {
			return hubs[i].DependentCount > hubs[j].DependentCount
		}
		return hubs[i].File < hubs[j].File
	})
}
