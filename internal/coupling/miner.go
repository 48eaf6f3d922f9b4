// Package coupling implements the change-coupling miner (spec §4.H):
// mining version-control commit history for pairs of files that tend to
// change together, as a proxy for logical dependencies invisible to
// static import analysis.
package coupling

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/Priyans-hu/impactgraph/internal/graph"
	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// Options tunes the miner's thresholds and history window.
type Options struct {
	CommitLimit      int     // default 500
	MaxFilesPerCommit int    // default 20
	MinSupport       int     // default 3
	MinConfidence    float64 // default 0.3
}

func (o Options) withDefaults() Options {
	if o.CommitLimit <= 0 {
		o.CommitLimit = 500
	}
	if o.MaxFilesPerCommit <= 0 {
		o.MaxFilesPerCommit = 20
	}
	if o.MinSupport <= 0 {
		o.MinSupport = 3
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = 0.3
	}
	return o
}

// cacheTTL is how long a project root's result is reused before
// re-mining (spec §4.H: "5 minutes or until explicitly invalidated").
const cacheTTL = 5 * time.Minute

var nonSourcePattern = []string{
	".lock", "-lock.json", "-lock.yaml",
	".min.js", ".min.css",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".webp",
	".woff", ".woff2", ".ttf", ".eot",
	".zip", ".tar", ".gz", ".tgz", ".jar",
	".map",
	".d.ts",
}

type cacheEntry struct {
	result    types.CouplingResult
	expiresAt time.Time
}

// Miner mines co-change history per project root, caching results for
// cacheTTL (spec §4.H).
type Miner struct {
	mu    sync.Mutex
	cache map[string]cacheEntry
}

// New constructs an empty Miner.
func New() *Miner {
	return &Miner{cache: make(map[string]cacheEntry)}
}

// Invalidate drops the cached result for root (e.g. on graph rebuild).
func (m *Miner) Invalidate(root string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, root)
}

// Mine returns the cached coupling result for root if still fresh,
// otherwise re-mines it. A missing or inaccessible repository yields an
// empty result, never an error (spec §4.H, §7 VcsUnavailable).
func (m *Miner) Mine(ctx context.Context, root string, opts Options) types.CouplingResult {
	opts = opts.withDefaults()

	m.mu.Lock()
	if entry, ok := m.cache[root]; ok && time.Now().Before(entry.expiresAt) {
		m.mu.Unlock()
		return entry.result
	}
	m.mu.Unlock()

	result := m.mine(ctx, root, opts)

	m.mu.Lock()
	m.cache[root] = cacheEntry{result: result, expiresAt: time.Now().Add(cacheTTL)}
	m.mu.Unlock()

	return result
}

func (m *Miner) mine(ctx context.Context, root string, opts Options) types.CouplingResult {
	empty := types.CouplingResult{ByFile: make(map[types.FileID][]types.Coupling), AnalysedAt: time.Now()}

	repo, err := git.PlainOpen(root)
	if err != nil {
		slog.Warn("coupling miner: not a repository, yielding empty result", "root", root, "err", err)
		return empty
	}

	head, err := repo.Head()
	if err != nil {
		slog.Warn("coupling miner: no HEAD, yielding empty result", "root", root, "err", err)
		return empty
	}

	commitIter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		slog.Warn("coupling miner: log failed, yielding empty result", "root", root, "err", err)
		return empty
	}
	defer commitIter.Close()

	fileChangeCount := make(map[types.FileID]int)
	pairCoChangeCount := make(map[pairKey]int)

	commitsAnalysed := 0
	walkErr := commitIter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if commitsAnalysed >= opts.CommitLimit {
			return errStop
		}
		files := changedFiles(root, c)
		files = filterNonSource(files)
		if len(files) < 2 {
			if len(files) == 1 {
				fileChangeCount[files[0]]++
			}
			commitsAnalysed++
			return nil
		}
		if len(files) > opts.MaxFilesPerCommit {
			commitsAnalysed++
			return nil
		}
		for _, f := range files {
			fileChangeCount[f]++
		}
		for i := 0; i < len(files); i++ {
			for j := i + 1; j < len(files); j++ {
				pairCoChangeCount[canonicalPair(files[i], files[j])]++
			}
		}
		commitsAnalysed++
		return nil
	})
	if walkErr != nil && walkErr != errStop {
		slog.Warn("coupling miner: history walk ended early", "root", root, "err", walkErr)
	}

	var couplings []types.Coupling
	for pair, count := range pairCoChangeCount {
		if count < opts.MinSupport {
			continue
		}
		a, b := fileChangeCount[pair.a], fileChangeCount[pair.b]
		denom := a
		if b > denom {
			denom = b
		}
		if denom == 0 {
			continue
		}
		confidence := float64(count) / float64(denom)
		if confidence < opts.MinConfidence {
			continue
		}
		couplings = append(couplings, types.Coupling{
			File1:         pair.a,
			File2:         pair.b,
			CoChangeCount: count,
			File1Changes:  a,
			File2Changes:  b,
			Confidence:    confidence,
			Support:       count,
		})
	}

	sort.Slice(couplings, func(i, j int) bool {
		if couplings[i].Confidence != couplings[j].Confidence {
			return couplings[i].Confidence > couplings[j].Confidence
		}
		return couplings[i].File1 < couplings[j].File1
	})

	byFile := make(map[types.FileID][]types.Coupling)
	for _, c := range couplings {
		byFile[c.File1] = append(byFile[c.File1], c)
		byFile[c.File2] = append(byFile[c.File2], c)
	}
	for f := range byFile {
		sort.Slice(byFile[f], func(i, j int) bool { return byFile[f][i].Confidence > byFile[f][j].Confidence })
	}

	return types.CouplingResult{
		Couplings:       couplings,
		ByFile:          byFile,
		CommitsAnalysed: commitsAnalysed,
		AnalysedAt:      time.Now(),
	}
}

type pairKey struct{ a, b types.FileID }

// canonicalPair orders the pair so {a,b} and {b,a} hash identically
// (spec §8 invariant 8: "pair keys are order-independent").
func canonicalPair(a, b types.FileID) pairKey {
	if a < b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

var errStop = &stopError{}

type stopError struct{}

func (*stopError) Error() string { return "coupling miner: commit limit reached" }

// changedFiles resolves a commit's changed paths to the same absolute,
// slash-normalized FileID produced by graph.Normalize for every other file
// in the system, joining git's repo-relative Stats() names against root.
func changedFiles(root string, c *object.Commit) []types.FileID {
	stats, err := c.Stats()
	if err != nil {
		return nil
	}
	files := make([]types.FileID, 0, len(stats))
	for _, s := range stats {
		rel := filepath.FromSlash(s.Name)
		files = append(files, graph.Normalize(filepath.Join(root, rel)))
	}
	return files
}

func filterNonSource(files []types.FileID) []types.FileID {
	out := files[:0:0]
	for _, f := range files {
		if isNonSource(string(f)) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isNonSource(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range nonSourcePattern {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
