// Package session owns one project's live state end to end: the graph,
// SCC result, memo cache, impact analyser, incremental updater, file
// watcher and coupling miner (spec §3 "Lifecycle & ownership"). Every
// operation from spec §6's interface table is a method on Session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Priyans-hu/impactgraph/internal/config"
	"github.com/Priyans-hu/impactgraph/internal/coupling"
	"github.com/Priyans-hu/impactgraph/internal/graph"
	"github.com/Priyans-hu/impactgraph/internal/impact"
	"github.com/Priyans-hu/impactgraph/internal/lang"
	"github.com/Priyans-hu/impactgraph/internal/memo"
	"github.com/Priyans-hu/impactgraph/internal/scc"
	"github.com/Priyans-hu/impactgraph/internal/updater"
	"github.com/Priyans-hu/impactgraph/internal/watch"
	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// Session is the single owner of one project's core stores. It is not
// safe to share a Session across concurrent projects; a project switch
// tears one down and constructs a fresh one (spec §5 "a project switch
// cancels all in-flight core work for the prior project").
type Session struct {
	mu sync.RWMutex

	projectRoot string
	cfg         *config.Config
	registry    *lang.Registry

	graph   *graph.Graph
	sccRes  *scc.Result
	cache   *memo.Cache
	miner   *coupling.Miner
	content *watch.ContentCache

	analyser *impact.Analyser
	updater  *updater.Updater
	watcher  *watch.Watcher

	cancelWatch context.CancelFunc
}

// New builds a session for projectRoot, loading (or defaulting) its
// .impactgraph.yaml and performing the initial graph build
// (spec §6 buildGraph).
func New(ctx context.Context, projectRoot string) (*Session, error) {
	cfg, err := config.ValidateAndLoad(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("session: config: %w", err)
	}

	s := &Session{
		projectRoot: projectRoot,
		cfg:         cfg,
		registry:    lang.NewRegistry(),
		miner:       coupling.New(),
		content:     watch.NewContentCache(),
	}
	s.applyJSAliases()
	s.rebuildLocked(ctx)
	return s, nil
}

func (s *Session) applyJSAliases() {
	if len(s.cfg.Overrides.JSAliases) == 0 {
		return
	}
	for _, p := range s.registry.Plugins() {
		if js, ok := p.(*lang.JSPlugin); ok {
			js.SetAliases(s.projectRoot, s.cfg.Overrides.JSAliases)
		}
	}
}

// RebuildGraph replaces G, clears D and every plugin cache, per spec §6
// rebuildGraph.
func (s *Session) RebuildGraph(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked(ctx)
}

func (s *Session) rebuildLocked(ctx context.Context) {
	s.registry.ClearCaches(s.projectRoot)
	s.applyJSAliases()

	g := graph.Build(ctx, s.registry, s.projectRoot, graph.BuildOptions{
		Concurrency: s.cfg.BuildConcurrency,
	})
	sccResult := scc.Compute(g)
	cache := memo.New(s.cfg.MemoCacheSize)

	s.graph = g
	s.sccRes = sccResult
	s.cache = cache
	s.miner.Invalidate(s.projectRoot)
	s.content.Load(g.Files())

	s.analyser = impact.New(g, sccResult, cache)
	s.analyser.CouplingLookup = s.couplingLookup

	s.updater = updater.New(g, s.registry, cache, sccResult)

	slog.Info("session: graph rebuilt", "root", s.projectRoot, "files", g.FileCount(), "edges", g.EdgeCount())
}

// AnalyseImpact is spec §6 analyseImpact.
func (s *Session) AnalyseImpact(f types.FileID, opts impact.Options) (*types.ImpactResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyser.AnalyseImpact(f, opts)
}

// GetHubFiles is spec §6 getHubFiles. The minDependents floor comes from
// the project's .impactgraph.yaml (Config.MinDependents), not a hardcoded
// constant, so large graphs can tune out trivially-connected leaf files.
func (s *Session) GetHubFiles(topN int) []types.HubFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return impact.GetHubFiles(s.graph, topN, s.cfg.MinDependents)
}

// ApplyFileChange is spec §6 applyFileChange, used both by the live
// watcher and by callers driving changes programmatically (e.g. tests).
func (s *Session) ApplyFileChange(event types.ChangeEvent) types.IncrementalUpdateResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updater.Apply(event)
}

// GetCouplings is spec §6 getCouplings.
func (s *Session) GetCouplings(ctx context.Context) types.CouplingResult {
	s.mu.RLock()
	root := s.projectRoot
	opts := coupling.Options{
		CommitLimit:       s.cfg.Coupling.CommitLimit,
		MaxFilesPerCommit: s.cfg.Coupling.MaxFilesPerCommit,
		MinSupport:        s.cfg.Coupling.MinSupport,
		MinConfidence:     s.cfg.Coupling.MinConfidence,
	}
	s.mu.RUnlock()
	return s.miner.Mine(ctx, root, opts)
}

func (s *Session) couplingLookup(f types.FileID) []types.Coupling {
	result := s.miner.Mine(context.Background(), s.projectRoot, coupling.Options{
		CommitLimit:       s.cfg.Coupling.CommitLimit,
		MaxFilesPerCommit: s.cfg.Coupling.MaxFilesPerCommit,
		MinSupport:        s.cfg.Coupling.MinSupport,
		MinConfidence:     s.cfg.Coupling.MinConfidence,
	})
	return result.ByFile[f]
}

// MemoCacheStats is spec §6 memoCacheStats.
func (s *Session) MemoCacheStats() types.MemoStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Stats()
}

// SubscribeChanges is spec §6 subscribeChanges. Valid only while the
// watcher is running (StartWatching).
func (s *Session) SubscribeChanges(l types.ChangeListener) types.Unsubscribe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.watcher == nil {
		return func() {}
	}
	return s.watcher.SubscribeChanges(l)
}

// SubscribeGraphUpdates is spec §6 subscribeGraphUpdates.
func (s *Session) SubscribeGraphUpdates(l types.GraphUpdateListener) types.Unsubscribe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.watcher == nil {
		return func() {}
	}
	return s.watcher.SubscribeGraphUpdates(l)
}

// StartWatching builds and runs the fsnotify-backed watcher against the
// session's current source roots, applying every change through
// ApplyFileChange before notifying subscribers (spec §4.G, §5 ordering
// guarantee). Run executes in its own goroutine and an unexpected error
// from it is logged; StopWatching tears it down deterministically.
func (s *Session) StartWatching(ctx context.Context) error {
	s.mu.Lock()
	roots := append([]string(nil), s.graph.Roots...)
	var extensions []string
	for _, p := range s.registry.Plugins() {
		extensions = append(extensions, p.FileExtensions()...)
	}
	debounce := s.cfg.DebounceMillis
	s.mu.Unlock()

	w, err := watch.New(s.projectRoot, extensions, s.content, time.Duration(debounce)*time.Millisecond, s.ApplyFileChange)
	if err != nil {
		return fmt.Errorf("session: start watching: %w", err)
	}
	if err := w.WatchRoots(roots); err != nil {
		return fmt.Errorf("session: watch roots: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.watcher = w
	s.cancelWatch = cancel
	s.mu.Unlock()

	go func() {
		if err := w.Run(watchCtx); err != nil && watchCtx.Err() == nil {
			slog.Warn("session: watcher loop ended", "err", err)
		}
	}()
	return nil
}

// StopWatching cancels the watcher's run loop and releases its fsnotify
// handle and debounce timers.
func (s *Session) StopWatching() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelWatch != nil {
		s.cancelWatch()
		s.cancelWatch = nil
	}
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}
}

// Close tears the session down deterministically: stops the watcher and
// cancels its timers. Safe to call even if StartWatching was never
// invoked.
func (s *Session) Close() {
	s.StopWatching()
}

// Graph exposes a narrow read-only view for callers that need structural
// facts (file count, edge count) without a full impact query.
func (s *Session) Graph() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}
