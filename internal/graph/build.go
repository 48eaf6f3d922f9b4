package graph

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Priyans-hu/impactgraph/internal/lang"
	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// BuildOptions tunes the initial build (spec §5: bounded-concurrency
// batch reads during initial load; default 100 concurrent readers).
type BuildOptions struct {
	Concurrency int
	FileCap     int
}

// withDefaults fills in the spec's defaults.
func (o BuildOptions) withDefaults() BuildOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = 100
	}
	return o
}

type discoveredFile struct {
	path      types.FileID
	plugin    lang.Plugin
	sourceDir string
}

// Build enumerates files via registry's plugins, reads their content with
// bounded concurrency, resolves imports, and assembles a populated Graph.
// It never errors: a project with no detected plugins yields an empty
// graph, per spec §6 (`buildGraph` "none; returns empty G if no plugins
// detected").
func Build(ctx context.Context, registry *lang.Registry, projectRoot string, opts BuildOptions) *Graph {
	opts = opts.withDefaults()

	plugins := registry.DetectLanguages(projectRoot)
	languageIDs := make([]string, 0, len(plugins))
	var roots []string
	discovered := make(map[types.FileID]discoveredFile)

	for _, p := range plugins {
		languageIDs = append(languageIDs, p.ID())
		for _, dir := range p.SourceDirs(projectRoot) {
			if _, err := os.Stat(dir); err != nil {
				continue
			}
			roots = append(roots, dir)
			files, err := p.DiscoverFiles(dir)
			if err != nil {
				slog.Warn("graph build: file discovery failed", "dir", dir, "err", err)
				continue
			}
			for _, f := range files {
				id := Normalize(f)
				discovered[id] = discoveredFile{path: id, plugin: p, sourceDir: dir}
			}
		}
	}

	g := New(projectRoot, roots, languageIDs)
	if len(discovered) == 0 {
		return g
	}

	// Sorted by path before FileCap truncation: map iteration order is
	// randomized, and an arbitrary subset would make repeated builds of the
	// same unchanged tree non-reproducible.
	files := make([]discoveredFile, 0, len(discovered))
	for _, df := range discovered {
		files = append(files, df)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	if opts.FileCap > 0 && len(files) > opts.FileCap {
		files = files[:opts.FileCap]
	}

	contents := make([]string, len(files))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Concurrency)
	for i, df := range files {
		i, df := i, df
		group.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			data, err := os.ReadFile(string(df.path))
			if err != nil {
				slog.Warn("graph build: unreadable file", "file", df.path, "err", err)
				return nil
			}
			contents[i] = string(data)
			return nil
		})
	}
	_ = group.Wait() // individual read failures are logged and skipped, not fatal

	for _, df := range files {
		g.AddFileNode(df.path)
	}

	for i, df := range files {
		imports := df.plugin.ParseImports(string(df.path), lang.ImportContext{
			ProjectRoot: projectRoot,
			SourceDir:   df.sourceDir,
			Content:     contents[i],
		})
		var targets []types.FileID
		for _, imp := range imports {
			id := Normalize(imp)
			if g.Has(id) {
				targets = append(targets, id)
			}
		}
		g.SetForward(df.path, targets)
		for _, target := range targets {
			g.AddReverseEdge(target, df.path)
		}
	}

	return g
}
