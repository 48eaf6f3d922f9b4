package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Priyans-hu/impactgraph/internal/impact"
	"github.com/Priyans-hu/impactgraph/internal/session"
	"github.com/Priyans-hu/impactgraph/pkg/types"
)

var version = "dev"

var (
	verbose         bool
	includeCoupling bool
	topN            int
	minDependents   int
)

var rootCmd = &cobra.Command{
	Use:   "impactgraph",
	Short: "Mine a repository's dependency graph and answer impact queries",
	Long: `impactgraph builds a live dependency graph of a project's internal files
and answers "if this file changes, what else is affected" queries, backed by
an SCC-aware reverse BFS and a change-coupling miner over commit history.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Build the dependency graph and print summary stats",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

var impactCmd = &cobra.Command{
	Use:   "impact <file> [path]",
	Short: "Print the impact result for a single file",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runImpact,
}

var hubsCmd = &cobra.Command{
	Use:   "hubs [path]",
	Short: "List files ranked by reverse dependency fan-in",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHubs,
}

var couplingsCmd = &cobra.Command{
	Use:   "couplings [path]",
	Short: "Mine commit history for statistically coupled file pairs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCouplings,
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Build the graph, then watch for changes and re-analyse incrementally",
	Long: `Watches the project for file changes and keeps the dependency graph,
SCC result and memo cache up to date, printing the impact of each change as
it is applied.

Press Ctrl+C to stop watching.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("impactgraph version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug-level logging")

	impactCmd.Flags().BoolVar(&includeCoupling, "coupling", false, "Attach hidden change-coupling dependents")

	hubsCmd.Flags().IntVarP(&topN, "top", "n", 20, "Number of hub files to print")
	hubsCmd.Flags().IntVar(&minDependents, "min-dependents", 1, "Minimum reverse fan-in to be listed")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(hubsCmd)
	rootCmd.AddCommand(couplingsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func resolveRoot(args []string) (string, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", abs)
	}
	return abs, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	s, err := session.New(context.Background(), root)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	defer s.Close()

	g := s.Graph()
	fmt.Printf("Project root: %s\n", root)
	fmt.Printf("Languages:    %v\n", g.Languages)
	fmt.Printf("Files:        %d\n", g.FileCount())
	fmt.Printf("Edges:        %d\n", g.EdgeCount())
	return nil
}

func runImpact(cmd *cobra.Command, args []string) error {
	file := args[0]
	root, err := resolveRoot(args[1:])
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve file: %w", err)
	}

	s, err := session.New(context.Background(), root)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	defer s.Close()

	result, err := s.AnalyseImpact(types.FileID(filepath.ToSlash(abs)), impact.Options{IncludeCoupling: includeCoupling})
	if err != nil {
		return err
	}
	printImpact(result)
	return nil
}

func printImpact(result *types.ImpactResult) {
	fmt.Printf("%s (%s)\n", result.RelativePath, colorForRisk(result.RiskLevel))
	fmt.Printf("  direct dependents:     %d\n", len(result.DirectDependents))
	fmt.Printf("  transitive dependents: %d\n", len(result.TransitiveDependents))
	fmt.Printf("  total impacted:        %d\n", result.TotalImpacted)
	if len(result.CircularCluster) > 0 {
		fmt.Printf("  circular cluster:      %d files\n", len(result.CircularCluster))
	}
	for _, c := range result.HiddenCouplings {
		fmt.Printf("  hidden coupling:       %s <-> %s (confidence %.2f)\n", c.File1, c.File2, c.Confidence)
	}
}

func colorForRisk(r types.RiskLevel) string {
	switch r {
	case types.RiskHigh:
		return color.New(color.FgRed, color.Bold).Sprint(r)
	case types.RiskMedium:
		return color.New(color.FgYellow).Sprint(r)
	case types.RiskLow:
		return color.New(color.FgCyan).Sprint(r)
	default:
		return color.New(color.FgGreen).Sprint(r)
	}
}

func runHubs(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	s, err := session.New(context.Background(), root)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	defer s.Close()

	for _, h := range s.GetHubFiles(topN) {
		if h.DependentCount < minDependents {
			continue
		}
		fmt.Printf("%-6d %s (%s)\n", h.DependentCount, h.File, colorForRisk(h.RiskLevel))
	}
	return nil
}

func runCouplings(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	s, err := session.New(context.Background(), root)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	defer s.Close()

	result := s.GetCouplings(context.Background())
	fmt.Printf("analysed %d commits\n\n", result.CommitsAnalysed)
	for _, c := range result.Couplings {
		fmt.Printf("%.2f  %s <-> %s  (co-changed %d/%d)\n", c.Confidence, c.File1, c.File2, c.CoChangeCount, max(c.File1Changes, c.File2Changes))
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	s, err := session.New(context.Background(), root)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.StartWatching(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Printf("watching %s for changes (press Ctrl+C to stop)\n", root)

	unsubscribe := s.SubscribeChanges(func(event types.ChangeEvent) {
		result, err := s.AnalyseImpact(event.FilePath, impact.Options{})
		if err != nil {
			fmt.Printf("%s %s: %v\n", event.Type, event.RelativePath, err)
			return
		}
		fmt.Printf("%s %s\n", event.Type, event.RelativePath)
		printImpact(result)
	})
	defer unsubscribe()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nstopping watcher...")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
