// Package types holds the data-transfer shapes that cross the impactgraph
// core's API boundary: file identifiers, impact results, change events and
// coupling results. Internal packages build richer structures around these;
// callers outside the module only ever see what is defined here.
package types

import "time"

// FileID is an absolute, normalised filesystem path. Equality is string
// equality after normalisation; serialised forms always use forward slashes.
type FileID string

// RiskLevel classifies how severe a change's blast radius is.
type RiskLevel string

const (
	RiskNone   RiskLevel = "NONE"
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ClassifyRisk applies the four-level thresholds from the impact model.
func ClassifyRisk(totalImpacted int) RiskLevel {
	switch {
	case totalImpacted >= 10:
		return RiskHigh
	case totalImpacted >= 5:
		return RiskMedium
	case totalImpacted >= 1:
		return RiskLow
	default:
		return RiskNone
	}
}

// ChangeType enumerates the three kinds of filesystem mutation the watcher
// and the incremental updater understand.
type ChangeType string

const (
	Added    ChangeType = "Added"
	Modified ChangeType = "Modified"
	Deleted  ChangeType = "Deleted"
)

// LineDiffType enumerates the per-line diff classification.
type LineDiffType string

const (
	LineAdded   LineDiffType = "Added"
	LineRemoved LineDiffType = "Removed"
	LineChanged LineDiffType = "Changed"
)

// LineDiff describes one line-level change between an old and new content
// snapshot. Line is 1-based; it refers to the new content for Added/Changed
// and to the old content for Removed.
type LineDiff struct {
	Line int          `json:"line"`
	Type LineDiffType `json:"type"`
	Old  string       `json:"old,omitempty"`
	New  string       `json:"new,omitempty"`
}

// ChangeEvent is emitted by the file watcher for every classified mutation
// and consumed by the incremental updater.
type ChangeEvent struct {
	FilePath     FileID     `json:"filePath"`
	RelativePath string     `json:"relativePath"`
	Type         ChangeType `json:"type"`
	OldContent   string     `json:"oldContent,omitempty"`
	NewContent   string     `json:"newContent,omitempty"`
	Diff         []LineDiff `json:"diff,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

// ImpactResult is the answer to "if file F changes, what else is affected".
type ImpactResult struct {
	FilePath             FileID         `json:"filePath"`
	RelativePath         string         `json:"relativePath"`
	RiskLevel            RiskLevel      `json:"riskLevel"`
	DirectDependents     []FileID       `json:"directDependents"`
	TransitiveDependents []FileID       `json:"transitiveDependents"`
	TotalImpacted        int            `json:"totalImpacted"`
	CascadeLevels        map[FileID]int `json:"cascadeLevels,omitempty"`
	CircularCluster      []FileID       `json:"circularCluster,omitempty"`
	SCCCount             int            `json:"sccCount,omitempty"`
	CyclicSCCCount       int            `json:"cyclicSccCount,omitempty"`
	FromCache            bool           `json:"fromCache"`
	HiddenCouplings      []Coupling     `json:"hiddenCouplings,omitempty"`
}

// HubFile is a ranked entry from getHubFiles: a file with an unusually large
// reverse fan-in.
type HubFile struct {
	File           FileID    `json:"file"`
	DependentCount int       `json:"dependentCount"`
	RiskLevel      RiskLevel `json:"riskLevel"`
}

// IncrementalUpdateResult reports what changed in the graph after applying a
// single ChangeEvent.
type IncrementalUpdateResult struct {
	AddedEdges    []Edge   `json:"addedEdges"`
	RemovedEdges  []Edge   `json:"removedEdges"`
	EdgesChanged  bool     `json:"edgesChanged"`
	AffectedFiles []FileID `json:"affectedFiles"`
}

// Edge is a single directed Forward-adjacency entry, From importing To.
type Edge struct {
	From FileID `json:"from"`
	To   FileID `json:"to"`
}

// Coupling is a statistically significant co-change relationship between
// two files, discovered by mining commit history. File1 < File2 under
// canonical ordering.
type Coupling struct {
	File1          FileID  `json:"file1"`
	File2          FileID  `json:"file2"`
	CoChangeCount  int     `json:"coChangeCount"`
	File1Changes   int     `json:"file1Changes"`
	File2Changes   int     `json:"file2Changes"`
	Confidence     float64 `json:"confidence"`
	Support        int     `json:"support"`
}

// CouplingResult is the output of the change-coupling miner.
type CouplingResult struct {
	Couplings       []Coupling            `json:"couplings"`
	ByFile          map[FileID][]Coupling `json:"byFile"`
	CommitsAnalysed int                   `json:"commitsAnalysed"`
	AnalysedAt      time.Time             `json:"analysedAt"`
}

// MemoStats reports the memo cache's diagnostic counters.
type MemoStats struct {
	Size   int `json:"size"`
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

// GraphUpdateNotification is delivered to graph-update subscribers after the
// incremental updater commits a change.
type GraphUpdateNotification struct {
	ChangedFile FileID                   `json:"changedFile"`
	Result      IncrementalUpdateResult  `json:"result"`
}

// ChangeListener receives change events as the watcher emits them.
type ChangeListener func(event ChangeEvent)

// GraphUpdateListener receives graph-updated notifications.
type GraphUpdateListener func(notification GraphUpdateNotification)

// Unsubscribe cancels a previously registered listener.
type Unsubscribe func()
