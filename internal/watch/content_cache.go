package watch

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// ContentCache mirrors the on-disk content of every file the language
// plugins discover, keeping it in memory so the watcher can diff without
// re-reading from disk on every event (spec §4.G).
type ContentCache struct {
	mu         sync.RWMutex
	content    map[types.FileID]string
	totalLines int
}

// NewContentCache builds an empty cache.
func NewContentCache() *ContentCache {
	return &ContentCache{content: make(map[types.FileID]string)}
}

// Load replaces the cache's contents with the current state of files,
// counting total lines for diagnostics. Unreadable files are skipped with a
// warning, not a failure (spec §7 UnreadableFile: recovered locally).
//
// It replaces rather than merges: a full rebuild's file list is the
// complete, authoritative set, so any entry for a file that is no longer
// discovered (deleted, or moved out of every source root) must not linger —
// otherwise a later recreation of that same path with identical content
// would be compared against stale cached content and wrongly dropped as a
// no-op change.
func (c *ContentCache) Load(files []types.FileID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = make(map[types.FileID]string, len(files))
	c.totalLines = 0
	for _, f := range files {
		data, err := os.ReadFile(string(f))
		if err != nil {
			slog.Warn("content cache: unreadable file during load", "file", f, "err", err)
			continue
		}
		text := string(data)
		c.content[f] = text
		c.totalLines += countLines(text)
	}
}

// Get returns f's cached content and whether it was present.
func (c *ContentCache) Get(f types.FileID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.content[f]
	return content, ok
}

// Set stores content for f, updating the running line count.
func (c *ContentCache) Set(f types.FileID, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.content[f]; ok {
		c.totalLines -= countLines(old)
	}
	c.content[f] = content
	c.totalLines += countLines(content)
}

// Delete evicts f from the cache.
func (c *ContentCache) Delete(f types.FileID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.content[f]; ok {
		c.totalLines -= countLines(old)
		delete(c.content, f)
	}
}

// TotalLines reports the running total across every cached file.
func (c *ContentCache) TotalLines() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalLines
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
