package watch

import (
	"strings"

	dmp "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// LineDiff computes a line-aligned diff between old and new content using
// go-diff's line-mode hashing trick (DiffLinesToChars/DiffCharsToLines),
// which gets LCS-quality alignment at line rather than character
// granularity. A delete run followed by an insert run is paired line by
// line as Changed up to the shorter run's length; leftover lines of the
// longer run are Removed or Added. Line numbers are
// 1-based and, per spec §4.G, refer to the new content for Added/Changed
// and the old content for Removed.
func LineDiff(oldContent, newContent string) []types.LineDiff {
	differ := dmp.New()
	oldChars, newChars, lineArray := differ.DiffLinesToChars(oldContent, newContent)
	diffs := differ.DiffMain(oldChars, newChars, false)
	diffs = differ.DiffCharsToLines(diffs, lineArray)

	var out []types.LineDiff
	oldLine, newLine := 1, 1

	i := 0
	for i < len(diffs) {
		d := diffs[i]
		switch d.Type {
		case dmp.DiffEqual:
			n := countDiffLines(d.Text)
			oldLine += n
			newLine += n
			i++
		case dmp.DiffDelete:
			removedLines := splitDiffLines(d.Text)
			var insertedLines []string
			if i+1 < len(diffs) && diffs[i+1].Type == dmp.DiffInsert {
				insertedLines = splitDiffLines(diffs[i+1].Text)
				i++
			}
			pair := len(removedLines)
			if len(insertedLines) < pair {
				pair = len(insertedLines)
			}
			for j := 0; j < pair; j++ {
				out = append(out, types.LineDiff{
					Line: newLine + j,
					Type: types.LineChanged,
					Old:  removedLines[j],
					New:  insertedLines[j],
				})
			}
			for j := pair; j < len(removedLines); j++ {
				out = append(out, types.LineDiff{
					Line: oldLine + j,
					Type: types.LineRemoved,
					Old:  removedLines[j],
				})
			}
			for j := pair; j < len(insertedLines); j++ {
				out = append(out, types.LineDiff{
					Line: newLine + j,
					Type: types.LineAdded,
					New:  insertedLines[j],
				})
			}
			oldLine += len(removedLines)
			newLine += len(insertedLines)
			i++
		case dmp.DiffInsert:
			insertedLines := splitDiffLines(d.Text)
			for j, line := range insertedLines {
				out = append(out, types.LineDiff{
					Line: newLine + j,
					Type: types.LineAdded,
					New:  line,
				})
			}
			newLine += len(insertedLines)
			i++
		}
	}
	return out
}

func splitDiffLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func countDiffLines(text string) int {
	return len(splitDiffLines(text))
}
