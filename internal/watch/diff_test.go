package watch

import (
	"testing"

	"github.com/Priyans-hu/impactgraph/pkg/types"
)

func TestLineDiff_NoChange(t *testing.T) {
	diffs := LineDiff("a\nb\nc\n", "a\nb\nc\n")
	if len(diffs) != 0 {
		t.Fatalf("expected no diffs for identical content, got %v", diffs)
	}
}

func TestLineDiff_PureAddition(t *testing.T) {
	diffs := LineDiff("a\nb\n", "a\nb\nc\n")
	if len(diffs) != 1 {
		t.Fatalf("expected exactly one diff entry, got %v", diffs)
	}
	if diffs[0].Type != types.LineAdded || diffs[0].New != "c" {
		t.Errorf("expected an Added line 'c', got %+v", diffs[0])
	}
	if diffs[0].Line != 3 {
		t.Errorf("expected the added line to be reported at line 3, got %d", diffs[0].Line)
	}
}

func TestLineDiff_PureRemoval(t *testing.T) {
	diffs := LineDiff("a\nb\nc\n", "a\nc\n")
	if len(diffs) != 1 {
		t.Fatalf("expected exactly one diff entry, got %v", diffs)
	}
	if diffs[0].Type != types.LineRemoved || diffs[0].Old != "b" {
		t.Errorf("expected a Removed line 'b', got %+v", diffs[0])
	}
}

func TestLineDiff_ChangedLineReportedAsSingleEntry(t *testing.T) {
	diffs := LineDiff("a\nb\nc\n", "a\nB\nc\n")
	if len(diffs) != 1 {
		t.Fatalf("expected one changed-line diff, got %v", diffs)
	}
	if diffs[0].Type != types.LineChanged || diffs[0].Old != "b" || diffs[0].New != "B" {
		t.Errorf("expected a Changed diff b->B, got %+v", diffs[0])
	}
}

func TestLineDiff_EmptyToContent(t *testing.T) {
	diffs := LineDiff("", "a\nb\n")
	if len(diffs) != 2 {
		t.Fatalf("expected two added lines, got %v", diffs)
	}
	for _, d := range diffs {
		if d.Type != types.LineAdded {
			t.Errorf("expected all entries to be Added, got %+v", d)
		}
	}
}
