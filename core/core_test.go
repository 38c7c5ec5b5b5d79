package core

import (
	"strings"
	"testing"
)

func TestLineIndexPositions(t *testing.T) {
	src := "ab\ncd\n\nxyz"
	ix := NewLineIndex(src)

	tests := []struct {
		offset int
		want   Pos
	}{
		{0, Pos{Line: 1, Col: 1}},
		{1, Pos{Line: 1, Col: 2}},
		{2, Pos{Line: 1, Col: 3}}, // the newline itself
		{3, Pos{Line: 2, Col: 1}},
		{6, Pos{Line: 3, Col: 1}}, // empty line
		{7, Pos{Line: 4, Col: 1}},
		{10, Pos{Line: 4, Col: 4}}, // end of input
	}
	for _, tt := range tests {
		if got := ix.PosFor(tt.offset); got != tt.want {
			t.Errorf("PosFor(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
	if ix.LineCount() != 4 {
		t.Errorf("LineCount = %d, want 4", ix.LineCount())
	}
}

func TestLineIndexByteColumns(t *testing.T) {
	// Columns count bytes: é is two bytes in UTF-8.
	src := "é x"
	ix := NewLineIndex(src)
	if got := ix.PosFor(3); got != (Pos{Line: 1, Col: 4}) {
		t.Errorf("PosFor(3) = %+v, want byte column 4", got)
	}
}

func TestLineIndexRangeFor(t *testing.T) {
	src := "SELECT 1\nFROM dual;"
	ix := NewLineIndex(src)
	r := ix.RangeFor(Span{Start: 9, End: 13})
	if r.Start != (Pos{Line: 2, Col: 1}) || r.End != (Pos{Line: 2, Col: 5}) {
		t.Errorf("RangeFor = %+v", r)
	}
	if ix.Slice(r.Offset) != "FROM" {
		t.Errorf("Slice = %q", ix.Slice(r.Offset))
	}
}

func TestSplice(t *testing.T) {
	if got := Splice("abcdef", 2, 4, "XY"); got != "abXYef" {
		t.Errorf("Splice = %q", got)
	}
	if got := Splice("abc", 1, 1, "--"); got != "a--bc" {
		t.Errorf("insert Splice = %q", got)
	}
	if got := Splice("abc", 0, 3, ""); got != "" {
		t.Errorf("delete Splice = %q", got)
	}
}

func TestApplyEdit(t *testing.T) {
	edit := TextEdit{
		Range:       TextRange{Offset: Span{Start: 0, End: 2}},
		Replacement: "AS",
	}
	if got := ApplyEdit("IS BEGIN", edit); got != "AS BEGIN" {
		t.Errorf("ApplyEdit = %q", got)
	}
}

func TestDiff(t *testing.T) {
	if Diff("same", "same") != "" {
		t.Error("identical inputs must produce an empty diff")
	}
	diff := Diff("a\nb\nc\n", "a\nB\nc\n")
	if !strings.Contains(diff, "-b") || !strings.Contains(diff, "+B") {
		t.Errorf("diff missing change lines:\n%s", diff)
	}
	if !strings.Contains(diff, "--- original") || !strings.Contains(diff, "+++ modified") {
		t.Errorf("diff missing headers:\n%s", diff)
	}
}

func TestSpanHelpers(t *testing.T) {
	s := Span{Start: 2, End: 5}
	if s.Len() != 3 {
		t.Errorf("Len = %d", s.Len())
	}
	if !s.Contains(2) || s.Contains(5) {
		t.Error("Contains should be half-open")
	}
}

func TestContextResolveColumn(t *testing.T) {
	ctx := Context{Tables: map[string]Table{
		"Persons": {Columns: map[string]Column{"Last_Login": {Typ: ColumnDate}}},
	}}
	typ, ok := ctx.ResolveColumn("persons", "last_login")
	if !ok || typ != ColumnDate {
		t.Errorf("ResolveColumn = %v, %v", typ, ok)
	}
	if _, ok := ctx.ResolveColumn("persons", "missing"); ok {
		t.Error("resolved a missing column")
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindFunction, KindProcedure, KindTrigger, KindQuery} {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if Kind("view").Valid() {
		t.Error("view is not a boundary kind")
	}
}

func TestTakeIndent(t *testing.T) {
	if got := TakeIndent("\t  x := 1;"); got != "\t  " {
		t.Errorf("TakeIndent = %q", got)
	}
}
