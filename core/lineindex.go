package core

import "sort"

// LineIndex converts byte offsets to 1-based line/column positions.
// It precomputes the offset of every line start once per source text.
type LineIndex struct {
	src    string
	starts []int
}

// NewLineIndex builds the line-start table for src.
func NewLineIndex(src string) *LineIndex {
	starts := make([]int, 1, 16)
	starts[0] = 0
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{src: src, starts: starts}
}

// PosFor returns the position of the given byte offset. Offsets past the
// end of the text clamp to the final position.
func (ix *LineIndex) PosFor(offset int) Pos {
	if offset < 0 {
		offset = 0
	}
	if offset > len(ix.src) {
		offset = len(ix.src)
	}
	line := sort.Search(len(ix.starts), func(i int) bool {
		return ix.starts[i] > offset
	}) - 1
	return Pos{Line: line + 1, Col: offset - ix.starts[line] + 1}
}

// RangeFor converts a byte span to a full TextRange.
func (ix *LineIndex) RangeFor(span Span) TextRange {
	return TextRange{
		Offset: span,
		Start:  ix.PosFor(span.Start),
		End:    ix.PosFor(span.End),
	}
}

// Slice returns the source bytes covered by the span.
func (ix *LineIndex) Slice(span Span) string {
	return ix.src[span.Start:span.End]
}

// LineCount returns the number of lines in the source.
func (ix *LineIndex) LineCount() int { return len(ix.starts) }
