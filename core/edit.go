package core

import (
	"bytes"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Splice replaces src[start:end] with replacement and returns the result.
func Splice(src string, start, end int, replacement string) string {
	var buf bytes.Buffer
	buf.Grow(len(src) - (end - start) + len(replacement))
	buf.WriteString(src[:start])
	buf.WriteString(replacement)
	buf.WriteString(src[end:])
	return buf.String()
}

// ApplyEdit splices one text edit into src.
func ApplyEdit(src string, edit TextEdit) string {
	return Splice(src, edit.Range.Offset.Start, edit.Range.Offset.End, edit.Replacement)
}

// Diff creates a unified diff between the original and modified text.
// Returns the empty string when the two are identical.
func Diff(original, modified string) string {
	if original == modified {
		return ""
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: "original",
		ToFile:   "modified",
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

// TakeIndent extracts the leading whitespace from a line.
func TakeIndent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' {
			b.WriteRune(r)
		} else {
			break
		}
	}
	return b.String()
}
