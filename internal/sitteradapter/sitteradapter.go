// Package sitteradapter converts between LSP positions and byte offsets.
package sitteradapter

import (
	"sort"
	"strings"
	"unicode/utf8"

	lsp "github.com/tliron/glsp/protocol_3_16"
)

// PositionToOffset computes the byte offset for an LSP Position. Characters
// are counted in UTF-16 code units, lines past the end are clamped.
func PositionToOffset(document string, pos lsp.Position) int {
	lines := strings.Split(document, "\n")
	// Clamp line number
	if int(pos.Line) >= len(lines) {
		pos.Line = uint32(len(lines) - 1)
	}
	offset := 0
	// Sum bytes for all lines before the target line (including newline)
	for i := uint32(0); i < pos.Line; i++ {
		offset += len(lines[i]) + 1
	}
	// Traverse runes in target line to match UTF-16 character count
	var charCount, byteCount int
	for _, r := range lines[pos.Line] {
		// Each codepoint uses 1 or 2 UTF-16 code units
		unitCount := 1
		if r > 0xFFFF {
			unitCount = 2
		}
		if uint32(charCount+unitCount) > pos.Character {
			break
		}
		charCount += unitCount
		byteCount += utf8.RuneLen(r)
	}
	return offset + byteCount
}

// ApplyTextEdit applies a single LSP edit to the given document. A change
// without a range replaces the whole document.
func ApplyTextEdit(
	edit lsp.TextDocumentContentChangeEvent,
	document string,
) string {
	if edit.Range == nil {
		return edit.Text
	}
	startOffset := PositionToOffset(document, edit.Range.Start)
	endOffset := PositionToOffset(document, edit.Range.End)
	if endOffset < startOffset {
		startOffset, endOffset = endOffset, startOffset
	}

	// LSP splits at code-unit boundaries and PositionToOffset respects that,
	// so the byte indices are rune boundaries.
	return document[:startOffset] + edit.Text + document[endOffset:]
}

func utf16Len(s string) uint32 {
	var n uint32
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// LineIndex answers repeated offset/position conversions for one document
// without re-splitting it.
type LineIndex struct {
	text   string
	starts []int
}

// NewLineIndex records the start offset of every line in text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// Position converts a byte offset into an LSP position.
func (li *LineIndex) Position(offset int) lsp.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(li.text) {
		offset = len(li.text)
	}
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return lsp.Position{
		Line:      uint32(line),
		Character: utf16Len(li.text[li.starts[line]:offset]),
	}
}

// Range converts a pair of byte offsets into an LSP range.
func (li *LineIndex) Range(start, end int) lsp.Range {
	return lsp.Range{Start: li.Position(start), End: li.Position(end)}
}

// Offset converts an LSP position into a byte offset.
func (li *LineIndex) Offset(pos lsp.Position) int {
	if int(pos.Line) >= len(li.starts) {
		return len(li.text)
	}
	start := li.starts[pos.Line]
	end := len(li.text)
	if int(pos.Line)+1 < len(li.starts) {
		end = li.starts[pos.Line+1] - 1
	}
	var units uint32
	for i, r := range li.text[start:end] {
		if units >= pos.Character {
			return start + i
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return end
}

// Line returns the text of a zero-based line without its newline.
func (li *LineIndex) Line(line int) string {
	if line < 0 || line >= len(li.starts) {
		return ""
	}
	end := len(li.text)
	if line+1 < len(li.starts) {
		end = li.starts[line+1] - 1
	}
	return strings.TrimSuffix(li.text[li.starts[line]:end], "\r")
}

// LineCount reports the number of lines in the indexed text.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}
