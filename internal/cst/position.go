package cst

import (
	"strings"
	"unicode/utf8"
)

// Position is a zero-based (line, character) location where character
// counts Unicode scalar values on the line, not bytes. This matches the
// LSP position encoding the server advertises.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open [Start, End) span of positions.
type Range struct {
	Start Position
	End   Position
}

// PositionToByte converts a position to a byte offset into text.
// Characters count runes; multi-byte UTF-8 sequences count as one.
// Out-of-range positions clamp to the end of the line or text.
func PositionToByte(text string, pos Position) int {
	if pos.Line < 0 {
		return 0
	}

	offset := 0
	line := 0
	for line < pos.Line {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return len(text)
		}
		offset += nl + 1
		line++
	}

	remaining := pos.Character
	for remaining > 0 && offset < len(text) {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}
		offset += size
		remaining--
	}
	return offset
}

// ByteToPosition converts a byte offset into a position. Offsets beyond
// the text clamp to the final position; offsets inside a multi-byte
// sequence round down to the rune start.
func ByteToPosition(text string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	line := 0
	lineStart := 0
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}

	character := utf8.RuneCountInString(text[lineStart:offset])
	return Position{Line: line, Character: character}
}

// RangeOf converts a node's byte span to a position range.
func RangeOf(text string, n *Node) Range {
	return Range{
		Start: ByteToPosition(text, n.StartByte()),
		End:   ByteToPosition(text, n.EndByte()),
	}
}
