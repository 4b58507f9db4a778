package cst

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPositionToByte(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  Position
		want int
	}{
		{"start", "SELECT 1", Position{0, 0}, 0},
		{"mid line", "SELECT 1", Position{0, 7}, 7},
		{"end of line", "SELECT 1", Position{0, 8}, 8},
		{"past end of line clamps", "SELECT 1", Position{0, 100}, 8},
		{"second line", "SELECT\n1", Position{1, 0}, 7},
		{"line past end clamps", "SELECT 1", Position{5, 0}, 8},
		{"multibyte before cursor", "SELECT 'é', x", Position{0, 10}, 11},
		{"cjk", "SELECT '日本語'", Position{0, 11}, 17},
		{"empty text", "", Position{0, 0}, 0},
		{"negative line", "abc", Position{-1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PositionToByte(tt.text, tt.pos))
		})
	}
}

func TestByteToPosition(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
		want   Position
	}{
		{"start", "SELECT 1", 0, Position{0, 0}},
		{"mid", "SELECT 1", 7, Position{0, 7}},
		{"end", "SELECT 1", 8, Position{0, 8}},
		{"past end clamps", "SELECT 1", 100, Position{0, 8}},
		{"newline boundary", "ab\ncd", 3, Position{1, 0}},
		{"second line mid", "ab\ncd", 4, Position{1, 1}},
		{"multibyte counts one", "SELECT 'é'", 11, Position{0, 10}},
		{"negative clamps", "abc", -5, Position{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ByteToPosition(tt.text, tt.offset))
		})
	}
}

func TestPositionByteBijection(t *testing.T) {
	texts := []string{
		"SELECT * FROM users",
		"SELECT 'é', '日本語'\nFROM tbl\nWHERE x = 'ü'",
		"",
		"a\n\nb",
	}

	for _, text := range texts {
		// Every valid position round-trips through its byte offset.
		for offset := 0; offset <= len(text); offset++ {
			if offset < len(text) && !utf8.RuneStart(text[offset]) {
				continue // not a rune boundary
			}
			pos := ByteToPosition(text, offset)
			assert.Equal(t, offset, PositionToByte(text, pos),
				"text %q offset %d", text, offset)
		}
	}
}
