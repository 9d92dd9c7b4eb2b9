package output_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shalmon/dohapi/internal/output"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean string", "hello world", "hello world"},
		{"red color", "\x1b[31mred\x1b[0m", "red"},
		{"bold", "\x1b[1mbold\x1b[0m", "bold"},
		{"multiple sequences", "\x1b[1m\x1b[31merror\x1b[0m", "error"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, output.StripANSI(tc.input))
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"keeps newlines and tabs", "a\tb\nc", "a\tb\nc"},
		{"drops bell and backspace", "ding\a\bdong", "dingdong"},
		{"drops carriage return", "over\rwrite", "overwrite"},
		{"drops ansi then controls", "\x1b[2J\x00clear", "clear"},
		{"keeps unicode", "ünïcødé ✓", "ünïcødé ✓"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, output.Sanitize(tc.input))
		})
	}
}
