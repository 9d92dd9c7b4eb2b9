package worker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shalmon/dohapi/internal/worker"
)

func TestReadInputs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"basic", "example.com\napi.example.org\n", []string{"example.com", "api.example.org"}},
		{"trims whitespace", "  example.com  \n\tapi.example.org\t\n", []string{"example.com", "api.example.org"}},
		{"drops empty lines", "example.com\n\n\napi.example.org\n", []string{"example.com", "api.example.org"}},
		{"drops comments", "# hosts\nexample.com\n  # indented\n", []string{"example.com"}},
		{"no trailing newline", "example.com", []string{"example.com"}},
		{"drops duplicates", "example.com\napi.example.org\nexample.com\n", []string{"example.com", "api.example.org"}},
		{"crlf", "example.com\r\napi.example.org\r\n", []string{"example.com", "api.example.org"}},
		{"empty", "", nil},
		{"whitespace only", "   \n\t\n  \n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := worker.ReadInputs(strings.NewReader(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
