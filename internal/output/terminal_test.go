package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalWidth_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, defaultTermWidth, TerminalWidth(&buf))
}

func TestRenderTable_Plain(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTable(&buf, TablePlain, 10, []string{"Provider", "Endpoint"},
		[][]string{{"Quad9", "https://dns.quad9.net/dns-query"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Quad9")
	assert.Contains(t, buf.String(), "dns.quad9.net")
}

func TestRenderTable_Grouped(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTable(&buf, TableGrouped, 30, []string{"Host", "Address"},
		[][]string{{"a.example", "192.0.2.1"}, {"a.example", "2001:db8::1"}, {"b.example", "192.0.2.2"}})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "192.0.2.1")
	assert.Contains(t, out, "2001:db8::1")
	assert.Contains(t, out, "b.example")
	assert.Less(t, strings.Index(out, "a.example"), strings.Index(out, "b.example"))
}
