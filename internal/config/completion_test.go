package config_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/shalmon/dohapi/internal/config"
	"github.com/shalmon/dohapi/internal/provider"
)

func TestCompleteOutputFormat(t *testing.T) {
	vals, directive := config.CompleteOutputFormat(nil, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.ElementsMatch(t, []string{"text", "json", "table"}, vals)
}

func TestCompleteProvider(t *testing.T) {
	vals, directive := config.CompleteProvider(nil, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Equal(t, provider.IDs(), vals)
}

func TestCompleteKey(t *testing.T) {
	vals, _ := config.CompleteKey(nil, nil, "")
	assert.Contains(t, vals, "cache_ttl")

	vals, _ = config.CompleteKey(nil, []string{"provider"}, "")
	assert.Empty(t, vals)
}
