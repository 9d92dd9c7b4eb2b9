package config

import (
	"github.com/spf13/cobra"

	"github.com/shalmon/dohapi/internal/provider"
)

// CompleteOutputFormat provides shell completion candidates for the --output flag.
func CompleteOutputFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return outputFormats(), cobra.ShellCompDirectiveNoFileComp
}

// CompleteProvider provides shell completion candidates for the --provider flag.
func CompleteProvider(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return provider.IDs(), cobra.ShellCompDirectiveNoFileComp
}

// CompleteKey provides shell completion candidates for config keys.
func CompleteKey(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return ValidKeys(), cobra.ShellCompDirectiveNoFileComp
}

// RegisterFlagCompletions wires completion functions for the flags added by
// RegisterFlags on cmd's persistent flag set.
func RegisterFlagCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("output", CompleteOutputFormat)
	_ = cmd.RegisterFlagCompletionFunc("provider", CompleteProvider)
}
