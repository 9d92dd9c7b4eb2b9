package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const completionLong = `Generate a shell completion script for dohapi.

Bash:
  $ source <(dohapi completion bash)

Zsh:
  $ dohapi completion zsh > "${fpath[1]}/_dohapi"

Fish:
  $ dohapi completion fish > ~/.config/fish/completions/dohapi.fish

PowerShell:
  PS> dohapi completion powershell | Out-String | Invoke-Expression`

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion bash|zsh|fish|powershell",
		Short:                 "Generate shell completion scripts",
		Long:                  completionLong,
		GroupID:               "utility",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// buildDeps creates the config file; completion must stay side-effect free.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(w)
			default:
				return fmt.Errorf("unsupported shell %q", args[0])
			}
		},
	}
}
