package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shalmon/dohapi/internal/config"
	"github.com/shalmon/dohapi/internal/output"
)

func newConfigCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Read and write dohapi config file values",
		GroupID: "utility",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), d.cfg.ConfigFile)
				return err
			},
		},
		&cobra.Command{
			Use:     "show",
			Aliases: []string{"cat"},
			Short:   "Display all effective config settings",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return writeResult(cmd.OutOrStdout(), d, newConfigResult(d.cfg))
			},
		},
		&cobra.Command{
			Use:               "get <key>",
			Short:             "Print the effective value of a config key",
			Args:              cobra.ExactArgs(1),
			ValidArgsFunction: config.CompleteKey,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.ValidateKey(args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), effectiveValue(d.cfg, config.NormalizeKey(args[0])))
				return err
			},
		},
		&cobra.Command{
			Use:               "set <key> <value>",
			Short:             "Persist a config value to the config file",
			Args:              cobra.ExactArgs(2),
			ValidArgsFunction: config.CompleteKey,
			RunE: func(_ *cobra.Command, args []string) error {
				return config.Set(d.cfg.ConfigFile, args[0], args[1])
			},
		},
	)
	return cmd
}

// effectiveValue returns the resolved value of key, after defaults, config
// file, environment and flags have been applied.
func effectiveValue(cfg *config.Config, key string) string {
	switch key {
	case "verbose":
		return strconv.FormatBool(cfg.Verbose)
	case "output":
		return cfg.Output
	case "provider":
		return cfg.Provider
	case "proxy":
		return cfg.Proxy
	case "user_agent":
		return cfg.UserAgent
	case "timeout":
		return cfg.Timeout.String()
	case "concurrency":
		return strconv.Itoa(cfg.Concurrency)
	case "doh_rps":
		return strconv.FormatFloat(cfg.DoHRPS, 'g', -1, 64)
	case "doh_burst":
		return strconv.Itoa(cfg.DoHBurst)
	case "cache_ttl":
		return cfg.CacheTTL.String()
	default:
		return ""
	}
}

// ConfigResult is the effective configuration keyed by config name.
type ConfigResult map[string]string

func newConfigResult(cfg *config.Config) ConfigResult {
	keys := config.ValidKeys()
	out := make(ConfigResult, len(keys))
	for _, k := range keys {
		out[k] = effectiveValue(cfg, k)
	}
	return out
}

// WriteText writes key=value lines in key order.
func (c ConfigResult) WriteText(w io.Writer) error {
	for _, k := range config.ValidKeys() {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, c[k]); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable renders a KEY/VALUE table in key order.
func (c ConfigResult) WriteTable(w io.Writer) error {
	keys := config.ValidKeys()
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, c[k]}
	}
	return output.RenderTable(w, output.TablePlain, 6, []string{"KEY", "VALUE"}, rows)
}
