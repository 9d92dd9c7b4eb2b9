package cli

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/shalmon/dohapi/internal/worker"
)

func newResolveCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [host...]",
		Short: "Resolve hostnames through the DoH provider",
		Long: `Resolve hostnames through the selected DoH provider, exactly as the request
commands do before connecting. With no arguments, hosts are read from stdin,
one per line.`,
		GroupID: "dns",
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts, err := resolveInputs(cmd, args)
			if err != nil {
				return err
			}
			client, err := d.factory.Get(d.cfg.Provider)
			if err != nil {
				return err
			}
			r := client.Resolver()

			results := worker.Run(cmd.Context(), d.cfg.Concurrency, hosts,
				func(ctx context.Context, host string) ([]netip.Addr, error) {
					return r.LookupNetIP(ctx, host)
				})

			out := ResolveResult{Provider: client.Provider().ID, Hosts: make([]HostAddrs, len(results))}
			failed := 0
			for i, res := range results {
				h := HostAddrs{Host: res.Input}
				if res.Err != nil {
					h.Error = res.Err.Error()
					failed++
					d.logger.Debug("resolve failed", "host", res.Input, "error", res.Err)
				}
				for _, a := range res.Value {
					h.Addrs = append(h.Addrs, a.String())
				}
				out.Hosts[i] = h
			}
			if err := writeResult(cmd.OutOrStdout(), d, out); err != nil {
				return err
			}
			if failed == len(hosts) {
				return fmt.Errorf("no host could be resolved via %s", out.Provider)
			}
			return nil
		},
	}
}

func newProvidersCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "providers",
		Short:   "List the built-in DoH providers",
		Args:    cobra.NoArgs,
		GroupID: "dns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeResult(cmd.OutOrStdout(), d, newProvidersResult())
		},
	}
}
