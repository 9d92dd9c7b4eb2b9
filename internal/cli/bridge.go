package cli

import (
	"github.com/spf13/cobra"

	"github.com/shalmon/dohapi/internal/bridge"
)

func newBridgeCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Serve " + bridge.ChannelName + " method calls over stdin/stdout",
		Long: `Serve host method calls as newline-delimited JSON on stdin/stdout.

Each input line is {"id": ..., "method": "makeGetRequest", "arguments": {...}}
with arguments url, dohProvider, and optionally headers and body. Each call
is answered with exactly one line carrying the same id and either "result"
or "error" {code, message, details}. Calls run concurrently; answers may
arrive out of order. The bridge stops at end of input once every pending
call has been answered.`,
		Args:    cobra.NoArgs,
		GroupID: "request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return bridge.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), bridge.New(d.dispatcher, d.logger))
		},
	}
}
