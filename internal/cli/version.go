package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shalmon/dohapi/internal/output"
	"github.com/shalmon/dohapi/internal/version"
)

// VersionResult wraps build metadata for the output formatters.
type VersionResult struct {
	version.Info
}

// WriteText writes the one-line version banner.
func (v VersionResult) WriteText(w io.Writer) error {
	_, err := io.WriteString(w, v.String()+"\n")
	return err
}

// WriteTable renders the build metadata as FIELD/VALUE rows.
func (v VersionResult) WriteTable(w io.Writer) error {
	return output.RenderTable(w, output.TablePlain, 12, []string{"FIELD", "VALUE"}, [][]string{
		{"version", v.Version},
		{"commit", v.Commit},
		{"built", v.Date},
		{"dirty", strconv.FormatBool(v.Dirty)},
		{"go", v.GoVersion},
	})
}

func newVersionCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the dohapi version",
		Args:    cobra.NoArgs,
		GroupID: "utility",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeResult(cmd.OutOrStdout(), d, VersionResult{Info: version.Get()})
		},
	}
}
