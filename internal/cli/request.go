package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shalmon/dohapi/internal/request"
)

// newRequestCmds returns one command per supported HTTP method.
func newRequestCmds(d *deps) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(request.Methods))
	for _, m := range request.Methods {
		cmds = append(cmds, newRequestCmd(d, m))
	}
	return cmds
}

func newRequestCmd(d *deps, m request.Method) *cobra.Command {
	var (
		headers []string
		data    string
	)
	cmd := &cobra.Command{
		Use:     strings.ToLower(string(m)) + " <url>",
		Short:   fmt.Sprintf("Send an HTTP %s request, resolving the host over DoH", m),
		Args:    cobra.ExactArgs(1),
		GroupID: "request",
		RunE: func(cmd *cobra.Command, args []string) error {
			hdrs, err := parseHeaders(headers)
			if err != nil {
				return err
			}
			spec := request.Spec{Method: m, URL: args[0], Headers: hdrs}
			if cmd.Flags().Changed("data") {
				body, err := readBody(cmd.InOrStdin(), data)
				if err != nil {
					return err
				}
				spec.Body = &body
			}

			f, err := d.dispatcher.Submit(cmd.Context(), d.cfg.Provider, spec)
			if err != nil {
				return err
			}
			res := f.Result()
			if err := writeResult(cmd.OutOrStdout(), d, newResponseResult(d.lookupProvider(d.cfg.Provider).ID, spec, res)); err != nil {
				return err
			}
			if !res.OK() {
				return res.Err
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, `request header "Name: value" (repeatable)`)
	if m != request.MethodGet {
		cmd.Flags().StringVarP(&data, "data", "d", "", "request body; @file reads a file, @- reads stdin")
	}
	return cmd
}

// parseHeaders turns "Name: value" strings into a header map.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Name: value\"", h)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

// readBody resolves a --data value: "@-" reads stdin, "@path" reads a file,
// anything else is used literally.
func readBody(stdin io.Reader, data string) (string, error) {
	switch {
	case data == "@-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading body from stdin: %w", err)
		}
		return string(b), nil
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return "", fmt.Errorf("reading body: %w", err)
		}
		return string(b), nil
	default:
		return data, nil
	}
}
