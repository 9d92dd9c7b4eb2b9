package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shalmon/dohapi/internal/apperr"
	"github.com/shalmon/dohapi/internal/request"
	"github.com/shalmon/dohapi/internal/worker"
)

// batchItem is one entry of a batch file. Provider defaults to --provider.
type batchItem struct {
	Provider string            `yaml:"provider"`
	Method   string            `yaml:"method"`
	URL      string            `yaml:"url"`
	Headers  map[string]string `yaml:"headers"`
	Body     *string           `yaml:"body"`
}

func newBatchCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "batch [file]",
		Short: "Send a list of requests read from a YAML or JSON file",
		Long: `Send every request listed in a YAML or JSON file concurrently.

The file holds a list of requests:

  - method: GET
    url: https://example.com/
  - provider: Quad9
    method: POST
    url: https://example.com/items
    headers: {Authorization: Bearer x}
    body: '{"name":"x"}'

With no file, or "-", the list is read from stdin. Requests run in parallel,
limited by --concurrency, and results are printed in input order.`,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "request",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readBatch(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("batch contains no requests")
			}

			results := worker.Run(cmd.Context(), d.cfg.Concurrency, items,
				func(ctx context.Context, it batchItem) (ResponseResult, error) {
					return runBatchItem(ctx, d, it), nil
				})

			out := BatchResult{Results: make([]ResponseResult, len(results))}
			for i, r := range results {
				out.Results[i] = r.Value
				if r.Err != nil {
					// Never started: ctx ended first.
					out.Results[i] = failedItem(d, r.Input, apperr.Wrap(apperr.KindCancelled, r.Err))
				}
			}
			if err := writeResult(cmd.OutOrStdout(), d, out); err != nil {
				return err
			}
			if n := out.Failed(); n > 0 {
				return fmt.Errorf("%d of %d requests failed", n, len(out.Results))
			}
			return nil
		},
	}
}

func readBatch(stdin io.Reader, args []string) ([]batchItem, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("reading batch: %w", err)
	}
	var items []batchItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing batch: %w", err)
	}
	return items, nil
}

func (it batchItem) providerID(d *deps) string {
	if it.Provider != "" {
		return it.Provider
	}
	return d.cfg.Provider
}

func runBatchItem(ctx context.Context, d *deps, it batchItem) ResponseResult {
	m, err := request.ParseMethod(it.Method)
	if err != nil {
		return failedItem(d, it, apperr.As(err))
	}
	spec := request.Spec{Method: m, URL: it.URL, Headers: it.Headers, Body: it.Body}
	f, err := d.dispatcher.Submit(ctx, it.providerID(d), spec)
	if err != nil {
		return failedItem(d, it, apperr.As(err))
	}
	return newResponseResult(d.lookupProvider(it.providerID(d)).ID, spec, f.Result())
}

func failedItem(d *deps, it batchItem, e *apperr.Error) ResponseResult {
	return ResponseResult{
		Provider: d.lookupProvider(it.providerID(d)).ID,
		Method:   request.Method(it.Method),
		URL:      it.URL,
		Error:    newFailureView(e),
	}
}
