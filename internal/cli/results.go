package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shalmon/dohapi/internal/apperr"
	"github.com/shalmon/dohapi/internal/output"
	"github.com/shalmon/dohapi/internal/provider"
	"github.com/shalmon/dohapi/internal/request"
)

// bodyPreview is the longest body shown in a table cell.
const bodyPreview = 120

// failureView is the JSON shape of a failed request.
type failureView struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func newFailureView(e *apperr.Error) *failureView {
	if e == nil {
		return nil
	}
	return &failureView{Kind: e.Kind.String(), Message: e.Message, StatusCode: e.StatusCode, Detail: e.Detail}
}

// ResponseResult is the outcome of one request command.
type ResponseResult struct {
	Provider string         `json:"provider"`
	Method   request.Method `json:"method"`
	URL      string         `json:"url"`
	OK       bool           `json:"ok"`
	Body     string         `json:"body,omitempty"`
	Error    *failureView   `json:"error,omitempty"`
}

func newResponseResult(providerID string, spec request.Spec, res request.Result) ResponseResult {
	return ResponseResult{
		Provider: providerID,
		Method:   spec.Method,
		URL:      spec.URL,
		OK:       res.OK(),
		Body:     res.Body,
		Error:    newFailureView(res.Err),
	}
}

// WriteText writes the response body, or the body of an error response.
// The error itself is reported on stderr by the caller.
func (r ResponseResult) WriteText(w io.Writer) error {
	body := r.Body
	if r.Error != nil {
		body = r.Error.Detail
	}
	if body == "" {
		return nil
	}
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	_, err := io.WriteString(w, body)
	return err
}

func (r ResponseResult) status() string {
	switch {
	case r.Error == nil:
		return "ok"
	case r.Error.StatusCode != 0:
		return strconv.Itoa(r.Error.StatusCode)
	default:
		return r.Error.Kind
	}
}

func (r ResponseResult) preview() string {
	s := r.Body
	if r.Error != nil {
		s = r.Error.Message
		if r.Error.Detail != "" {
			s += ": " + r.Error.Detail
		}
	}
	s = strings.Join(strings.Fields(output.Sanitize(s)), " ")
	if len(s) > bodyPreview {
		s = s[:bodyPreview] + "…"
	}
	return s
}

func (r ResponseResult) row() []string {
	return []string{r.Provider, string(r.Method), r.URL, r.status(), r.preview()}
}

// WriteTable renders the result as a single-row table.
func (r ResponseResult) WriteTable(w io.Writer) error {
	return writeResponseTable(w, []ResponseResult{r})
}

func writeResponseTable(w io.Writer, results []ResponseResult) error {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = r.row()
	}
	return output.RenderTable(w, output.TablePlain, 40, []string{"Provider", "Method", "URL", "Status", "Body"}, rows)
}

// BatchResult holds the outcomes of a batch run in input order.
type BatchResult struct {
	Results []ResponseResult `json:"results"`
}

// Failed counts the failed requests.
func (b BatchResult) Failed() int {
	n := 0
	for _, r := range b.Results {
		if !r.OK {
			n++
		}
	}
	return n
}

// WriteText writes one summary line per request.
func (b BatchResult) WriteText(w io.Writer) error {
	for _, r := range b.Results {
		line := fmt.Sprintf("%s %s via %s: %s", r.Method, r.URL, r.Provider, r.status())
		if r.Error != nil {
			line += " (" + output.Sanitize(r.Error.Message) + ")"
		} else {
			line += fmt.Sprintf(" (%d bytes)", len(r.Body))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable renders one row per request.
func (b BatchResult) WriteTable(w io.Writer) error {
	return writeResponseTable(w, b.Results)
}

// HostAddrs is the resolution of one host.
type HostAddrs struct {
	Host  string   `json:"host"`
	Addrs []string `json:"addrs,omitempty"`
	Error string   `json:"error,omitempty"`
}

// ResolveResult holds the DoH answers for every host of a resolve command.
type ResolveResult struct {
	Provider string      `json:"provider"`
	Hosts    []HostAddrs `json:"hosts"`
}

// WriteText writes "host address" pairs, one per line.
func (r ResolveResult) WriteText(w io.Writer) error {
	for _, h := range r.Hosts {
		if h.Error != "" {
			if _, err := fmt.Fprintf(w, "%s error: %s\n", h.Host, h.Error); err != nil {
				return err
			}
			continue
		}
		for _, a := range h.Addrs {
			if _, err := fmt.Fprintf(w, "%s %s\n", h.Host, a); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteTable renders addresses grouped by host.
func (r ResolveResult) WriteTable(w io.Writer) error {
	var rows [][]string
	for _, h := range r.Hosts {
		if h.Error != "" {
			rows = append(rows, []string{h.Host, "error: " + h.Error})
			continue
		}
		for _, a := range h.Addrs {
			rows = append(rows, []string{h.Host, a})
		}
	}
	return output.RenderTable(w, output.TableGrouped, 30, []string{"Host", "Address"}, rows)
}

// ProviderRow describes one catalog entry.
type ProviderRow struct {
	ID        string   `json:"id"`
	Format    string   `json:"format"`
	Endpoint  string   `json:"endpoint"`
	Bootstrap []string `json:"bootstrap"`
	Default   bool     `json:"default,omitempty"`
}

// ProvidersResult lists the provider catalog.
type ProvidersResult struct {
	Providers []ProviderRow `json:"providers"`
}

func newProvidersResult() ProvidersResult {
	all := provider.All()
	rows := make([]ProviderRow, len(all))
	for i, p := range all {
		boot := make([]string, len(p.Bootstrap))
		for j, a := range p.Bootstrap {
			boot[j] = a.String()
		}
		rows[i] = ProviderRow{
			ID:        p.ID,
			Format:    string(p.Format),
			Endpoint:  p.Endpoint,
			Bootstrap: boot,
			Default:   p.ID == provider.Default,
		}
	}
	return ProvidersResult{Providers: rows}
}

// WriteText writes one provider id per line, marking the default.
func (p ProvidersResult) WriteText(w io.Writer) error {
	for _, r := range p.Providers {
		line := r.ID
		if r.Default {
			line += " (default)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable renders the catalog.
func (p ProvidersResult) WriteTable(w io.Writer) error {
	rows := make([][]string, len(p.Providers))
	for i, r := range p.Providers {
		rows[i] = []string{r.ID, r.Format, r.Endpoint, strings.Join(r.Bootstrap, " ")}
	}
	return output.RenderTable(w, output.TablePlain, 30, []string{"Provider", "Format", "Endpoint", "Bootstrap"}, rows)
}
