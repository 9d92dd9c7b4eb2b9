package bridge

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/shalmon/dohapi/internal/apperr"
	"github.com/shalmon/dohapi/internal/request"
)

// ChannelName is the method channel the host registers the plugin on.
const ChannelName = "doh_api_client"

// CodeInvalidArgs is reported when url or dohProvider is missing.
const CodeInvalidArgs = "INVALID_ARGS"

const msgRequired = "URL and DoH provider are required"

// Argument keys of every request method.
const (
	ArgURL      = "url"
	ArgProvider = "dohProvider"
	ArgHeaders  = "headers"
	ArgBody     = "body"
)

var methods = map[string]request.Method{
	"makeGetRequest":    request.MethodGet,
	"makePostRequest":   request.MethodPost,
	"makePutRequest":    request.MethodPut,
	"makePatchRequest":  request.MethodPatch,
	"makeDeleteRequest": request.MethodDelete,
}

// ErrorCode returns the host error code for failures of m, e.g. GET_API_ERROR.
func ErrorCode(m request.Method) string {
	return strings.ToUpper(string(m)) + "_API_ERROR"
}

// MethodCall is one call received from the host.
type MethodCall struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments"`
}

// Result reports the outcome of a MethodCall to the host. Exactly one of its
// methods is called, exactly once.
type Result interface {
	Success(result any)
	Error(code, message string, details any)
	NotImplemented()
}

// Submitter starts a request and reports its Result to fn.
type Submitter interface {
	SubmitFunc(ctx context.Context, providerID string, spec request.Spec, fn func(request.Result)) error
}

// Plugin handles method calls on ChannelName.
type Plugin struct {
	submitter Submitter
	logger    *slog.Logger
}

// New returns a Plugin issuing requests through s.
func New(s Submitter, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Plugin{submitter: s, logger: logger}
}

// HandleMethodCall serves call and reports to result. It returns before the
// request completes; result is invoked from another goroutine when it does.
func (p *Plugin) HandleMethodCall(ctx context.Context, call MethodCall, result Result) {
	m, ok := methods[call.Method]
	if !ok {
		p.logger.Debug("method not implemented", "method", call.Method)
		result.NotImplemented()
		return
	}

	// Any string is a provider id; unknown ones, "" included, fall back to
	// the default provider.
	rawURL, _ := call.Arguments[ArgURL].(string)
	providerID, hasProvider := call.Arguments[ArgProvider].(string)
	if rawURL == "" || !hasProvider {
		result.Error(CodeInvalidArgs, msgRequired, nil)
		return
	}

	spec := request.Spec{
		Method:  m,
		URL:     rawURL,
		Headers: headersArg(call.Arguments[ArgHeaders]),
	}
	if body, ok := call.Arguments[ArgBody].(string); ok {
		spec.Body = &body
	}

	code := ErrorCode(m)
	err := p.submitter.SubmitFunc(ctx, providerID, spec, func(r request.Result) {
		if r.OK() {
			result.Success(r.Body)
			return
		}
		result.Error(code, r.Err.Message, details(r.Err))
	})
	if err != nil {
		ae := apperr.As(err)
		result.Error(code, ae.Message, details(ae))
	}
}

// headersArg accepts a string map in either of the shapes a decoder produces.
// Anything else, including a map with a non-string value, yields no headers.
func headersArg(v any) map[string]string {
	switch h := v.(type) {
	case map[string]string:
		return h
	case map[string]any:
		out := make(map[string]string, len(h))
		for k, val := range h {
			s, ok := val.(string)
			if !ok {
				return nil
			}
			out[k] = s
		}
		return out
	default:
		return nil
	}
}

// details is the error payload sent to the host: the response body of a
// non-2xx answer, nil otherwise.
func details(e *apperr.Error) any {
	if e.Kind == apperr.KindHTTPStatus && e.Detail != "" {
		return e.Detail
	}
	return nil
}
