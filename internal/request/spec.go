package request

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shalmon/dohapi/internal/apperr"
)

// Method is one of the five supported HTTP verbs.
type Method string

// Supported methods.
const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// Methods lists the supported methods in a stable order.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

// ParseMethod maps s (case-insensitive) onto a supported Method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.valid() {
		return "", apperr.New(apperr.KindInvalidArguments, "unsupported method %q", s)
	}
	return m, nil
}

func (m Method) valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// RequiresBody reports whether requests with m must carry a payload.
func (m Method) RequiresBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

// acceptsBody reports whether a supplied body is sent. DELETE accepts an
// optional body; GET never carries one.
func (m Method) acceptsBody() bool {
	return m.RequiresBody() || m == MethodDelete
}

// Spec describes one request. Header names are case-insensitive.
type Spec struct {
	Method  Method            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    *string           `json:"body,omitempty" yaml:"body,omitempty"`
}

// Validate checks s before any network activity. Errors are *apperr.Error
// of kind KindInvalidArguments.
func (s Spec) Validate() error {
	if !s.Method.valid() {
		return apperr.New(apperr.KindInvalidArguments, "unsupported method %q", s.Method)
	}
	if s.URL == "" {
		return apperr.New(apperr.KindInvalidArguments, "url is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return apperr.New(apperr.KindInvalidArguments, "invalid url %q: %v", s.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperr.New(apperr.KindInvalidArguments, "unsupported url scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return apperr.New(apperr.KindInvalidArguments, "url %q has no host", s.URL)
	}
	if s.Method.RequiresBody() && s.Body == nil {
		return apperr.New(apperr.KindInvalidArguments, "%s requires a body", s.Method)
	}
	return nil
}

// String returns a short human-readable form, e.g. "GET https://example.com".
func (s Spec) String() string {
	return fmt.Sprintf("%s %s", s.Method, s.URL)
}
