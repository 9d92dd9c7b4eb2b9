package request

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"unicode/utf8"

	"github.com/imroc/req/v3"

	"github.com/shalmon/dohapi/internal/apperr"
)

const defaultContentType = "application/json"

// Execute starts spec on client and returns a Future for its Result.
func Execute(ctx context.Context, client *req.Client, spec Spec) *Future {
	f := newFuture()
	go func() {
		f.complete(Do(ctx, client, spec))
	}()
	return f
}

// Do runs spec on client and waits for the Result.
func Do(ctx context.Context, client *req.Client, spec Spec) Result {
	if err := spec.Validate(); err != nil {
		return Failure(apperr.As(err))
	}

	r := client.R().SetContext(ctx)
	// Sorted so that names differing only in case resolve the same way on
	// every call.
	for _, k := range slices.Sorted(maps.Keys(spec.Headers)) {
		r.SetHeader(k, spec.Headers[k])
	}
	if spec.Body != nil && spec.Method.acceptsBody() {
		r.SetBodyString(*spec.Body)
		if r.Headers.Get("Content-Type") == "" {
			r.SetContentType(defaultContentType)
		}
	}

	resp, err := r.Send(string(spec.Method), spec.URL)
	if err != nil {
		return Failure(transportError(err))
	}
	body, err := resp.ToBytes()
	if err != nil {
		return Failure(transportError(fmt.Errorf("reading response body: %w", err)))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failure(statusError(resp.StatusCode, body))
	}
	if !utf8.Valid(body) {
		return Failure(apperr.New(apperr.KindDecode, "response body is not valid UTF-8"))
	}
	return Success(string(body))
}

func transportError(err error) *apperr.Error {
	if errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.KindCancelled, err)
	}
	return apperr.Wrap(apperr.KindNetwork, err)
}

func statusError(code int, body []byte) *apperr.Error {
	msg := fmt.Sprintf("HTTP %d", code)
	if text := http.StatusText(code); text != "" {
		msg += " " + text
	}
	e := apperr.New(apperr.KindHTTPStatus, "%s", msg)
	e.StatusCode = code
	e.Detail = string(body)
	return e
}
