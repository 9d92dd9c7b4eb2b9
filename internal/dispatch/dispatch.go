// Package dispatch is the entry point for issuing requests by provider id:
// it validates the request, picks the provider's resolving client and hands
// the request to the executor.
package dispatch

import (
	"context"
	"io"
	"log/slog"

	"github.com/shalmon/dohapi/internal/apperr"
	"github.com/shalmon/dohapi/internal/httpclient"
	"github.com/shalmon/dohapi/internal/request"
)

// Dispatcher issues requests through per-provider resolving clients.
// It is safe for concurrent use.
type Dispatcher struct {
	factory *httpclient.Factory
	logger  *slog.Logger
}

// New returns a Dispatcher drawing clients from factory.
func New(factory *httpclient.Factory, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{factory: factory, logger: logger}
}

// Submit starts spec through the client for providerID (unknown ids fall back
// to the default provider) and returns its Future.
//
// Invalid arguments and an already-finished ctx are reported as an error and
// nothing is started. Once a Future is returned, every outcome, including
// later cancellation, arrives through it.
func (d *Dispatcher) Submit(ctx context.Context, providerID string, spec request.Spec) (*request.Future, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindCancelled, err)
	}
	c, err := d.factory.Get(providerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidArguments, err)
	}

	logger := d.logger.With("provider", c.Provider().ID, "method", spec.Method, "url", spec.URL)
	logger.Debug("dispatching request")
	f := request.Execute(ctx, c.HTTP(), spec)
	f.Then(func(r request.Result) {
		if r.OK() {
			logger.Debug("request succeeded", "bytes", len(r.Body))
			return
		}
		logger.Debug("request failed", "kind", r.Err.Kind, "error", r.Err)
	})
	return f, nil
}

// SubmitFunc is Submit with fn invoked exactly once with the Result. When an
// error is returned fn is never called.
func (d *Dispatcher) SubmitFunc(ctx context.Context, providerID string, spec request.Spec, fn func(request.Result)) error {
	f, err := d.Submit(ctx, providerID, spec)
	if err != nil {
		return err
	}
	f.Then(fn)
	return nil
}

// Close releases every client the dispatcher has used.
func (d *Dispatcher) Close() {
	d.factory.Close()
}
