package request

import "github.com/shalmon/dohapi/internal/apperr"

// Result is the outcome of one request: Body on success, Err on failure.
type Result struct {
	Body string
	Err  *apperr.Error
}

// Success returns a successful Result carrying body.
func Success(body string) Result { return Result{Body: body} }

// Failure returns a failed Result.
func Failure(err *apperr.Error) Result { return Result{Err: err} }

// OK reports whether r is a success.
func (r Result) OK() bool { return r.Err == nil }
