package bridge_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shalmon/dohapi/internal/apperr"
	"github.com/shalmon/dohapi/internal/bridge"
	"github.com/shalmon/dohapi/internal/dispatch"
	"github.com/shalmon/dohapi/internal/httpclient"
	"github.com/shalmon/dohapi/internal/provider"
	"github.com/shalmon/dohapi/internal/request"
	"github.com/shalmon/dohapi/internal/testutil"
)

// fakeSubmitter records submissions and answers with a canned Result.
type fakeSubmitter struct {
	mu       sync.Mutex
	calls    []submission
	result   request.Result
	rejectBy error
}

type submission struct {
	providerID string
	spec       request.Spec
}

func (f *fakeSubmitter) SubmitFunc(_ context.Context, providerID string, spec request.Spec, fn func(request.Result)) error {
	f.mu.Lock()
	f.calls = append(f.calls, submission{providerID, spec})
	f.mu.Unlock()
	if f.rejectBy != nil {
		return f.rejectBy
	}
	go fn(f.result)
	return nil
}

// recorder is a bridge.Result capturing every invocation.
type recorder struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}

	success        any
	code, message  string
	details        any
	notImplemented bool
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 8)} }

func (r *recorder) record(fn func()) {
	r.mu.Lock()
	r.calls++
	fn()
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) Success(v any) { r.record(func() { r.success = v }) }

func (r *recorder) Error(code, message string, details any) {
	r.record(func() { r.code, r.message, r.details = code, message, details })
}

func (r *recorder) NotImplemented() { r.record(func() { r.notImplemented = true }) }

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("result never reported")
	}
	time.Sleep(10 * time.Millisecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, 1, r.calls, "result must be reported exactly once")
}

func call(method string, args map[string]any) bridge.MethodCall {
	return bridge.MethodCall{Method: method, Arguments: args}
}

func TestHandleMethodCall_MapsVerbs(t *testing.T) {
	tests := []struct {
		method string
		want   request.Method
	}{
		{"makeGetRequest", request.MethodGet},
		{"makePostRequest", request.MethodPost},
		{"makePutRequest", request.MethodPut},
		{"makePatchRequest", request.MethodPatch},
		{"makeDeleteRequest", request.MethodDelete},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			sub := &fakeSubmitter{result: request.Success(`{"ok":true}`)}
			rec := newRecorder()
			bridge.New(sub, nil).HandleMethodCall(context.Background(), call(tt.method, map[string]any{
				"url":         "https://api.example.com",
				"dohProvider": "Quad9",
				"headers":     map[string]any{"Authorization": "Bearer x"},
				"body":        `{"a":1}`,
			}), rec)
			rec.wait(t)

			assert.Equal(t, `{"ok":true}`, rec.success)
			require.Len(t, sub.calls, 1)
			got := sub.calls[0]
			assert.Equal(t, "Quad9", got.providerID)
			assert.Equal(t, tt.want, got.spec.Method)
			assert.Equal(t, "https://api.example.com", got.spec.URL)
			assert.Equal(t, map[string]string{"Authorization": "Bearer x"}, got.spec.Headers)
			require.NotNil(t, got.spec.Body)
			assert.Equal(t, `{"a":1}`, *got.spec.Body)
		})
	}
}

func TestHandleMethodCall_MissingArguments(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"nil arguments", nil},
		{"missing url", map[string]any{"dohProvider": "Google"}},
		{"missing provider", map[string]any{"url": "https://example.com"}},
		{"empty url", map[string]any{"url": "", "dohProvider": "Google"}},
		{"url not a string", map[string]any{"url": 42, "dohProvider": "Google"}},
		{"provider not a string", map[string]any{"url": "https://example.com", "dohProvider": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &fakeSubmitter{}
			rec := newRecorder()
			bridge.New(sub, nil).HandleMethodCall(context.Background(), call("makeGetRequest", tt.args), rec)
			rec.wait(t)

			assert.Equal(t, bridge.CodeInvalidArgs, rec.code)
			assert.Equal(t, "URL and DoH provider are required", rec.message)
			assert.Nil(t, rec.details)
			assert.Empty(t, sub.calls, "core must not be reached")
		})
	}
}

func TestHandleMethodCall_EmptyProviderIsForwarded(t *testing.T) {
	sub := &fakeSubmitter{result: request.Success("ok")}
	rec := newRecorder()
	bridge.New(sub, nil).HandleMethodCall(context.Background(), call("makeGetRequest", map[string]any{
		"url": "https://example.com", "dohProvider": "",
	}), rec)
	rec.wait(t)

	assert.Equal(t, "ok", rec.success)
	assert.Empty(t, rec.code)
	require.Len(t, sub.calls, 1)
	assert.Equal(t, "", sub.calls[0].providerID)
}

func TestHandleMethodCall_UnknownMethod(t *testing.T) {
	sub := &fakeSubmitter{}
	rec := newRecorder()
	bridge.New(sub, nil).HandleMethodCall(context.Background(), call("makeHeadRequest", map[string]any{
		"url": "https://example.com", "dohProvider": "Google",
	}), rec)
	rec.wait(t)
	assert.True(t, rec.notImplemented)
	assert.Empty(t, sub.calls)
}

func TestHandleMethodCall_FailureCodes(t *testing.T) {
	httpErr := apperr.New(apperr.KindHTTPStatus, "HTTP 404 Not Found")
	httpErr.StatusCode = http.StatusNotFound
	httpErr.Detail = `{"error":"missing"}`

	tests := []struct {
		method      string
		failure     *apperr.Error
		wantCode    string
		wantDetails any
	}{
		{"makeGetRequest", httpErr, "GET_API_ERROR", `{"error":"missing"}`},
		{"makePostRequest", apperr.New(apperr.KindNetwork, "dial failed"), "POST_API_ERROR", nil},
		{"makePutRequest", apperr.New(apperr.KindDecode, "not utf-8"), "PUT_API_ERROR", nil},
		{"makePatchRequest", apperr.New(apperr.KindCancelled, "context canceled"), "PATCH_API_ERROR", nil},
		{"makeDeleteRequest", apperr.New(apperr.KindHTTPStatus, "HTTP 500 Internal Server Error"), "DELETE_API_ERROR", nil},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			sub := &fakeSubmitter{result: request.Failure(tt.failure)}
			rec := newRecorder()
			bridge.New(sub, nil).HandleMethodCall(context.Background(), call(tt.method, map[string]any{
				"url": "https://example.com", "dohProvider": "Google", "body": "{}",
			}), rec)
			rec.wait(t)

			assert.Equal(t, tt.wantCode, rec.code)
			assert.Equal(t, tt.failure.Message, rec.message)
			assert.Equal(t, tt.wantDetails, rec.details)
		})
	}
}

func TestHandleMethodCall_SubmitRejected(t *testing.T) {
	sub := &fakeSubmitter{rejectBy: apperr.New(apperr.KindInvalidArguments, "POST requires a body")}
	rec := newRecorder()
	bridge.New(sub, nil).HandleMethodCall(context.Background(), call("makePostRequest", map[string]any{
		"url": "https://example.com", "dohProvider": "Google",
	}), rec)
	rec.wait(t)

	assert.Equal(t, "POST_API_ERROR", rec.code)
	assert.Equal(t, "POST requires a body", rec.message)
	require.Len(t, sub.calls, 1)
	assert.Nil(t, sub.calls[0].spec.Body)
}

func TestHandleMethodCall_IllTypedOptionalArguments(t *testing.T) {
	sub := &fakeSubmitter{result: request.Success("")}
	rec := newRecorder()
	bridge.New(sub, nil).HandleMethodCall(context.Background(), call("makeGetRequest", map[string]any{
		"url":         "https://example.com",
		"dohProvider": "Google",
		"headers":     map[string]any{"X-Count": 3},
		"body":        12,
	}), rec)
	rec.wait(t)

	require.Len(t, sub.calls, 1)
	assert.Empty(t, sub.calls[0].spec.Headers)
	assert.Nil(t, sub.calls[0].spec.Body)
}

func TestErrorCode(t *testing.T) {
	for _, m := range request.Methods {
		assert.Equal(t, string(m)+"_API_ERROR", bridge.ErrorCode(m))
	}
}

func TestHandleMethodCall_EndToEnd(t *testing.T) {
	dohSrv := testutil.NewDoHServer(t, map[string][]string{"api.invalid": {"127.0.0.1"}})
	p := dohSrv.Start(t, provider.FormatWire)
	app := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("found"))
	}))
	t.Cleanup(app.Close)

	catalog := func(string) provider.Config { return p }
	d := dispatch.New(httpclient.NewFactory(httpclient.Options{Catalog: catalog}), testutil.NopLogger())
	t.Cleanup(d.Close)
	plugin := bridge.New(d, testutil.NopLogger())
	base := testutil.HostURL(t, app, "api.invalid")

	rec := newRecorder()
	plugin.HandleMethodCall(context.Background(), call("makeGetRequest", map[string]any{
		"url": base + "/ok", "dohProvider": "Local",
	}), rec)
	rec.wait(t)
	assert.Equal(t, "found", rec.success)

	rec = newRecorder()
	plugin.HandleMethodCall(context.Background(), call("makeGetRequest", map[string]any{
		"url": base + "/missing", "dohProvider": "Local",
	}), rec)
	rec.wait(t)
	assert.Equal(t, "GET_API_ERROR", rec.code)
	assert.Equal(t, "HTTP 404 Not Found", rec.message)
	assert.Equal(t, "nope\n", rec.details)
}
