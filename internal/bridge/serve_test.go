package bridge_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shalmon/dohapi/internal/apperr"
	"github.com/shalmon/dohapi/internal/bridge"
	"github.com/shalmon/dohapi/internal/request"
)

type reply struct {
	ID     any             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
	NotImplemented bool `json:"notImplemented"`
}

func serve(t *testing.T, sub bridge.Submitter, input string) map[string]reply {
	t.Helper()
	var out bytes.Buffer
	err := bridge.Serve(context.Background(), strings.NewReader(input), &out, bridge.New(sub, nil))
	require.NoError(t, err)

	replies := make(map[string]reply)
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var r reply
		require.NoError(t, json.Unmarshal([]byte(line), &r), line)
		key, _ := json.Marshal(r.ID)
		replies[string(key)] = r
	}
	return replies
}

func TestServe_Success(t *testing.T) {
	sub := &fakeSubmitter{result: request.Success("hello")}
	replies := serve(t, sub, `{"id":1,"method":"makeGetRequest","arguments":{"url":"https://example.com","dohProvider":"Google"}}`+"\n")

	require.Len(t, replies, 1)
	r := replies["1"]
	assert.JSONEq(t, `"hello"`, string(r.Result))
	assert.Nil(t, r.Error)
}

func TestServe_MixedCalls(t *testing.T) {
	sub := &fakeSubmitter{result: request.Failure(apperr.New(apperr.KindNetwork, "dial failed"))}
	input := strings.Join([]string{
		`{"id":"a","method":"makePostRequest","arguments":{"url":"https://example.com","dohProvider":"Google","body":"{}"}}`,
		``,
		`{"id":"b","method":"makeGetRequest","arguments":{"dohProvider":"Google"}}`,
		`{"id":"c","method":"frobnicate","arguments":{}}`,
		`not json`,
	}, "\n")
	replies := serve(t, sub, input)

	require.Len(t, replies, 4)
	require.NotNil(t, replies[`"a"`].Error)
	assert.Equal(t, "POST_API_ERROR", replies[`"a"`].Error.Code)
	assert.Equal(t, "dial failed", replies[`"a"`].Error.Message)

	require.NotNil(t, replies[`"b"`].Error)
	assert.Equal(t, bridge.CodeInvalidArgs, replies[`"b"`].Error.Code)

	assert.True(t, replies[`"c"`].NotImplemented)

	require.NotNil(t, replies["null"].Error)
	assert.Equal(t, bridge.CodeBadMessage, replies["null"].Error.Code)
}

func TestServe_EmptyBodyIsStillAResult(t *testing.T) {
	sub := &fakeSubmitter{result: request.Success("")}
	replies := serve(t, sub, `{"id":7,"method":"makeDeleteRequest","arguments":{"url":"https://example.com/1","dohProvider":"Google"}}`)

	r := replies["7"]
	assert.Nil(t, r.Error)
	assert.JSONEq(t, `""`, string(r.Result))
}
