package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// CodeBadMessage is reported for input lines that are not a valid call.
const CodeBadMessage = "BAD_MESSAGE"

// maxLineSize bounds one input line.
const maxLineSize = 4 << 20

type inbound struct {
	ID json.RawMessage `json:"id"`
	MethodCall
}

type outbound struct {
	ID             json.RawMessage `json:"id"`
	Result         any             `json:"result,omitempty"`
	Error          *wireError      `json:"error,omitempty"`
	NotImplemented bool            `json:"notImplemented,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// Serve reads one JSON call per line from r and writes one JSON reply per line
// to w. Calls run concurrently, so replies may be out of order; each carries
// the id of its call. Serve returns after r is exhausted and every call has
// been answered.
func Serve(ctx context.Context, r io.Reader, w io.Writer, p *Plugin) error {
	out := &lineWriter{enc: json.NewEncoder(w)}
	var wg sync.WaitGroup
	defer wg.Wait()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var in inbound
		if err := json.Unmarshal(line, &in); err != nil {
			if werr := out.write(outbound{
				ID:    json.RawMessage("null"),
				Error: &wireError{Code: CodeBadMessage, Message: fmt.Sprintf("invalid message: %v", err)},
			}); werr != nil {
				return werr
			}
			continue
		}
		if len(in.ID) == 0 {
			in.ID = json.RawMessage("null")
		}

		wg.Add(1)
		p.HandleMethodCall(ctx, in.MethodCall, &lineResult{id: in.ID, out: out, done: wg.Done})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading calls: %w", err)
	}
	return nil
}

type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (lw *lineWriter) write(msg outbound) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.enc.Encode(msg)
}

// lineResult is the Result of one call read by Serve.
type lineResult struct {
	id   json.RawMessage
	out  *lineWriter
	once sync.Once
	done func()
}

func (lr *lineResult) send(msg outbound) {
	lr.once.Do(func() {
		defer lr.done()
		msg.ID = lr.id
		_ = lr.out.write(msg)
	})
}

func (lr *lineResult) Success(result any) {
	lr.send(outbound{Result: result})
}

func (lr *lineResult) Error(code, message string, details any) {
	lr.send(outbound{Error: &wireError{Code: code, Message: message, Details: details}})
}

func (lr *lineResult) NotImplemented() {
	lr.send(outbound{NotImplemented: true})
}
