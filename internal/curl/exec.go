package curl

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxReplayBodyBytes caps how much of a replayed response body is returned.
const maxReplayBodyBytes = 1 * 1024 * 1024

// ExecutionResult is the outcome of replaying a command. Success reflects
// transport-level completion only: a 4xx or 5xx response is still a
// successful execution with the real status surfaced. StatusCode 0 with a
// non-empty Error means the exchange never completed.
type ExecutionResult struct {
	Success       bool              `json:"success"`
	StatusCode    int               `json:"status_code"`
	Headers       map[string]string `json:"headers"`
	Body          string            `json:"body"`
	ExecutionTime int64             `json:"execution_time"`
	Error         string            `json:"error,omitempty"`
}

// Execute parses a command string and performs the request. All failure
// modes are reported inside the result, never as a Go error: testing
// arbitrary endpoints is expected to fail sometimes.
func Execute(ctx context.Context, command string, timeout time.Duration) ExecutionResult {
	start := time.Now()
	fail := func(msg string) ExecutionResult {
		return ExecutionResult{
			Headers:       map[string]string{},
			ExecutionTime: time.Since(start).Milliseconds(),
			Error:         msg,
		}
	}

	req, err := ParseCommand(command)
	if err != nil {
		return fail("invalid curl command: " + err.Error())
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return fail("could not build request: " + err.Error())
	}
	for _, h := range req.Headers {
		httpReq.Header.Set(h.Name, h.Value)
	}

	slog.Info("executing replay", "method", req.Method, "url", req.URL)

	// A fresh client per call: replays are independent and must not share
	// connection pool state across invocations.
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fail("request failed: " + err.Error())
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxReplayBodyBytes))

	headers := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		headers[name] = resp.Header.Get(name)
	}

	result := ExecutionResult{
		Success:       true,
		StatusCode:    resp.StatusCode,
		Headers:       headers,
		Body:          string(body),
		ExecutionTime: time.Since(start).Milliseconds(),
	}
	if readErr != nil {
		result.Error = "response body truncated: " + readErr.Error()
	}
	return result
}
