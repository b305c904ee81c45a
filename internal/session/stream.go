package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/maya/stride/internal/bindings"
)

// Data-stream part prefixes. The backend replies with one part per
// line, "<prefix>:<json>".
const (
	partText          = "0" // text delta (JSON string)
	partError         = "3" // error message (JSON string)
	partToolCall      = "9" // complete tool call {toolCallId, toolName, args}
	partToolResult    = "a" // tool result {toolCallId, result}
	partToolCallStart = "b" // streaming call start {toolCallId, toolName}
	partToolCallDelta = "c" // streaming args delta {toolCallId, argsTextDelta}
	partFinish        = "d" // finish message
)

// StreamEvents receives decoded stream parts. Nil callbacks are
// skipped.
type StreamEvents struct {
	OnText       func(delta string)
	OnToolResult func(toolName string, result any, status bindings.CallStatus)
	OnError      func(message string)
}

type toolCallPart struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	Args       any    `json:"args"`
}

type toolResultPart struct {
	ToolCallID string `json:"toolCallId"`
	Result     any    `json:"result"`
}

// DecodeStream reads a data-stream response line by line and dispatches
// parts. Tool calls are reported to the binding twice: once with no
// result while the call is running, and once with the result when it
// completes. Unknown prefixes are skipped, matching the tolerant
// posture of the rest of the boundary.
func DecodeStream(r io.Reader, ev StreamEvents) error {
	// toolCallId -> toolName, so results can be attributed.
	names := map[string]string{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		prefix, payload, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		switch prefix {
		case partText:
			var delta string
			if err := json.Unmarshal([]byte(payload), &delta); err != nil {
				continue
			}
			if ev.OnText != nil {
				ev.OnText(delta)
			}

		case partError:
			var msg string
			if err := json.Unmarshal([]byte(payload), &msg); err != nil {
				msg = payload
			}
			if ev.OnError != nil {
				ev.OnError(msg)
			}

		case partToolCall, partToolCallStart:
			var call toolCallPart
			if err := json.Unmarshal([]byte(payload), &call); err != nil || call.ToolName == "" {
				continue
			}
			names[call.ToolCallID] = call.ToolName
			if ev.OnToolResult != nil {
				ev.OnToolResult(call.ToolName, nil, bindings.CallRunning)
			}

		case partToolResult:
			var res toolResultPart
			if err := json.Unmarshal([]byte(payload), &res); err != nil {
				continue
			}
			name := names[res.ToolCallID]
			if name == "" {
				continue
			}
			if ev.OnToolResult != nil {
				ev.OnToolResult(name, res.Result, bindings.CallComplete)
			}

		case partToolCallDelta, partFinish:
			// args streaming and finish metadata carry nothing the
			// bindings consume
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read response stream: %w", err)
	}
	return nil
}
