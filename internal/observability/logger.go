package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeToolResult EventType = "tool_result"
	EventTypePlan       EventType = "plan"
	EventTypeStep       EventType = "step"
	EventTypeTable      EventType = "table"
	EventTypeRequest    EventType = "request"
	EventTypeWarning    EventType = "warning"
	EventTypeHeartbeat  EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging.
type Logger struct {
	requestLogPath string
	maxSize        int64
}

func NewLogger(dir string) *Logger {
	if dir == "" {
		dir = "logs"
	}
	return &Logger{
		requestLogPath: filepath.Join(dir, "requests.jsonl"),
		maxSize:        10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event to stdout.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	if evt.Type == EventTypeRequest {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.requestLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.requestLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.requestLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.requestLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.requestLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogToolResult(sessionID, tool, status string) {
	l.Log(Event{
		Type:      EventTypeToolResult,
		SessionID: sessionID,
		Data: map[string]string{
			"tool":   tool,
			"status": status,
		},
	})
}

func (l *Logger) LogPlan(sessionID string, steps int) {
	l.Log(Event{
		Type:      EventTypePlan,
		SessionID: sessionID,
		Data:      map[string]any{"steps": steps},
	})
}

func (l *Logger) LogStep(sessionID string, index int) {
	l.Log(Event{
		Type:      EventTypeStep,
		SessionID: sessionID,
		Data:      map[string]any{"index": index},
	})
}

func (l *Logger) LogTable(sessionID, tool string, rows int) {
	l.Log(Event{
		Type:      EventTypeTable,
		SessionID: sessionID,
		Data: map[string]any{
			"tool": tool,
			"rows": rows,
		},
	})
}

func (l *Logger) LogWarning(sessionID, message string) {
	l.Log(Event{
		Type:      EventTypeWarning,
		SessionID: sessionID,
		Data:      map[string]string{"message": message},
	})
}

func (l *Logger) LogRequest(sessionID string, request any, response string) {
	l.Log(Event{
		Type:      EventTypeRequest,
		SessionID: sessionID,
		Data: map[string]any{
			"request":  request,
			"response": response,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}
