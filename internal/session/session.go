// Package session drives one chat conversation: it composes the
// outgoing request the way the client runtime does, sends it through
// the adapter-wrapped http.Client, and feeds decoded tool results to
// the bindings.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/maya/stride/internal/bindings"
	"github.com/maya/stride/internal/observability"
	"github.com/maya/stride/internal/plan"
	"github.com/maya/stride/internal/store"
	"github.com/maya/stride/internal/tools"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

const historyWindow = 20

// Session is one chat conversation against the backend.
type Session struct {
	ID       string
	Endpoint string

	Client   *http.Client
	History  *store.HistoryStore
	Registry *tools.Registry
	Binder   *bindings.Binder
	Logger   *observability.Logger

	// OnView receives presentation values produced by tool results
	// (plans, tables) as they arrive. Optional.
	OnView func(bindings.View)
}

// New creates a session and its binder together, so tool-result events
// are logged under the session's ID.
func New(endpoint string, client *http.Client, history *store.HistoryStore,
	registry *tools.Registry, planStore *plan.Store, logger *observability.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		ID:       id,
		Endpoint: endpoint,
		Client:   client,
		History:  history,
		Registry: registry,
		Binder:   bindings.NewBinder(planStore, logger, id),
		Logger:   logger,
	}
}

// Send posts one user turn and streams the reply, applying tool results
// as they arrive. It returns the assistant's final text.
func (s *Session) Send(ctx context.Context, input string) (string, error) {
	history, err := s.History.GetHistory(s.ID, historyWindow)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	body, err := json.Marshal(s.composeRequest(history, input))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	observability.SetPhase(observability.PhaseThinking)
	defer observability.SetPhase(observability.PhaseIdle)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("backend returned %s", resp.Status)
	}

	var reply strings.Builder
	var streamErr error

	err = DecodeStream(resp.Body, StreamEvents{
		OnText: func(delta string) {
			reply.WriteString(delta)
		},
		OnToolResult: func(toolName string, result any, status bindings.CallStatus) {
			observability.SetPhase(observability.PhaseExecuting)
			view := s.Binder.HandleToolResult(toolName, result, status)
			observability.SetPlanProgress(s.Binder.Store().Progress())
			if s.OnView != nil {
				s.OnView(view)
			}
		},
		OnError: func(message string) {
			streamErr = fmt.Errorf("backend error: %s", message)
		},
	})
	if err != nil {
		return "", err
	}
	if streamErr != nil {
		return "", streamErr
	}

	final := reply.String()

	if err := s.History.AddMessage(s.ID, "human", input); err != nil {
		s.Logger.LogWarning(s.ID, fmt.Sprintf("failed to persist user turn: %v", err))
	}
	if err := s.History.AddMessage(s.ID, "ai", final); err != nil {
		s.Logger.LogWarning(s.ID, fmt.Sprintf("failed to persist assistant turn: %v", err))
	}
	s.Logger.LogRequest(s.ID, json.RawMessage(body), final)

	return final, nil
}

// composeRequest builds the generic client-runtime request shape. The
// adapter rewrites it to the backend schema in flight; nothing here
// needs to know the backend's types.
func (s *Session) composeRequest(history []llms.MessageContent, input string) map[string]any {
	messages := genericMessages(history)
	messages = append(messages, map[string]any{
		"role": "user",
		"content": []any{
			map[string]any{"type": "text", "text": input},
		},
	})

	toolList := []any{}
	for _, t := range s.Registry.List() {
		toolList = append(toolList, map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"parameters":  t.Parameters(),
		})
	}

	return map[string]any{
		"messages": messages,
		"tools":    toolList,
	}
}

func genericMessages(history []llms.MessageContent) []any {
	out := []any{}
	for _, msg := range history {
		var role string
		switch msg.Role {
		case schema.ChatMessageTypeHuman:
			role = "user"
		case schema.ChatMessageTypeAI:
			role = "assistant"
		case schema.ChatMessageTypeSystem:
			role = "system"
		default:
			continue
		}

		parts := []any{}
		for _, p := range msg.Parts {
			if text, ok := p.(llms.TextContent); ok {
				parts = append(parts, map[string]any{"type": "text", "text": text.Text})
			}
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, map[string]any{"role": role, "content": parts})
	}
	return out
}
