package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/maya/stride/internal/adapter"
	"github.com/maya/stride/internal/bindings"
	"github.com/maya/stride/internal/observability"
	"github.com/maya/stride/internal/plan"
	"github.com/maya/stride/internal/store"
	"github.com/maya/stride/internal/tools"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

// fakeBackend asserts it receives the rewritten backend schema and
// replies with a canned data-stream.
func fakeBackend(t *testing.T, stream string, got *adapter.ChatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, got), "backend must receive the rewritten schema")
		fmt.Fprint(w, stream)
	}))
}

func newTestSession(t *testing.T, srv *httptest.Server) *Session {
	t.Helper()

	endpoint := srv.URL + "/api/chat"
	client := srv.Client()
	restore := adapter.Install(client, adapter.Config{
		Endpoint: endpoint,
		System:   "You are a planner.",
	})
	t.Cleanup(restore.Close)

	history, err := store.NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	registry := tools.NewRegistry()
	registry.Register(tools.Declaration{
		ToolName:        "refresh_dashboard",
		ToolDescription: "Reload the dashboard view",
	})

	logger := observability.NewLogger(t.TempDir())

	return New(endpoint, client, history, registry, plan.NewStore(), logger)
}

func TestNew_BinderLogsUnderSessionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	s := newTestSession(t, srv)
	require.NotEmpty(t, s.ID)
	require.Equal(t, s.ID, s.Binder.SessionID())
}

func TestSession_SendAppliesPlanToolResults(t *testing.T) {
	stream := `b:{"toolCallId":"tc_1","toolName":"create_plan"}
a:{"toolCallId":"tc_1","result":{"plan":{"steps":[{"description":"fetch"},{"description":"report"}]}}}
b:{"toolCallId":"tc_2","toolName":"update_plan_step"}
a:{"toolCallId":"tc_2","result":{"index":"0","status":"completed"}}
0:"All done."
d:{"finishReason":"stop"}
`
	var got adapter.ChatRequest
	srv := fakeBackend(t, stream, &got)
	defer srv.Close()

	s := newTestSession(t, srv)

	var views []bindings.View
	s.OnView = func(v bindings.View) { views = append(views, v) }

	reply, err := s.Send(context.Background(), "plan my report")
	require.NoError(t, err)
	require.Equal(t, "All done.", reply)

	// The adapter rewrote the outgoing call.
	require.Equal(t, "You are a planner.", got.System)
	require.Len(t, got.Tools, 1)
	require.Equal(t, "refresh_dashboard", got.Tools[0].Name)
	require.NotNil(t, got.Tools[0].Parameters)
	require.Len(t, got.Messages, 1)
	require.Equal(t, "user", got.Messages[0].Role)

	// The plan tool results landed in the store.
	p := s.Binder.Store().Current()
	require.NotNil(t, p)
	require.Len(t, p.Steps, 2)
	require.Equal(t, plan.StatusCompleted, p.Steps[0].Status)
	require.Equal(t, plan.StatusPending, p.Steps[1].Status)

	require.NotEmpty(t, views)

	// Both turns were persisted, user before assistant, even though
	// they land within the same timestamp second.
	history, err := s.History.GetHistory(s.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, schema.ChatMessageTypeHuman, history[0].Role)
	require.Equal(t, schema.ChatMessageTypeAI, history[1].Role)
}

func TestSession_SendSurfacesStreamError(t *testing.T) {
	var got adapter.ChatRequest
	srv := fakeBackend(t, `3:"model unavailable"`, &got)
	defer srv.Close()

	s := newTestSession(t, srv)
	_, err := s.Send(context.Background(), "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "model unavailable")
}

func TestSession_SendRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	_, err := s.Send(context.Background(), "hi")
	require.Error(t, err)
}
