// Package adapter rewrites outgoing chat requests at the HTTP transport
// boundary. The client runtime composes requests in a generic shape;
// the backend expects its own schema. The adapter intercepts matching
// write calls on an http.Client and rewrites the body in flight, so
// neither side needs to know about the other.
package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Config is the adapter's configuration surface: the endpoint whose
// requests get rewritten, extra headers, and an optional fixed system
// text that overrides whatever system message the request carries.
// Immutable for the lifetime of one installation.
type Config struct {
	Endpoint string
	Headers  map[string]string
	System   string
}

// ChatRequest is the backend's wire schema for a chat call.
type ChatRequest struct {
	System   string    `json:"system"`
	Tools    []Tool    `json:"tools"`
	Messages []Message `json:"messages"`
}

// Tool is one entry of the backend's canonical tool sequence.
// Parameters is always an object, never null.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// Message is one backend chat message. Content parts the adapter does
// not understand are forwarded as opaque values, never dropped.
type Message struct {
	Role    string `json:"role"`
	Content []any  `json:"content"`
}

// Restore is the release handle returned by Install. Close puts back
// exactly the transport captured at install time, so stacked
// installations unwind in order and a later wrapper is never removed
// by an earlier handle. Close is idempotent.
type Restore struct {
	client *http.Client
	prev   http.RoundTripper
	once   sync.Once
}

func (r *Restore) Close() {
	r.once.Do(func() {
		r.client.Transport = r.prev
	})
}

// Install wraps the client's transport with the rewriting transport and
// returns the release handle. Install/Close must be paired per
// lifecycle: install on session start, close on teardown.
func Install(client *http.Client, cfg Config) *Restore {
	prev := client.Transport
	base := prev
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = &transport{cfg: cfg, target: parseEndpoint(cfg.Endpoint), base: base}
	return &Restore{client: client, prev: prev}
}

type transport struct {
	cfg    Config
	target *url.URL
	base   http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.matches(req) {
		return t.base.RoundTrip(req)
	}

	original, err := readBody(req)
	if err != nil {
		return nil, err
	}

	body := original
	rewritten := false
	if transformed, err := Transform(original, t.cfg.System); err == nil {
		body = transformed
		rewritten = true
	} else {
		// Fail open: the call still goes out with the original body.
		log.Printf("Warning: request transform failed, forwarding original body: %v", err)
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.ContentLength = int64(len(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	// Configured headers fill in gaps only: the original call wins on
	// key collision.
	for k, v := range t.cfg.Headers {
		if out.Header.Get(k) == "" {
			out.Header.Set(k, v)
		}
	}
	if rewritten {
		out.Header.Set("Content-Type", "application/json")
	}

	return t.base.RoundTrip(out)
}

// matches reports whether the request is a write to the configured
// endpoint. A path-only endpoint matches any host.
func (t *transport) matches(req *http.Request) bool {
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	if t.target == nil {
		return false
	}
	if t.target.Host != "" {
		return req.URL.Scheme == t.target.Scheme &&
			req.URL.Host == t.target.Host &&
			req.URL.Path == t.target.Path
	}
	return req.URL.Path == t.target.Path
}

func parseEndpoint(endpoint string) *url.URL {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil
	}
	return u
}

func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}

// Transform rewrites a generic chat request body into the backend
// schema. Callers treat any returned error as "forward the original
// body unchanged".
func Transform(body []byte, systemOverride string) ([]byte, error) {
	var generic map[string]any
	if err := json.Unmarshal(body, &generic); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}

	messages, _ := generic["messages"].([]any)

	out := ChatRequest{
		System:   systemText(messages, systemOverride),
		Tools:    canonicalTools(generic["tools"]),
		Messages: conversationMessages(messages),
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode backend request: %w", err)
	}
	return encoded, nil
}

// systemText resolves the outgoing system prompt: the configured
// override wins; otherwise the concatenated text parts of the LAST
// system-role message; otherwise empty.
func systemText(messages []any, override string) string {
	if override != "" {
		return override
	}

	var system string
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok || msg["role"] != "system" {
			continue
		}
		system = concatTextParts(msg["content"])
	}
	return system
}

func concatTextParts(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var b strings.Builder
		for _, p := range c {
			part, ok := p.(map[string]any)
			if !ok || part["type"] != "text" {
				continue
			}
			if text, ok := part["text"].(string); ok {
				b.WriteString(text)
			}
		}
		return b.String()
	default:
		return ""
	}
}

// conversationMessages keeps user and assistant turns only. Content
// parts are forwarded verbatim whatever their type: the adapter must
// not corrupt part kinds it does not understand.
func conversationMessages(messages []any) []Message {
	out := []Message{}
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		role, _ := msg["role"].(string)
		if role != "user" && role != "assistant" {
			continue
		}

		var parts []any
		switch c := msg["content"].(type) {
		case []any:
			parts = append([]any{}, c...)
		case string:
			parts = []any{map[string]any{"type": "text", "text": c}}
		default:
			parts = []any{}
		}

		out = append(out, Message{Role: role, Content: parts})
	}
	return out
}

// canonicalTools flattens the two external tool-list shapes — ordered
// sequence or keyed mapping — into the backend's canonical sequence.
// Neither shape propagates past this function.
func canonicalTools(v any) []Tool {
	out := []Tool{}

	switch tools := v.(type) {
	case []any:
		for _, entry := range tools {
			switch e := entry.(type) {
			case string:
				out = append(out, Tool{Name: e, Parameters: map[string]any{}})
			case map[string]any:
				name, _ := e["name"].(string)
				if name == "" {
					continue
				}
				out = append(out, toolFromRecord(name, e))
			}
		}
	case map[string]any:
		names := make([]string, 0, len(tools))
		for name := range tools {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rec, _ := tools[name].(map[string]any)
			out = append(out, toolFromRecord(name, rec))
		}
	}

	return out
}

func toolFromRecord(name string, rec map[string]any) Tool {
	t := Tool{Name: name, Parameters: map[string]any{}}
	if rec == nil {
		return t
	}
	if desc, ok := rec["description"].(string); ok {
		t.Description = desc
	}
	if params, ok := rec["parameters"].(map[string]any); ok {
		t.Parameters = params
	}
	return t
}
