package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"agenthub_back/httperr"
	"agenthub_back/models"
)

// capturingModelServer records every completion request it receives and
// answers with the canned reply.
type capturingModelServer struct {
	mu       sync.Mutex
	requests []completionRequest
	headers  []http.Header
	server   *httptest.Server
}

func newCapturingModelServer(t *testing.T, reply string) *capturingModelServer {
	t.Helper()
	s := &capturingModelServer{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode proxy request: %v", err)
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.headers = append(s.headers, r.Header.Clone())
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		})
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *capturingModelServer) lastRequest(t *testing.T) completionRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatal("expected the model server to receive a request")
	}
	return s.requests[len(s.requests)-1]
}

func (s *capturingModelServer) lastHeader(t *testing.T) http.Header {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		t.Fatal("expected the model server to receive a request")
	}
	return s.headers[len(s.headers)-1]
}

func (s *capturingModelServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func testClient() *ProxyClient {
	return &ProxyClient{httpClient: &http.Client{Timeout: 5 * time.Second}}
}

func activeModel(endpoint string) models.Model {
	return models.Model{
		ID:          1,
		Name:        "local-llama",
		APIEndpoint: endpoint,
		ModelName:   "llama3:8b",
		Status:      models.StatusActive,
	}
}

func TestInvokeSendsFullOrderedHistory(t *testing.T) {
	server := newCapturingModelServer(t, "hi there")
	client := testClient()

	history := []Message{
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "second question"},
	}

	reply, err := client.Invoke(context.Background(), activeModel(server.server.URL), history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "hi there" {
		t.Fatalf("expected reply %q, got %q", "hi there", reply)
	}

	req := server.lastRequest(t)
	if req.Model != "llama3:8b" {
		t.Fatalf("expected model %q, got %q", "llama3:8b", req.Model)
	}
	if len(req.Messages) != len(history) {
		t.Fatalf("expected %d messages, got %d", len(history), len(req.Messages))
	}
	for i, msg := range history {
		if req.Messages[i].Role != msg.Role || req.Messages[i].Content != msg.Content {
			t.Fatalf("message %d: expected %s/%q, got %s/%q", i, msg.Role, msg.Content, req.Messages[i].Role, req.Messages[i].Content)
		}
	}
}

func TestInvokeBearerHeaderOnlyWithKey(t *testing.T) {
	server := newCapturingModelServer(t, "ok")
	client := testClient()
	history := []Message{{Role: RoleUser, Content: "hello"}}

	model := activeModel(server.server.URL)
	if _, err := client.Invoke(context.Background(), model, history); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := server.lastHeader(t).Get("Authorization"); got != "" {
		t.Fatalf("expected no Authorization header, got %q", got)
	}

	key := "sk-test-key"
	model.APIKey = &key
	if _, err := client.Invoke(context.Background(), model, history); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := server.lastHeader(t).Get("Authorization"); got != "Bearer sk-test-key" {
		t.Fatalf("expected bearer header, got %q", got)
	}
}

func TestInvokeInactiveModelSkipsNetwork(t *testing.T) {
	server := newCapturingModelServer(t, "never")
	client := testClient()

	model := activeModel(server.server.URL)
	model.Status = models.StatusInactive

	_, err := client.Invoke(context.Background(), model, []Message{{Role: RoleUser, Content: "hello"}})
	if err == nil {
		t.Fatal("expected an error for an inactive model")
	}
	if httperr.CodeOf(err) != httperr.CodeModelInactive {
		t.Fatalf("expected model-inactive error, got %v", err)
	}
	if server.requestCount() != 0 {
		t.Fatalf("expected no outbound call, got %d", server.requestCount())
	}
}

func TestInvokeUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient()
	_, err := client.Invoke(context.Background(), activeModel(server.URL), []Message{{Role: RoleUser, Content: "hello"}})
	if err == nil {
		t.Fatal("expected an error for a 500 upstream")
	}
	if httperr.CodeOf(err) != httperr.CodeProxy {
		t.Fatalf("expected proxy error, got %v", err)
	}
}

func TestInvokeMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"empty choices": `{"choices":[]}`,
		"wrong shape":   `{"result":"nope"}`,
		"not json":      `not json at all`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			client := testClient()
			_, err := client.Invoke(context.Background(), activeModel(server.URL), []Message{{Role: RoleUser, Content: "hello"}})
			if err == nil {
				t.Fatal("expected an error for a malformed response")
			}
			if httperr.CodeOf(err) != httperr.CodeProxy {
				t.Fatalf("expected proxy error, got %v", err)
			}
		})
	}
}
