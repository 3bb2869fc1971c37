package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"agenthub_back/httperr"
	"agenthub_back/models"
)

const defaultProxyTimeout = 60 * time.Second

// ProxyClient forwards assembled conversation history to a model's
// OpenAI-compatible chat completions endpoint. One synchronous POST per
// turn; no retries, no streaming.
type ProxyClient struct {
	httpClient *http.Client
}

// NewProxyClientFromEnv constructs a ProxyClient. The transport timeout
// defaults to 60s and can be overridden via CHAT_PROXY_TIMEOUT_SECONDS.
func NewProxyClientFromEnv() *ProxyClient {
	timeout := defaultProxyTimeout
	if raw := strings.TrimSpace(os.Getenv("CHAT_PROXY_TIMEOUT_SECONDS")); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			timeout = time.Duration(seconds) * time.Second
		}
	}
	return &ProxyClient{httpClient: &http.Client{Timeout: timeout}}
}

// completionMessage matches the wire shape of one history turn.
type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest is the body posted to the model endpoint.
type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

// completionResponse captures the subset of fields we consume.
type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

// Invoke relays the ordered history to the model endpoint and returns the
// assistant reply. The history is sent verbatim: full, in order, with no
// system-prompt injection and no windowing.
func (c *ProxyClient) Invoke(ctx context.Context, model models.Model, history []Message) (string, error) {
	if model.Status != models.StatusActive {
		return "", httperr.ModelInactive("model %q is inactive", model.Name)
	}

	payload := completionRequest{
		Model:    model.ModelName,
		Messages: make([]completionMessage, 0, len(history)),
	}
	for _, msg := range history {
		payload.Messages = append(payload.Messages, completionMessage{Role: msg.Role, Content: msg.Content})
	}

	body := &bytes.Buffer{}
	if err := json.NewEncoder(body).Encode(payload); err != nil {
		return "", httperr.Proxy("model API error", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, model.APIEndpoint, body)
	if err != nil {
		return "", httperr.Proxy("model API error", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if model.APIKey != nil && *model.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+*model.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", httperr.Proxy("model API error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", httperr.Proxy("model API error", &statusError{status: resp.Status, body: strings.TrimSpace(string(snippet))})
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", httperr.Proxy("model API returned malformed response", err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", httperr.Proxy("model API returned malformed response", errMissingChoice)
	}

	return decoded.Choices[0].Message.Content, nil
}

var errMissingChoice = &statusError{body: "response contains no choices[0].message.content"}

// statusError preserves the upstream status line and body snippet.
type statusError struct {
	status string
	body   string
}

func (e *statusError) Error() string {
	if e.status == "" {
		return e.body
	}
	if e.body == "" {
		return "unexpected status " + e.status
	}
	return "unexpected status " + e.status + ": " + e.body
}
