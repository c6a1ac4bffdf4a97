package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// CompletionStub is an in-process HTTP server speaking just enough of
// the OpenAI Responses API for completion-service tests. Every request
// is answered with a single assistant message carrying the canned
// reply, and request bodies are recorded for prompt assertions.
//
// Example:
//
//	stub := testutil.NewCompletionStub(t, "Levels are falling.")
//	svc := compose.NewOpenAI("gpt-test", 0, 256, compose.WithBaseURL(stub.URL()))
type CompletionStub struct {
	srv   *httptest.Server
	reply string

	mu        sync.Mutex
	bodies    []string
	errStatus int
	errMsg    string
}

// NewCompletionStub starts a stub server that returns reply as the
// assistant output text. The server is closed when the test finishes.
func NewCompletionStub(t *testing.T, reply string) *CompletionStub {
	t.Helper()

	s := &CompletionStub{reply: reply}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the stub's base URL, suitable for a client base-URL option.
func (s *CompletionStub) URL() string { return s.srv.URL }

// Calls reports how many requests the stub has served.
func (s *CompletionStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

// LastBody returns the raw JSON body of the most recent request, or the
// empty string when nothing has been served yet.
func (s *CompletionStub) LastBody() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bodies) == 0 {
		return ""
	}
	return s.bodies[len(s.bodies)-1]
}

// RespondError makes every subsequent request fail with the given HTTP
// status and API error message instead of the canned reply.
func (s *CompletionStub) RespondError(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errStatus = status
	s.errMsg = message
}

func (s *CompletionStub) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.bodies = append(s.bodies, string(body))
	status, msg := s.errStatus, s.errMsg
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": msg,
				"type":    "invalid_request_error",
			},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(responsesBody(s.reply))
}

// responsesBody builds the minimal Responses API payload a client needs
// to surface reply via the response's output text.
func responsesBody(reply string) map[string]any {
	return map[string]any{
		"id":         "resp_test",
		"object":     "response",
		"created_at": 1700000000,
		"status":     "completed",
		"model":      "gpt-test",
		"output": []map[string]any{{
			"type":   "message",
			"id":     "msg_test",
			"status": "completed",
			"role":   "assistant",
			"content": []map[string]any{{
				"type":        "output_text",
				"text":        reply,
				"annotations": []any{},
			}},
		}},
	}
}
