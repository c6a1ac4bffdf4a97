package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bhujal-ai/bhujal/internal/log"
	"github.com/bhujal-ai/bhujal/internal/pipeline"
)

const (
	// maxAskBodyBytes caps the request body before JSON decoding.
	// Questions are a sentence or two; anything larger is noise.
	maxAskBodyBytes = 16 << 10

	// maxQuestionRunes caps the question itself.
	maxQuestionRunes = 2000
)

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskHandler answers groundwater questions over HTTP.
//
// POST /api/v1/ask takes {"question": "..."} and responds with the
// full structured answer: text, intent, table, citations, and the
// service that composed it.
type AskHandler struct {
	pipe   *pipeline.Pipeline
	logger log.Logger
}

// NewAskHandler creates an ask handler backed by the given pipeline.
func NewAskHandler(pipe *pipeline.Pipeline, logger log.Logger) *AskHandler {
	return &AskHandler{pipe: pipe, logger: logger}
}

// RegisterRoutes registers ask routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/ask", h.ask)
}

func (h *AskHandler) ask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAskBodyBytes)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "body must be JSON with a question field")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "question must not be empty")
		return
	}
	if utf8.RuneCountInString(question) > maxQuestionRunes {
		writeError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("question exceeds %d characters", maxQuestionRunes))
		return
	}

	answer, err := h.pipe.Ask(r.Context(), question)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away; nothing useful to write.
			return
		}
		h.logger.Error("ask failed",
			"error", err,
			"request_id", requestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal_error", "could not answer the question")
		return
	}

	writeJSON(w, http.StatusOK, answer)
}
