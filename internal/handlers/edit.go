package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"mockery-backend/internal/models"
)

type editorService interface {
	Generate(ctx context.Context, req models.EditRequest) (*models.GenerateResponse, error)
	Stream(ctx context.Context, req models.EditRequest, events chan<- models.StreamEvent)
}

type EditHandler struct {
	editor editorService
}

func NewEditHandler(editor editorService) *EditHandler {
	return &EditHandler{editor: editor}
}

// Generate handles POST /api/generate with one blocking regeneration.
func (h *EditHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", msgInvalidBody, r))
		return
	}

	resp, err := h.editor.Generate(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stream handles POST /api/patch. The editor produces events on its own
// goroutine and this handler writes them as server-sent events. A client
// disconnect cancels the request context, which stops the producer and
// the upstream call.
func (h *EditHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req models.EditRequest
	decodeErr := json.NewDecoder(r.Body).Decode(&req)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)

	if decodeErr != nil {
		writeEvent(w, models.ErrorEvent(msgInvalidBody))
		rc.Flush()
		return
	}

	events := make(chan models.StreamEvent, 16)
	go func() {
		defer close(events)
		h.editor.Stream(r.Context(), req, events)
	}()

	broken := false
	for ev := range events {
		if broken {
			continue // drain until the producer notices the cancelled context
		}
		if err := writeEvent(w, ev); err != nil {
			log.Printf("stream: client write failed: %v", err)
			broken = true
			continue
		}
		if err := rc.Flush(); err != nil {
			log.Printf("stream: flush failed: %v", err)
			broken = true
		}
	}
}

func writeEvent(w io.Writer, ev models.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
