package models

import "encoding/json"

// EventType is the SSE event name of a stream event.
type EventType string

const (
	EventStatus   EventType = "status"
	EventError    EventType = "error"
	EventPatches  EventType = "patches"
	EventFull     EventType = "full"
	EventProgress EventType = "progress"
	EventDone     EventType = "done"
)

// Status values carried by EventStatus.
const (
	StatusAnalyzing  = "analyzing"
	StatusGenerating = "generating"
	StatusFallback   = "fallback"
)

// StreamEvent is one message of the server-to-browser progress channel.
// Only the fields belonging to Type are serialized.
type StreamEvent struct {
	Type EventType `json:"-"`

	Status  string            `json:"status,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Patches []ChangeOperation `json:"patches,omitempty"`
	Results []OpResult        `json:"results,omitempty"`
	Summary string            `json:"summary,omitempty"`
	HTML    string            `json:"html,omitempty"`
	Version string            `json:"version,omitempty"`
	Chunk   string            `json:"chunk,omitempty"`
	Length  int               `json:"length,omitempty"`
	Success bool              `json:"success,omitempty"`
}

// Terminal reports whether the event ends a request.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventError || e.Type == EventDone
}

func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventStatus:
		return json.Marshal(map[string]any{"status": e.Status, "message": e.Message})
	case EventError:
		return json.Marshal(map[string]any{"error": e.Error})
	case EventPatches:
		patches := e.Patches
		if patches == nil {
			patches = []ChangeOperation{}
		}
		results := e.Results
		if results == nil {
			results = []OpResult{}
		}
		return json.Marshal(map[string]any{
			"patches": patches,
			"results": results,
			"summary": e.Summary,
			"version": e.Version,
		})
	case EventFull:
		return json.Marshal(map[string]any{"html": e.HTML, "version": e.Version})
	case EventProgress:
		return json.Marshal(map[string]any{"chunk": e.Chunk, "length": e.Length})
	case EventDone:
		return json.Marshal(map[string]any{"success": e.Success})
	}
	type plain StreamEvent
	return json.Marshal(plain(e))
}

func StatusEvent(status, message string) StreamEvent {
	return StreamEvent{Type: EventStatus, Status: status, Message: message}
}

func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Error: message}
}

func ProgressEvent(chunk string, length int) StreamEvent {
	return StreamEvent{Type: EventProgress, Chunk: chunk, Length: length}
}

func DoneEvent() StreamEvent {
	return StreamEvent{Type: EventDone, Success: true}
}
