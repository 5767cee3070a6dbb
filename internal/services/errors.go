package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"mockery-backend/internal/completion"
)

// User-facing messages. The UI is Polish.
const (
	msgMissingParams   = "Brak wymaganych parametrów"
	msgMissingPageName = "Brak nazwy strony"
	msgInvalidPageName = "Nieprawidłowa nazwa strony"
	msgMissingHTML     = "Brak zawartości HTML"
	msgPageNotFound    = "Strona nie istnieje"
	msgPageExists      = "Strona o tej nazwie już istnieje"
	msgUnknownAction   = "Nieznana akcja"
	msgVersionConflict = "Strona została zmieniona w międzyczasie, odśwież podgląd"
	msgInvalidHTML     = "Wygenerowany kod nie jest prawidłowym HTML"
	msgSaveFailed      = "Nie udało się zapisać strony"
	msgCreateFailed    = "Nie udało się utworzyć pliku"
	msgDeleteFailed    = "Nie udało się usunąć strony"
	msgUpdated         = "Strona została zaktualizowana!"
	msgDefaultSummary  = "Zmiany wprowadzone"
	msgAnalyzing       = "Analizuję zmianę..."
	msgGenerating      = "Generuję stronę..."
	msgFallback        = "Przełączam na pełną regenerację..."
	msgRateLimited     = "Zbyt wiele żądań, spróbuj ponownie za chwilę"
)

// ErrUnknownAction is returned for a page action other than create or delete.
var ErrUnknownAction = &ValidationError{Message: msgUnknownAction, Fields: map[string]string{"action": "invalid"}}

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation error"
}

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// UpstreamError is a failed call to the language model.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Message }

func (e *UpstreamError) Unwrap() error { return e.Err }

// InvalidOutputError means the model answered with something that is not
// a page.
type InvalidOutputError struct{ Message string }

func (e *InvalidOutputError) Error() string { return e.Message }

// PersistenceError is a failed page write.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string { return e.Message }

func (e *PersistenceError) Unwrap() error { return e.Err }

// upstreamFailure maps a completion error to the service error family. A
// provider 429 surfaces as a rate limit.
func upstreamFailure(err error) error {
	var ce *completion.Error
	if errors.As(err, &ce) && ce.Kind == completion.KindStatus && ce.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Message: msgRateLimited}
	}
	return newUpstreamError(err)
}

func newUpstreamError(err error) *UpstreamError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Message: "Przekroczono czas oczekiwania na odpowiedź API", Err: err}
	}

	var ce *completion.Error
	if !errors.As(err, &ce) {
		return &UpstreamError{Message: "Błąd połączenia: " + err.Error(), Err: err}
	}

	switch ce.Kind {
	case completion.KindTransport:
		return &UpstreamError{Message: fmt.Sprintf("Błąd połączenia: %v", ce.Err), Err: err}
	case completion.KindStatus:
		if ce.Message != "" {
			return &UpstreamError{Message: "Błąd API: " + ce.Message, Err: err}
		}
		return &UpstreamError{Message: fmt.Sprintf("Błąd API (HTTP %d)", ce.StatusCode), Err: err}
	case completion.KindStream:
		return &UpstreamError{Message: "Błąd API: " + ce.Message, Err: err}
	default:
		return &UpstreamError{Message: "Nieprawidłowa odpowiedź z API", Err: err}
	}
}
