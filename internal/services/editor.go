package services

import (
	"context"
	"errors"
	"html"
	"log"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"mockery-backend/internal/classifier"
	"mockery-backend/internal/completion"
	"mockery-backend/internal/document"
	"mockery-backend/internal/models"
	"mockery-backend/internal/patch"
	"mockery-backend/internal/prompt"
	"mockery-backend/internal/repository"
)

type pageStore interface {
	Get(ctx context.Context, name string) (*models.Page, error)
	Save(ctx context.Context, name, content string) (time.Time, error)
}

// EditorService turns chat messages into page edits.
type EditorService struct {
	pages     pageStore
	llm       completion.Completer
	maxTokens int
	timeout   time.Duration
	summaries *bluemonday.Policy
}

func NewEditorService(pages pageStore, llm completion.Completer, maxTokens int, timeout time.Duration) *EditorService {
	return &EditorService{
		pages:     pages,
		llm:       llm,
		maxTokens: maxTokens,
		timeout:   timeout,
		summaries: bluemonday.StrictPolicy(),
	}
}

func (s *EditorService) loadPage(ctx context.Context, req models.EditRequest) (*models.Page, string, error) {
	name := models.SanitizePageName(req.Page)
	message := strings.TrimSpace(req.Message)
	if name == "" || message == "" {
		return nil, "", &ValidationError{Message: msgMissingParams}
	}

	page, err := s.pages.Get(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrPageNotFound) {
			return nil, "", &NotFoundError{Message: msgPageNotFound}
		}
		return nil, "", err
	}
	return page, message, nil
}

func (s *EditorService) request(mode prompt.Mode, page *models.Page, history []models.ChatMessage, message string) completion.Request {
	req := completion.Request{
		System:    prompt.System(mode, page.Content),
		Messages:  prompt.BuildMessages(history, message),
		MaxTokens: s.maxTokens,
	}
	log.Printf("editor: %s request for %q, ~%d prompt tokens", mode, page.Name, prompt.EstimateTokens(req.System, req.Messages))
	return req
}

// Generate regenerates the page with one blocking completion.
func (s *EditorService) Generate(ctx context.Context, req models.EditRequest) (*models.GenerateResponse, error) {
	page, message, err := s.loadPage(ctx, req)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.llm.Complete(callCtx, s.request(prompt.ModeGenerate, page, req.History, message))
	if err != nil {
		log.Printf("editor: generate for %q failed: %v", page.Name, err)
		return nil, upstreamFailure(err)
	}

	version, err := s.saveDocument(ctx, page.Name, text)
	if err != nil {
		return nil, err
	}

	return &models.GenerateResponse{Success: true, Message: msgUpdated, Version: version}, nil
}

// saveDocument cleans and validates model output, then persists it.
func (s *EditorService) saveDocument(ctx context.Context, name, raw string) (string, error) {
	content := document.Clean(raw)
	if err := document.Validate(content); err != nil {
		log.Printf("editor: model output for %q is not HTML (%d bytes)", name, len(content))
		return "", &InvalidOutputError{Message: msgInvalidHTML}
	}

	mod, err := s.pages.Save(ctx, name, content)
	if err != nil {
		log.Printf("editor: save %q failed: %v", name, err)
		return "", &PersistenceError{Message: msgSaveFailed, Err: err}
	}
	return models.VersionOf(mod), nil
}

// Stream runs a streamed edit and sends its events to events. Exactly one
// terminal sequence is sent: an error event, or patches/full then done.
// The caller owns the channel and closes it after Stream returns.
func (s *EditorService) Stream(ctx context.Context, req models.EditRequest, events chan<- models.StreamEvent) {
	emit := func(ev models.StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for _, ev := range Events(s.run(ctx, req, emit)) {
		if !emit(ev) {
			return
		}
	}
}

func (s *EditorService) run(ctx context.Context, req models.EditRequest, emit func(models.StreamEvent) bool) Outcome {
	page, message, err := s.loadPage(ctx, req)
	if err != nil {
		return Failed{Err: err}
	}

	kind := classifier.Classify(message)
	log.Printf("editor: %q classified as %s", page.Name, kind)

	if kind == classifier.Simple {
		return s.runPatch(ctx, page, req.History, message, emit)
	}
	return s.runFull(ctx, page, req.History, message, emit)
}

// streamCompletion forwards upstream deltas as progress events.
func (s *EditorService) streamCompletion(ctx context.Context, req completion.Request, emit func(models.StreamEvent) bool) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	received := 0
	return s.llm.Stream(callCtx, req, func(chunk string) {
		received += len(chunk)
		emit(models.ProgressEvent(chunk, received))
	})
}

func (s *EditorService) runPatch(ctx context.Context, page *models.Page, history []models.ChatMessage, message string, emit func(models.StreamEvent) bool) Outcome {
	emit(models.StatusEvent(models.StatusAnalyzing, msgAnalyzing))

	text, err := s.streamCompletion(ctx, s.request(prompt.ModePatch, page, history, message), emit)
	if err != nil {
		log.Printf("editor: patch stream for %q failed: %v", page.Name, err)
		return Failed{Err: upstreamFailure(err)}
	}

	batch, err := patch.Decode(text)
	if err != nil {
		log.Printf("editor: %v, falling back to full regeneration", err)
		emit(models.StatusEvent(models.StatusFallback, msgFallback))
		return s.runFull(ctx, page, history, message, emit)
	}

	doc, err := document.Parse(page.Content)
	if err != nil {
		return Failed{Err: &PersistenceError{Message: msgSaveFailed, Err: err}}
	}

	results := patch.Apply(doc, batch.Changes)
	applied, skipped, failed := patch.Summarize(results)
	log.Printf("editor: %q batch of %d: %d applied, %d skipped, %d failed", page.Name, len(results), applied, skipped, failed)

	version := page.Version()
	if applied > 0 {
		rendered, err := document.Render(doc)
		if err != nil {
			return Failed{Err: &PersistenceError{Message: msgSaveFailed, Err: err}}
		}
		mod, err := s.pages.Save(ctx, page.Name, rendered)
		if err != nil {
			log.Printf("editor: save %q failed: %v", page.Name, err)
			return Failed{Err: &PersistenceError{Message: msgSaveFailed, Err: err}}
		}
		version = models.VersionOf(mod)
	}

	batch.Summary = s.cleanSummary(batch.Summary)
	return Patched{Batch: *batch, Results: results, Version: version}
}

func (s *EditorService) runFull(ctx context.Context, page *models.Page, history []models.ChatMessage, message string, emit func(models.StreamEvent) bool) Outcome {
	emit(models.StatusEvent(models.StatusGenerating, msgGenerating))

	text, err := s.streamCompletion(ctx, s.request(prompt.ModeFull, page, history, message), emit)
	if err != nil {
		log.Printf("editor: full stream for %q failed: %v", page.Name, err)
		return Failed{Err: upstreamFailure(err)}
	}

	version, err := s.saveDocument(ctx, page.Name, text)
	if err != nil {
		return Failed{Err: err}
	}
	return Replaced{HTML: document.Clean(text), Version: version}
}

// cleanSummary reduces a model-written summary to plain text.
func (s *EditorService) cleanSummary(summary string) string {
	plain := strings.TrimSpace(html.UnescapeString(s.summaries.Sanitize(summary)))
	if plain == "" {
		return msgDefaultSummary
	}
	return plain
}
