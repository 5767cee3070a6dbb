package completion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"mockery-backend/internal/models"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	geminiConcurrency  = 4
)

// GeminiClient serves completions through the Gemini chat API.
type GeminiClient struct {
	client   *genai.Client
	model    string
	rateChan chan struct{} // Token bucket
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	rateChan := make(chan struct{}, geminiConcurrency)
	for i := 0; i < geminiConcurrency; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiClient{client: client, model: model, rateChan: rateChan}, nil
}

func (g *GeminiClient) Name() string { return "gemini" }

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) acquire(ctx context.Context) error {
	select {
	case <-g.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *GeminiClient) release() {
	g.rateChan <- struct{}{}
}

// session builds a chat seeded with every message except the last, which
// is returned as the prompt to send.
func (g *GeminiClient) session(req Request) (*genai.ChatSession, string, error) {
	if len(req.Messages) == 0 {
		return nil, "", errors.New("completion request has no messages")
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.3)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	cs := model.StartChat()
	last := len(req.Messages) - 1
	for _, m := range req.Messages[:last] {
		cs.History = append(cs.History, &genai.Content{
			Role:  geminiRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return cs, req.Messages[last].Content, nil
}

func geminiRole(role string) string {
	if role == models.RoleAssistant {
		return "model"
	}
	return "user"
}

func (g *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	cs, prompt, err := g.session(req)
	if err != nil {
		return "", &Error{Kind: KindMalformed, Err: err}
	}
	if err := g.acquire(ctx); err != nil {
		return "", &Error{Kind: KindTransport, Err: err}
	}
	defer g.release()

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		log.Printf("completion: gemini request failed: %v", err)
		return "", geminiError(err)
	}

	text := extractText(resp)
	if text == "" {
		return "", &Error{Kind: KindMalformed}
	}
	return text, nil
}

func (g *GeminiClient) Stream(ctx context.Context, req Request, onChunk ChunkFunc) (string, error) {
	cs, prompt, err := g.session(req)
	if err != nil {
		return "", &Error{Kind: KindMalformed, Err: err}
	}
	if err := g.acquire(ctx); err != nil {
		return "", &Error{Kind: KindTransport, Err: err}
	}
	defer g.release()

	var full strings.Builder
	iter := cs.SendMessageStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("completion: gemini stream aborted: %v", err)
			return full.String(), geminiError(err)
		}
		chunk := extractText(resp)
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}

	return full.String(), nil
}

// geminiError keeps the HTTP status of API errors so callers can tell a
// quota rejection from a broken connection.
func geminiError(err error) *Error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindStatus, StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	return &Error{Kind: KindTransport, Err: err}
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
