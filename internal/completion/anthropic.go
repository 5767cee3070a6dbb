package completion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
)

const (
	DefaultAnthropicURL   = "https://api.anthropic.com/v1/messages"
	DefaultAnthropicModel = "claude-sonnet-4-5"
	anthropicVersion      = "2023-06-01"
	defaultMaxTokens      = 8192
)

// AnthropicClient calls the Messages API over plain HTTP.
type AnthropicClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewAnthropicClient(apiKey, model, apiURL string) *AnthropicClient {
	if model == "" {
		model = DefaultAnthropicModel
	}
	if apiURL == "" {
		apiURL = DefaultAnthropicURL
	}
	return &AnthropicClient{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

func (c *AnthropicClient) Close() error { return nil }

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system"`
	Messages  []wireMessage `json:"messages"`
	Stream    bool          `json:"stream,omitempty"`
}

// wireMessage is one entry of the messages array.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// streamFrame is the payload of one data line of the upstream stream.
type streamFrame struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *apiError `json:"error,omitempty"`
}

func (c *AnthropicClient) send(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    req.System,
		Stream:    stream,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, wireMessage{Role: m.Role, Content: m.Content})
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	return c.httpClient.Do(httpReq)
}

// Complete sends a blocking request and returns the first text block.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.send(ctx, req, false)
	if err != nil {
		log.Printf("completion: request failed: %v", err)
		return "", &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Err: err}
	}

	var result messagesResponse
	decodeErr := json.Unmarshal(raw, &result)

	if resp.StatusCode != http.StatusOK {
		msg := ""
		if decodeErr == nil && result.Error != nil {
			msg = result.Error.Message
		}
		log.Printf("completion: API error %d: %s", resp.StatusCode, truncate(string(raw), 300))
		return "", &Error{Kind: KindStatus, StatusCode: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil || len(result.Content) == 0 {
		return "", &Error{Kind: KindMalformed, StatusCode: resp.StatusCode}
	}

	return result.Content[0].Text, nil
}

// Stream sends a streaming request and forwards every text delta.
func (c *AnthropicClient) Stream(ctx context.Context, req Request, onChunk ChunkFunc) (string, error) {
	resp, err := c.send(ctx, req, true)
	if err != nil {
		log.Printf("completion: stream request failed: %v", err)
		return "", &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		var result messagesResponse
		msg := ""
		if json.Unmarshal(raw, &result) == nil && result.Error != nil {
			msg = result.Error.Message
		}
		log.Printf("completion: API error %d: %s", resp.StatusCode, truncate(string(raw), 300))
		return "", &Error{Kind: KindStatus, StatusCode: resp.StatusCode, Message: msg}
	}

	return processStream(ctx, resp.Body, onChunk)
}

// processStream reads server-sent events line by line. The scanner keeps
// partial lines buffered until their newline arrives, so frames split
// across network reads are reassembled before parsing.
func processStream(ctx context.Context, r io.Reader, onChunk ChunkFunc) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var full strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var frame streamFrame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			continue // skip malformed frames
		}

		switch frame.Type {
		case "content_block_delta":
			if frame.Delta.Text == "" {
				continue
			}
			full.WriteString(frame.Delta.Text)
			if onChunk != nil {
				onChunk(frame.Delta.Text)
			}
		case "error":
			msg := "unknown stream error"
			if frame.Error != nil {
				msg = frame.Error.Message
			}
			return full.String(), &Error{Kind: KindStream, Message: msg}
		case "message_stop":
			return full.String(), nil
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		log.Printf("completion: stream aborted: %v", err)
		return full.String(), &Error{Kind: KindTransport, Err: err}
	}

	return full.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
