// Package client is a Go client for the Mockery HTTP API. It carries the
// same session state machine and version poller as the browser shell.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"mockery-backend/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	var body models.ErrorResponse
	json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body)
	return &APIError{Status: resp.StatusCode, Code: body.Code, Message: body.Error, RequestID: body.RequestID}
}

func (c *Client) ListPages(ctx context.Context) ([]models.PageInfo, error) {
	var out struct {
		Pages []models.PageInfo `json:"pages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/pages", nil, &out); err != nil {
		return nil, err
	}
	return out.Pages, nil
}

// CreatePage returns the name the server stored the page under.
func (c *Client) CreatePage(ctx context.Context, name string) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	err := c.do(ctx, http.MethodPost, "/api/pages", models.PageActionRequest{Action: "create", Name: name}, &out)
	return out.Name, err
}

func (c *Client) DeletePage(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/api/pages", models.PageActionRequest{Action: "delete", Name: name}, nil)
}

func (c *Client) Version(ctx context.Context, page string) (models.VersionInfo, error) {
	var out models.VersionInfo
	err := c.do(ctx, http.MethodGet, "/api/version?page="+url.QueryEscape(page), nil, &out)
	return out, err
}

// Content fetches the stored document and its version.
func (c *Client) Content(ctx context.Context, page string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pages/"+url.PathEscape(page)+".html", nil)
	if err != nil {
		return "", "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", decodeAPIError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	return string(data), resp.Header.Get("X-Page-Version"), nil
}

func (c *Client) Save(ctx context.Context, req models.SaveRequest) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	err := c.do(ctx, http.MethodPost, "/api/save", req, &out)
	return out.Version, err
}

func (c *Client) Generate(ctx context.Context, req models.EditRequest) (*models.GenerateResponse, error) {
	var out models.GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Edit runs a streamed edit, passing every event to onEvent. It returns
// the terminal event, or an error if the stream ended without one.
func (c *Client) Edit(ctx context.Context, req models.EditRequest, onEvent func(models.StreamEvent)) (models.StreamEvent, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return models.StreamEvent{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/patch", bytes.NewReader(data))
	if err != nil {
		return models.StreamEvent{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return models.StreamEvent{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.StreamEvent{}, decodeAPIError(resp)
	}

	return ReadEvents(resp.Body, onEvent)
}

// ReadEvents parses a server-sent event stream until a terminal event.
func ReadEvents(r io.Reader, onEvent func(models.StreamEvent)) (models.StreamEvent, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var name string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case line == "":
			if name == "" || data.Len() == 0 {
				name = ""
				data.Reset()
				continue
			}
			var ev models.StreamEvent
			if err := json.Unmarshal([]byte(data.String()), &ev); err != nil {
				return models.StreamEvent{}, fmt.Errorf("decode %s event: %w", name, err)
			}
			ev.Type = models.EventType(name)
			name = ""
			data.Reset()

			if onEvent != nil {
				onEvent(ev)
			}
			if ev.Terminal() {
				return ev, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return models.StreamEvent{}, err
	}
	return models.StreamEvent{}, io.ErrUnexpectedEOF
}
