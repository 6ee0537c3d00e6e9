// Package vapi is the adapter for the external voice-call provider. No
// provider HTTP calls happen outside this package, and no business logic
// lives in it.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotConfigured is returned when no private key is set. Callers surface
// this as a 500 rather than attempting a request.
var ErrNotConfigured = errors.New("vapi: private key not configured")

// APIError is a non-2xx provider response. StatusCode lets callers separate
// transient provider trouble (5xx) from their own bad requests.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vapi: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the provider REST API. All requests run under the caller's
// context plus a bounded client timeout; nothing here blocks indefinitely.
type Client struct {
	baseURL    string
	privateKey string
	httpClient *http.Client
}

func NewClient(baseURL, privateKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		privateKey: privateKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool { return c.privateKey != "" }

// CreateCall places an outbound call.
func (c *Client) CreateCall(ctx context.Context, req CreateCallRequest) (Call, error) {
	var out Call
	if err := c.do(ctx, http.MethodPost, "/call", req, &out); err != nil {
		return Call{}, err
	}
	return out, nil
}

// GetCall fetches the current state of one call.
func (c *Client) GetCall(ctx context.Context, callID string) (Call, error) {
	if callID == "" {
		return Call{}, &APIError{StatusCode: http.StatusBadRequest, Message: "call id required"}
	}
	var out Call
	if err := c.do(ctx, http.MethodGet, "/call/"+url.PathEscape(callID), nil, &out); err != nil {
		return Call{}, err
	}
	return out, nil
}

// ListLogs fetches a page of historical call logs. The provider has shipped
// several envelope shapes for this endpoint; all are tolerated.
func (c *Client) ListLogs(ctx context.Context, limit, offset int) ([]Call, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	path := fmt.Sprintf("/logs?limit=%d&offset=%d", limit, offset)

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeCallList(raw)
}

// ListAssistants fetches the configured assistants.
func (c *Client) ListAssistants(ctx context.Context) ([]Assistant, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/assistant", nil, &raw); err != nil {
		return nil, err
	}
	return decodeAssistantList(raw)
}

// UpdateAssistant updates the editable fields of an assistant. Only
// firstMessage and instructions may change from this service.
func (c *Client) UpdateAssistant(ctx context.Context, id string, firstMessage, instructions *string) (Assistant, error) {
	if id == "" {
		return Assistant{}, &APIError{StatusCode: http.StatusBadRequest, Message: "assistant id required"}
	}
	payload := map[string]any{}
	if firstMessage != nil {
		payload["firstMessage"] = *firstMessage
	}
	if instructions != nil {
		payload["instructions"] = *instructions
	}
	if len(payload) == 0 {
		return Assistant{}, &APIError{StatusCode: http.StatusBadRequest, Message: "no fields to update"}
	}
	var out Assistant
	if err := c.do(ctx, http.MethodPut, "/assistant/"+url.PathEscape(id), payload, &out); err != nil {
		return Assistant{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.privateKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("vapi: decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	s := string(data)
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		s = "unknown error"
	}
	return s
}

// decodeCallList accepts a bare array, {"calls": [...]} or {"data": [...]}.
func decodeCallList(raw json.RawMessage) ([]Call, error) {
	var list []Call
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var envelope struct {
		Calls []Call `json:"calls"`
		Data  []Call `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("vapi: decode call list: %w", err)
	}
	if envelope.Calls != nil {
		return envelope.Calls, nil
	}
	return envelope.Data, nil
}

// decodeAssistantList accepts a bare array, an envelope, or a single object.
func decodeAssistantList(raw json.RawMessage) ([]Assistant, error) {
	var list []Assistant
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var envelope struct {
		Assistants []Assistant `json:"assistants"`
		Data       []Assistant `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Assistants != nil {
			return envelope.Assistants, nil
		}
		if envelope.Data != nil {
			return envelope.Data, nil
		}
	}
	var single Assistant
	if err := json.Unmarshal(raw, &single); err == nil && single.ID != "" {
		return []Assistant{single}, nil
	}
	return nil, errors.New("vapi: unrecognized assistant list shape")
}
