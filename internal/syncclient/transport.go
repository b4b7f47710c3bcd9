package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"partyrooms/internal/domain"
	"partyrooms/internal/game"
)

// Transport - то, как клиент ходит к серверу комнат
type Transport interface {
	Snapshot(ctx context.Context, roomID string) (*game.Snapshot, error)
	Submit(ctx context.Context, roomID string, in domain.ActionInput) error
	Chat(ctx context.Context, roomID, text string) error
}

// APIError - ответ сервера с кодом ошибки
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPTransport работает с /api/room?action=...
type HTTPTransport struct {
	base   string
	token  string
	client *http.Client
}

func NewHTTPTransport(baseURL, token string) *HTTPTransport {
	return &HTTPTransport{
		base:   strings.TrimRight(baseURL, "/"),
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *HTTPTransport) Snapshot(ctx context.Context, roomID string) (*game.Snapshot, error) {
	var snap game.Snapshot
	if err := t.do(ctx, http.MethodGet, "room", roomID, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (t *HTTPTransport) Submit(ctx context.Context, roomID string, in domain.ActionInput) error {
	return t.do(ctx, http.MethodPost, "action", roomID, in, nil)
}

func (t *HTTPTransport) Chat(ctx context.Context, roomID, text string) error {
	return t.do(ctx, http.MethodPost, "chat", roomID, map[string]string{"text": text}, nil)
}

func (t *HTTPTransport) do(ctx context.Context, method, action, roomID string, body, out any) error {
	q := url.Values{"action": {action}, "room_id": {roomID}}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.base+"/api/room?"+q.Encode(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload) == nil {
			apiErr.Code, apiErr.Message = payload.Error, payload.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
