package client

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

	"notesapp/internal/note/model"
)

const defaultTimeout = 10 * time.Second

// StatusError is returned for any non-2xx answer from the API.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Status + ": " + e.Message
	}
	return e.Status
}

// API talks to the notes REST endpoints.
type API struct {
	BaseURL string
	HTTP    *http.Client
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &API{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

func (a *API) ListNotes(ctx context.Context, token string) ([]model.Note, error) {
	var notes []model.Note
	if err := a.do(ctx, http.MethodGet, "/api/notes", token, nil, &notes); err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []model.Note{}
	}
	return notes, nil
}

func (a *API) CreateNote(ctx context.Context, token, text string) (model.Note, error) {
	var note model.Note
	err := a.do(ctx, http.MethodPost, "/api/notes", token, model.NoteRequest{Text: text}, &note)
	return note, err
}

func (a *API) UpdateNote(ctx context.Context, token, id, text string) (model.Note, error) {
	var note model.Note
	err := a.do(ctx, http.MethodPut, "/api/notes/"+url.PathEscape(id), token, model.NoteRequest{Text: text}, &note)
	return note, err
}

func (a *API) DeleteNote(ctx context.Context, token, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(id), token, nil, nil)
}

// EventsURL is the websocket address of the caller's note event stream.
func (a *API) EventsURL(token string) string {
	u := a.BaseURL + "/api/notes/events?token=" + url.QueryEscape(token)
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func (a *API) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) *StatusError {
	serr := &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}

	var payload model.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil {
		serr.Message = payload.Error
	}
	return serr
}
