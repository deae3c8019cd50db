package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesapp/internal/auth"
	"notesapp/internal/note/model"
	"notesapp/socket"
)

const secret = "router-secret"

var columns = []string{"id", "text", "user_id", "created_at", "updated_at"}

type fixture struct {
	server *httptest.Server
	mock   sqlmock.Sqlmock
	hub    *socket.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	verifier, err := auth.NewVerifier(secret)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := socket.NewHub()
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		hub.Run(ctx)
	}()

	server := httptest.NewServer(Setup(Options{DB: db, Hub: hub, Verifier: verifier}))

	t.Cleanup(func() {
		server.Close()
		cancel()
		<-stopped
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return &fixture{server: server, mock: mock, hub: hub}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.Issue(secret, auth.User{ID: userID, Name: userID}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, path, tok, body string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestEveryNoteEndpointRequiresAuth(t *testing.T) {
	f := newFixture(t)
	id := uuid.NewString()

	endpoints := []struct{ method, path, body string }{
		{http.MethodGet, "/api/notes", ""},
		{http.MethodGet, "/api/notes/" + id, ""},
		{http.MethodPost, "/api/notes", `{"text":"x"}`},
		{http.MethodPut, "/api/notes/" + id, `{"text":"x"}`},
		{http.MethodDelete, "/api/notes/" + id, ""},
		{http.MethodGet, "/api/notes/events", ""},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			resp, body := f.do(t, ep.method, ep.path, "", ep.body)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.JSONEq(t, `"Unauthorized"`, body)
		})
	}
	// No expectations were registered, so any query would fail the mock.
}

func TestCreateListDeleteScenario(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice")
	now := time.Now().UTC().Truncate(time.Second)
	var id string

	f.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notes")).
		WithArgs(sqlmock.AnyArg(), "buy milk", "alice").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("9b2f7c1e-8a43-4f43-9a37-3f0c2f1c0d11", "buy milk", "alice", now, now))

	resp, body := f.do(t, http.MethodPost, "/api/notes", tok, `{"text":"buy milk","user":"mallory"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	var created model.Note
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "buy milk", created.Text)
	assert.Equal(t, "alice", created.UserID, "owner must come from the token")
	assert.False(t, created.CreatedAt.IsZero())
	id = created.ID

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE user_id = $1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(id, "buy milk", "alice", now, now))

	resp, body = f.do(t, http.MethodGet, "/api/notes", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []model.Note
	require.NoError(t, json.Unmarshal([]byte(body), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0].ID)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(id, "buy milk", "alice", now, now))
	f.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, body = f.do(t, http.MethodDelete, "/api/notes/"+id, tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"`+id+`"}`, body)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns))

	resp, _ = f.do(t, http.MethodDelete, "/api/notes/"+id, tok, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE user_id = $1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(columns))

	resp, body = f.do(t, http.MethodGet, "/api/notes", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice")

	for name, body := range map[string]string{
		"missing text":    `{}`,
		"empty text":      `{"text":""}`,
		"whitespace text": `{"text":"   "}`,
		"not json":        `buy milk`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, out := f.do(t, http.MethodPost, "/api/notes", tok, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, out, `"error"`)
		})
	}
}

func TestForeignNoteLooksMissing(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice")
	id := uuid.NewString()
	now := time.Now().UTC()

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(id, "bob's note", "bob", now, now))

	resp, foreign := f.do(t, http.MethodGet, "/api/notes/"+id, tok, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	missing := uuid.NewString()
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id = $1")).
		WithArgs(missing).
		WillReturnRows(sqlmock.NewRows(columns))

	resp, absent := f.do(t, http.MethodGet, "/api/notes/"+missing, tok, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, absent, foreign, "foreign and missing notes must be indistinguishable")
}

func TestUpdateRoundTrip(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice")
	id := uuid.NewString()
	created := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(id, "buy milk", "alice", created, created))
	f.mock.ExpectQuery(regexp.QuoteMeta("UPDATE notes SET text = $1")).
		WithArgs("buy oat milk", id).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(id, "buy oat milk", "alice", created, updated))

	resp, body := f.do(t, http.MethodPut, "/api/notes/"+id, tok, `{"text":"buy oat milk"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var note model.Note
	require.NoError(t, json.Unmarshal([]byte(body), &note))
	assert.Equal(t, "buy oat milk", note.Text)
	assert.True(t, note.UpdatedAt.After(note.CreatedAt))
}

func TestEventsStreamReceivesOwnChanges(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice")
	now := time.Now().UTC()

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/notes/events?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.hub.Subscribers("alice") == 1 }, time.Second, 5*time.Millisecond)

	f.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notes")).
		WithArgs(sqlmock.AnyArg(), "ping", "alice").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(uuid.NewString(), "ping", "alice", now, now))

	resp, _ := f.do(t, http.MethodPost, "/api/notes", tok, `{"text":"ping"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ev socket.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, socket.NoteCreatedType, ev.Type)
	assert.Equal(t, "ping", ev.Note.Text)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}
