package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesapp/internal/auth"
)

const secret = "gate-secret"

func gateUnderTest(t *testing.T) (http.Handler, *bool, *auth.User) {
	t.Helper()

	v, err := auth.NewVerifier(secret)
	require.NoError(t, err)

	called := false
	var seen auth.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = UserFrom(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	return Gate(v)(next), &called, &seen
}

func TestGateRejectsWithoutToken(t *testing.T) {
	tests := map[string]func(r *http.Request){
		"no header":    func(r *http.Request) {},
		"empty bearer": func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
		"basic scheme": func(r *http.Request) { r.SetBasicAuth("alice", "pw") },
		"bad token":    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
		"query token without upgrade": func(r *http.Request) {
			token, _ := auth.Issue(secret, auth.User{ID: "alice"}, time.Hour)
			r.URL.RawQuery = "token=" + token
		},
	}

	for name, setup := range tests {
		t.Run(name, func(t *testing.T) {
			h, called, _ := gateUnderTest(t)

			req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
			setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, `"Unauthorized"`, rec.Body.String())
			assert.False(t, *called, "next handler must not run")
		})
	}
}

func TestGatePassesUser(t *testing.T) {
	h, called, seen := gateUnderTest(t)

	token, err := auth.Issue(secret, auth.User{ID: "alice", Name: "Alice"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, *called)
	assert.Equal(t, auth.User{ID: "alice", Name: "Alice"}, *seen)
}

func TestGateAcceptsQueryTokenOnUpgrade(t *testing.T) {
	h, called, seen := gateUnderTest(t)

	token, err := auth.Issue(secret, auth.User{ID: "bob"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/notes/events?token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, *called)
	assert.Equal(t, "bob", seen.ID)
}

func TestUserFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := UserFrom(req.Context())
	assert.False(t, ok)

	_, ok = UserFrom(WithUser(req.Context(), auth.User{}))
	assert.False(t, ok, "a user without id is not authenticated")
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS("https://notes.example")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/notes", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://notes.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.False(t, called)
}
