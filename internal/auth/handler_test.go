package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/partners-api/internal/models"
)

func newTestHandler(t *testing.T) (*Handler, *fakeStore) {
	t.Helper()
	users := newFakeStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(users, newTestGate(t, users), logger), users
}

func postForm(h http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/token/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandler_Token(t *testing.T) {
	h, users := newTestHandler(t)
	users.add(7, "alice", "wonderland")

	rec := postForm(h.Token, url.Values{"username": {"alice"}, "password": {"wonderland"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)

	p, err := h.gate.CurrentPrincipal(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, &Principal{UserID: 7, Username: "alice"}, p)
}

func TestHandler_Token_FailuresIdentical(t *testing.T) {
	h, users := newTestHandler(t)
	users.add(7, "alice", "wonderland")

	wrong := postForm(h.Token, url.Values{"username": {"alice"}, "password": {"wrong"}})
	unknown := postForm(h.Token, url.Values{"username": {"nonexistent"}, "password": {"anything"}})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, wrong.Header(), unknown.Header())
	assert.Equal(t, "Bearer", wrong.Header().Get("WWW-Authenticate"))
}

func TestHandler_Token_MissingFields(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{name: "empty", form: url.Values{}},
		{name: "no password", form: url.Values{"username": {"alice"}}},
		{name: "no username", form: url.Values{"password": {"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(h.Token, tt.form)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestHandler_Token_StoreError(t *testing.T) {
	h, users := newTestHandler(t)
	users.err = io.ErrUnexpectedEOF

	rec := postForm(h.Token, url.Values{"username": {"alice"}, "password": {"wonderland"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_Register(t *testing.T) {
	h, users := newTestHandler(t)

	body := `{"username":"carol","email":"carol@example.com","first_name":"Carol","password":"pw"}`
	req := httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pw")

	var got models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "carol", got.Username)
	assert.True(t, got.IsActive)

	stored, err := users.FindUserByUsername(req.Context(), "carol")
	require.NoError(t, err)
	assert.True(t, VerifyPassword("pw", stored.PasswordHash))

	// Registering the same username again conflicts.
	req = httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body))
	rec = httptest.NewRecorder()
	h.Register(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_Register_Invalid(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, body := range []string{`not json`, `{"username":"x"}`, `{"username":"x","email":"x@example.com"}`} {
		req := httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Register(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestHandler_Me(t *testing.T) {
	h, users := newTestHandler(t)
	users.add(7, "alice", "wonderland")

	t.Run("no principal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Me(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("known user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req = req.WithContext(WithPrincipal(req.Context(), &Principal{UserID: 7, Username: "alice"}))
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, int64(7), got.ID)
		assert.Empty(t, got.PasswordHash)
	})

	t.Run("deleted user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req = req.WithContext(WithPrincipal(req.Context(), &Principal{UserID: 99, Username: "gone"}))
		rec := httptest.NewRecorder()
		h.Me(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
