package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordle-go/internal/auth"
)

func TestMiddleware(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()
	_, err := service.Register(ctx, auth.RegisterInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	tokens, err := service.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	router := httprouter.New()
	router.GET("/whoami", auth.Require(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Write([]byte(auth.GetUsernameFromContext(r.Context())))
	}))
	handler := service.Middleware(router)

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{"basic", func(r *http.Request) { r.SetBasicAuth("alice", "secret") }, http.StatusOK, "alice"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tokens.AccessToken) }, http.StatusOK, "alice"},
		{"bad password", func(r *http.Request) { r.SetBasicAuth("alice", "nope") }, http.StatusUnauthorized, ""},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }, http.StatusUnauthorized, ""},
		{"unknown scheme", func(r *http.Request) { r.Header.Set("Authorization", "Digest abc") }, http.StatusUnauthorized, ""},
		{"anonymous", func(r *http.Request) {}, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Equal(t, `Basic realm="Wordle Site"`, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestHandlers(t *testing.T) {
	service := setupService(t)
	h := auth.NewHandler(service)

	register := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Register(rec, httptest.NewRequest(http.MethodPost, "/register", stringsReader(body)), nil)
		return rec
	}

	assert.Equal(t, http.StatusCreated, register(`{"username":"bob","password":"pw"}`).Code)
	assert.Equal(t, http.StatusConflict, register(`{"username":"bob","password":"pw"}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`{"username":"","password":"pw"}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`{"username":"bob","password":"pw","email":"x"}`).Code)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.SetBasicAuth("bob", "pw")
	h.Login(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
	assert.Contains(t, rec.Body.String(), "access_token")

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
