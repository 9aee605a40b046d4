package auth

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"wordle-go/internal/httpx"
)

const Realm = "Wordle Site"

// Middleware resolves HTTP Basic credentials or a Bearer token into a user on
// the request context. Requests without an Authorization header pass through
// anonymously.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		var (
			user *User
			err  error
		)
		if username, password, ok := r.BasicAuth(); ok {
			user, err = s.Authenticate(r.Context(), username, password)
		} else if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			user, err = s.ValidateToken(r.Context(), token)
		} else {
			err = ErrInvalidCredentials
		}
		if err != nil {
			Unauthorized(w, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Require rejects anonymous requests
func Require(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if GetUser(r.Context()) == nil {
			Unauthorized(w, "authentication required")
			return
		}
		next(w, r, ps)
	}
}

// Unauthorized writes a 401 with a Basic challenge
func Unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`"`)
	httpx.Error(w, http.StatusUnauthorized, msg)
}
