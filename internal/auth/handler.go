package auth

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wordle-go/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input RegisterInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			httpx.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUserExists):
			httpx.Error(w, http.StatusConflict, err.Error())
		default:
			httpx.Error(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.JSON(w, http.StatusCreated, user)
}

type LoginResponse struct {
	Authenticated bool `json:"authenticated"`
	*TokenPair
}

// Login exchanges Basic credentials for a token pair
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	username, password, ok := r.BasicAuth()
	if !ok {
		Unauthorized(w, "basic credentials required")
		return
	}

	tokens, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			Unauthorized(w, err.Error())
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.JSON(w, http.StatusOK, LoginResponse{Authenticated: true, TokenPair: tokens})
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.service.RefreshToken(r.Context(), input.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			Unauthorized(w, err.Error())
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.JSON(w, http.StatusOK, tokens)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	httpx.JSON(w, http.StatusOK, GetUser(r.Context()))
}
