package game

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wordle-go/internal/auth"
	"wordle-go/internal/httpx"
)

type Handler struct {
	service GameService
	logger  *slog.Logger
}

func NewHandler(service GameService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes registers the game endpoints; every one requires an authenticated user
func (h *Handler) Routes(router *httprouter.Router) {
	router.POST("/games", auth.Require(h.CreateGame))
	router.GET("/games", auth.Require(h.ListGames))
	router.GET("/statistics", auth.Require(h.Statistics))
	router.POST("/games/:gameID", auth.Require(h.SubmitGuess))
	router.GET("/games/:gameID", auth.Require(h.CheckProgress))
}

type CreateGameResponse struct {
	GameID  string `json:"game_id"`
	Message string `json:"message"`
}

type SubmitGuessRequest struct {
	Guess string `json:"guess"`
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	username := auth.GetUsernameFromContext(r.Context())

	game, err := h.service.CreateGame(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, CreateGameResponse{
		GameID:  game.ID,
		Message: "Game started, good luck!",
	})
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	games, err := h.service.ListInProgress(r.Context(), auth.GetUsernameFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, games)
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Statistics(r.Context(), auth.GetUsernameFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) SubmitGuess(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req SubmitGuessRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.SubmitGuess(r.Context(), ps.ByName("gameID"), auth.GetUsernameFromContext(r.Context()), req.Guess)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) CheckProgress(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	summary, err := h.service.CheckProgress(r.Context(), ps.ByName("gameID"), auth.GetUsernameFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidGuessLength),
		errors.Is(err, ErrInvalidGuessWord):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrGameNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrResourceExhausted),
		errors.Is(err, ErrConcurrentGuess):
		httpx.Error(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("game request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
