package leaderboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"wordle-go/internal/auth"
	"wordle-go/internal/httpx"
)

const writeWait = 10 * time.Second

type Handler struct {
	store    *Store
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) Routes(router *httprouter.Router) {
	router.GET("/leaderboard", h.Top)
	router.GET("/leaderboard/stream", h.Stream)
	router.GET("/leaderboard/scores", auth.Require(h.Scores))
	router.POST("/leaderboard/entries", auth.Require(h.Report))
}

type ReportRequest struct {
	GameID          string `json:"game_id"`
	Username        string `json:"username"`
	IsWin           bool   `json:"is_win"`
	NumberOfGuesses int    `json:"number_of_guesses"`
}

type ReportResponse struct {
	Username string  `json:"username"`
	Mean     float64 `json:"mean"`
}

func parseN(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return DefaultTopN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, ErrInvalidInput
	}
	return n, nil
}

func (h *Handler) Top(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n, err := parseN(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "n must be a positive integer")
		return
	}

	entries, err := h.store.Top(r.Context(), n)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) Scores(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scores, err := h.store.Scores(r.Context(), auth.GetUsernameFromContext(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, scores)
}

// Report records a game result for the calling player
func (h *Handler) Report(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ReportRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	username := auth.GetUsernameFromContext(r.Context())
	if req.Username != "" && req.Username != username {
		httpx.Error(w, http.StatusBadRequest, "username does not match the authenticated user")
		return
	}

	mean, err := h.store.ReportResult(r.Context(), username, req.GameID, req.IsWin, req.NumberOfGuesses)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ReportResponse{Username: username, Mean: mean})
}

// Stream pushes the top list over a websocket on connect and after every
// leaderboard change.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n, err := parseN(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "n must be a positive integer")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.store.Hub().Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain client frames so close messages are processed
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() error {
		entries, err := h.store.Top(ctx, n)
		if err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(entries)
	}

	if err := send(); err != nil {
		h.logger.Debug("leaderboard stream closed", "error", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := send(); err != nil {
				h.logger.Debug("leaderboard stream closed", "error", err)
				return
			}
		}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("leaderboard request failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
