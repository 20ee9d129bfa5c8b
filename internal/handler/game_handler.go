package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/arfandy/coup-server/internal/service"
	"github.com/arfandy/coup-server/pkg/coup"
)

// GameHandler exposes the room lifecycle over HTTP.
type GameHandler struct {
	rooms *service.RoomManager
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(rooms *service.RoomManager) *GameHandler {
	return &GameHandler{rooms: rooms}
}

// Matchmake handles POST /matchmake
func (h *GameHandler) Matchmake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	gameID, playerID := h.rooms.Matchmake(req.Name)
	writeJSON(w, http.StatusOK, map[string]int{
		"player_id": playerID,
		"game_id":   gameID,
	})
}

// State handles GET /state
func (h *GameHandler) State(w http.ResponseWriter, r *http.Request) {
	playerID, ok := queryInt(r, "player_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	gameID, ok := queryInt(r, "game_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "game_id is required")
		return
	}

	view, err := h.rooms.View(gameID, playerID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "Game not found")
			return
		}
		// A seat polling before it has joined is not a failure; the client
		// retries until matchmaking seats it.
		writeError(w, http.StatusOK, "Player not joined yet")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// actionRequest is the /action envelope. Which fields are set depends on the
// decision the seat is answering; the engine sorts out relevance by phase.
type actionRequest struct {
	PlayerID *int     `json:"player_id"`
	GameID   *int     `json:"game_id"`
	Action   string   `json:"action,omitempty"`
	TargetID *int     `json:"target_id,omitempty"`
	Response string   `json:"response,omitempty"`
	Card     string   `json:"card,omitempty"`
	Cards    []string `json:"cards,omitempty"`
}

// Action handles POST /action
func (h *GameHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == nil || req.GameID == nil {
		writeError(w, http.StatusBadRequest, "player_id and game_id are required")
		return
	}

	in := coup.Input{
		Action:   req.Action,
		TargetID: req.TargetID,
		Response: req.Response,
		Card:     req.Card,
		Cards:    req.Cards,
	}
	if err := h.rooms.Apply(r.Context(), *req.GameID, *req.PlayerID, in); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "Game not found")
			return
		}
		log.Error().Err(err).Int("gameId", *req.GameID).Msg("Action failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Quit handles POST /quit
func (h *GameHandler) Quit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID *int `json:"player_id"`
		GameID   *int `json:"game_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == nil || req.GameID == nil {
		writeError(w, http.StatusBadRequest, "player_id and game_id are required")
		return
	}

	if err := h.rooms.Quit(r.Context(), *req.GameID, *req.PlayerID); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "Game not found")
			return
		}
		log.Error().Err(err).Int("gameId", *req.GameID).Msg("Quit failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health handles GET /healthz
func (h *GameHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  h.rooms.RoomCount(),
	})
}

func queryInt(r *http.Request, key string) (int, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
