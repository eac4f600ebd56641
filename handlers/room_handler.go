package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/arenahq/arena/middleware"
	"github.com/arenahq/arena/repositories"
	"github.com/arenahq/arena/rooms"
	"github.com/arenahq/arena/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced at the router level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RoomHandler struct {
	hub          *rooms.Hub
	participants repositories.ParticipantRepository
	logger       *slog.Logger
}

func NewRoomHandler(hub *rooms.Hub, participants repositories.ParticipantRepository, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{hub: hub, participants: participants, logger: logger}
}

// ServeWs handles GET /tournaments/{tournamentID}/room. Only joined
// users may connect to the waiting room.
func (h *RoomHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrAuthRequired)
		return
	}

	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	p, err := h.participants.FindByUserAndTournament(r.Context(), userID, tournamentID)
	if err != nil && !errors.Is(err, repositories.ErrParticipantNotFound) {
		serverErrorResponse(w, r, err)
		return
	}
	if p == nil {
		forbiddenResponse(w, r, "join the tournament before entering its room")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := rooms.NewClient(h.hub, conn, rooms.RoomKey(tournamentID))
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
