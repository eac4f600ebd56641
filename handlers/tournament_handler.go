package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/arenahq/arena/middleware"
	"github.com/arenahq/arena/models"
	"github.com/arenahq/arena/repositories"
	"github.com/arenahq/arena/services"
)

type TournamentHandler struct {
	tournaments services.TournamentService
}

func NewTournamentHandler(tournaments services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournaments: tournaments}
}

// List handles GET /tournaments with optional status, game, limit and
// offset query parameters.
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListTournamentsFilter

	if v := r.URL.Query().Get("status"); v != "" {
		status := models.TournamentStatus(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("game"); v != "" {
		filter.Game = &v
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequestResponse(w, r, errors.New("invalid limit parameter"))
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequestResponse(w, r, errors.New("invalid offset parameter"))
			return
		}
		filter.Offset = n
	}

	list, err := h.tournaments.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get handles GET /tournaments/{tournamentID}. Room credentials appear
// only when the caller has joined.
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	t, err := h.tournaments.GetForViewer(r.Context(), id, viewerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": t}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Roster handles GET /tournaments/{tournamentID}/participants.
func (h *TournamentHandler) Roster(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	roster, err := h.tournaments.Roster(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": roster}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type createTournamentRequest struct {
	Name         string    `json:"name"`
	Game         string    `json:"game"`
	EntryFee     int64     `json:"entry_fee"`
	PrizePool    int64     `json:"prize_pool"`
	MaxPlayers   int       `json:"max_players"`
	StartTime    time.Time `json:"start_time"`
	RoomID       *string   `json:"room_id"`
	RoomPassword *string   `json:"room_password"`
}

// Create handles POST /admin/tournaments.
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	t, err := h.tournaments.Create(r.Context(), services.CreateTournamentInput{
		Name:         req.Name,
		Game:         req.Game,
		EntryFee:     req.EntryFee,
		PrizePool:    req.PrizePool,
		MaxPlayers:   req.MaxPlayers,
		StartTime:    req.StartTime,
		RoomID:       req.RoomID,
		RoomPassword: req.RoomPassword,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": t}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type updateTournamentRequest struct {
	Name         *string                  `json:"name"`
	Game         *string                  `json:"game"`
	EntryFee     *int64                   `json:"entry_fee"`
	PrizePool    *int64                   `json:"prize_pool"`
	MaxPlayers   *int                     `json:"max_players"`
	StartTime    *time.Time               `json:"start_time"`
	RoomID       *string                  `json:"room_id"`
	RoomPassword *string                  `json:"room_password"`
	Status       *models.TournamentStatus `json:"status"`
}

// Update handles PATCH /admin/tournaments/{tournamentID}.
func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req updateTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	t, err := h.tournaments.Update(r.Context(), id, services.UpdateTournamentInput{
		Name:         req.Name,
		Game:         req.Game,
		EntryFee:     req.EntryFee,
		PrizePool:    req.PrizePool,
		MaxPlayers:   req.MaxPlayers,
		StartTime:    req.StartTime,
		RoomID:       req.RoomID,
		RoomPassword: req.RoomPassword,
		Status:       req.Status,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": t}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete handles DELETE /admin/tournaments/{tournamentID}.
func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournaments.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadBanner handles POST /admin/tournaments/{tournamentID}/banner
// with a multipart "banner" file field.
func (h *TournamentHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("banner")
	if err != nil {
		badRequestResponse(w, r, errors.New("banner file is required"))
		return
	}
	defer file.Close()

	t, err := h.tournaments.UploadBanner(r.Context(), id, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": t}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
