package handlers

import (
	"net/http"

	"github.com/arenahq/arena/middleware"
	"github.com/arenahq/arena/services"
)

type EnrollmentHandler struct {
	enrollments   services.EnrollmentService
	myTournaments services.MyTournamentsLister
}

func NewEnrollmentHandler(enrollments services.EnrollmentService, myTournaments services.MyTournamentsLister) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollments:   enrollments,
		myTournaments: myTournaments,
	}
}

// Join handles POST /tournaments/{tournamentID}/join.
func (h *EnrollmentHandler) Join(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.enrollments.Join(r.Context(), userID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"joined": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Leave handles DELETE /tournaments/{tournamentID}/leave. The body
// must carry an explicit confirmation because the entry fee is not
// refunded.
func (h *EnrollmentHandler) Leave(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		Confirm bool `json:"confirm"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.enrollments.Leave(r.Context(), userID, tournamentID, input.Confirm); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"left": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyTournaments handles GET /me/tournaments.
func (h *EnrollmentHandler) MyTournaments(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrAuthRequired)
		return
	}

	list, err := h.myTournaments.List(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
