package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/arenahq/arena/middleware"
	"github.com/arenahq/arena/services"
	"github.com/go-chi/chi/v5"
)

type WalletHandler struct {
	wallet services.WalletService
}

func NewWalletHandler(wallet services.WalletService) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

// Balance handles GET /wallet.
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrAuthRequired)
		return
	}

	balance, err := h.wallet.Balance(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"balance": balance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// History handles GET /wallet/transactions.
func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrAuthRequired)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	history, err := h.wallet.History(r.Context(), userID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"transactions": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// InitiateTopUp handles POST /wallet/topup.
func (h *WalletHandler) InitiateTopUp(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrAuthRequired)
		return
	}

	var input struct {
		Amount int64 `json:"amount"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	intent, err := h.wallet.InitiateTopUp(r.Context(), userID, input.Amount)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"order": intent}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmTopUp handles POST /wallet/topup/{orderID}/confirm.
func (h *WalletHandler) ConfirmTopUp(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrAuthRequired)
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		badRequestResponse(w, r, errors.New("invalid orderID parameter"))
		return
	}

	order, err := h.wallet.ConfirmTopUp(r.Context(), userID, orderID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"order": order}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
