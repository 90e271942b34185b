package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rl1809/cash-dispenser/internal/core/dispenser"
	"github.com/rl1809/cash-dispenser/internal/core/domain"
	"github.com/rl1809/cash-dispenser/internal/core/service"
	"github.com/rl1809/cash-dispenser/internal/port"
)

type HTTPHandler struct {
	dispenserService *service.DispenserService
	journal          port.JournalRepository
}

type WithdrawHTTPRequest struct {
	RequestID string `json:"request_id"`
	Amount    *int   `json:"amount"`
}

type WithdrawHTTPResponse struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	ErrorCode    string             `json:"error_code,omitempty"`
	WithdrawalID string             `json:"withdrawal_id,omitempty"`
	Notes        []domain.NoteCount `json:"notes,omitempty"`
}

type InventoryHTTPResponse struct {
	Version int64               `json:"version"`
	Balance int                 `json:"balance"`
	Notes   []domain.StockLevel `json:"notes"`
}

type WithdrawalHTTPEntry struct {
	ID        string             `json:"id"`
	RequestID string             `json:"request_id,omitempty"`
	Amount    int                `json:"amount"`
	Status    string             `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	Notes     []domain.NoteCount `json:"notes,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewHTTPHandler builds the HTTP API. journal may be nil, in which case the withdrawal history
// endpoint answers 404.
func NewHTTPHandler(dispenserService *service.DispenserService, journal port.JournalRepository) *HTTPHandler {
	return &HTTPHandler{dispenserService: dispenserService, journal: journal}
}

// Routes registers every endpoint on a new mux.
func (h *HTTPHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/withdraw", h.Withdraw)
	mux.HandleFunc("/api/inventory", h.Inventory)
	mux.HandleFunc("/api/withdrawals", h.Withdrawals)
	return mux
}

func (h *HTTPHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req WithdrawHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, WithdrawHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if req.Amount == nil {
		writeJSON(w, http.StatusBadRequest, WithdrawHTTPResponse{
			Success: false,
			Message: "missing required fields",
		})
		return
	}

	if *req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, WithdrawHTTPResponse{
			Success:   false,
			Message:   invalidAmountMessage,
			ErrorCode: invalidAmountCode,
		})
		return
	}

	wd, err := h.dispenserService.Withdraw(r.Context(), req.RequestID, *req.Amount)
	if err != nil {
		code, message := classify(err)
		writeJSON(w, statusFor(err), WithdrawHTTPResponse{
			Success:      false,
			Message:      message,
			ErrorCode:    code,
			WithdrawalID: wd.ID,
		})
		return
	}

	writeJSON(w, http.StatusOK, WithdrawHTTPResponse{
		Success:      true,
		Message:      "withdrawal dispensed",
		WithdrawalID: wd.ID,
		Notes:        wd.Notes.NonZero(),
	})
}

func (h *HTTPHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := h.dispenserService.Inventory(r.Context())
	writeJSON(w, http.StatusOK, InventoryHTTPResponse{
		Version: snap.Version,
		Balance: snap.Balance(),
		Notes:   snap.Levels,
	})
}

func (h *HTTPHandler) Withdrawals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.journal == nil {
		http.Error(w, "journal not configured", http.StatusNotFound)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	list, err := h.journal.ListWithdrawals(r.Context(), limit)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	entries := make([]WithdrawalHTTPEntry, len(list))
	for i, wd := range list {
		entries[i] = WithdrawalHTTPEntry{
			ID:        wd.ID,
			RequestID: wd.RequestID,
			Amount:    wd.Amount,
			Status:    string(wd.Status),
			Reason:    wd.Reason,
			Notes:     wd.Notes,
			CreatedAt: wd.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, dispenser.ErrInsufficientFunds):
		return http.StatusGone
	case errors.Is(err, dispenser.ErrUnsupportedAmount):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
