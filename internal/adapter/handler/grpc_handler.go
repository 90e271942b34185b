package handler

import (
	"context"
	"errors"

	"github.com/rl1809/cash-dispenser/internal/adapter/handler/pb"
	"github.com/rl1809/cash-dispenser/internal/core/dispenser"
	"github.com/rl1809/cash-dispenser/internal/core/domain"
	"github.com/rl1809/cash-dispenser/internal/core/service"
)

type GRPCHandler struct {
	pb.UnimplementedDispenserServer
	dispenserService *service.DispenserService
}

func NewGRPCHandler(dispenserService *service.DispenserService) *GRPCHandler {
	return &GRPCHandler{dispenserService: dispenserService}
}

func (h *GRPCHandler) Withdraw(ctx context.Context, req *pb.WithdrawRequest) (*pb.WithdrawResponse, error) {
	if req.GetAmount() <= 0 {
		return &pb.WithdrawResponse{
			Success:   false,
			Message:   invalidAmountMessage,
			ErrorCode: invalidAmountCode,
		}, nil
	}

	w, err := h.dispenserService.Withdraw(ctx, req.GetRequestId(), int(req.GetAmount()))
	if err != nil {
		code, message := classify(err)
		return &pb.WithdrawResponse{
			Success:      false,
			Message:      message,
			ErrorCode:    code,
			WithdrawalId: w.ID,
		}, nil
	}

	return &pb.WithdrawResponse{
		Success:      true,
		Message:      "withdrawal dispensed",
		WithdrawalId: w.ID,
		Notes:        toPBNotes(w.Notes.NonZero()),
	}, nil
}

func (h *GRPCHandler) Inventory(ctx context.Context, req *pb.InventoryRequest) (*pb.InventoryResponse, error) {
	snap := h.dispenserService.Inventory(ctx)

	notes := make([]pb.Note, len(snap.Levels))
	for i, l := range snap.Levels {
		notes[i] = pb.Note{Denomination: int64(l.Denomination), Count: int64(l.Count)}
	}

	return &pb.InventoryResponse{
		Version: snap.Version,
		Balance: int64(snap.Balance()),
		Notes:   notes,
	}, nil
}

func toPBNotes(d domain.Dispensed) []pb.Note {
	notes := make([]pb.Note, len(d))
	for i, n := range d {
		notes[i] = pb.Note{Denomination: int64(n.Denomination), Count: int64(n.Count)}
	}
	return notes
}

// Transports only accept positive amounts.
const (
	invalidAmountCode    = "invalid_amount"
	invalidAmountMessage = "amount must be positive"
)

// classify maps a withdrawal error to a stable code and a user-facing message.
func classify(err error) (code, message string) {
	switch {
	case errors.Is(err, service.ErrDuplicateRequest):
		return "duplicate_request", "duplicate request"
	case errors.Is(err, dispenser.ErrUnsupportedAmount):
		return "unsupported_amount", "withdraw request cannot be completed with the note denominations available in this dispenser"
	case errors.Is(err, dispenser.ErrInsufficientFunds):
		return "insufficient_funds", "withdraw request cannot be completed due to insufficient funds in dispenser"
	}
	return "internal", "internal error"
}
