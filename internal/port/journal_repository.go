package port

import (
	"context"

	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

type JournalRepository interface {
	// RecordWithdrawal persists a withdrawal attempt and the notes it dispensed
	RecordWithdrawal(ctx context.Context, w domain.Withdrawal) error

	// ListWithdrawals returns the most recent withdrawals, newest first
	ListWithdrawals(ctx context.Context, limit int) ([]domain.Withdrawal, error)
}
