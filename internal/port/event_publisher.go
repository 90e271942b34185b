package port

import (
	"context"

	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

type EventPublisher interface {
	// PublishWithdrawal announces a completed or rejected withdrawal
	PublishWithdrawal(ctx context.Context, w domain.Withdrawal) error
}
