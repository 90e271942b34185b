package service

import (
	"context"
	"time"

	"github.com/rl1809/cash-dispenser/internal/core/domain"
	"github.com/rl1809/cash-dispenser/internal/log"
	"github.com/rl1809/cash-dispenser/internal/port"
)

const journalTimeout = 5 * time.Second

// JournalWorker drains withdrawal records into the journal and the event bus.
// Either sink may be nil.
type JournalWorker struct {
	ID        int
	Journal   port.JournalRepository
	Publisher port.EventPublisher
	Logger    *log.Logger
}

// Run returns once queue is closed.
func (w *JournalWorker) Run(queue <-chan domain.Withdrawal) {
	logger := w.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent("journal-worker").With("worker", w.ID)

	for wd := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)

		if w.Journal != nil {
			if err := w.Journal.RecordWithdrawal(ctx, wd); err != nil {
				logger.Error("failed to journal withdrawal", "withdrawal_id", wd.ID, "error", err)
			} else {
				logger.Debug("journaled withdrawal", "withdrawal_id", wd.ID)
			}
		}

		if w.Publisher != nil {
			if err := w.Publisher.PublishWithdrawal(ctx, wd); err != nil {
				logger.Error("failed to publish withdrawal", "withdrawal_id", wd.ID, "error", err)
			}
		}

		cancel()
	}
}
