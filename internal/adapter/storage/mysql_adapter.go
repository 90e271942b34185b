package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) RecordWithdrawal(ctx context.Context, w domain.Withdrawal) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var requestID sql.NullString
	if w.RequestID != "" {
		requestID = sql.NullString{String: w.RequestID, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO withdrawals (id, request_id, amount, status, reason, inventory_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, requestID, w.Amount, w.Status, w.Reason, w.Version, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}

	for _, n := range w.Notes.NonZero() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO withdrawal_notes (withdrawal_id, denomination, count)
			VALUES (?, ?, ?)`,
			w.ID, int(n.Denomination), n.Count,
		)
		if err != nil {
			return fmt.Errorf("insert withdrawal notes: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListWithdrawals(ctx context.Context, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT w.id, w.request_id, w.amount, w.status, w.reason, w.inventory_version, w.created_at,
		       n.denomination, n.count
		FROM (
			SELECT * FROM withdrawals ORDER BY created_at DESC, id LIMIT ?
		) w
		LEFT JOIN withdrawal_notes n ON n.withdrawal_id = w.id
		ORDER BY w.created_at DESC, w.id, n.denomination`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query withdrawals: %w", err)
	}
	defer rows.Close()

	var out []domain.Withdrawal
	for rows.Next() {
		var (
			w            domain.Withdrawal
			requestID    sql.NullString
			denomination sql.NullInt64
			count        sql.NullInt64
		)
		if err := rows.Scan(&w.ID, &requestID, &w.Amount, &w.Status, &w.Reason, &w.Version, &w.CreatedAt,
			&denomination, &count); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		w.RequestID = requestID.String

		if len(out) == 0 || out[len(out)-1].ID != w.ID {
			out = append(out, w)
		}
		if denomination.Valid {
			last := &out[len(out)-1]
			last.Notes = append(last.Notes, domain.NoteCount{
				Denomination: domain.Denomination(denomination.Int64),
				Count:        int(count.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawals: %w", err)
	}

	return out, nil
}
