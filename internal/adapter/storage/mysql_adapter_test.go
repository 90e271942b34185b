package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

func mysqlDSN() string {
	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		return dsn
	}
	return "root:root@tcp(localhost:3306)/dispenser?parseTime=true"
}

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := mysqlDSN()

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	require.NoError(t, RunMigrations(dsn))
	return db
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	assert.NoError(t, RunMigrations(mysqlDSN()))
}

func TestRecordWithdrawal_Dispensed(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	w := domain.Withdrawal{
		ID:        uuid.NewString(),
		RequestID: "test-req-" + uuid.NewString(),
		Amount:    70,
		Notes: domain.Dispensed{
			{Denomination: 20, Count: 1},
			{Denomination: 50, Count: 1},
		},
		Status:    domain.WithdrawalStatusDispensed,
		Version:   3,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	defer db.ExecContext(ctx, `DELETE FROM withdrawals WHERE id = ?`, w.ID)

	require.NoError(t, adapter.RecordWithdrawal(ctx, w))

	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM withdrawal_notes WHERE withdrawal_id = ?`, w.ID).Scan(&count)
	assert.Equal(t, 2, count)

	list, err := adapter.ListWithdrawals(ctx, 50)
	require.NoError(t, err)

	var found *domain.Withdrawal
	for i := range list {
		if list[i].ID == w.ID {
			found = &list[i]
		}
	}
	require.NotNil(t, found, "withdrawal not listed")
	assert.Equal(t, w.RequestID, found.RequestID)
	assert.Equal(t, w.Amount, found.Amount)
	assert.Equal(t, w.Status, found.Status)
	assert.Equal(t, w.Version, found.Version)
	assert.Equal(t, w.Notes, found.Notes)
}

func TestRecordWithdrawal_RejectedHasNoNotes(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	w := domain.Withdrawal{
		ID:        uuid.NewString(),
		Amount:    230,
		Status:    domain.WithdrawalStatusRejected,
		Reason:    "unsupported_amount",
		CreatedAt: time.Now().UTC(),
	}
	defer db.ExecContext(ctx, `DELETE FROM withdrawals WHERE id = ?`, w.ID)

	require.NoError(t, adapter.RecordWithdrawal(ctx, w))

	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM withdrawal_notes WHERE withdrawal_id = ?`, w.ID).Scan(&count)
	assert.Equal(t, 0, count)

	var requestID sql.NullString
	db.QueryRowContext(ctx, `SELECT request_id FROM withdrawals WHERE id = ?`, w.ID).Scan(&requestID)
	assert.False(t, requestID.Valid, "empty request id is stored as NULL")
}

func TestRecordWithdrawal_DuplicateRequestID(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	requestID := "test-dup-" + uuid.NewString()

	first := domain.Withdrawal{ID: uuid.NewString(), RequestID: requestID, Amount: 20,
		Status: domain.WithdrawalStatusDispensed, CreatedAt: time.Now()}
	second := first
	second.ID = uuid.NewString()
	defer db.ExecContext(ctx, `DELETE FROM withdrawals WHERE request_id = ?`, requestID)

	require.NoError(t, adapter.RecordWithdrawal(ctx, first))
	assert.Error(t, adapter.RecordWithdrawal(ctx, second))
}
