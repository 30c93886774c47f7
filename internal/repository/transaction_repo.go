package repository

import (
	"context"
	"time"

	"github.com/mvachon/TeamRosterBack/internal/models"
)

type AppendTransactionInput struct {
	PlayerID        int64
	TeamID          int64
	SessionChange   int
	Reason          string
	PaymentID       *int64
	AttendanceID    *int64
	TransactionDate time.Time
	Notes           *string
	CreatedBy       int64
}

// SessionTransactionRepository is the append-only ledger. There is no update
// or delete: every balance mutation in the system writes exactly one row
// here inside the same transaction, and the sum of session_change per
// (player, team) always equals the balance's remaining_sessions.
type SessionTransactionRepository struct {
	db DBTX
}

func NewSessionTransactionRepository(db DBTX) *SessionTransactionRepository {
	return &SessionTransactionRepository{db: db}
}

const transactionColumns = `id, player_id, team_id, session_change, reason, payment_id, attendance_id, transaction_date, notes, created_by, created_at`

func scanTransaction(row interface{ Scan(dest ...any) error }) (*models.SessionTransaction, error) {
	var txn models.SessionTransaction
	err := row.Scan(
		&txn.ID,
		&txn.PlayerID,
		&txn.TeamID,
		&txn.SessionChange,
		&txn.Reason,
		&txn.PaymentID,
		&txn.AttendanceID,
		&txn.TransactionDate,
		&txn.Notes,
		&txn.CreatedBy,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *SessionTransactionRepository) Append(ctx context.Context, input AppendTransactionInput) (*models.SessionTransaction, error) {
	query := `
		INSERT INTO session_transactions (player_id, team_id, session_change, reason, payment_id, attendance_id, transaction_date, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + transactionColumns + `
	`
	return scanTransaction(r.db.QueryRow(
		ctx,
		query,
		input.PlayerID,
		input.TeamID,
		input.SessionChange,
		input.Reason,
		input.PaymentID,
		input.AttendanceID,
		input.TransactionDate,
		input.Notes,
		input.CreatedBy,
	))
}

// ListByPlayer returns ledger rows most recent first. Limit/offset keep the
// sequence finite and restartable for paging clients.
func (r *SessionTransactionRepository) ListByPlayer(
	ctx context.Context,
	playerID int64,
	teamID int64,
	limit int,
	offset int,
) ([]models.SessionTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM session_transactions
		WHERE player_id = $1 AND team_id = $2
		ORDER BY id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, playerID, teamID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]models.SessionTransaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *SessionTransactionRepository) CountByPlayer(ctx context.Context, playerID, teamID int64) (int, error) {
	var total int
	err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM session_transactions WHERE player_id = $1 AND team_id = $2`,
		playerID, teamID,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *SessionTransactionRepository) ListByTeam(ctx context.Context, teamID int64) ([]models.SessionTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM session_transactions
		WHERE team_id = $1
		ORDER BY id DESC
	`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]models.SessionTransaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

// SumByPlayer folds the ledger for one balance. The result must equal the
// balance row's remaining_sessions; consistency checks and tests rely on it.
func (r *SessionTransactionRepository) SumByPlayer(ctx context.Context, playerID, teamID int64) (int, error) {
	var sum int
	err := r.db.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(session_change), 0) FROM session_transactions WHERE player_id = $1 AND team_id = $2`,
		playerID, teamID,
	).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum, nil
}
