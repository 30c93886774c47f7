package repository

import (
	"context"
	"time"

	"github.com/mvachon/TeamRosterBack/internal/models"
)

type CreateBalanceInput struct {
	PlayerID          int64
	TeamID            int64
	TotalSessions     int
	UsedSessions      int
	RemainingSessions int
	ExpirationDate    *time.Time
}

// SessionBalanceRepository persists one balance row per (player, team).
// Creating a balance that already exists fails on the unique constraint;
// delta and snapshot writes against a missing row return pgx.ErrNoRows and
// leave the caller to decide whether that is a no-op or an error.
type SessionBalanceRepository struct {
	db DBTX
}

func NewSessionBalanceRepository(db DBTX) *SessionBalanceRepository {
	return &SessionBalanceRepository{db: db}
}

const balanceColumns = `id, player_id, team_id, total_sessions, used_sessions, remaining_sessions, expiration_date, created_at, updated_at`

func scanBalance(row interface{ Scan(dest ...any) error }) (*models.SessionBalance, error) {
	var balance models.SessionBalance
	err := row.Scan(
		&balance.ID,
		&balance.PlayerID,
		&balance.TeamID,
		&balance.TotalSessions,
		&balance.UsedSessions,
		&balance.RemainingSessions,
		&balance.ExpirationDate,
		&balance.CreatedAt,
		&balance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *SessionBalanceRepository) Get(ctx context.Context, playerID, teamID int64) (*models.SessionBalance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM session_balances
		WHERE player_id = $1 AND team_id = $2
	`
	return scanBalance(r.db.QueryRow(ctx, query, playerID, teamID))
}

// GetForUpdate locks the balance row for the rest of the enclosing
// transaction. Every read-modify-write cycle on a balance must go through
// this so concurrent attendance, payment and adjustment writers serialize
// per balance instead of losing updates.
func (r *SessionBalanceRepository) GetForUpdate(ctx context.Context, playerID, teamID int64) (*models.SessionBalance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM session_balances
		WHERE player_id = $1 AND team_id = $2
		FOR UPDATE
	`
	return scanBalance(r.db.QueryRow(ctx, query, playerID, teamID))
}

func (r *SessionBalanceRepository) Create(ctx context.Context, input CreateBalanceInput) (*models.SessionBalance, error) {
	query := `
		INSERT INTO session_balances (player_id, team_id, total_sessions, used_sessions, remaining_sessions, expiration_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + balanceColumns + `
	`
	return scanBalance(r.db.QueryRow(
		ctx,
		query,
		input.PlayerID,
		input.TeamID,
		input.TotalSessions,
		input.UsedSessions,
		input.RemainingSessions,
		input.ExpirationDate,
	))
}

// ApplyDelta shifts the three counters in one statement. Returns
// pgx.ErrNoRows when the balance does not exist; a missing balance is never
// fabricated here.
func (r *SessionBalanceRepository) ApplyDelta(
	ctx context.Context,
	playerID int64,
	teamID int64,
	totalDelta int,
	usedDelta int,
	remainingDelta int,
) (*models.SessionBalance, error) {
	query := `
		UPDATE session_balances
		SET total_sessions = total_sessions + $3,
		    used_sessions = used_sessions + $4,
		    remaining_sessions = remaining_sessions + $5,
		    updated_at = NOW()
		WHERE player_id = $1 AND team_id = $2
		RETURNING ` + balanceColumns + `
	`
	return scanBalance(r.db.QueryRow(ctx, query, playerID, teamID, totalDelta, usedDelta, remainingDelta))
}

// SetSnapshot overwrites all three counters together so the
// remaining == total - used invariant cannot be broken by a partial write.
func (r *SessionBalanceRepository) SetSnapshot(
	ctx context.Context,
	playerID int64,
	teamID int64,
	total int,
	used int,
	remaining int,
	expirationDate *time.Time,
) (*models.SessionBalance, error) {
	query := `
		UPDATE session_balances
		SET total_sessions = $3,
		    used_sessions = $4,
		    remaining_sessions = $5,
		    expiration_date = $6,
		    updated_at = NOW()
		WHERE player_id = $1 AND team_id = $2
		RETURNING ` + balanceColumns + `
	`
	return scanBalance(r.db.QueryRow(ctx, query, playerID, teamID, total, used, remaining, expirationDate))
}

func (r *SessionBalanceRepository) ListByTeam(ctx context.Context, teamID int64) ([]models.SessionBalance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM session_balances
		WHERE team_id = $1
		ORDER BY player_id ASC
	`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make([]models.SessionBalance, 0)
	for rows.Next() {
		balance, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, *balance)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return balances, nil
}
