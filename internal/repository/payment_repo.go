package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/shopspring/decimal"
)

type CreatePaymentInput struct {
	TeamID             int64
	PlayerID           int64
	Amount             decimal.Decimal
	PaymentDate        time.Time
	Reference          uuid.UUID
	Notes              *string
	AddPrepaidSessions bool
	SessionCount       *int
	CreatedBy          int64
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, team_id, player_id, amount, payment_date, reference, notes, add_prepaid_sessions, session_count, created_by, created_at`

func scanPayment(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.TeamID,
		&payment.PlayerID,
		&payment.Amount,
		&payment.PaymentDate,
		&payment.Reference,
		&payment.Notes,
		&payment.AddPrepaidSessions,
		&payment.SessionCount,
		&payment.CreatedBy,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := `
		INSERT INTO payments (team_id, player_id, amount, payment_date, reference, notes, add_prepaid_sessions, session_count, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + paymentColumns + `
	`
	return scanPayment(r.db.QueryRow(
		ctx,
		query,
		input.TeamID,
		input.PlayerID,
		input.Amount,
		input.PaymentDate,
		input.Reference,
		input.Notes,
		input.AddPrepaidSessions,
		input.SessionCount,
		input.CreatedBy,
	))
}

func (r *PaymentRepository) ListByTeam(ctx context.Context, teamID int64) ([]models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE team_id = $1
		ORDER BY payment_date DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *PaymentRepository) ListByPlayer(ctx context.Context, playerID int64) ([]models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE player_id = $1
		ORDER BY payment_date DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
