package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/mvachon/TeamRosterBack/internal/repository"
	"github.com/shopspring/decimal"
)

type CreatePaymentInput struct {
	PlayerID           int64
	Amount             decimal.Decimal
	PaymentDate        time.Time
	Notes              *string
	AddPrepaidSessions bool
	SessionCount       *int
}

// PaymentDetail pairs a payment with the prepaid balance it produced, when
// the payment granted sessions.
type PaymentDetail struct {
	models.Payment
	Balance *models.SessionBalance `json:"balance,omitempty"`
}

// PaymentService records payments and, for payments carrying prepaid
// sessions, grants those sessions to the player. The payment insert, the
// balance change and the ledger append share one database transaction: if
// any of them fails, none are visible.
type PaymentService struct {
	db         *pgxpool.Pool
	teamRepo   teamReader
	playerRepo playerReader
	publisher  LedgerEventPublisher
}

func NewPaymentService(
	db *pgxpool.Pool,
	teamRepo teamReader,
	playerRepo playerReader,
	publisher LedgerEventPublisher,
) *PaymentService {
	return &PaymentService{
		db:         db,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		publisher:  publisher,
	}
}

func (s *PaymentService) CreatePayment(
	ctx context.Context,
	actorID int64,
	teamID int64,
	input CreatePaymentInput,
) (*PaymentDetail, error) {
	if input.Amount.IsNegative() {
		return nil, ErrInvalidInput
	}
	if input.PaymentDate.IsZero() {
		return nil, ErrInvalidInput
	}

	sessionCount := 0
	if input.AddPrepaidSessions {
		if input.SessionCount == nil || *input.SessionCount <= 0 {
			return nil, ErrInvalidSessionCount
		}
		sessionCount = *input.SessionCount
	}

	if _, err := requireTeamOwner(ctx, s.teamRepo, actorID, teamID); err != nil {
		return nil, err
	}
	if _, err := resolveTeamPlayer(ctx, s.playerRepo, teamID, input.PlayerID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txPaymentRepo := repository.NewPaymentRepository(tx)
	txBalanceRepo := repository.NewSessionBalanceRepository(tx)
	txLedgerRepo := repository.NewSessionTransactionRepository(tx)

	notes := input.Notes
	if input.AddPrepaidSessions {
		// Cosmetic summary on the payment record; the ledger row below is
		// the authoritative trace.
		summary := fmt.Sprintf("Added %d prepaid sessions", sessionCount)
		if notes != nil && *notes != "" {
			summary = *notes + " | " + summary
		}
		notes = &summary
	}

	payment, err := txPaymentRepo.Create(ctx, repository.CreatePaymentInput{
		TeamID:             teamID,
		PlayerID:           input.PlayerID,
		Amount:             input.Amount,
		PaymentDate:        input.PaymentDate,
		Reference:          uuid.New(),
		Notes:              notes,
		AddPrepaidSessions: input.AddPrepaidSessions,
		SessionCount:       input.SessionCount,
		CreatedBy:          actorID,
	})
	if err != nil {
		return nil, err
	}

	detail := &PaymentDetail{Payment: *payment}

	if input.AddPrepaidSessions {
		balance, err := s.grantSessions(ctx, txBalanceRepo, txLedgerRepo, payment, sessionCount, actorID)
		if err != nil {
			return nil, err
		}
		detail.Balance = balance
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if detail.Balance != nil && s.publisher != nil {
		s.publisher.PublishLedgerEvent(LedgerEvent{
			TeamID:            teamID,
			PlayerID:          input.PlayerID,
			SessionChange:     sessionCount,
			Reason:            models.TransactionReasonPurchase,
			RemainingSessions: detail.Balance.RemainingSessions,
		})
	}

	return detail, nil
}

// grantSessions creates or increments the player's balance and appends the
// matching purchase ledger row. Must run inside the payment's transaction.
func (s *PaymentService) grantSessions(
	ctx context.Context,
	balances *repository.SessionBalanceRepository,
	ledger *repository.SessionTransactionRepository,
	payment *models.Payment,
	sessionCount int,
	actorID int64,
) (*models.SessionBalance, error) {
	balance, err := balances.GetForUpdate(ctx, payment.PlayerID, payment.TeamID)
	switch {
	case err == nil:
		balance, err = balances.ApplyDelta(ctx, payment.PlayerID, payment.TeamID, sessionCount, 0, sessionCount)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		balance, err = balances.Create(ctx, repository.CreateBalanceInput{
			PlayerID:          payment.PlayerID,
			TeamID:            payment.TeamID,
			TotalSessions:     sessionCount,
			UsedSessions:      0,
			RemainingSessions: sessionCount,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	paymentID := payment.ID
	if _, err := ledger.Append(ctx, repository.AppendTransactionInput{
		PlayerID:        payment.PlayerID,
		TeamID:          payment.TeamID,
		SessionChange:   sessionCount,
		Reason:          models.TransactionReasonPurchase,
		PaymentID:       &paymentID,
		TransactionDate: payment.PaymentDate,
		CreatedBy:       actorID,
	}); err != nil {
		return nil, err
	}

	return balance, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, actorID, teamID int64) ([]models.Payment, error) {
	if _, err := requireTeamViewer(ctx, s.teamRepo, actorID, teamID); err != nil {
		return nil, err
	}
	return repository.NewPaymentRepository(s.db).ListByTeam(ctx, teamID)
}

// ListPlayerPayments returns one player's payments for the owner or the
// player's own guardian.
func (s *PaymentService) ListPlayerPayments(ctx context.Context, actorID, teamID, playerID int64) ([]models.Payment, error) {
	player, err := resolveTeamPlayer(ctx, s.playerRepo, teamID, playerID)
	if err != nil {
		return nil, err
	}
	allowed, err := canViewTeamPlayer(ctx, s.teamRepo, actorID, teamID, player)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	return repository.NewPaymentRepository(s.db).ListByPlayer(ctx, playerID)
}
