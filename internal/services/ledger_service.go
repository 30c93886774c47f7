package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/mvachon/TeamRosterBack/internal/repository"
)

type AdjustBalanceInput struct {
	RemainingSessions int
	TotalSessions     *int
	ExpirationDate    *time.Time
	Notes             *string
}

// LedgerService exposes balance and transaction reads plus the manual
// adjustment path. Reads run outside any lock and may observe a balance an
// instant before a concurrent write lands; adjustments take the same
// per-balance row lock as the attendance and payment writers.
type LedgerService struct {
	db         *pgxpool.Pool
	teamRepo   teamReader
	playerRepo playerReader
	publisher  LedgerEventPublisher
}

func NewLedgerService(
	db *pgxpool.Pool,
	teamRepo teamReader,
	playerRepo playerReader,
	publisher LedgerEventPublisher,
) *LedgerService {
	return &LedgerService{
		db:         db,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		publisher:  publisher,
	}
}

// GetBalance returns the player's balance, or a zero-valued balance when the
// player has never been on a prepaid plan.
func (s *LedgerService) GetBalance(ctx context.Context, actorID, teamID, playerID int64) (*models.SessionBalance, error) {
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

	balance, err := repository.NewSessionBalanceRepository(s.db).Get(ctx, playerID, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.SessionBalance{PlayerID: playerID, TeamID: teamID}, nil
		}
		return nil, err
	}
	return balance, nil
}

func (s *LedgerService) ListBalances(ctx context.Context, actorID, teamID int64) ([]models.SessionBalance, error) {
	if _, err := requireTeamOwner(ctx, s.teamRepo, actorID, teamID); err != nil {
		return nil, err
	}
	return repository.NewSessionBalanceRepository(s.db).ListByTeam(ctx, teamID)
}

// ListTransactions pages through the player's ledger, most recent first.
func (s *LedgerService) ListTransactions(
	ctx context.Context,
	actorID int64,
	teamID int64,
	playerID int64,
	limit int,
	offset int,
) ([]models.SessionTransaction, int, error) {
	player, err := resolveTeamPlayer(ctx, s.playerRepo, teamID, playerID)
	if err != nil {
		return nil, 0, err
	}
	allowed, err := canViewTeamPlayer(ctx, s.teamRepo, actorID, teamID, player)
	if err != nil {
		return nil, 0, err
	}
	if !allowed {
		return nil, 0, ErrForbidden
	}

	ledgerRepo := repository.NewSessionTransactionRepository(s.db)
	transactions, err := ledgerRepo.ListByPlayer(ctx, playerID, teamID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := ledgerRepo.CountByPlayer(ctx, playerID, teamID)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// ListTeamTransactions returns the whole team's ledger, most recent first.
// Owner only; it exposes every player's billing history at once.
func (s *LedgerService) ListTeamTransactions(ctx context.Context, actorID, teamID int64) ([]models.SessionTransaction, error) {
	if _, err := requireTeamOwner(ctx, s.teamRepo, actorID, teamID); err != nil {
		return nil, err
	}
	return repository.NewSessionTransactionRepository(s.db).ListByTeam(ctx, teamID)
}

// AdjustBalance is the administrative override. It snapshots the balance to
// the requested values, recomputing used_sessions as total - remaining so
// the invariant survives, and appends an adjustment ledger row for the
// remaining-sessions delta. A delta of zero writes the snapshot but no
// ledger row.
func (s *LedgerService) AdjustBalance(
	ctx context.Context,
	actorID int64,
	teamID int64,
	playerID int64,
	input AdjustBalanceInput,
) (*models.SessionBalance, error) {
	if _, err := requireTeamOwner(ctx, s.teamRepo, actorID, teamID); err != nil {
		return nil, err
	}
	if _, err := resolveTeamPlayer(ctx, s.playerRepo, teamID, playerID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBalanceRepo := repository.NewSessionBalanceRepository(tx)
	txLedgerRepo := repository.NewSessionTransactionRepository(tx)

	oldRemaining := 0
	current, err := txBalanceRepo.GetForUpdate(ctx, playerID, teamID)
	switch {
	case err == nil:
		oldRemaining = current.RemainingSessions

		total := current.TotalSessions
		if input.TotalSessions != nil {
			total = *input.TotalSessions
		}
		expiration := current.ExpirationDate
		if input.ExpirationDate != nil {
			expiration = input.ExpirationDate
		}

		current, err = txBalanceRepo.SetSnapshot(
			ctx, playerID, teamID,
			total, total-input.RemainingSessions, input.RemainingSessions,
			expiration,
		)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		total := input.RemainingSessions
		if input.TotalSessions != nil {
			total = *input.TotalSessions
		}

		current, err = txBalanceRepo.Create(ctx, repository.CreateBalanceInput{
			PlayerID:          playerID,
			TeamID:            teamID,
			TotalSessions:     total,
			UsedSessions:      total - input.RemainingSessions,
			RemainingSessions: input.RemainingSessions,
			ExpirationDate:    input.ExpirationDate,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	delta := input.RemainingSessions - oldRemaining
	if delta != 0 {
		if _, err := txLedgerRepo.Append(ctx, repository.AppendTransactionInput{
			PlayerID:        playerID,
			TeamID:          teamID,
			SessionChange:   delta,
			Reason:          models.TransactionReasonAdjustment,
			TransactionDate: time.Now().UTC(),
			Notes:           input.Notes,
			CreatedBy:       actorID,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if delta != 0 && s.publisher != nil {
		s.publisher.PublishLedgerEvent(LedgerEvent{
			TeamID:            teamID,
			PlayerID:          playerID,
			SessionChange:     delta,
			Reason:            models.TransactionReasonAdjustment,
			RemainingSessions: current.RemainingSessions,
		})
	}

	return current, nil
}
