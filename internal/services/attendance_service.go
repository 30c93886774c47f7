package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/mvachon/TeamRosterBack/internal/repository"
)

// AttendanceInput is one entry of the full replacement set for a date.
type AttendanceInput struct {
	PlayerID int64
	Present  bool
}

// AttendanceService reconciles attendance submissions against stored rows
// and charges prepaid session balances for the difference. A submission is
// the complete desired state for one (team, date); resubmitting the same
// payload is a no-op on balances and the ledger.
type AttendanceService struct {
	db         *pgxpool.Pool
	teamRepo   teamReader
	playerRepo playerReader
	publisher  LedgerEventPublisher
}

func NewAttendanceService(
	db *pgxpool.Pool,
	teamRepo teamReader,
	playerRepo playerReader,
	publisher LedgerEventPublisher,
) *AttendanceService {
	return &AttendanceService{
		db:         db,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		publisher:  publisher,
	}
}

// diffAttendance returns the ledger-relevant presence transitions between
// the stored state and the incoming replacement set. Players absent from
// the stored state default to not present. The returned map holds the
// signed session change per player: -1 consumes a session (absent to
// present), +1 refunds one (present to absent). Unchanged records produce
// no entry, which is what makes resubmission idempotent.
func diffAttendance(wasPresent map[int64]bool, incoming []AttendanceInput) map[int64]int {
	changes := make(map[int64]int)
	for _, record := range incoming {
		switch {
		case !wasPresent[record.PlayerID] && record.Present:
			changes[record.PlayerID] = -1
		case wasPresent[record.PlayerID] && !record.Present:
			changes[record.PlayerID] = +1
		}
	}
	return changes
}

// Reconcile replaces the stored attendance for (team, date) with the
// incoming set and applies balance/ledger effects for players whose
// presence changed. The whole call is one database transaction: either all
// attendance rows, balance deltas and ledger appends for this date commit,
// or none do.
func (s *AttendanceService) Reconcile(
	ctx context.Context,
	actorID int64,
	teamID int64,
	date time.Time,
	records []AttendanceInput,
) ([]models.AttendanceRecord, error) {
	if date.IsZero() {
		return nil, ErrInvalidInput
	}
	seen := make(map[int64]struct{}, len(records))
	for _, record := range records {
		if record.PlayerID <= 0 {
			return nil, ErrInvalidInput
		}
		if _, dup := seen[record.PlayerID]; dup {
			return nil, ErrInvalidInput
		}
		seen[record.PlayerID] = struct{}{}
	}

	if _, err := requireTeamOwner(ctx, s.teamRepo, actorID, teamID); err != nil {
		return nil, err
	}

	roster, err := s.playerRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	onTeam := make(map[int64]struct{}, len(roster))
	for _, player := range roster {
		onTeam[player.ID] = struct{}{}
	}
	for _, record := range records {
		if _, ok := onTeam[record.PlayerID]; !ok {
			return nil, ErrPlayerNotFound
		}
	}

	// Apply players in a fixed order so two overlapping reconciliations
	// acquire balance row locks without deadlocking.
	ordered := make([]AttendanceInput, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].PlayerID < ordered[j].PlayerID })

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txAttendanceRepo := repository.NewAttendanceRepository(tx)
	txBalanceRepo := repository.NewSessionBalanceRepository(tx)
	txLedgerRepo := repository.NewSessionTransactionRepository(tx)

	// Serialize whole-date replacement per team.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", teamID); err != nil {
		return nil, err
	}

	existing, err := txAttendanceRepo.ListByTeamAndDate(ctx, teamID, date)
	if err != nil {
		return nil, err
	}
	wasPresent := make(map[int64]bool, len(existing))
	for _, record := range existing {
		wasPresent[record.PlayerID] = record.Present
	}

	changes := diffAttendance(wasPresent, ordered)

	updated := make([]models.AttendanceRecord, 0, len(ordered))
	keepPlayerIDs := make([]int64, 0, len(ordered))
	events := make([]LedgerEvent, 0, len(changes))

	for _, record := range ordered {
		row, err := txAttendanceRepo.Upsert(ctx, teamID, record.PlayerID, date, record.Present)
		if err != nil {
			return nil, err
		}
		updated = append(updated, *row)
		keepPlayerIDs = append(keepPlayerIDs, record.PlayerID)

		change, ok := changes[record.PlayerID]
		if !ok {
			continue
		}

		balance, err := txBalanceRepo.GetForUpdate(ctx, record.PlayerID, teamID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Player is not on a prepaid plan: no charge, no ledger entry.
				continue
			}
			return nil, err
		}

		balance, err = txBalanceRepo.ApplyDelta(ctx, record.PlayerID, teamID, 0, -change, change)
		if err != nil {
			return nil, err
		}

		attendanceID := row.ID
		if _, err := txLedgerRepo.Append(ctx, repository.AppendTransactionInput{
			PlayerID:        record.PlayerID,
			TeamID:          teamID,
			SessionChange:   change,
			Reason:          models.TransactionReasonAttendance,
			AttendanceID:    &attendanceID,
			TransactionDate: date,
			CreatedBy:       actorID,
		}); err != nil {
			return nil, err
		}

		events = append(events, LedgerEvent{
			TeamID:            teamID,
			PlayerID:          record.PlayerID,
			SessionChange:     change,
			Reason:            models.TransactionReasonAttendance,
			RemainingSessions: balance.RemainingSessions,
		})
	}

	if err := txAttendanceRepo.DeleteMissing(ctx, teamID, date, keepPlayerIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		for _, event := range events {
			s.publisher.PublishLedgerEvent(event)
		}
	}

	return updated, nil
}

// ListByDate returns the stored attendance rows for one (team, date).
func (s *AttendanceService) ListByDate(
	ctx context.Context,
	actorID int64,
	teamID int64,
	date time.Time,
) ([]models.AttendanceRecord, error) {
	if _, err := requireTeamViewer(ctx, s.teamRepo, actorID, teamID); err != nil {
		return nil, err
	}
	return repository.NewAttendanceRepository(s.db).ListByTeamAndDate(ctx, teamID, date)
}
