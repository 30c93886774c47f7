package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/mvachon/TeamRosterBack/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestPurchaseThenAttendanceConsumesSession(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	coachID := createLedgerTestCoach(t, ctx, pool)
	teamID := createLedgerTestTeam(t, ctx, pool, coachID)
	playerID := createLedgerTestPlayer(t, ctx, pool, teamID)
	t.Cleanup(func() { cleanupLedgerTestData(t, ctx, pool, teamID, coachID) })

	paymentService := NewPaymentService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil)
	attendanceService := NewAttendanceService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil)

	ten := 10
	detail, err := paymentService.CreatePayment(ctx, coachID, teamID, CreatePaymentInput{
		PlayerID:           playerID,
		Amount:             decimal.NewFromInt(300),
		PaymentDate:        time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		AddPrepaidSessions: true,
		SessionCount:       &ten,
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if detail.Balance == nil || detail.Balance.RemainingSessions != 10 {
		t.Fatalf("expected 10 remaining after purchase, got %+v", detail.Balance)
	}

	date := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)
	if _, err := attendanceService.Reconcile(ctx, coachID, teamID, date, []AttendanceInput{
		{PlayerID: playerID, Present: true},
	}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	assertBalanceConsistent(t, ctx, pool, playerID, teamID, 9)

	// Resubmitting the identical sheet must not charge again.
	if _, err := attendanceService.Reconcile(ctx, coachID, teamID, date, []AttendanceInput{
		{PlayerID: playerID, Present: true},
	}); err != nil {
		t.Fatalf("Reconcile resubmit: %v", err)
	}
	assertBalanceConsistent(t, ctx, pool, playerID, teamID, 9)
}

func TestAttendanceCorrectionRefundsSession(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	coachID := createLedgerTestCoach(t, ctx, pool)
	teamID := createLedgerTestTeam(t, ctx, pool, coachID)
	playerID := createLedgerTestPlayer(t, ctx, pool, teamID)
	t.Cleanup(func() { cleanupLedgerTestData(t, ctx, pool, teamID, coachID) })

	paymentService := NewPaymentService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil)
	attendanceService := NewAttendanceService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil)

	five := 5
	if _, err := paymentService.CreatePayment(ctx, coachID, teamID, CreatePaymentInput{
		PlayerID:           playerID,
		Amount:             decimal.NewFromInt(150),
		PaymentDate:        time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		AddPrepaidSessions: true,
		SessionCount:       &five,
	}); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	date := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	if _, err := attendanceService.Reconcile(ctx, coachID, teamID, date, []AttendanceInput{
		{PlayerID: playerID, Present: true},
	}); err != nil {
		t.Fatalf("Reconcile present: %v", err)
	}
	assertBalanceConsistent(t, ctx, pool, playerID, teamID, 4)

	// Coach corrects the sheet: the player was actually absent.
	if _, err := attendanceService.Reconcile(ctx, coachID, teamID, date, []AttendanceInput{
		{PlayerID: playerID, Present: false},
	}); err != nil {
		t.Fatalf("Reconcile correction: %v", err)
	}
	assertBalanceConsistent(t, ctx, pool, playerID, teamID, 5)

	transactions, total, err := NewLedgerService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil).
		ListTransactions(ctx, coachID, teamID, playerID, 10, 0)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if total != 3 || len(transactions) != 3 {
		t.Fatalf("expected 3 ledger rows (purchase, charge, refund), got %d", total)
	}
	if transactions[0].Reason != models.TransactionReasonAttendance || transactions[0].SessionChange != +1 {
		t.Fatalf("expected most recent row to be a +1 attendance refund, got %+v", transactions[0])
	}
}

func TestConcurrentAttendanceAndPurchaseKeepLedgerConsistent(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	coachID := createLedgerTestCoach(t, ctx, pool)
	teamID := createLedgerTestTeam(t, ctx, pool, coachID)
	playerID := createLedgerTestPlayer(t, ctx, pool, teamID)
	t.Cleanup(func() { cleanupLedgerTestData(t, ctx, pool, teamID, coachID) })

	paymentService := NewPaymentService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil)
	attendanceService := NewAttendanceService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil)

	// Seed the balance so both writers race on the same row rather than on
	// row creation.
	two := 2
	if _, err := paymentService.CreatePayment(ctx, coachID, teamID, CreatePaymentInput{
		PlayerID:           playerID,
		Amount:             decimal.NewFromInt(60),
		PaymentDate:        time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		AddPrepaidSessions: true,
		SessionCount:       &two,
	}); err != nil {
		t.Fatalf("seed CreatePayment: %v", err)
	}

	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	errs := make(chan error, 2)

	go func() {
		_, err := attendanceService.Reconcile(ctx, coachID, teamID, date, []AttendanceInput{
			{PlayerID: playerID, Present: true},
		})
		errs <- err
	}()
	go func() {
		ten := 10
		_, err := paymentService.CreatePayment(ctx, coachID, teamID, CreatePaymentInput{
			PlayerID:           playerID,
			Amount:             decimal.NewFromInt(300),
			PaymentDate:        date,
			AddPrepaidSessions: true,
			SessionCount:       &ten,
		})
		errs <- err
	}()

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent writer: %v", err)
		}
	}

	// 2 seeded + 10 purchased - 1 consumed, regardless of interleaving.
	assertBalanceConsistent(t, ctx, pool, playerID, teamID, 11)
}

func TestAdjustBalanceSnapshotsAndLogsDelta(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	coachID := createLedgerTestCoach(t, ctx, pool)
	teamID := createLedgerTestTeam(t, ctx, pool, coachID)
	playerID := createLedgerTestPlayer(t, ctx, pool, teamID)
	t.Cleanup(func() { cleanupLedgerTestData(t, ctx, pool, teamID, coachID) })

	ledgerService := NewLedgerService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil)

	total := 12
	notes := "migrated from paper records"
	balance, err := ledgerService.AdjustBalance(ctx, coachID, teamID, playerID, AdjustBalanceInput{
		RemainingSessions: 7,
		TotalSessions:     &total,
		Notes:             &notes,
	})
	if err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	if balance.TotalSessions != 12 || balance.UsedSessions != 5 || balance.RemainingSessions != 7 {
		t.Fatalf("expected 12/5/7 after adjustment, got %d/%d/%d",
			balance.TotalSessions, balance.UsedSessions, balance.RemainingSessions)
	}

	sum, err := repository.NewSessionTransactionRepository(pool).SumByPlayer(ctx, playerID, teamID)
	if err != nil {
		t.Fatalf("SumByPlayer: %v", err)
	}
	if sum != 7 {
		t.Fatalf("expected ledger sum 7 after adjustment, got %d", sum)
	}

	// Adjusting to the current value writes the snapshot but no ledger row.
	if _, err := ledgerService.AdjustBalance(ctx, coachID, teamID, playerID, AdjustBalanceInput{
		RemainingSessions: 7,
		TotalSessions:     &total,
	}); err != nil {
		t.Fatalf("AdjustBalance no-op: %v", err)
	}
	count, err := repository.NewSessionTransactionRepository(pool).CountByPlayer(ctx, playerID, teamID)
	if err != nil {
		t.Fatalf("CountByPlayer: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single adjustment row after no-op, got %d", count)
	}
}

func TestAttendanceOverdraftGoesNegative(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	coachID := createLedgerTestCoach(t, ctx, pool)
	teamID := createLedgerTestTeam(t, ctx, pool, coachID)
	playerID := createLedgerTestPlayer(t, ctx, pool, teamID)
	t.Cleanup(func() { cleanupLedgerTestData(t, ctx, pool, teamID, coachID) })

	ledgerService := NewLedgerService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil)
	attendanceService := NewAttendanceService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil)

	// Plan exists but is exhausted.
	if _, err := ledgerService.AdjustBalance(ctx, coachID, teamID, playerID, AdjustBalanceInput{
		RemainingSessions: 0,
	}); err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}

	date := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if _, err := attendanceService.Reconcile(ctx, coachID, teamID, date, []AttendanceInput{
		{PlayerID: playerID, Present: true},
	}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	assertBalanceConsistent(t, ctx, pool, playerID, teamID, -1)
}

func TestAttendanceWithoutPlanLeavesNoLedgerTrace(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	coachID := createLedgerTestCoach(t, ctx, pool)
	teamID := createLedgerTestTeam(t, ctx, pool, coachID)
	playerID := createLedgerTestPlayer(t, ctx, pool, teamID)
	t.Cleanup(func() { cleanupLedgerTestData(t, ctx, pool, teamID, coachID) })

	attendanceService := NewAttendanceService(pool, repository.NewTeamRepository(pool), repository.NewPlayerRepository(pool), nil)

	date := time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)
	records, err := attendanceService.Reconcile(ctx, coachID, teamID, date, []AttendanceInput{
		{PlayerID: playerID, Present: true},
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(records) != 1 || !records[0].Present {
		t.Fatalf("expected one present attendance row, got %+v", records)
	}

	count, err := repository.NewSessionTransactionRepository(pool).CountByPlayer(ctx, playerID, teamID)
	if err != nil {
		t.Fatalf("CountByPlayer: %v", err)
	}
	if count != 0 {
		t.Fatalf("player without a plan must not get ledger rows, got %d", count)
	}
}

func assertBalanceConsistent(t *testing.T, ctx context.Context, pool *pgxpool.Pool, playerID, teamID int64, wantRemaining int) {
	t.Helper()

	balance, err := repository.NewSessionBalanceRepository(pool).Get(ctx, playerID, teamID)
	if err != nil {
		t.Fatalf("Get balance: %v", err)
	}
	if balance.RemainingSessions != wantRemaining {
		t.Fatalf("expected %d remaining, got %d", wantRemaining, balance.RemainingSessions)
	}
	if balance.RemainingSessions != balance.TotalSessions-balance.UsedSessions {
		t.Fatalf("remaining %d != total %d - used %d",
			balance.RemainingSessions, balance.TotalSessions, balance.UsedSessions)
	}

	sum, err := repository.NewSessionTransactionRepository(pool).SumByPlayer(ctx, playerID, teamID)
	if err != nil {
		t.Fatalf("SumByPlayer: %v", err)
	}
	if sum != balance.RemainingSessions {
		t.Fatalf("ledger sum %d does not match remaining %d", sum, balance.RemainingSessions)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func createLedgerTestCoach(t *testing.T, ctx context.Context, pool *pgxpool.Pool) int64 {
	t.Helper()

	user := &models.User{
		Email:        fmt.Sprintf("ledger-test-coach-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         "coach",
	}
	if err := repository.NewUserRepository(pool).CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user.ID
}

func createLedgerTestTeam(t *testing.T, ctx context.Context, pool *pgxpool.Pool, ownerID int64) int64 {
	t.Helper()

	team, err := repository.NewTeamRepository(pool).Create(ctx, repository.CreateTeamInput{
		OwnerID: ownerID,
		Name:    fmt.Sprintf("Ledger Test Team %d", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("Create team: %v", err)
	}
	return team.ID
}

func createLedgerTestPlayer(t *testing.T, ctx context.Context, pool *pgxpool.Pool, teamID int64) int64 {
	t.Helper()

	player, err := repository.NewPlayerRepository(pool).Create(ctx, repository.CreatePlayerInput{
		TeamID: teamID,
		Name:   "Ledger Test Player",
	})
	if err != nil {
		t.Fatalf("Create player: %v", err)
	}
	return player.ID
}

func cleanupLedgerTestData(t *testing.T, ctx context.Context, pool *pgxpool.Pool, teamID, coachID int64) {
	t.Helper()

	statements := []string{
		"DELETE FROM session_transactions WHERE team_id = $1",
		"DELETE FROM session_balances WHERE team_id = $1",
		"DELETE FROM payments WHERE team_id = $1",
		"DELETE FROM attendance_records WHERE team_id = $1",
		"DELETE FROM practice_notes WHERE team_id = $1",
		"DELETE FROM players WHERE team_id = $1",
		"DELETE FROM teams WHERE id = $1",
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt, teamID); err != nil {
			t.Fatalf("cleanup %q: %v", stmt, err)
		}
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = $1", coachID); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}
