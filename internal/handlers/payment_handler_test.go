package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/mvachon/TeamRosterBack/internal/services"
	"github.com/shopspring/decimal"
)

type stubPaymentService struct {
	createResult *services.PaymentDetail
	createErr    error
	listResult   []models.Payment
	listErr      error
	lastActorID  int64
	lastTeamID   int64
	lastPlayerID int64
	lastInput    services.CreatePaymentInput
}

func (s *stubPaymentService) CreatePayment(_ context.Context, actorID, teamID int64, input services.CreatePaymentInput) (*services.PaymentDetail, error) {
	s.lastActorID = actorID
	s.lastTeamID = teamID
	s.lastInput = input
	return s.createResult, s.createErr
}

func (s *stubPaymentService) ListPayments(_ context.Context, actorID, teamID int64) ([]models.Payment, error) {
	s.lastActorID = actorID
	s.lastTeamID = teamID
	return s.listResult, s.listErr
}

func (s *stubPaymentService) ListPlayerPayments(_ context.Context, actorID, teamID, playerID int64) ([]models.Payment, error) {
	s.lastActorID = actorID
	s.lastTeamID = teamID
	s.lastPlayerID = playerID
	return s.listResult, s.listErr
}

func newPaymentTestApp(service *stubPaymentService, role string) *fiber.App {
	handler := &PaymentHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Post("/api/v1/teams/:teamId/payments", handler.CreatePayment)
	app.Get("/api/v1/teams/:teamId/payments", handler.ListPayments)
	app.Get("/api/v1/teams/:teamId/players/:playerId/payments", handler.ListPlayerPayments)
	return app
}

func TestCreatePaymentReturnsCreatedDetail(t *testing.T) {
	ten := 10
	service := &stubPaymentService{
		createResult: &services.PaymentDetail{
			Payment: models.Payment{
				ID:                 71,
				TeamID:             3,
				PlayerID:           11,
				Amount:             decimal.NewFromInt(300),
				AddPrepaidSessions: true,
				SessionCount:       &ten,
			},
			Balance: &models.SessionBalance{PlayerID: 11, TeamID: 3, RemainingSessions: 10},
		},
	}
	app := newPaymentTestApp(service, "coach")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/teams/3/payments", strings.NewReader(`{
		"player_id": 11,
		"amount": "300.00",
		"payment_date": "2026-06-01",
		"add_prepaid_sessions": true,
		"session_count": 10
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastTeamID != 3 {
		t.Fatalf("unexpected actor/team: %d/%d", service.lastActorID, service.lastTeamID)
	}
	if !service.lastInput.Amount.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("unexpected amount: %s", service.lastInput.Amount)
	}
	if !service.lastInput.AddPrepaidSessions || service.lastInput.SessionCount == nil || *service.lastInput.SessionCount != 10 {
		t.Fatalf("unexpected session grant input: %+v", service.lastInput)
	}

	var body struct {
		Payment services.PaymentDetail `json:"payment"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Payment.Balance == nil || body.Payment.Balance.RemainingSessions != 10 {
		t.Fatalf("expected balance with 10 remaining, got %+v", body.Payment.Balance)
	}
}

func TestCreatePaymentRejectsGuardians(t *testing.T) {
	service := &stubPaymentService{}
	app := newPaymentTestApp(service, "guardian")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/teams/3/payments", strings.NewReader(`{
		"player_id": 11, "amount": "300.00", "payment_date": "2026-06-01"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestCreatePaymentRejectsNonDecimalAmount(t *testing.T) {
	service := &stubPaymentService{}
	app := newPaymentTestApp(service, "coach")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/teams/3/payments", strings.NewReader(`{
		"player_id": 11, "amount": "three hundred", "payment_date": "2026-06-01"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreatePaymentMapsInvalidSessionCount(t *testing.T) {
	service := &stubPaymentService{createErr: services.ErrInvalidSessionCount}
	app := newPaymentTestApp(service, "coach")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/teams/3/payments", strings.NewReader(`{
		"player_id": 11, "amount": "300.00", "payment_date": "2026-06-01", "add_prepaid_sessions": true
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListPaymentsReturnsTeamPayments(t *testing.T) {
	service := &stubPaymentService{
		listResult: []models.Payment{
			{ID: 1, TeamID: 3, PlayerID: 11, Amount: decimal.NewFromInt(300)},
		},
	}
	app := newPaymentTestApp(service, "guardian")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams/3/payments", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastTeamID != 3 {
		t.Fatalf("expected team 3, got %d", service.lastTeamID)
	}
}

func TestListPlayerPaymentsForwardsPlayer(t *testing.T) {
	service := &stubPaymentService{
		listResult: []models.Payment{
			{ID: 2, TeamID: 3, PlayerID: 11, Amount: decimal.NewFromInt(150)},
		},
	}
	app := newPaymentTestApp(service, "guardian")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams/3/players/11/payments", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastPlayerID != 11 {
		t.Fatalf("expected player 11, got %d", service.lastPlayerID)
	}
}
