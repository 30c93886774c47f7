package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/mvachon/TeamRosterBack/internal/services"
	"github.com/shopspring/decimal"
)

type paymentApplicationService interface {
	CreatePayment(ctx context.Context, actorID, teamID int64, input services.CreatePaymentInput) (*services.PaymentDetail, error)
	ListPayments(ctx context.Context, actorID, teamID int64) ([]models.Payment, error)
	ListPlayerPayments(ctx context.Context, actorID, teamID, playerID int64) ([]models.Payment, error)
}

type PaymentHandler struct {
	service paymentApplicationService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type createPaymentRequest struct {
	PlayerID           int64   `json:"player_id" validate:"required,gt=0"`
	Amount             string  `json:"amount" validate:"required"`
	PaymentDate        string  `json:"payment_date" validate:"required"`
	Notes              *string `json:"notes" validate:"omitempty,max=500"`
	AddPrepaidSessions bool    `json:"add_prepaid_sessions"`
	SessionCount       *int    `json:"session_count"`
}

func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "coach" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team id"})
	}

	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment fields"})
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be a decimal number"})
	}

	paymentDate, err := parseDateParam(req.PaymentDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_date must be YYYY-MM-DD"})
	}

	detail, err := h.service.CreatePayment(c.Context(), actorID, teamID, services.CreatePaymentInput{
		PlayerID:           req.PlayerID,
		Amount:             amount,
		PaymentDate:        paymentDate,
		Notes:              req.Notes,
		AddPrepaidSessions: req.AddPrepaidSessions,
		SessionCount:       req.SessionCount,
	})
	if err != nil {
		return mapLedgerError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment": detail})
}

func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team id"})
	}

	payments, err := h.service.ListPayments(c.Context(), actorID, teamID)
	if err != nil {
		return mapLedgerError(c, err)
	}

	return c.JSON(fiber.Map{"payments": payments})
}

func (h *PaymentHandler) ListPlayerPayments(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team id"})
	}
	playerID, err := parseIDParam(c, "playerId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid player id"})
	}

	payments, err := h.service.ListPlayerPayments(c.Context(), actorID, teamID, playerID)
	if err != nil {
		return mapLedgerError(c, err)
	}

	return c.JSON(fiber.Map{"payments": payments})
}
