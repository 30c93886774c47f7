package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/mvachon/TeamRosterBack/internal/services"
)

type ledgerApplicationService interface {
	GetBalance(ctx context.Context, actorID, teamID, playerID int64) (*models.SessionBalance, error)
	ListBalances(ctx context.Context, actorID, teamID int64) ([]models.SessionBalance, error)
	ListTransactions(ctx context.Context, actorID, teamID, playerID int64, limit, offset int) ([]models.SessionTransaction, int, error)
	ListTeamTransactions(ctx context.Context, actorID, teamID int64) ([]models.SessionTransaction, error)
	AdjustBalance(ctx context.Context, actorID, teamID, playerID int64, input services.AdjustBalanceInput) (*models.SessionBalance, error)
}

type BalanceHandler struct {
	service ledgerApplicationService
}

func NewBalanceHandler(service *services.LedgerService) *BalanceHandler {
	return &BalanceHandler{service: service}
}

type adjustBalanceRequest struct {
	RemainingSessions int     `json:"remaining_sessions"`
	TotalSessions     *int    `json:"total_sessions"`
	ExpirationDate    *string `json:"expiration_date"`
	Notes             *string `json:"notes" validate:"omitempty,max=500"`
}

func (h *BalanceHandler) GetBalance(c *fiber.Ctx) error {
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

	balance, err := h.service.GetBalance(c.Context(), actorID, teamID, playerID)
	if err != nil {
		return mapLedgerError(c, err)
	}

	return c.JSON(fiber.Map{"balance": balance})
}

func (h *BalanceHandler) ListBalances(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team id"})
	}

	balances, err := h.service.ListBalances(c.Context(), actorID, teamID)
	if err != nil {
		return mapLedgerError(c, err)
	}

	return c.JSON(fiber.Map{"balances": balances})
}

func (h *BalanceHandler) ListTransactions(c *fiber.Ctx) error {
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

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageLimit)))
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	transactions, total, err := h.service.ListTransactions(
		c.Context(), actorID, teamID, playerID, limit, (page-1)*limit,
	)
	if err != nil {
		return mapLedgerError(c, err)
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"pagination":   buildPaginationMeta(page, limit, total),
	})
}

func (h *BalanceHandler) ListTeamTransactions(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team id"})
	}

	transactions, err := h.service.ListTeamTransactions(c.Context(), actorID, teamID)
	if err != nil {
		return mapLedgerError(c, err)
	}

	return c.JSON(fiber.Map{"transactions": transactions})
}

func (h *BalanceHandler) AdjustBalance(c *fiber.Ctx) error {
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
	playerID, err := parseIDParam(c, "playerId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid player id"})
	}

	var req adjustBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid adjustment fields"})
	}

	var expirationDate *time.Time
	if req.ExpirationDate != nil {
		parsed, err := parseDateParam(*req.ExpirationDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expiration_date must be YYYY-MM-DD"})
		}
		expirationDate = &parsed
	}

	balance, err := h.service.AdjustBalance(c.Context(), actorID, teamID, playerID, services.AdjustBalanceInput{
		RemainingSessions: req.RemainingSessions,
		TotalSessions:     req.TotalSessions,
		ExpirationDate:    expirationDate,
		Notes:             req.Notes,
	})
	if err != nil {
		return mapLedgerError(c, err)
	}

	return c.JSON(fiber.Map{"balance": balance})
}
