package handlers

import (
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/mvachon/TeamRosterBack/internal/repository"
	ledgerws "github.com/mvachon/TeamRosterBack/internal/websocket"
	"github.com/mvachon/TeamRosterBack/pkg/utils"
)

// LedgerFeedHandler upgrades authorized clients onto the per-team ledger
// event feed.
type LedgerFeedHandler struct {
	teamRepo  *repository.TeamRepository
	hub       *ledgerws.Hub
	jwtSecret string
}

func NewLedgerFeedHandler(teamRepo *repository.TeamRepository, hub *ledgerws.Hub, jwtSecret string) *LedgerFeedHandler {
	return &LedgerFeedHandler{
		teamRepo:  teamRepo,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

func (h *LedgerFeedHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	teamID, err := strconv.ParseInt(c.Query("team_id"), 10, 64)
	if err != nil || teamID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "team_id query parameter is required"})
	}

	team, err := h.teamRepo.GetByID(c.Context(), teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Team not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch team"})
	}
	if team.OwnerID != userID {
		isGuardian, err := h.teamRepo.IsGuardianOnTeam(c.Context(), teamID, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch team"})
		}
		if !isGuardian {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("team_id", teamID)
	return c.Next()
}

func (h *LedgerFeedHandler) HandleWebSocket(conn *websocket.Conn) {
	teamID, _ := conn.Locals("team_id").(int64)
	client := ledgerws.NewClient(h.hub, conn, teamID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *LedgerFeedHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
