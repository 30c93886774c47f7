package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/mvachon/TeamRosterBack/internal/repository"
)

type PlayerHandler struct {
	teamRepo   *repository.TeamRepository
	playerRepo *repository.PlayerRepository
}

func NewPlayerHandler(teamRepo *repository.TeamRepository, playerRepo *repository.PlayerRepository) *PlayerHandler {
	return &PlayerHandler{teamRepo: teamRepo, playerRepo: playerRepo}
}

type playerRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	GuardianID *int64 `json:"guardian_id" validate:"omitempty,gt=0"`
	Active     *bool  `json:"active"`
}

// requireOwnedTeam loads the team and rejects non-owners.
func (h *PlayerHandler) requireOwnedTeam(c *fiber.Ctx, actorID, teamID int64) (*models.Team, error) {
	team, err := h.teamRepo.GetByID(c.Context(), teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Team not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch team"})
	}
	if team.OwnerID != actorID {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	return team, nil
}

func (h *PlayerHandler) CreatePlayer(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team id"})
	}

	var req playerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid player fields"})
	}

	if _, err := h.requireOwnedTeam(c, actorID, teamID); err != nil {
		return err
	}

	player, err := h.playerRepo.Create(c.Context(), repository.CreatePlayerInput{
		TeamID:     teamID,
		Name:       req.Name,
		GuardianID: req.GuardianID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create player"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"player": player})
}

func (h *PlayerHandler) ListPlayers(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team id"})
	}

	team, err := h.teamRepo.GetByID(c.Context(), teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Team not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch team"})
	}
	if team.OwnerID != actorID {
		isGuardian, err := h.teamRepo.IsGuardianOnTeam(c.Context(), teamID, actorID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch team"})
		}
		if !isGuardian {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	}

	players, err := h.playerRepo.ListByTeam(c.Context(), teamID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list players"})
	}

	return c.JSON(fiber.Map{"players": players})
}

func (h *PlayerHandler) UpdatePlayer(c *fiber.Ctx) error {
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

	var req playerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid player fields"})
	}

	if _, err := h.requireOwnedTeam(c, actorID, teamID); err != nil {
		return err
	}

	player, err := h.playerRepo.GetByID(c.Context(), playerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Player not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch player"})
	}
	if player.TeamID != teamID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Player not found"})
	}

	active := player.Active
	if req.Active != nil {
		active = *req.Active
	}

	updated, err := h.playerRepo.Update(c.Context(), playerID, repository.UpdatePlayerInput{
		Name:       req.Name,
		GuardianID: req.GuardianID,
		Active:     active,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update player"})
	}

	return c.JSON(fiber.Map{"player": updated})
}

func (h *PlayerHandler) DeletePlayer(c *fiber.Ctx) error {
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

	if _, err := h.requireOwnedTeam(c, actorID, teamID); err != nil {
		return err
	}

	player, err := h.playerRepo.GetByID(c.Context(), playerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Player not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch player"})
	}
	if player.TeamID != teamID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Player not found"})
	}

	if err := h.playerRepo.Delete(c.Context(), playerID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete player"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
