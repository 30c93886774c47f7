package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/mvachon/TeamRosterBack/internal/repository"
)

type NoteHandler struct {
	teamRepo *repository.TeamRepository
	noteRepo *repository.PracticeNoteRepository
}

func NewNoteHandler(teamRepo *repository.TeamRepository, noteRepo *repository.PracticeNoteRepository) *NoteHandler {
	return &NoteHandler{teamRepo: teamRepo, noteRepo: noteRepo}
}

type noteRequest struct {
	PlayerID     *int64 `json:"player_id" validate:"omitempty,gt=0"`
	PracticeDate string `json:"practice_date" validate:"required"`
	Notes        string `json:"notes" validate:"required,max=2000"`
}

func (h *NoteHandler) CreateNote(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team id"})
	}

	var req noteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Notes = strings.TrimSpace(req.Notes)
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid note fields"})
	}

	practiceDate, err := parseDateParam(req.PracticeDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "practice_date must be YYYY-MM-DD"})
	}

	team, err := h.teamRepo.GetByID(c.Context(), teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Team not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch team"})
	}
	if team.OwnerID != actorID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	note, err := h.noteRepo.Create(c.Context(), repository.CreatePracticeNoteInput{
		TeamID:       teamID,
		PlayerID:     req.PlayerID,
		PracticeDate: practiceDate,
		Notes:        req.Notes,
		CreatedBy:    actorID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create note"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"note": note})
}

func (h *NoteHandler) ListNotes(c *fiber.Ctx) error {
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

	notes, err := h.noteRepo.ListByTeam(c.Context(), teamID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list notes"})
	}

	return c.JSON(fiber.Map{"notes": notes})
}

func (h *NoteHandler) DeleteNote(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team id"})
	}
	noteID, err := parseIDParam(c, "noteId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid note id"})
	}

	team, err := h.teamRepo.GetByID(c.Context(), teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Team not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch team"})
	}
	if team.OwnerID != actorID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	note, err := h.noteRepo.GetByID(c.Context(), noteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Note not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch note"})
	}
	if note.TeamID != teamID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Note not found"})
	}

	if err := h.noteRepo.Delete(c.Context(), noteID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete note"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
