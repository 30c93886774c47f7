package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/mvachon/TeamRosterBack/internal/services"
)

type attendanceApplicationService interface {
	Reconcile(ctx context.Context, actorID, teamID int64, date time.Time, records []services.AttendanceInput) ([]models.AttendanceRecord, error)
	ListByDate(ctx context.Context, actorID, teamID int64, date time.Time) ([]models.AttendanceRecord, error)
}

type AttendanceHandler struct {
	service attendanceApplicationService
}

func NewAttendanceHandler(service *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

type attendanceEntry struct {
	PlayerID int64 `json:"player_id" validate:"required,gt=0"`
	Present  bool  `json:"present"`
}

type reconcileAttendanceRequest struct {
	Records []attendanceEntry `json:"records" validate:"dive"`
}

// SubmitAttendance replaces the attendance for one (team, date) with the
// posted set and settles prepaid balances for the difference.
func (h *AttendanceHandler) SubmitAttendance(c *fiber.Ctx) error {
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

	date, err := parseDateParam(c.Params("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}

	var req reconcileAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid attendance records"})
	}

	records := make([]services.AttendanceInput, 0, len(req.Records))
	for _, entry := range req.Records {
		records = append(records, services.AttendanceInput{
			PlayerID: entry.PlayerID,
			Present:  entry.Present,
		})
	}

	updated, err := h.service.Reconcile(c.Context(), actorID, teamID, date, records)
	if err != nil {
		return mapLedgerError(c, err)
	}

	return c.JSON(fiber.Map{"attendance": updated})
}

func (h *AttendanceHandler) GetAttendance(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team id"})
	}

	date, err := parseDateParam(c.Params("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}

	records, err := h.service.ListByDate(c.Context(), actorID, teamID, date)
	if err != nil {
		return mapLedgerError(c, err)
	}

	return c.JSON(fiber.Map{"attendance": records})
}
