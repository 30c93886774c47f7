package repository

import (
	"context"
	"time"

	"github.com/mvachon/TeamRosterBack/internal/models"
)

type AttendanceRepository struct {
	db DBTX
}

func NewAttendanceRepository(db DBTX) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) ListByTeamAndDate(
	ctx context.Context,
	teamID int64,
	date time.Time,
) ([]models.AttendanceRecord, error) {
	query := `
		SELECT id, team_id, player_id, session_date, present, created_at, updated_at
		FROM attendance_records
		WHERE team_id = $1 AND session_date = $2
		ORDER BY player_id ASC
	`

	rows, err := r.db.Query(ctx, query, teamID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.AttendanceRecord, 0)
	for rows.Next() {
		var record models.AttendanceRecord
		if err := rows.Scan(
			&record.ID,
			&record.TeamID,
			&record.PlayerID,
			&record.SessionDate,
			&record.Present,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Upsert writes one attendance row for (team, player, date), preserving the
// row id when the row already exists so ledger back-references stay valid.
func (r *AttendanceRepository) Upsert(
	ctx context.Context,
	teamID int64,
	playerID int64,
	date time.Time,
	present bool,
) (*models.AttendanceRecord, error) {
	query := `
		INSERT INTO attendance_records (team_id, player_id, session_date, present)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, player_id, session_date)
		DO UPDATE SET present = EXCLUDED.present, updated_at = NOW()
		RETURNING id, team_id, player_id, session_date, present, created_at, updated_at
	`

	var record models.AttendanceRecord
	err := r.db.QueryRow(ctx, query, teamID, playerID, date, present).Scan(
		&record.ID,
		&record.TeamID,
		&record.PlayerID,
		&record.SessionDate,
		&record.Present,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteMissing removes rows for (team, date) whose player is not in the
// incoming replacement set.
func (r *AttendanceRepository) DeleteMissing(
	ctx context.Context,
	teamID int64,
	date time.Time,
	keepPlayerIDs []int64,
) error {
	if len(keepPlayerIDs) == 0 {
		_, err := r.db.Exec(
			ctx,
			`DELETE FROM attendance_records WHERE team_id = $1 AND session_date = $2`,
			teamID, date,
		)
		return err
	}

	_, err := r.db.Exec(
		ctx,
		`DELETE FROM attendance_records
		 WHERE team_id = $1 AND session_date = $2 AND player_id <> ALL($3)`,
		teamID, date, keepPlayerIDs,
	)
	return err
}
