package repository

import (
	"context"
	"time"

	"github.com/mvachon/TeamRosterBack/internal/models"
)

type CreatePracticeNoteInput struct {
	TeamID       int64
	PlayerID     *int64
	PracticeDate time.Time
	Notes        string
	CreatedBy    int64
}

type PracticeNoteRepository struct {
	db DBTX
}

func NewPracticeNoteRepository(db DBTX) *PracticeNoteRepository {
	return &PracticeNoteRepository{db: db}
}

func (r *PracticeNoteRepository) Create(ctx context.Context, input CreatePracticeNoteInput) (*models.PracticeNote, error) {
	query := `
		INSERT INTO practice_notes (team_id, player_id, practice_date, notes, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, team_id, player_id, practice_date, notes, created_by, created_at
	`

	var note models.PracticeNote
	err := r.db.QueryRow(
		ctx,
		query,
		input.TeamID,
		input.PlayerID,
		input.PracticeDate,
		input.Notes,
		input.CreatedBy,
	).Scan(
		&note.ID,
		&note.TeamID,
		&note.PlayerID,
		&note.PracticeDate,
		&note.Notes,
		&note.CreatedBy,
		&note.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *PracticeNoteRepository) ListByTeam(ctx context.Context, teamID int64) ([]models.PracticeNote, error) {
	query := `
		SELECT id, team_id, player_id, practice_date, notes, created_by, created_at
		FROM practice_notes
		WHERE team_id = $1
		ORDER BY practice_date DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]models.PracticeNote, 0)
	for rows.Next() {
		var note models.PracticeNote
		if err := rows.Scan(
			&note.ID,
			&note.TeamID,
			&note.PlayerID,
			&note.PracticeDate,
			&note.Notes,
			&note.CreatedBy,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

func (r *PracticeNoteRepository) GetByID(ctx context.Context, noteID int64) (*models.PracticeNote, error) {
	query := `
		SELECT id, team_id, player_id, practice_date, notes, created_by, created_at
		FROM practice_notes
		WHERE id = $1
	`

	var note models.PracticeNote
	err := r.db.QueryRow(ctx, query, noteID).Scan(
		&note.ID,
		&note.TeamID,
		&note.PlayerID,
		&note.PracticeDate,
		&note.Notes,
		&note.CreatedBy,
		&note.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *PracticeNoteRepository) Delete(ctx context.Context, noteID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM practice_notes WHERE id = $1`, noteID)
	return err
}
