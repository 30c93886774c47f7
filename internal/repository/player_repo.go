package repository

import (
	"context"

	"github.com/mvachon/TeamRosterBack/internal/models"
)

type CreatePlayerInput struct {
	TeamID     int64
	Name       string
	GuardianID *int64
}

type UpdatePlayerInput struct {
	Name       string
	GuardianID *int64
	Active     bool
}

type PlayerRepository struct {
	db DBTX
}

func NewPlayerRepository(db DBTX) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Create(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	query := `
		INSERT INTO players (team_id, name, guardian_id)
		VALUES ($1, $2, $3)
		RETURNING id, team_id, name, guardian_id, active, created_at, updated_at
	`

	var player models.Player
	err := r.db.QueryRow(ctx, query, input.TeamID, input.Name, input.GuardianID).Scan(
		&player.ID,
		&player.TeamID,
		&player.Name,
		&player.GuardianID,
		&player.Active,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID int64) (*models.Player, error) {
	query := `
		SELECT id, team_id, name, guardian_id, active, created_at, updated_at
		FROM players
		WHERE id = $1
	`

	var player models.Player
	err := r.db.QueryRow(ctx, query, playerID).Scan(
		&player.ID,
		&player.TeamID,
		&player.Name,
		&player.GuardianID,
		&player.Active,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID int64) ([]models.Player, error) {
	query := `
		SELECT id, team_id, name, guardian_id, active, created_at, updated_at
		FROM players
		WHERE team_id = $1
		ORDER BY name ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var player models.Player
		if err := rows.Scan(
			&player.ID,
			&player.TeamID,
			&player.Name,
			&player.GuardianID,
			&player.Active,
			&player.CreatedAt,
			&player.UpdatedAt,
		); err != nil {
			return nil, err
		}
		players = append(players, player)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return players, nil
}

func (r *PlayerRepository) Update(ctx context.Context, playerID int64, input UpdatePlayerInput) (*models.Player, error) {
	query := `
		UPDATE players
		SET name = $2, guardian_id = $3, active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, team_id, name, guardian_id, active, created_at, updated_at
	`

	var player models.Player
	err := r.db.QueryRow(ctx, query, playerID, input.Name, input.GuardianID, input.Active).Scan(
		&player.ID,
		&player.TeamID,
		&player.Name,
		&player.GuardianID,
		&player.Active,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *PlayerRepository) Delete(ctx context.Context, playerID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM players WHERE id = $1`, playerID)
	return err
}
