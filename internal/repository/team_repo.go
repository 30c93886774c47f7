package repository

import (
	"context"

	"github.com/mvachon/TeamRosterBack/internal/models"
)

type CreateTeamInput struct {
	OwnerID int64
	Name    string
	Sport   *string
}

type UpdateTeamInput struct {
	Name  string
	Sport *string
}

type TeamRepository struct {
	db DBTX
}

func NewTeamRepository(db DBTX) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	query := `
		INSERT INTO teams (owner_id, name, sport)
		VALUES ($1, $2, $3)
		RETURNING id, owner_id, name, sport, created_at, updated_at
	`

	var team models.Team
	err := r.db.QueryRow(ctx, query, input.OwnerID, input.Name, input.Sport).Scan(
		&team.ID,
		&team.OwnerID,
		&team.Name,
		&team.Sport,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (*models.Team, error) {
	query := `
		SELECT id, owner_id, name, sport, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	var team models.Team
	err := r.db.QueryRow(ctx, query, teamID).Scan(
		&team.ID,
		&team.OwnerID,
		&team.Name,
		&team.Sport,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// ListForUser returns teams the user owns plus teams where the user is the
// guardian of at least one player.
func (r *TeamRepository) ListForUser(ctx context.Context, userID int64) ([]models.Team, error) {
	query := `
		SELECT DISTINCT t.id, t.owner_id, t.name, t.sport, t.created_at, t.updated_at
		FROM teams t
		LEFT JOIN players p ON p.team_id = t.id
		WHERE t.owner_id = $1 OR p.guardian_id = $1
		ORDER BY t.id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(
			&team.ID,
			&team.OwnerID,
			&team.Name,
			&team.Sport,
			&team.CreatedAt,
			&team.UpdatedAt,
		); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return teams, nil
}

func (r *TeamRepository) Update(ctx context.Context, teamID int64, input UpdateTeamInput) (*models.Team, error) {
	query := `
		UPDATE teams
		SET name = $2, sport = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, owner_id, name, sport, created_at, updated_at
	`

	var team models.Team
	err := r.db.QueryRow(ctx, query, teamID, input.Name, input.Sport).Scan(
		&team.ID,
		&team.OwnerID,
		&team.Name,
		&team.Sport,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepository) Delete(ctx context.Context, teamID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	return err
}

// IsGuardianOnTeam reports whether the user is listed as the guardian of any
// player on the team. Used for read-only view gating.
func (r *TeamRepository) IsGuardianOnTeam(ctx context.Context, teamID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM players WHERE team_id = $1 AND guardian_id = $2
		)
	`
	var isGuardian bool
	if err := r.db.QueryRow(ctx, query, teamID, userID).Scan(&isGuardian); err != nil {
		return false, err
	}
	return isGuardian, nil
}
