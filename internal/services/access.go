package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/mvachon/TeamRosterBack/internal/models"
)

var (
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTeamNotFound        = errors.New("team not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrInvalidSessionCount = errors.New("session count must be a positive integer")
)

type teamReader interface {
	GetByID(ctx context.Context, teamID int64) (*models.Team, error)
	IsGuardianOnTeam(ctx context.Context, teamID, userID int64) (bool, error)
}

type playerReader interface {
	GetByID(ctx context.Context, playerID int64) (*models.Player, error)
	ListByTeam(ctx context.Context, teamID int64) ([]models.Player, error)
}

// requireTeamOwner resolves the team and checks that the actor owns it.
// Only owners may mutate anything under a team.
func requireTeamOwner(ctx context.Context, teams teamReader, actorID, teamID int64) (*models.Team, error) {
	team, err := teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if team.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return team, nil
}

// requireTeamViewer allows the owner plus guardians of players on the team.
func requireTeamViewer(ctx context.Context, teams teamReader, actorID, teamID int64) (*models.Team, error) {
	team, err := teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if team.OwnerID == actorID {
		return team, nil
	}
	isGuardian, err := teams.IsGuardianOnTeam(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	if !isGuardian {
		return nil, ErrForbidden
	}
	return team, nil
}

// canViewTeamPlayer allows the team owner and the player's own guardian.
func canViewTeamPlayer(ctx context.Context, teams teamReader, actorID, teamID int64, player *models.Player) (bool, error) {
	team, err := teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrTeamNotFound
		}
		return false, err
	}
	if team.OwnerID == actorID {
		return true, nil
	}
	return player.GuardianID != nil && *player.GuardianID == actorID, nil
}

// resolveTeamPlayer fetches the player and checks it belongs to the team.
func resolveTeamPlayer(ctx context.Context, players playerReader, teamID, playerID int64) (*models.Player, error) {
	player, err := players.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if player.TeamID != teamID {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}
