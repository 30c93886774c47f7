package models

import "time"

type Team struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	Sport     *string   `json:"sport"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Player struct {
	ID         int64     `json:"id"`
	TeamID     int64     `json:"team_id"`
	Name       string    `json:"name"`
	GuardianID *int64    `json:"guardian_id"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type PracticeNote struct {
	ID           int64     `json:"id"`
	TeamID       int64     `json:"team_id"`
	PlayerID     *int64    `json:"player_id"`
	PracticeDate time.Time `json:"practice_date"`
	Notes        string    `json:"notes"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}
