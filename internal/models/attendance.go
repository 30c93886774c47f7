package models

import "time"

type AttendanceRecord struct {
	ID          int64     `json:"id"`
	TeamID      int64     `json:"team_id"`
	PlayerID    int64     `json:"player_id"`
	SessionDate time.Time `json:"session_date"`
	Present     bool      `json:"present"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
