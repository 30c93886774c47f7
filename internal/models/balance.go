package models

import "time"

// SessionBalance is the cached projection of a player's prepaid session
// ledger for one team. RemainingSessions must equal TotalSessions minus
// UsedSessions after every write; it may go negative (overdraft).
type SessionBalance struct {
	ID                int64      `json:"id"`
	PlayerID          int64      `json:"player_id"`
	TeamID            int64      `json:"team_id"`
	TotalSessions     int        `json:"total_sessions"`
	UsedSessions      int        `json:"used_sessions"`
	RemainingSessions int        `json:"remaining_sessions"`
	ExpirationDate    *time.Time `json:"expiration_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Session transaction reasons. Each ledger row records exactly one of these.
const (
	TransactionReasonPurchase   = "purchase"
	TransactionReasonAttendance = "attendance"
	TransactionReasonAdjustment = "adjustment"
)

// SessionTransaction is one append-only ledger row. Rows are never updated
// or deleted; for a given (player, team) the sum of SessionChange equals the
// balance's RemainingSessions.
type SessionTransaction struct {
	ID              int64     `json:"id"`
	PlayerID        int64     `json:"player_id"`
	TeamID          int64     `json:"team_id"`
	SessionChange   int       `json:"session_change"`
	Reason          string    `json:"reason"`
	PaymentID       *int64    `json:"payment_id"`
	AttendanceID    *int64    `json:"attendance_id"`
	TransactionDate time.Time `json:"transaction_date"`
	Notes           *string   `json:"notes"`
	CreatedBy       int64     `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}
