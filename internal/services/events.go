package services

// LedgerEvent describes one committed balance change. Events are published
// after the transaction commits and delivery is best-effort; the ledger
// table, not the event stream, is the record of truth.
type LedgerEvent struct {
	TeamID            int64  `json:"team_id"`
	PlayerID          int64  `json:"player_id"`
	SessionChange     int    `json:"session_change"`
	Reason            string `json:"reason"`
	RemainingSessions int    `json:"remaining_sessions"`
}

type LedgerEventPublisher interface {
	PublishLedgerEvent(event LedgerEvent)
}
