package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Payment struct {
	ID                 int64           `json:"id"`
	TeamID             int64           `json:"team_id"`
	PlayerID           int64           `json:"player_id"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentDate        time.Time       `json:"payment_date"`
	Reference          uuid.UUID       `json:"reference"`
	Notes              *string         `json:"notes"`
	AddPrepaidSessions bool            `json:"add_prepaid_sessions"`
	SessionCount       *int            `json:"session_count"`
	CreatedBy          int64           `json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
}
