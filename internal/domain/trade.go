package domain

import (
	"time"

	"github.com/google/uuid"
)

type Action string

const (ActionBuy Action = "buy"
	ActionSell Action = "sell")

// Trade is the signal emitted downstream, with attached risk parameters.
type Trade struct {
	ID string
	Symbol string
	Timeframe Timeframe
	Timestamp time.Time
	Action Action
	Entry float64
	SL float64
	TP float64
	Score float64
	ConfidenceModifier float64
	Volume float64
	Metadata TradeMetadata
}

// TradeMetadata carries the audit trail a Trade was composed from, for
// journaling and post-hoc review.
type TradeMetadata struct {
	MSDirection string
	MSScore float64
	OFDirection string
	OFScore float64
	WyckoffPhase string
	NearestSupply *float64
	NearestDemand *float64
	VSASignal string
	SLReason string
	TPReason string
}

// NewTradeID generates a fresh UUID for a Trade record. Submission is
// idempotent by this ID.
func NewTradeID() string {
	return uuid.NewString()
}

// FillStatus mirrors the on_fill callback contract.
type FillStatus string

const (FillFilled FillStatus = "filled"
	FillPartial FillStatus = "partial"
	FillRejected FillStatus = "rejected")

// Fill is the payload of the on_fill inbound callback.
type Fill struct {
	Ticket string
	Symbol string
	Side Action
	Volume float64
	Price float64
	PnL *float64
	Status FillStatus
}
