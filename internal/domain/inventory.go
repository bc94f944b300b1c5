package domain

import "time"

// Inventory is the per-symbol mean-reverting position model feeding the
// order-flow analyzer's inventory adjustment.
type Inventory struct {
	Symbol string
	Position float64
	NeutralLevel float64
	MaxPosition float64
	RiskAversion float64
	MeanReversionRate float64
	LastUpdate time.Time
}

// AdjustmentComponent returns the signed mean-reverting force toward
// NeutralLevel, contributed as a post-normalization inventory
// adjustment. The force grows with distance from neutral and with
// RiskAversion, scaled by MeanReversionRate.
func (inv Inventory) AdjustmentComponent() float64 {
	if inv.MaxPosition <= 0 {
		return 0
	}
	displacement := (inv.Position - inv.NeutralLevel) / inv.MaxPosition
	return -inv.MeanReversionRate * inv.RiskAversion * displacement
}
