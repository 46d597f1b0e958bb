package domain

import (
	"errors"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrProviderRequired = errors.New("fuel provider is required")
	ErrFuelTypeInvalid  = errors.New("unknown fuel type")
	ErrPriceNotPositive = errors.New("fuel price must be positive")
)

// =============================================================================
// Fuel Prices
// =============================================================================

// FuelType enumerates the fuel categories shown on the price comparison page.
type FuelType string

const (
	FuelRegular FuelType = "regular"
	FuelPremium FuelType = "premium"
	FuelSuper   FuelType = "super"
	FuelDiesel  FuelType = "diesel"
	FuelGas     FuelType = "gas"
)

// IsValid checks if the fuel type is one of the known categories.
func (f FuelType) IsValid() bool {
	switch f {
	case FuelRegular, FuelPremium, FuelSuper, FuelDiesel, FuelGas:
		return true
	default:
		return false
	}
}

// FuelPrice is one provider's current price for one fuel type. Prices are
// stored in tetri (1/100 GEL) to avoid floating point money.
type FuelPrice struct {
	ID         int64     `json:"id"`
	Provider   string    `json:"provider"`
	Fuel       FuelType  `json:"fuel"`
	PriceTetri int64     `json:"price_tetri"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks the price row before it is upserted.
func (p *FuelPrice) Validate() error {
	if p.Provider == "" {
		return ErrProviderRequired
	}
	if !p.Fuel.IsValid() {
		return ErrFuelTypeInvalid
	}
	if p.PriceTetri <= 0 {
		return ErrPriceNotPositive
	}
	return nil
}
