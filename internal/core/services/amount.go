package services

import (
	"github.com/shopspring/decimal"

	"ppn-chip-sales/internal/core/domain"
)

// USDTDecimals is the minor-unit precision of the USDT jetton
const USDTDecimals = 6

// ChipsToStablecoin converts a chip count into its stablecoin price, rounded
// to currency precision (2 decimal places).
func ChipsToStablecoin(chips int64, pricePerChip decimal.Decimal) decimal.Decimal {
	return pricePerChip.Mul(decimal.NewFromInt(chips)).Round(2)
}

// StablecoinToChips converts a stablecoin amount back into a chip count.
// Fails when the result would not be a positive count.
func StablecoinToChips(amount, pricePerChip decimal.Decimal) (int64, error) {
	if pricePerChip.Sign() <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	chips := amount.Div(pricePerChip).Round(0)
	if chips.Sign() <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	return chips.IntPart(), nil
}

// ToMinorUnits converts a stablecoin amount into its fixed-point integer
// representation for the on-chain transfer. decimal arithmetic keeps the
// boundary free of binary-float residue.
func ToMinorUnits(amount decimal.Decimal, decimals int32) int64 {
	return amount.Shift(decimals).Round(0).IntPart()
}
