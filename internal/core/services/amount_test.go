package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppn-chip-sales/internal/core/domain"
)

func TestChipsToStablecoin(t *testing.T) {
	tests := []struct {
		name     string
		chips    int64
		price    string
		expected string
	}{
		{"unit price", 100, "1", "100"},
		{"cent price", 500, "0.01", "5"},
		{"fractional price rounds to cents", 333, "0.0151", "5.03"},
		{"single chip", 1, "0.25", "0.25"},
		{"large package", 100000, "0.01", "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price := decimal.RequireFromString(tt.price)
			got := ChipsToStablecoin(tt.chips, price)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)),
				"got %s, want %s", got, tt.expected)
		})
	}
}

func TestStablecoinToChipsRoundTrip(t *testing.T) {
	prices := []string{"0.01", "0.1", "0.25", "1", "2.5"}
	counts := []int64{1, 7, 100, 500, 12345}

	for _, p := range prices {
		price := decimal.RequireFromString(p)
		for _, chips := range counts {
			amount := ChipsToStablecoin(chips, price)
			back, err := StablecoinToChips(amount, price)
			require.NoError(t, err)
			assert.Equal(t, chips, back, "price %s chips %d", p, chips)
		}
	}
}

func TestStablecoinToChipsInvalid(t *testing.T) {
	_, err := StablecoinToChips(decimal.NewFromInt(10), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = StablecoinToChips(decimal.Zero, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = StablecoinToChips(decimal.NewFromInt(-5), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals int32
		expected int64
	}{
		{"1.50", 6, 1_500_000},
		{"5.00", 6, 5_000_000},
		{"0.01", 6, 10_000},
		{"1000", 6, 1_000_000_000},
		{"2.5", 9, 2_500_000_000},
	}

	for _, tt := range tests {
		got := ToMinorUnits(decimal.RequireFromString(tt.amount), tt.decimals)
		assert.Equal(t, tt.expected, got, "amount %s decimals %d", tt.amount, tt.decimals)
	}
}

// A 500-chip package at 0.01 per chip must price at exactly 5.00 and wire as
// exactly 5,000,000 minor units, with no float residue.
func TestPackagePricingEndToEnd(t *testing.T) {
	price := decimal.RequireFromString("0.01")

	amount := ChipsToStablecoin(500, price)
	assert.True(t, amount.Equal(decimal.RequireFromString("5")), "got %s", amount)
	assert.Equal(t, int64(5_000_000), ToMinorUnits(amount, USDTDecimals))
}
