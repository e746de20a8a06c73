package domain

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Balance is a token account snapshot. Amount is in chain units.
type Balance struct {
	Account  solana.PublicKey `json:"account"`
	Mint     solana.PublicKey `json:"mint"`
	Amount   uint64           `json:"amount"`
	Decimals uint8            `json:"decimals"`
}

func (b Balance) Decimal() decimal.Decimal {
	return FromChainAmount(b.Amount, b.Decimals)
}

// FromChainAmount converts a chain-unit amount to its human-readable value.
func FromChainAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// maxChainDigits is the number of decimal digits in math.MaxUint64.
const maxChainDigits = 20

// ToChainAmount converts a human-readable amount to chain units, rounding
// down to the nearest whole unit.
func ToChainAmount(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if amount.IsNegative() {
		return 0, Validation("amount must not be negative")
	}
	if amount.IsZero() {
		return 0, nil
	}
	// Order of magnitude in chain units, checked before any rescaling: the
	// exponent is user controlled and shifting by it allocates 10^exp.
	magnitude := int64(amount.NumDigits()) + int64(amount.Exponent()) + int64(decimals)
	if magnitude > maxChainDigits {
		return 0, Validation("amount exceeds the token's maximum supply")
	}
	if magnitude <= 0 {
		return 0, nil
	}
	units := amount.Shift(int32(decimals)).Floor().BigInt()
	if !units.IsUint64() {
		return 0, Validation("amount exceeds the token's maximum supply")
	}
	return units.Uint64(), nil
}
