package planner

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/futarchy-engine/internal/common"
	"github.com/hxuan190/futarchy-engine/internal/domain"
)

var u256BpsDenom = uint256.NewInt(uint64(common.MaxBps))

type Quote struct {
	AmountIn       uint64
	ExpectedOut    uint64
	MinOut         uint64
	PriceImpactBps uint16
}

// QuoteExactIn estimates a constant-product swap of amountIn against
// (reserveIn, reserveOut), fees excluded:
//
//	expectedOut = reserveOut * amountIn / (reserveIn + amountIn)
//	minOut      = expectedOut * (10000 - slippageBps) / 10000
//
// Intermediates are 256-bit so no product of two u64 values can overflow.
func QuoteExactIn(reserveIn, reserveOut, amountIn uint64, slippageBps uint16) (Quote, error) {
	if amountIn == 0 {
		return Quote{}, domain.Validation("swap input amount must be greater than zero")
	}
	if slippageBps > common.MaxBps {
		return Quote{}, domain.Validation("slippageBps must be at most 10000")
	}
	if reserveIn == 0 || reserveOut == 0 {
		return Quote{}, domain.IlliquidPool(reserveIn, reserveOut)
	}

	in := uint256.NewInt(amountIn)
	rIn := uint256.NewInt(reserveIn)
	rOut := uint256.NewInt(reserveOut)

	num := new(uint256.Int).Mul(rOut, in)
	den := new(uint256.Int).Add(rIn, in)
	expected := new(uint256.Int).Div(num, den)

	minOut := new(uint256.Int).Mul(expected, uint256.NewInt(uint64(common.MaxBps-slippageBps)))
	minOut.Div(minOut, u256BpsDenom)

	return Quote{
		AmountIn:       amountIn,
		ExpectedOut:    expected.Uint64(),
		MinOut:         minOut.Uint64(),
		PriceImpactBps: priceImpactBps(num, expected, rIn),
	}, nil
}

// priceImpactBps compares the realized output to the spot-price output
// amountIn * reserveOut / reserveIn.
func priceImpactBps(spotOutNum, expected, reserveIn *uint256.Int) uint16 {
	realized := new(uint256.Int).Mul(expected, reserveIn)
	if realized.Cmp(spotOutNum) >= 0 {
		return 0
	}
	diff := new(uint256.Int).Sub(spotOutNum, realized)
	diff.Mul(diff, u256BpsDenom)
	diff.Div(diff, spotOutNum)
	return uint16(diff.Uint64())
}
