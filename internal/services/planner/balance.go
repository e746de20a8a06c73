package planner

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/futarchy-engine/internal/domain"
)

// BalanceOf returns the user's balance of mint. It fails with
// domain.ErrAccountNotFound when the user has no token account for it.
func (p *Planner) BalanceOf(ctx context.Context, user, mint solana.PublicKey) (domain.Balance, error) {
	return p.reader.GetTokenBalance(ctx, user, mint)
}

// balanceOrZero treats a missing token account as an empty one. Decimals
// still come from the mint so the zero converts like any other balance.
func (p *Planner) balanceOrZero(ctx context.Context, user, mint solana.PublicKey) (domain.Balance, error) {
	b, err := p.reader.GetTokenBalance(ctx, user, mint)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return domain.Balance{}, err
	}

	decimals, err := p.reader.GetMintDecimals(ctx, mint)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{Mint: mint, Decimals: decimals}, nil
}

// conditionalHolding sums the user's balances across a vault's conditional
// mints. Missing accounts count as zero.
func (p *Planner) conditionalHolding(ctx context.Context, user solana.PublicKey, vault *domain.ConditionalVault) (uint64, error) {
	var total uint64
	for _, mint := range vault.ConditionalTokenMints {
		b, err := p.balanceOrZero(ctx, user, mint)
		if err != nil {
			return 0, err
		}
		if total+b.Amount < total {
			return ^uint64(0), nil
		}
		total += b.Amount
	}
	return total, nil
}
