package planner

import (
	"context"
	"slices"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/futarchy-engine/internal/domain"
)

// PlanRedeem plans redeeming both legs of a resolved market. Both redeem
// operations are always emitted; redeeming an empty leg is a no-op on chain.
func (p *Planner) PlanRedeem(ctx context.Context, market, user solana.PublicKey) (*domain.RedeemPlan, error) {
	if market.IsZero() {
		return nil, domain.Validation("proposal address is required")
	}
	if user.IsZero() {
		return nil, domain.Validation("user public key is required")
	}

	proposal, err := p.reader.GetProposal(ctx, market)
	if err != nil {
		return nil, err
	}
	if !proposal.IsExecuted() {
		return nil, domain.InvalidState(proposal.State)
	}

	baseVault, err := p.reader.GetVault(ctx, proposal.BaseVault)
	if err != nil {
		return nil, err
	}
	quoteVault, err := p.reader.GetVault(ctx, proposal.QuoteVault)
	if err != nil {
		return nil, err
	}

	baseHolding, err := p.conditionalHolding(ctx, user, baseVault)
	if err != nil {
		return nil, err
	}
	quoteHolding, err := p.conditionalHolding(ctx, user, quoteVault)
	if err != nil {
		return nil, err
	}

	baseBalance := domain.FromChainAmount(baseHolding, baseVault.Decimals)
	quoteBalance := domain.FromChainAmount(quoteHolding, quoteVault.Decimals)
	if baseHolding == 0 && quoteHolding == 0 {
		return nil, domain.NothingToRedeem(baseBalance, quoteBalance)
	}

	plan := &domain.OperationPlan{
		ID:   p.cfg.NewID(),
		User: user,
		Operations: []domain.Operation{
			redeemOperation(domain.OpRedeemBase, baseVault, baseHolding),
			redeemOperation(domain.OpRedeemQuote, quoteVault, quoteHolding),
		},
	}

	log.Debug().
		Str("plan", plan.ID).
		Uint64("base", baseHolding).
		Uint64("quote", quoteHolding).
		Msg("[Planner] planned redemption")

	return &domain.RedeemPlan{
		Plan:         plan,
		BaseBalance:  baseBalance,
		QuoteBalance: quoteBalance,
	}, nil
}

func redeemOperation(kind domain.OperationKind, vault *domain.ConditionalVault, holding uint64) domain.Operation {
	return domain.Operation{
		Kind: kind,
		Redeem: &domain.RedeemParams{
			Question:               vault.Question,
			Vault:                  vault.Address,
			UnderlyingMint:         vault.UnderlyingTokenMint,
			UnderlyingTokenAccount: vault.UnderlyingTokenAccount,
			ConditionalMints:       slices.Clone(vault.ConditionalTokenMints),
			Holding:                holding,
		},
	}
}
