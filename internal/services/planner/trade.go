package planner

import (
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/futarchy-engine/internal/domain"
)

// PlanTrade dispatches on the intent's direction.
func (p *Planner) PlanTrade(ctx context.Context, intent domain.TradeIntent) (*domain.TradePlan, error) {
	if intent.Direction == domain.DirectionSell {
		return p.PlanSell(ctx, intent)
	}
	return p.PlanBuy(ctx, intent)
}

// PlanBuy plans spending intent.Amount of the quote token for the side's
// conditional base token. The user's conditional quote balance is spent
// first and any shortfall is split from spot quote.
func (p *Planner) PlanBuy(ctx context.Context, intent domain.TradeIntent) (*domain.TradePlan, error) {
	intent.Direction = domain.DirectionBuy
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	proposal, err := p.reader.GetProposal(ctx, intent.Market)
	if err != nil {
		return nil, err
	}
	vault, err := p.reader.GetVault(ctx, proposal.QuoteVault)
	if err != nil {
		return nil, err
	}
	amm, err := p.reader.GetAmm(ctx, proposal.AmmFor(intent.Side))
	if err != nil {
		return nil, err
	}
	if !slices.Contains(vault.ConditionalTokenMints, amm.QuoteMint) {
		return nil, domain.InvalidMarket("pool quote mint is not a conditional token of the quote vault")
	}

	spot, err := p.balanceOrZero(ctx, intent.User, vault.UnderlyingTokenMint)
	if err != nil {
		return nil, err
	}
	cond, err := p.balanceOrZero(ctx, intent.User, amm.QuoteMint)
	if err != nil {
		return nil, err
	}
	if spot.Decimals != cond.Decimals {
		return nil, domain.InvalidMarket("conditional quote decimals differ from the underlying")
	}

	amountIn, err := toChainAmount(intent.Amount, spot.Decimals)
	if err != nil {
		return nil, err
	}

	balances := map[string]decimal.Decimal{
		domain.LegSpotQuote:        spot.Decimal(),
		domain.LegConditionalQuote: cond.Decimal(),
	}
	// amountIn > cond + spot, written so the sum cannot overflow
	if amountIn > cond.Amount && amountIn-cond.Amount > spot.Amount {
		available := spot.Decimal().Add(cond.Decimal())
		return nil, domain.InsufficientFunds(domain.LegSpotQuote, domain.FromChainAmount(amountIn, spot.Decimals), available, balances)
	}

	split := PlanSplit(amountIn, cond.Amount, spot.Amount)

	reserveIn, reserveOut := amm.Reserves(domain.DirectionBuy)
	q, err := QuoteExactIn(reserveIn, reserveOut, amountIn, p.slippage(intent.SlippageBps))
	if err != nil {
		return nil, err
	}

	plan := &domain.OperationPlan{ID: p.cfg.NewID(), User: intent.User}
	var splitAmount uint64
	if split != nil {
		splitAmount = split.Shortfall
		plan.Operations = append(plan.Operations, domain.Operation{
			Kind: domain.OpSplit,
			Split: &domain.SplitParams{
				Question:               vault.Question,
				Vault:                  vault.Address,
				UnderlyingMint:         vault.UnderlyingTokenMint,
				UnderlyingTokenAccount: vault.UnderlyingTokenAccount,
				ConditionalMints:       slices.Clone(vault.ConditionalTokenMints),
				Amount:                 split.Shortfall,
			},
		})
	}
	plan.Operations = append(plan.Operations, swapOperation(amm, domain.DirectionBuy, q))

	log.Debug().
		Str("plan", plan.ID).
		Str("side", intent.Side.String()).
		Str("direction", "buy").
		Uint64("amountIn", amountIn).
		Uint64("split", splitAmount).
		Uint64("expectedOut", q.ExpectedOut).
		Msg("[Planner] planned trade")

	return &domain.TradePlan{
		Plan:           plan,
		Intent:         intent,
		AmountIn:       amountIn,
		ExpectedOutput: q.ExpectedOut,
		MinOutput:      q.MinOut,
		PriceImpactBps: q.PriceImpactBps,
		SplitAmount:    splitAmount,
		Balances:       balances,
	}, nil
}

// PlanSell plans selling intent.Amount of the side's conditional base token
// for conditional quote. Sells never split.
func (p *Planner) PlanSell(ctx context.Context, intent domain.TradeIntent) (*domain.TradePlan, error) {
	intent.Direction = domain.DirectionSell
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	proposal, err := p.reader.GetProposal(ctx, intent.Market)
	if err != nil {
		return nil, err
	}
	amm, err := p.reader.GetAmm(ctx, proposal.AmmFor(intent.Side))
	if err != nil {
		return nil, err
	}

	base, err := p.reader.GetTokenBalance(ctx, intent.User, amm.BaseMint)
	if errors.Is(err, domain.ErrAccountNotFound) {
		// nothing to sell
		return nil, domain.AccountNotFound(domain.LegConditionalBase, intent.User, amm.BaseMint)
	}
	if err != nil {
		return nil, err
	}

	amountIn, err := toChainAmount(intent.Amount, base.Decimals)
	if err != nil {
		return nil, err
	}

	balances := map[string]decimal.Decimal{domain.LegConditionalBase: base.Decimal()}
	if amountIn > base.Amount {
		return nil, domain.InsufficientFunds(domain.LegConditionalBase, domain.FromChainAmount(amountIn, base.Decimals), base.Decimal(), balances)
	}

	reserveIn, reserveOut := amm.Reserves(domain.DirectionSell)
	q, err := QuoteExactIn(reserveIn, reserveOut, amountIn, p.slippage(intent.SlippageBps))
	if err != nil {
		return nil, err
	}

	plan := &domain.OperationPlan{
		ID:         p.cfg.NewID(),
		User:       intent.User,
		Operations: []domain.Operation{swapOperation(amm, domain.DirectionSell, q)},
	}

	log.Debug().
		Str("plan", plan.ID).
		Str("side", intent.Side.String()).
		Str("direction", "sell").
		Uint64("amountIn", amountIn).
		Uint64("expectedOut", q.ExpectedOut).
		Msg("[Planner] planned trade")

	return &domain.TradePlan{
		Plan:           plan,
		Intent:         intent,
		AmountIn:       amountIn,
		ExpectedOutput: q.ExpectedOut,
		MinOutput:      q.MinOut,
		PriceImpactBps: q.PriceImpactBps,
		Balances:       balances,
	}, nil
}

func swapOperation(amm *domain.Amm, dir domain.Direction, q Quote) domain.Operation {
	return domain.Operation{
		Kind: domain.OpSwap,
		Swap: &domain.SwapParams{
			Amm:             amm.Address,
			BaseMint:        amm.BaseMint,
			QuoteMint:       amm.QuoteMint,
			Direction:       dir,
			InputAmount:     q.AmountIn,
			ExpectedOutput:  q.ExpectedOut,
			MinOutputAmount: q.MinOut,
		},
	}
}

// toChainAmount converts with floor and rejects amounts that round to zero.
func toChainAmount(amount decimal.Decimal, decimals uint8) (uint64, error) {
	units, err := domain.ToChainAmount(amount, decimals)
	if err != nil {
		return 0, err
	}
	if units == 0 {
		return 0, domain.Validation("amount is smaller than the token's smallest unit")
	}
	return units, nil
}

