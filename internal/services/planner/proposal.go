package planner

import (
	"context"
	"net/url"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/futarchy-engine/internal/domain"
)

// ProposalRequest carries the liquidity a proposer commits to the new
// proposal's PASS and FAIL pools, in human units.
type ProposalRequest struct {
	Dao             solana.PublicKey
	DescriptionURL  string
	BaseTokensToLP  decimal.Decimal
	QuoteTokensToLP decimal.Decimal
	// Proposer falls back to the planner's configured proposer when zero.
	Proposer solana.PublicKey
}

func (r ProposalRequest) Validate() error {
	if r.Dao.IsZero() {
		return domain.Validation("dao address is required")
	}
	if r.DescriptionURL == "" || r.BaseTokensToLP.Sign() <= 0 || r.QuoteTokensToLP.Sign() <= 0 {
		return domain.Validation("descriptionUrl, baseTokensToLP and quoteTokensToLP are required")
	}
	u, err := url.ParseRequestURI(r.DescriptionURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return domain.Validation("descriptionUrl must be an absolute URL")
	}
	return nil
}

// PreflightProposal checks that the proposer holds the DAO token and USDC
// liquidity a new proposal would lock. It builds nothing.
func (p *Planner) PreflightProposal(ctx context.Context, req ProposalRequest) (*domain.ProposalPreflight, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	proposer := req.Proposer
	if proposer.IsZero() {
		proposer = p.cfg.DefaultProposer
	}
	if proposer.IsZero() {
		return nil, domain.Validation("proposer public key is required")
	}

	dao, err := p.reader.GetDao(ctx, req.Dao)
	if err != nil {
		return nil, err
	}
	token, err := p.balanceOrZero(ctx, proposer, dao.TokenMint)
	if err != nil {
		return nil, err
	}
	usdc, err := p.balanceOrZero(ctx, proposer, dao.UsdcMint)
	if err != nil {
		return nil, err
	}

	requiredBase, err := toChainAmount(req.BaseTokensToLP, token.Decimals)
	if err != nil {
		return nil, err
	}
	requiredQuote, err := toChainAmount(req.QuoteTokensToLP, usdc.Decimals)
	if err != nil {
		return nil, err
	}

	preflight := &domain.ProposalPreflight{
		Dao:            req.Dao,
		Proposer:       proposer,
		DescriptionURL: req.DescriptionURL,
		RequiredBase:   requiredBase,
		RequiredQuote:  requiredQuote,
		BaseBalance:    token.Decimal(),
		QuoteBalance:   usdc.Decimal(),
	}

	balances := map[string]decimal.Decimal{
		domain.LegDaoToken: token.Decimal(),
		domain.LegDaoUsdc:  usdc.Decimal(),
	}
	var perr *domain.PlanError
	switch {
	case token.Amount < requiredBase:
		perr = domain.InsufficientFunds(domain.LegDaoToken, domain.FromChainAmount(requiredBase, token.Decimals), token.Decimal(), balances)
	case usdc.Amount < requiredQuote:
		perr = domain.InsufficientFunds(domain.LegDaoUsdc, domain.FromChainAmount(requiredQuote, usdc.Decimals), usdc.Decimal(), balances)
	default:
		return preflight, nil
	}
	perr.Msg = "insufficient balance for proposal creation"
	perr.Fields["requiredBase"] = requiredBase
	perr.Fields["requiredQuote"] = requiredQuote
	return nil, perr
}
