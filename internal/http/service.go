package http

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/futarchy-engine/internal/domain"
	"github.com/hxuan190/futarchy-engine/internal/futarchy"
	"github.com/hxuan190/futarchy-engine/internal/services/planner"
)

// FutarchyService is what the handlers call; *futarchy.Service implements it.
type FutarchyService interface {
	Trade(ctx context.Context, intent domain.TradeIntent) (*futarchy.TradeResult, error)
	Redeem(ctx context.Context, market, user solana.PublicKey) (*futarchy.RedeemResult, error)
	PreflightProposal(ctx context.Context, req planner.ProposalRequest) (*domain.ProposalPreflight, error)
	GetDao(ctx context.Context, id solana.PublicKey) (*domain.Dao, error)
	ListDaos(ctx context.Context) ([]*domain.Dao, error)
	GetProposal(ctx context.Context, id solana.PublicKey) (*domain.Proposal, error)
	ListProposals(ctx context.Context, dao solana.PublicKey) ([]*domain.Proposal, error)
}

var _ FutarchyService = (*futarchy.Service)(nil)
