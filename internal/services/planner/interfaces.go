package planner

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/futarchy-engine/internal/domain"
)

// ChainReader is the read-only view of on-chain state the planner needs.
// Missing accounts are reported as domain.ErrNotFound (markets, vaults,
// pools, DAOs) or domain.ErrAccountNotFound (token accounts); transport
// failures as domain.ErrUpstreamUnavailable.
type ChainReader interface {
	GetDao(ctx context.Context, id solana.PublicKey) (*domain.Dao, error)
	GetProposal(ctx context.Context, id solana.PublicKey) (*domain.Proposal, error)
	GetAmm(ctx context.Context, id solana.PublicKey) (*domain.Amm, error)
	GetVault(ctx context.Context, id solana.PublicKey) (*domain.ConditionalVault, error)
	GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
	GetTokenBalance(ctx context.Context, user, mint solana.PublicKey) (domain.Balance, error)
}

// OperationBuilder turns a plan into an unsigned transaction.
type OperationBuilder interface {
	Build(ctx context.Context, plan *domain.OperationPlan) (*domain.BuiltTransaction, error)
}
