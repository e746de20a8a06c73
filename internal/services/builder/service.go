package builder

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/futarchy-engine/internal/adapters/blockchain"
	"github.com/hxuan190/futarchy-engine/internal/common"
	"github.com/hxuan190/futarchy-engine/internal/config"
	"github.com/hxuan190/futarchy-engine/internal/domain"
	"github.com/hxuan190/futarchy-engine/internal/metrics"
	"github.com/hxuan190/futarchy-engine/internal/services"
	"github.com/hxuan190/futarchy-engine/internal/services/chain"
)

var (
	ErrEmptyPlan         = errors.New("plan has no operations")
	ErrInvalidUserWallet = errors.New("invalid user wallet address")
	ErrMissingParams     = errors.New("operation is missing its parameters")
	ErrUnknownOperation  = errors.New("unknown operation kind")
)

const BUILDER_SERVICE_NAME = "BuilderService"

type BlockhashSource interface {
	GetBlockhash(ctx context.Context) (solana.Hash, uint64, error)
}

type TokenProgramResolver interface {
	GetTokenProgram(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error)
}

type Programs struct {
	Amm              solana.PublicKey
	ConditionalVault solana.PublicKey
}

// BuilderService turns an operation plan into one unsigned transaction with
// the user as fee payer.
type BuilderService struct {
	container.BaseDIInstance

	blockhashes BlockhashSource
	tokens      TokenProgramResolver
	programs    Programs
	logger      *services.ServiceLogger
}

func NewBuilderService(blockhashes BlockhashSource, tokens TokenProgramResolver, programs Programs) *BuilderService {
	svc := &BuilderService{
		blockhashes: blockhashes,
		tokens:      tokens,
		programs:    programs,
	}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func (svc *BuilderService) ID() string {
	return BUILDER_SERVICE_NAME
}

func (svc *BuilderService) Configure(c container.IContainer) error {
	futarchyConfig := c.GetConfig(config.FUTARCHY_CONFIG_KEY).(*config.FutarchyConfig)
	svc.blockhashes = c.Instance(blockchain.BLOCKHASH_CACHE_SERVICE).(*blockchain.BlockhashCacheService)
	svc.tokens = c.Instance(chain.CHAIN_SERVICE).(*chain.Service)
	svc.programs = Programs{
		Amm:              futarchyConfig.AmmProgramID,
		ConditionalVault: futarchyConfig.ConditionalVaultProgramID,
	}
	svc.logger = services.NewServiceLogger(svc)
	return nil
}

func (svc *BuilderService) Start() error {
	return nil
}

func (svc *BuilderService) Stop() error {
	return nil
}

// txBuilder accumulates instructions for one plan. Each ATA is created at
// most once per transaction.
type txBuilder struct {
	svc          *BuilderService
	user         solana.PublicKey
	instructions []solana.Instruction
	created      map[solana.PublicKey]struct{}
}

func (b *txBuilder) ata(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, solana.PublicKey, error) {
	program, err := b.svc.tokens.GetTokenProgram(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	// vault and amm instructions take the classic token program account
	if !program.Equals(common.TokenProgramID) {
		im := domain.InvalidMarket("mint is not owned by the token program")
		im.Fields = map[string]any{"mint": mint.String(), "tokenProgram": program.String()}
		return solana.PublicKey{}, solana.PublicKey{}, im
	}
	ata, err := common.GetATAAddressForMint(b.user, mint, program)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("failed to derive ATA for %s: %w", mint, err)
	}
	return ata, program, nil
}

// ensureATA prepends an idempotent create for the user's ATA of mint.
func (b *txBuilder) ensureATA(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, program, err := b.ata(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, ok := b.created[ata]; ok {
		return ata, nil
	}
	ix, err := common.CreateATAIdempotentInstruction(b.user, b.user, mint, program)
	if err != nil {
		return solana.PublicKey{}, err
	}
	b.created[ata] = struct{}{}
	b.instructions = append(b.instructions, ix)
	return ata, nil
}

func (b *txBuilder) vaultAccounts(ctx context.Context, question, vault, underlyingMint, underlyingAccount solana.PublicKey, mints []solana.PublicKey, createUnderlying bool) (*VaultAccounts, error) {
	var (
		userUnderlying solana.PublicKey
		err            error
	)
	if createUnderlying {
		userUnderlying, err = b.ensureATA(ctx, underlyingMint)
	} else {
		userUnderlying, _, err = b.ata(ctx, underlyingMint)
	}
	if err != nil {
		return nil, err
	}

	userConditional := make([]solana.PublicKey, len(mints))
	for i, mint := range mints {
		if userConditional[i], err = b.ensureATA(ctx, mint); err != nil {
			return nil, err
		}
	}
	return &VaultAccounts{
		Question:               question,
		Vault:                  vault,
		VaultUnderlyingAccount: underlyingAccount,
		Authority:              b.user,
		UserUnderlyingAccount:  userUnderlying,
		ConditionalMints:       mints,
		UserConditionalATAs:    userConditional,
	}, nil
}

func (b *txBuilder) add(ctx context.Context, op domain.Operation) error {
	switch op.Kind {
	case domain.OpSplit:
		p := op.Split
		if p == nil {
			return fmt.Errorf("%w: %s", ErrMissingParams, op.Kind)
		}
		accounts, err := b.vaultAccounts(ctx, p.Question, p.Vault, p.UnderlyingMint, p.UnderlyingTokenAccount, p.ConditionalMints, false)
		if err != nil {
			return err
		}
		ix, err := BuildSplitTokensInstruction(b.svc.programs.ConditionalVault, accounts, p.Amount)
		if err != nil {
			return err
		}
		b.instructions = append(b.instructions, ix)

	case domain.OpSwap:
		p := op.Swap
		if p == nil {
			return fmt.Errorf("%w: %s", ErrMissingParams, op.Kind)
		}
		// Only the output account may be missing; the input was either held
		// or created by a preceding split.
		var userBase, userQuote solana.PublicKey
		var err error
		if p.Direction == domain.DirectionBuy {
			if userBase, err = b.ensureATA(ctx, p.BaseMint); err != nil {
				return err
			}
			userQuote, _, err = b.ata(ctx, p.QuoteMint)
		} else {
			if userQuote, err = b.ensureATA(ctx, p.QuoteMint); err != nil {
				return err
			}
			userBase, _, err = b.ata(ctx, p.BaseMint)
		}
		if err != nil {
			return err
		}
		ix, err := BuildSwapInstruction(b.svc.programs.Amm, &SwapAccounts{
			User:      b.user,
			Amm:       p.Amm,
			BaseMint:  p.BaseMint,
			QuoteMint: p.QuoteMint,
			UserBase:  userBase,
			UserQuote: userQuote,
		}, SwapArgs{
			SwapType:        swapTypeFor(p.Direction),
			InputAmount:     p.InputAmount,
			OutputAmountMin: p.MinOutputAmount,
		})
		if err != nil {
			return err
		}
		b.instructions = append(b.instructions, ix)

	case domain.OpRedeemBase, domain.OpRedeemQuote:
		p := op.Redeem
		if p == nil {
			return fmt.Errorf("%w: %s", ErrMissingParams, op.Kind)
		}
		accounts, err := b.vaultAccounts(ctx, p.Question, p.Vault, p.UnderlyingMint, p.UnderlyingTokenAccount, p.ConditionalMints, true)
		if err != nil {
			return err
		}
		ix, err := BuildRedeemTokensInstruction(b.svc.programs.ConditionalVault, accounts)
		if err != nil {
			return err
		}
		b.instructions = append(b.instructions, ix)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
	}
	return nil
}

// Build assembles the plan's operations, in order, into one unsigned
// transaction. Signature slots are zero-filled for the wallet to sign.
func (svc *BuilderService) Build(ctx context.Context, plan *domain.OperationPlan) (*domain.BuiltTransaction, error) {
	built, err := svc.build(ctx, plan)
	if err != nil {
		metrics.TransactionBuilds.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.TransactionBuilds.WithLabelValues("ok").Inc()
	metrics.InstructionsPerTransaction.Observe(float64(built.InstructionCount))
	return built, nil
}

func (svc *BuilderService) build(ctx context.Context, plan *domain.OperationPlan) (*domain.BuiltTransaction, error) {
	if plan == nil || len(plan.Operations) == 0 {
		return nil, ErrEmptyPlan
	}
	if plan.User.IsZero() {
		return nil, ErrInvalidUserWallet
	}

	b := &txBuilder{
		svc:          svc,
		user:         plan.User,
		instructions: make([]solana.Instruction, 0, 2*len(plan.Operations)+2),
		created:      make(map[solana.PublicKey]struct{}),
	}
	for _, op := range plan.Operations {
		if err := b.add(ctx, op); err != nil {
			return nil, err
		}
	}

	blockhash, lastValidBlockHeight, err := svc.blockhashes.GetBlockhash(ctx)
	if err != nil {
		return nil, domain.Upstream("get blockhash", err)
	}

	tx, err := solana.NewTransaction(b.instructions, blockhash, solana.TransactionPayer(plan.User))
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	svc.logger.Debug().
		Str("plan", plan.ID).
		Int("instructions", len(b.instructions)).
		Int("bytes", len(txBytes)).
		Msg("[Builder] transaction built")

	return &domain.BuiltTransaction{
		Transaction:          base64.StdEncoding.EncodeToString(txBytes),
		LastValidBlockHeight: lastValidBlockHeight,
		InstructionCount:     len(b.instructions),
	}, nil
}
