package futarchy

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/futarchy-engine/internal/config"
	"github.com/hxuan190/futarchy-engine/internal/domain"
	"github.com/hxuan190/futarchy-engine/internal/metrics"
	"github.com/hxuan190/futarchy-engine/internal/services"
	"github.com/hxuan190/futarchy-engine/internal/services/builder"
	"github.com/hxuan190/futarchy-engine/internal/services/chain"
	"github.com/hxuan190/futarchy-engine/internal/services/planner"
)

const FUTARCHY_SERVICE = "futarchy-service"

// Reader is the chain view the service plans against and serves lookups from.
type Reader interface {
	planner.ChainReader
	ListDaos(ctx context.Context) ([]*domain.Dao, error)
	ListProposals(ctx context.Context, dao solana.PublicKey) ([]*domain.Proposal, error)
}

type TradeResult struct {
	Plan        *domain.TradePlan
	Transaction *domain.BuiltTransaction
}

type RedeemResult struct {
	Plan        *domain.RedeemPlan
	Transaction *domain.BuiltTransaction
}

// Service plans trades and redemptions and builds their transactions.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	reader  Reader
	planner *planner.Planner
	builder planner.OperationBuilder
}

func NewService(reader Reader, b planner.OperationBuilder, cfg planner.Config) *Service {
	svc := &Service{}
	svc.init(reader, b, cfg)
	return svc
}

func (svc *Service) init(reader Reader, b planner.OperationBuilder, cfg planner.Config) {
	svc.logger = services.NewServiceLogger(svc)
	svc.reader = reader
	svc.builder = b
	svc.planner = planner.NewPlanner(reader, cfg)
}

func (svc *Service) ID() string {
	return FUTARCHY_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	futarchyConfig := c.GetConfig(config.FUTARCHY_CONFIG_KEY).(*config.FutarchyConfig)
	chainSvc := c.Instance(chain.CHAIN_SERVICE).(*chain.Service)
	builderSvc := c.Instance(builder.BUILDER_SERVICE_NAME).(*builder.BuilderService)

	svc.init(chainSvc, builderSvc, planner.Config{
		DefaultSlippageBps: futarchyConfig.DefaultSlippageBps,
		DefaultProposer:    futarchyConfig.ProposerWallet,
	})
	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

func observe(kind string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = string(domain.KindOf(err))
		if status == "" {
			status = "error"
		}
	}
	metrics.PlanRequests.WithLabelValues(kind, status).Inc()
	metrics.PlanDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// Trade plans a buy or sell and builds its transaction.
func (svc *Service) Trade(ctx context.Context, intent domain.TradeIntent) (res *TradeResult, err error) {
	kind := intent.Direction.String()
	defer func(start time.Time) { observe(kind, start, err) }(time.Now())

	plan, err := svc.planner.PlanTrade(ctx, intent)
	if err != nil {
		svc.logger.Debug().Err(err).Str("market", intent.Market.String()).Str("kind", kind).Msg("trade rejected")
		return nil, err
	}

	side := intent.Side.String()
	if plan.Plan.HasSplit() {
		metrics.SplitsPlanned.WithLabelValues(side).Inc()
	}
	metrics.PriceImpact.WithLabelValues(side, kind).Observe(float64(plan.PriceImpactBps))

	logger := svc.logger.ForPlan(plan.Plan.ID)
	tx, err := svc.builder.Build(ctx, plan.Plan)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build trade transaction")
		return nil, err
	}

	logger.Info().
		Str("market", intent.Market.String()).
		Str("side", side).
		Str("direction", kind).
		Bool("split", plan.Plan.HasSplit()).
		Msg("trade planned")

	return &TradeResult{Plan: plan, Transaction: tx}, nil
}

func (svc *Service) Redeem(ctx context.Context, market, user solana.PublicKey) (res *RedeemResult, err error) {
	defer func(start time.Time) { observe("redeem", start, err) }(time.Now())

	plan, err := svc.planner.PlanRedeem(ctx, market, user)
	if err != nil {
		return nil, err
	}

	logger := svc.logger.ForPlan(plan.Plan.ID)
	tx, err := svc.builder.Build(ctx, plan.Plan)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build redeem transaction")
		return nil, err
	}

	logger.Info().Str("market", market.String()).Msg("redemption planned")
	return &RedeemResult{Plan: plan, Transaction: tx}, nil
}

func (svc *Service) PreflightProposal(ctx context.Context, req planner.ProposalRequest) (res *domain.ProposalPreflight, err error) {
	defer func(start time.Time) { observe("proposal", start, err) }(time.Now())
	return svc.planner.PreflightProposal(ctx, req)
}

func (svc *Service) GetDao(ctx context.Context, id solana.PublicKey) (*domain.Dao, error) {
	return svc.reader.GetDao(ctx, id)
}

func (svc *Service) ListDaos(ctx context.Context) ([]*domain.Dao, error) {
	return svc.reader.ListDaos(ctx)
}

func (svc *Service) GetProposal(ctx context.Context, id solana.PublicKey) (*domain.Proposal, error) {
	return svc.reader.GetProposal(ctx, id)
}

func (svc *Service) ListProposals(ctx context.Context, dao solana.PublicKey) ([]*domain.Proposal, error) {
	return svc.reader.ListProposals(ctx, dao)
}
