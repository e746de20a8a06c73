package chain

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/futarchy-engine/internal/adapters/persistence"
	"github.com/hxuan190/futarchy-engine/internal/common"
	"github.com/hxuan190/futarchy-engine/internal/config"
	"github.com/hxuan190/futarchy-engine/internal/domain"
	"github.com/hxuan190/futarchy-engine/internal/metrics"
	"github.com/hxuan190/futarchy-engine/internal/services"
)

const CHAIN_SERVICE = "chain-svc"

// rpcClient is the subset of *rpc.Client the reader uses.
type rpcClient interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetProgramAccountsWithOpts(ctx context.Context, publicKey solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error)
}

// Programs are the MetaDAO program ids accounts are checked against.
type Programs struct {
	Autocrat         solana.PublicKey
	Amm              solana.PublicKey
	ConditionalVault solana.PublicKey
}

// Service reads and decodes futarchy state over JSON-RPC. Mint metadata is
// cached; balances and market state are always read fresh.
type Service struct {
	container.BaseDIInstance

	rpc      rpcClient
	programs Programs
	timeout  time.Duration
	mints    *mintCache
	storage  *persistence.Storage
	logger   *services.ServiceLogger

	// newly resolved mints waiting to be written to storage
	pendingMu sync.Mutex
	pending   []persistence.MintInfo
}

// persistBatchSize is how many resolved mints are buffered per storage write.
const persistBatchSize = 32

// NewService builds a reader without the DI container. storage may be nil.
func NewService(client rpcClient, programs Programs, timeout time.Duration, cacheSize int, storage *persistence.Storage) *Service {
	svc := &Service{}
	svc.init(client, programs, timeout, cacheSize, storage)
	return svc
}

func (svc *Service) init(client rpcClient, programs Programs, timeout time.Duration, cacheSize int, storage *persistence.Storage) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	svc.rpc = client
	svc.programs = programs
	svc.timeout = timeout
	svc.mints = newMintCache(cacheSize)
	svc.storage = storage
	svc.logger = services.NewServiceLogger(svc)
}

func (svc *Service) ID() string {
	return CHAIN_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	futarchyConfig := c.GetConfig(config.FUTARCHY_CONFIG_KEY).(*config.FutarchyConfig)
	storageConfig := c.GetConfig(config.STORAGE_CONFIG_KEY).(*config.StorageConfig)

	var storage *persistence.Storage
	if storageConfig.PersistenceEnabled {
		var err error
		storage, err = persistence.NewStorage(storageConfig.DBPath)
		if err != nil {
			return err
		}
	}

	svc.init(
		rpc.New(rpcConfig.Endpoint()),
		Programs{
			Autocrat:         futarchyConfig.AutocratProgramID,
			Amm:              futarchyConfig.AmmProgramID,
			ConditionalVault: futarchyConfig.ConditionalVaultProgramID,
		},
		rpcConfig.Timeout,
		storageConfig.MintCacheSize,
		storage,
	)
	return nil
}

func (svc *Service) Start() error {
	if svc.storage == nil {
		return nil
	}
	mints, err := svc.storage.LoadAllMints()
	if err != nil {
		svc.logger.Error().Err(err).Msg("failed to load persisted mints")
		return nil
	}
	for _, m := range mints {
		svc.mints.Add(m)
	}
	metrics.MintCacheSize.Set(float64(svc.mints.Len()))
	svc.logger.Info().Int("count", len(mints)).Msg("mint cache warmed from storage")
	return nil
}

func (svc *Service) Stop() error {
	if svc.storage == nil {
		return nil
	}
	svc.flushMints()
	return svc.storage.Close()
}

func (svc *Service) queueMint(info persistence.MintInfo) {
	if svc.storage == nil {
		return
	}
	svc.pendingMu.Lock()
	svc.pending = append(svc.pending, info)
	full := len(svc.pending) >= persistBatchSize
	svc.pendingMu.Unlock()
	if full {
		svc.flushMints()
	}
}

func (svc *Service) flushMints() {
	svc.pendingMu.Lock()
	batch := svc.pending
	svc.pending = nil
	svc.pendingMu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := svc.storage.SaveMintBatch(batch); err != nil {
		svc.logger.Warn().Err(err).Int("count", len(batch)).Msg("failed to persist mints")
	}
}

func (svc *Service) getAccount(ctx context.Context, method string, address solana.PublicKey) (*rpc.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	start := time.Now()
	res, err := svc.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	metrics.RPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, rpc.ErrNotFound):
		metrics.RPCRequests.WithLabelValues(method, "not_found").Inc()
		return nil, rpc.ErrNotFound
	case err != nil:
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return nil, domain.Upstream(method, err)
	case res == nil || res.Value == nil:
		metrics.RPCRequests.WithLabelValues(method, "not_found").Inc()
		return nil, rpc.ErrNotFound
	}
	metrics.RPCRequests.WithLabelValues(method, "ok").Inc()
	return res.Value, nil
}

// getProgramAccount fetches an account that must be owned by program and
// decode cleanly; any mismatch reads as "not found".
func getProgramAccount[T any](ctx context.Context, svc *Service, what string, program, address solana.PublicKey, decode func(solana.PublicKey, []byte) (*T, error)) (*T, error) {
	acc, err := svc.getAccount(ctx, "get_"+what, address)
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, domain.NotFound(what, address)
	}
	if err != nil {
		return nil, err
	}
	if !acc.Owner.Equals(program) {
		nf := domain.NotFound(what, address)
		nf.Fields["owner"] = acc.Owner.String()
		return nil, nf
	}
	v, err := decode(address, acc.Data.GetBinary())
	if err != nil {
		nf := domain.NotFound(what, address)
		nf.Err = err
		return nil, nf
	}
	return v, nil
}

func (svc *Service) GetDao(ctx context.Context, id solana.PublicKey) (*domain.Dao, error) {
	return getProgramAccount(ctx, svc, "dao", svc.programs.Autocrat, id, DecodeDao)
}

func (svc *Service) GetProposal(ctx context.Context, id solana.PublicKey) (*domain.Proposal, error) {
	return getProgramAccount(ctx, svc, "proposal", svc.programs.Autocrat, id, DecodeProposal)
}

func (svc *Service) GetAmm(ctx context.Context, id solana.PublicKey) (*domain.Amm, error) {
	return getProgramAccount(ctx, svc, "amm", svc.programs.Amm, id, DecodeAmm)
}

func (svc *Service) GetVault(ctx context.Context, id solana.PublicKey) (*domain.ConditionalVault, error) {
	return getProgramAccount(ctx, svc, "vault", svc.programs.ConditionalVault, id, DecodeConditionalVault)
}

// GetMintInfo returns the decimals and owning token program of a mint.
func (svc *Service) GetMintInfo(ctx context.Context, mint solana.PublicKey) (persistence.MintInfo, error) {
	if info, ok := svc.mints.Get(mint); ok {
		metrics.MintCacheHits.Inc()
		return info, nil
	}
	metrics.MintCacheMisses.Inc()

	acc, err := svc.getAccount(ctx, "get_mint", mint)
	if errors.Is(err, rpc.ErrNotFound) {
		return persistence.MintInfo{}, domain.NotFound("mint", mint)
	}
	if err != nil {
		return persistence.MintInfo{}, err
	}
	if !acc.Owner.Equals(common.TokenProgramID) && !acc.Owner.Equals(common.Token2022ID) {
		return persistence.MintInfo{}, domain.NotFound("mint", mint)
	}

	var state token.Mint
	if err := bin.NewBinDecoder(acc.Data.GetBinary()).Decode(&state); err != nil {
		nf := domain.NotFound("mint", mint)
		nf.Err = err
		return persistence.MintInfo{}, nf
	}

	info := persistence.MintInfo{Mint: mint, Decimals: state.Decimals, TokenProgram: acc.Owner}
	svc.mints.Add(info)
	metrics.MintCacheSize.Set(float64(svc.mints.Len()))
	svc.queueMint(info)
	return info, nil
}

func (svc *Service) GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	info, err := svc.GetMintInfo(ctx, mint)
	if err != nil {
		return 0, err
	}
	return info.Decimals, nil
}

// GetTokenProgram returns the token program that owns mint.
func (svc *Service) GetTokenProgram(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	info, err := svc.GetMintInfo(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return info.TokenProgram, nil
}

// GetTokenBalance reads the user's associated token account for mint.
func (svc *Service) GetTokenBalance(ctx context.Context, user, mint solana.PublicKey) (domain.Balance, error) {
	info, err := svc.GetMintInfo(ctx, mint)
	if err != nil {
		return domain.Balance{}, err
	}
	ata, err := common.GetATAAddressForMint(user, mint, info.TokenProgram)
	if err != nil {
		return domain.Balance{}, domain.Upstream("derive ata", err)
	}

	acc, err := svc.getAccount(ctx, "get_token_account", ata)
	if errors.Is(err, rpc.ErrNotFound) {
		return domain.Balance{}, domain.AccountNotFound("", user, mint)
	}
	if err != nil {
		return domain.Balance{}, err
	}

	var state token.Account
	if err := bin.NewBinDecoder(acc.Data.GetBinary()).Decode(&state); err != nil {
		return domain.Balance{}, domain.Upstream("decode token account", err)
	}
	if !state.Mint.Equals(mint) || !state.Owner.Equals(user) {
		return domain.Balance{}, domain.AccountNotFound("", user, mint)
	}

	return domain.Balance{
		Account:  ata,
		Mint:     mint,
		Amount:   state.Amount,
		Decimals: info.Decimals,
	}, nil
}

func (svc *Service) listProgramAccounts(ctx context.Context, method string, program solana.PublicKey, discriminator [8]byte) (rpc.GetProgramAccountsResult, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	start := time.Now()
	result, err := svc.rpc.GetProgramAccountsWithOpts(ctx, program, &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Filters: []rpc.RPCFilter{
			{
				Memcmp: &rpc.RPCFilterMemcmp{
					Offset: 0,
					Bytes:  discriminator[:],
				},
			},
		},
	})
	metrics.RPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return nil, domain.Upstream(method, err)
	}
	metrics.RPCRequests.WithLabelValues(method, "ok").Inc()
	return result, nil
}

func (svc *Service) ListDaos(ctx context.Context) ([]*domain.Dao, error) {
	result, err := svc.listProgramAccounts(ctx, "list_daos", svc.programs.Autocrat, DaoDiscriminator)
	if err != nil {
		return nil, err
	}

	daos := make([]*domain.Dao, 0, len(result))
	for _, keyed := range result {
		dao, err := DecodeDao(keyed.Pubkey, keyed.Account.Data.GetBinary())
		if err != nil {
			svc.logger.Warn().Err(err).Str("address", keyed.Pubkey.String()).Msg("skipping undecodable dao")
			continue
		}
		daos = append(daos, dao)
	}
	slices.SortFunc(daos, func(a, b *domain.Dao) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	return daos, nil
}

// ListProposals returns the DAO's proposals ordered by number. The dao
// field sits after variable-length data, so filtering happens here.
func (svc *Service) ListProposals(ctx context.Context, dao solana.PublicKey) ([]*domain.Proposal, error) {
	result, err := svc.listProgramAccounts(ctx, "list_proposals", svc.programs.Autocrat, ProposalDiscriminator)
	if err != nil {
		return nil, err
	}

	proposals := make([]*domain.Proposal, 0)
	for _, keyed := range result {
		p, err := DecodeProposal(keyed.Pubkey, keyed.Account.Data.GetBinary())
		if err != nil {
			svc.logger.Warn().Err(err).Str("address", keyed.Pubkey.String()).Msg("skipping undecodable proposal")
			continue
		}
		if p.Dao.Equals(dao) {
			proposals = append(proposals, p)
		}
	}
	slices.SortFunc(proposals, func(a, b *domain.Proposal) int {
		return cmp.Compare(a.Number, b.Number)
	})
	return proposals, nil
}
