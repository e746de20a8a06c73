package blockchain

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	pb "github.com/andrew-solarstorm/yellowstone-grpc-client-go/proto"
	container "github.com/thehyperflames/dicontainer-go"
	"github.com/thehyperflames/yellowstone"

	"github.com/hxuan190/futarchy-engine/internal/config"
	"github.com/hxuan190/futarchy-engine/internal/metrics"
)

const BLOCKHASH_CACHE_SERVICE = "cache-blockhash-svc"

const (
	// maxBlockhashAge is how long a streamed blockhash is served before an
	// RPC refresh is attempted.
	maxBlockhashAge = 2 * time.Second
	// blockhashValidity is the number of blocks a blockhash stays usable.
	blockhashValidity = 150
)

type CachedBlockhash struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	Slot                 uint64
	UpdatedAt            time.Time
}

type blockhashClient interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

type BlockhashCacheService struct {
	container.BaseDIInstance

	mu        sync.RWMutex
	current   *CachedBlockhash
	ySvc      *yellowstone.Service
	rpcClient blockhashClient
	timeout   time.Duration
	subID     string
}

// NewBlockhashCache builds a cache that only refreshes over RPC. Used when
// no block-meta stream is available.
func NewBlockhashCache(client blockhashClient, timeout time.Duration) *BlockhashCacheService {
	return &BlockhashCacheService{rpcClient: client, timeout: timeout}
}

func (svc *BlockhashCacheService) ID() string {
	return BLOCKHASH_CACHE_SERVICE
}

func (svc *BlockhashCacheService) Configure(c container.IContainer) error {
	svc.ySvc = c.Instance(yellowstone.YELLOWSTONE_SERVICE).(*yellowstone.Service)
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)

	svc.rpcClient = rpc.New(rpcConfig.Endpoint())
	svc.timeout = rpcConfig.Timeout
	return nil
}

func (svc *BlockhashCacheService) Start() error {
	ctx := context.Background()
	if err := svc.refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("[BlockhashCacheService] failed to fetch initial blockhash, will retry on first request")
	}

	if svc.ySvc == nil {
		return nil
	}
	subID, err := svc.ySvc.SubscribeBlockMeta(svc.handleBlockMeta)
	if err != nil {
		log.Error().Err(err).Msg("[BlockhashCacheService] failed to subscribe to block meta")
		return err
	}
	svc.subID = subID
	log.Info().Str("subID", subID).Msg("[BlockhashCacheService] subscribed to block meta for blockhash updates")

	return nil
}

func (svc *BlockhashCacheService) Stop() error {
	if svc.subID != "" && svc.ySvc != nil {
		return svc.ySvc.Unsubscribe(svc.subID)
	}
	return nil
}

func (svc *BlockhashCacheService) refresh(ctx context.Context) error {
	if svc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.timeout)
		defer cancel()
	}

	res, err := svc.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return err
	}

	svc.store(&CachedBlockhash{
		Blockhash:            res.Value.Blockhash,
		LastValidBlockHeight: res.Value.LastValidBlockHeight,
		Slot:                 res.Context.Slot,
		UpdatedAt:            time.Now(),
	})
	return nil
}

func (svc *BlockhashCacheService) store(b *CachedBlockhash) {
	svc.mu.Lock()
	svc.current = b
	svc.mu.Unlock()
}

func (svc *BlockhashCacheService) handleBlockMeta(update *pb.SubscribeUpdate) error {
	blockMeta := update.GetBlockMeta()
	if blockMeta == nil {
		return nil
	}

	blockhashStr := blockMeta.GetBlockhash()
	if blockhashStr == "" {
		return nil
	}

	blockhash, err := solana.HashFromBase58(blockhashStr)
	if err != nil {
		return nil
	}

	blockHeight := uint64(0)
	if bh := blockMeta.GetBlockHeight(); bh != nil {
		blockHeight = bh.GetBlockHeight()
	}

	svc.store(&CachedBlockhash{
		Blockhash:            blockhash,
		LastValidBlockHeight: blockHeight + blockhashValidity,
		Slot:                 blockMeta.GetSlot(),
		UpdatedAt:            time.Now(),
	})
	return nil
}

// GetBlockhash returns a recent blockhash and its last valid block height.
// A stale cached value is served when the RPC refresh fails.
func (svc *BlockhashCacheService) GetBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	svc.mu.RLock()
	cached := svc.current
	svc.mu.RUnlock()

	if cached != nil {
		metrics.BlockhashAge.Set(time.Since(cached.UpdatedAt).Seconds())
		if time.Since(cached.UpdatedAt) < maxBlockhashAge {
			return cached.Blockhash, cached.LastValidBlockHeight, nil
		}
	}

	if err := svc.refresh(ctx); err != nil {
		if cached != nil {
			log.Warn().Err(err).Msg("[BlockhashCacheService] refresh failed, serving cached blockhash")
			return cached.Blockhash, cached.LastValidBlockHeight, nil
		}
		return solana.Hash{}, 0, err
	}

	svc.mu.RLock()
	fresh := svc.current
	svc.mu.RUnlock()
	metrics.BlockhashAge.Set(0)
	return fresh.Blockhash, fresh.LastValidBlockHeight, nil
}
