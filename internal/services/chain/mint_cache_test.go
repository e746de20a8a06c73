package chain

import (
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/futarchy-engine/internal/adapters/persistence"
)

func mintInfo(decimals uint8) persistence.MintInfo {
	return persistence.MintInfo{
		Mint:         solana.NewWallet().PublicKey(),
		Decimals:     decimals,
		TokenProgram: solana.TokenProgramID,
	}
}

func TestMintCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newMintCache(2)
	a, b, d := mintInfo(6), mintInfo(9), mintInfo(0)

	c.Add(a)
	c.Add(b)
	if _, ok := c.Get(a); !ok {
		t.Fatal("a should be cached")
	}
	c.Add(d)

	if _, ok := c.Get(b); ok {
		t.Fatal("b should have been evicted")
	}
	if got, ok := c.Get(a); !ok || got.Decimals != 6 {
		t.Fatalf("a: got %+v, %v", got, ok)
	}
	if got, ok := c.Get(d); !ok || got.Decimals != 0 {
		t.Fatalf("d: got %+v, %v", got, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("len: got %d, want 2", c.Len())
	}
}

func TestMintCacheUpdateInPlace(t *testing.T) {
	c := newMintCache(4)
	a := mintInfo(6)
	c.Add(a)
	a.Decimals = 9
	c.Add(a)

	if c.Len() != 1 {
		t.Fatalf("len: got %d, want 1", c.Len())
	}
	if got, _ := c.Get(a.Mint); got.Decimals != 9 {
		t.Fatalf("decimals: got %d, want 9", got.Decimals)
	}
}

func TestMintCacheConcurrentAccess(t *testing.T) {
	c := newMintCache(16)
	infos := make([]persistence.MintInfo, 32)
	for i := range infos {
		infos[i] = mintInfo(uint8(i % 10))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for j := range infos {
				info := infos[(j+offset)%len(infos)]
				c.Add(info)
				c.Get(info.Mint)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 16 {
		t.Fatalf("cache exceeded bound: %d", c.Len())
	}
}
