// Package planner sizes conditional-token trades and redemptions and
// sequences the operations that carry them out. It reads chain state through
// a ChainReader and never signs, submits or caches anything.
package planner

import (
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/hxuan190/futarchy-engine/internal/common"
)

type Config struct {
	// DefaultSlippageBps applies to intents that carry no slippage tolerance.
	DefaultSlippageBps uint16
	// DefaultProposer is checked by proposal preflight when a request names
	// no proposer.
	DefaultProposer solana.PublicKey
	// NewID generates plan ids. Defaults to random uuids.
	NewID func() string
}

type Planner struct {
	reader ChainReader
	cfg    Config
}

func NewPlanner(reader ChainReader, cfg Config) *Planner {
	if cfg.DefaultSlippageBps == 0 {
		cfg.DefaultSlippageBps = common.DefaultSlippageBps
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Planner{reader: reader, cfg: cfg}
}

func (p *Planner) slippage(requested uint16) uint16 {
	if requested == 0 {
		return p.cfg.DefaultSlippageBps
	}
	return requested
}
