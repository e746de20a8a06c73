package domain

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

type OperationKind string

const (
	OpSplit       OperationKind = "split"
	OpSwap        OperationKind = "swap"
	OpRedeemBase  OperationKind = "redeemBase"
	OpRedeemQuote OperationKind = "redeemQuote"
)

// TradeIntent is a user's request to buy or sell a conditional token.
// Amount is human-readable, in units of the token being spent.
type TradeIntent struct {
	Market      solana.PublicKey
	Side        Side
	Direction   Direction
	Amount      decimal.Decimal
	User        solana.PublicKey
	SlippageBps uint16
}

func (t TradeIntent) Validate() error {
	if t.Amount.Sign() <= 0 {
		return Validation("amount must be greater than zero")
	}
	if t.User.IsZero() {
		return Validation("user public key is required")
	}
	if t.Market.IsZero() {
		return Validation("proposal address is required")
	}
	if t.SlippageBps > 10000 {
		return Validation("slippageBps must be at most 10000")
	}
	return nil
}

// SplitParams splits Amount of the vault's underlying into one of each
// conditional token.
type SplitParams struct {
	Question               solana.PublicKey   `json:"question"`
	Vault                  solana.PublicKey   `json:"vault"`
	UnderlyingMint         solana.PublicKey   `json:"underlyingMint"`
	UnderlyingTokenAccount solana.PublicKey   `json:"underlyingTokenAccount"`
	ConditionalMints       []solana.PublicKey `json:"conditionalMints"`
	Amount                 uint64             `json:"amount"`
}

type SwapParams struct {
	Amm             solana.PublicKey `json:"amm"`
	BaseMint        solana.PublicKey `json:"baseMint"`
	QuoteMint       solana.PublicKey `json:"quoteMint"`
	Direction       Direction        `json:"direction"`
	InputAmount     uint64           `json:"inputAmount"`
	ExpectedOutput  uint64           `json:"expectedOutput"`
	MinOutputAmount uint64           `json:"minOutputAmount"`
}

// RedeemParams burns the user's conditional tokens of one vault for the
// underlying. Holding is informational; zero is a no-op on chain.
type RedeemParams struct {
	Question               solana.PublicKey   `json:"question"`
	Vault                  solana.PublicKey   `json:"vault"`
	UnderlyingMint         solana.PublicKey   `json:"underlyingMint"`
	UnderlyingTokenAccount solana.PublicKey   `json:"underlyingTokenAccount"`
	ConditionalMints       []solana.PublicKey `json:"conditionalMints"`
	Holding                uint64             `json:"holding"`
}

type Operation struct {
	Kind   OperationKind `json:"kind"`
	Split  *SplitParams  `json:"split,omitempty"`
	Swap   *SwapParams   `json:"swap,omitempty"`
	Redeem *RedeemParams `json:"redeem,omitempty"`
}

// OperationPlan is an ordered list of operations for one user. Order is
// significant: a split always precedes the swap that spends it.
type OperationPlan struct {
	ID         string           `json:"id"`
	User       solana.PublicKey `json:"user"`
	Operations []Operation      `json:"operations"`
}

func (p *OperationPlan) HasSplit() bool {
	for _, op := range p.Operations {
		if op.Kind == OpSplit {
			return true
		}
	}
	return false
}

func (p *OperationPlan) Kinds() []OperationKind {
	kinds := make([]OperationKind, len(p.Operations))
	for i, op := range p.Operations {
		kinds[i] = op.Kind
	}
	return kinds
}

// TradePlan is the planner's answer to a buy or sell intent.
type TradePlan struct {
	Plan           *OperationPlan
	Intent         TradeIntent
	AmountIn       uint64
	ExpectedOutput uint64
	MinOutput      uint64
	PriceImpactBps uint16
	SplitAmount    uint64
	// Balances used for sizing, human-readable. Buy fills spotQuote and
	// conditionalQuote, sell fills conditionalBase.
	Balances map[string]decimal.Decimal
}

type RedeemPlan struct {
	Plan         *OperationPlan
	BaseBalance  decimal.Decimal
	QuoteBalance decimal.Decimal
}

type ProposalPreflight struct {
	Dao            solana.PublicKey
	Proposer       solana.PublicKey
	DescriptionURL string
	RequiredBase   uint64
	RequiredQuote  uint64
	BaseBalance    decimal.Decimal
	QuoteBalance   decimal.Decimal
}

// BuiltTransaction is an unsigned, serialized transaction for a plan.
type BuiltTransaction struct {
	Transaction          string `json:"transaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	InstructionCount     int    `json:"instructionCount"`
}
