package domain

import (
	"github.com/gagliardetto/solana-go"
)

// NumOutcomes is the outcome count of every futarchy question (PASS/FAIL).
const NumOutcomes uint8 = 2

type Side uint8

const (
	SidePass Side = iota
	SideFail
)

func (s Side) String() string {
	switch s {
	case SidePass:
		return "pass"
	case SideFail:
		return "fail"
	default:
		return "unknown"
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Direction uint8

const (
	DirectionBuy Direction = iota
	DirectionSell
)

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "buy"
	case DirectionSell:
		return "sell"
	default:
		return "unknown"
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ProposalState mirrors the autocrat program's proposal state enum.
type ProposalState uint8

const (
	ProposalStatePending ProposalState = iota
	ProposalStatePassed
	ProposalStateFailed
	ProposalStateExecuted
)

func (s ProposalState) String() string {
	switch s {
	case ProposalStatePending:
		return "pending"
	case ProposalStatePassed:
		return "passed"
	case ProposalStateFailed:
		return "failed"
	case ProposalStateExecuted:
		return "executed"
	default:
		return "unknown"
	}
}

func (s ProposalState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Dao struct {
	Address          solana.PublicKey `json:"address"`
	Treasury         solana.PublicKey `json:"treasury"`
	TokenMint        solana.PublicKey `json:"tokenMint"`
	UsdcMint         solana.PublicKey `json:"usdcMint"`
	ProposalCount    uint32           `json:"proposalCount"`
	PassThresholdBps uint16           `json:"passThresholdBps"`
	SlotsPerProposal uint64           `json:"slotsPerProposal"`
}

// Proposal is the market a trade or redemption targets: the pair of
// conditional AMMs plus the base and quote conditional vaults.
type Proposal struct {
	Address         solana.PublicKey `json:"address"`
	Number          uint32           `json:"number"`
	Proposer        solana.PublicKey `json:"proposer"`
	DescriptionURL  string           `json:"descriptionUrl"`
	SlotEnqueued    uint64           `json:"slotEnqueued"`
	State           ProposalState    `json:"state"`
	PassAmm         solana.PublicKey `json:"passAmm"`
	FailAmm         solana.PublicKey `json:"failAmm"`
	BaseVault       solana.PublicKey `json:"baseVault"`
	QuoteVault      solana.PublicKey `json:"quoteVault"`
	Dao             solana.PublicKey `json:"dao"`
	Question        solana.PublicKey `json:"question"`
	DurationInSlots uint64           `json:"durationInSlots"`
}

func (p *Proposal) AmmFor(side Side) solana.PublicKey {
	if side == SideFail {
		return p.FailAmm
	}
	return p.PassAmm
}

func (p *Proposal) IsExecuted() bool {
	return p.State == ProposalStateExecuted
}

// ConditionalVault splits one underlying mint into one conditional mint per
// outcome, 1:1 and at the underlying's precision.
type ConditionalVault struct {
	Address                solana.PublicKey   `json:"address"`
	Question               solana.PublicKey   `json:"question"`
	UnderlyingTokenMint    solana.PublicKey   `json:"underlyingTokenMint"`
	UnderlyingTokenAccount solana.PublicKey   `json:"underlyingTokenAccount"`
	ConditionalTokenMints  []solana.PublicKey `json:"conditionalTokenMints"`
	Decimals               uint8              `json:"decimals"`
}

type Amm struct {
	Address           solana.PublicKey `json:"address"`
	BaseMint          solana.PublicKey `json:"baseMint"`
	QuoteMint         solana.PublicKey `json:"quoteMint"`
	BaseMintDecimals  uint8            `json:"baseMintDecimals"`
	QuoteMintDecimals uint8            `json:"quoteMintDecimals"`
	BaseAmount        uint64           `json:"baseAmount"`
	QuoteAmount       uint64           `json:"quoteAmount"`
}

// Reserves returns (reserveIn, reserveOut) for a swap in the given direction.
// Buying spends quote for base, selling spends base for quote.
func (a *Amm) Reserves(dir Direction) (uint64, uint64) {
	if dir == DirectionSell {
		return a.BaseAmount, a.QuoteAmount
	}
	return a.QuoteAmount, a.BaseAmount
}
