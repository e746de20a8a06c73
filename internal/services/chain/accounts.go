package chain

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/futarchy-engine/internal/domain"
)

var ErrDiscriminatorMismatch = errors.New("account discriminator mismatch")

// Anchor account discriminators: sha256("account:<Name>")[:8].
var (
	DaoDiscriminator              = accountDiscriminator("Dao")
	ProposalDiscriminator         = accountDiscriminator("Proposal")
	AmmDiscriminator              = accountDiscriminator("Amm")
	ConditionalVaultDiscriminator = accountDiscriminator("ConditionalVault")
)

func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// The layouts below are borsh prefixes of the v0.4 accounts. Trailing
// fields the planner does not read are left undecoded.

type daoAccount struct {
	TreasuryPdaBump  uint8
	Treasury         solana.PublicKey
	TokenMint        solana.PublicKey
	UsdcMint         solana.PublicKey
	ProposalCount    uint32
	PassThresholdBps uint16
	SlotsPerProposal uint64
}

type proposalAccountMeta struct {
	Pubkey     solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

type proposalInstruction struct {
	ProgramID solana.PublicKey
	Accounts  []proposalAccountMeta
	Data      []byte
}

type proposalAccount struct {
	Number             uint32
	Proposer           solana.PublicKey
	DescriptionURL     string
	SlotEnqueued       uint64
	State              uint8
	Instruction        proposalInstruction
	PassAmm            solana.PublicKey
	FailAmm            solana.PublicKey
	BaseVault          solana.PublicKey
	QuoteVault         solana.PublicKey
	Dao                solana.PublicKey
	PassLpTokensLocked uint64
	FailLpTokensLocked uint64
	Nonce              uint64
	PdaBump            uint8
	Question           solana.PublicKey
	DurationInSlots    uint64
}

type ammAccount struct {
	Bump              uint8
	CreatedAtSlot     uint64
	LpMint            solana.PublicKey
	BaseMint          solana.PublicKey
	QuoteMint         solana.PublicKey
	BaseMintDecimals  uint8
	QuoteMintDecimals uint8
	BaseAmount        uint64
	QuoteAmount       uint64
}

type conditionalVaultAccount struct {
	Question               solana.PublicKey
	UnderlyingTokenMint    solana.PublicKey
	UnderlyingTokenAccount solana.PublicKey
	ConditionalTokenMints  []solana.PublicKey
	PdaBump                uint8
	Decimals               uint8
}

func decodeAnchor(data []byte, discriminator [8]byte, v any) error {
	if len(data) < 8 || !bytes.Equal(data[:8], discriminator[:]) {
		return ErrDiscriminatorMismatch
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(v); err != nil {
		return fmt.Errorf("decode account: %w", err)
	}
	return nil
}

func DecodeDao(address solana.PublicKey, data []byte) (*domain.Dao, error) {
	var raw daoAccount
	if err := decodeAnchor(data, DaoDiscriminator, &raw); err != nil {
		return nil, err
	}
	return &domain.Dao{
		Address:          address,
		Treasury:         raw.Treasury,
		TokenMint:        raw.TokenMint,
		UsdcMint:         raw.UsdcMint,
		ProposalCount:    raw.ProposalCount,
		PassThresholdBps: raw.PassThresholdBps,
		SlotsPerProposal: raw.SlotsPerProposal,
	}, nil
}

func DecodeProposal(address solana.PublicKey, data []byte) (*domain.Proposal, error) {
	var raw proposalAccount
	if err := decodeAnchor(data, ProposalDiscriminator, &raw); err != nil {
		return nil, err
	}
	if raw.State > uint8(domain.ProposalStateExecuted) {
		return nil, fmt.Errorf("unknown proposal state %d", raw.State)
	}
	return &domain.Proposal{
		Address:         address,
		Number:          raw.Number,
		Proposer:        raw.Proposer,
		DescriptionURL:  raw.DescriptionURL,
		SlotEnqueued:    raw.SlotEnqueued,
		State:           domain.ProposalState(raw.State),
		PassAmm:         raw.PassAmm,
		FailAmm:         raw.FailAmm,
		BaseVault:       raw.BaseVault,
		QuoteVault:      raw.QuoteVault,
		Dao:             raw.Dao,
		Question:        raw.Question,
		DurationInSlots: raw.DurationInSlots,
	}, nil
}

func DecodeAmm(address solana.PublicKey, data []byte) (*domain.Amm, error) {
	var raw ammAccount
	if err := decodeAnchor(data, AmmDiscriminator, &raw); err != nil {
		return nil, err
	}
	return &domain.Amm{
		Address:           address,
		BaseMint:          raw.BaseMint,
		QuoteMint:         raw.QuoteMint,
		BaseMintDecimals:  raw.BaseMintDecimals,
		QuoteMintDecimals: raw.QuoteMintDecimals,
		BaseAmount:        raw.BaseAmount,
		QuoteAmount:       raw.QuoteAmount,
	}, nil
}

func DecodeConditionalVault(address solana.PublicKey, data []byte) (*domain.ConditionalVault, error) {
	var raw conditionalVaultAccount
	if err := decodeAnchor(data, ConditionalVaultDiscriminator, &raw); err != nil {
		return nil, err
	}
	if len(raw.ConditionalTokenMints) != int(domain.NumOutcomes) {
		return nil, fmt.Errorf("vault has %d conditional mints, want %d", len(raw.ConditionalTokenMints), domain.NumOutcomes)
	}
	return &domain.ConditionalVault{
		Address:                address,
		Question:               raw.Question,
		UnderlyingTokenMint:    raw.UnderlyingTokenMint,
		UnderlyingTokenAccount: raw.UnderlyingTokenAccount,
		ConditionalTokenMints:  raw.ConditionalTokenMints,
		Decimals:               raw.Decimals,
	}, nil
}
