package builder

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/futarchy-engine/internal/common"
	"github.com/hxuan190/futarchy-engine/internal/domain"
)

// Anchor instruction discriminators: sha256("global:<name>")[:8].
var (
	splitTokensDiscriminator  = instructionDiscriminator("split_tokens")
	redeemTokensDiscriminator = instructionDiscriminator("redeem_tokens")
	swapDiscriminator         = instructionDiscriminator("swap")
)

func instructionDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

type SwapType uint8

const (
	SwapTypeBuy SwapType = iota
	SwapTypeSell
)

func swapTypeFor(dir domain.Direction) SwapType {
	if dir == domain.DirectionSell {
		return SwapTypeSell
	}
	return SwapTypeBuy
}

// SwapArgs is the borsh argument of the amm swap instruction.
type SwapArgs struct {
	SwapType        SwapType
	InputAmount     uint64
	OutputAmountMin uint64
}

// VaultAccounts are the accounts shared by split_tokens and redeem_tokens.
type VaultAccounts struct {
	Question               solana.PublicKey
	Vault                  solana.PublicKey
	VaultUnderlyingAccount solana.PublicKey
	Authority              solana.PublicKey
	UserUnderlyingAccount  solana.PublicKey
	ConditionalMints       []solana.PublicKey
	UserConditionalATAs    []solana.PublicKey
}

func (a *VaultAccounts) metas(program solana.PublicKey) ([]*solana.AccountMeta, error) {
	if len(a.ConditionalMints) != len(a.UserConditionalATAs) {
		return nil, fmt.Errorf("%d conditional mints but %d user accounts", len(a.ConditionalMints), len(a.UserConditionalATAs))
	}
	eventAuthority, err := common.GetEventAuthorityPDA(program)
	if err != nil {
		return nil, err
	}

	metas := make([]*solana.AccountMeta, 0, 8+2*len(a.ConditionalMints))
	metas = append(metas,
		&solana.AccountMeta{PublicKey: a.Question, IsSigner: false, IsWritable: false},
		&solana.AccountMeta{PublicKey: a.Vault, IsSigner: false, IsWritable: true},
		&solana.AccountMeta{PublicKey: a.VaultUnderlyingAccount, IsSigner: false, IsWritable: true},
		&solana.AccountMeta{PublicKey: a.Authority, IsSigner: true, IsWritable: false},
		&solana.AccountMeta{PublicKey: a.UserUnderlyingAccount, IsSigner: false, IsWritable: true},
		&solana.AccountMeta{PublicKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
		&solana.AccountMeta{PublicKey: eventAuthority, IsSigner: false, IsWritable: false},
		&solana.AccountMeta{PublicKey: program, IsSigner: false, IsWritable: false},
	)
	// Remaining accounts: every conditional mint, then the matching user accounts.
	for _, mint := range a.ConditionalMints {
		metas = append(metas, &solana.AccountMeta{PublicKey: mint, IsSigner: false, IsWritable: true})
	}
	for _, ata := range a.UserConditionalATAs {
		metas = append(metas, &solana.AccountMeta{PublicKey: ata, IsSigner: false, IsWritable: true})
	}
	return metas, nil
}

func BuildSplitTokensInstruction(program solana.PublicKey, accounts *VaultAccounts, amount uint64) (solana.Instruction, error) {
	metas, err := accounts.metas(program)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(splitTokensDiscriminator[:])
	if err := bin.NewBorshEncoder(&buf).WriteUint64(amount, bin.LE); err != nil {
		return nil, fmt.Errorf("encode split amount: %w", err)
	}
	return solana.NewInstruction(program, metas, buf.Bytes()), nil
}

func BuildRedeemTokensInstruction(program solana.PublicKey, accounts *VaultAccounts) (solana.Instruction, error) {
	metas, err := accounts.metas(program)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(program, metas, redeemTokensDiscriminator[:]), nil
}

// SwapAccounts are the amm swap accounts. Vault ATAs are derived from the amm.
type SwapAccounts struct {
	User      solana.PublicKey
	Amm       solana.PublicKey
	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey
	UserBase  solana.PublicKey
	UserQuote solana.PublicKey
}

func BuildSwapInstruction(program solana.PublicKey, accounts *SwapAccounts, args SwapArgs) (solana.Instruction, error) {
	vaultBase, err := common.GetATAAddressForMint(accounts.Amm, accounts.BaseMint, common.TokenProgramID)
	if err != nil {
		return nil, err
	}
	vaultQuote, err := common.GetATAAddressForMint(accounts.Amm, accounts.QuoteMint, common.TokenProgramID)
	if err != nil {
		return nil, err
	}
	eventAuthority, err := common.GetEventAuthorityPDA(program)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(swapDiscriminator[:])
	if err := bin.NewBorshEncoder(&buf).Encode(args); err != nil {
		return nil, fmt.Errorf("encode swap args: %w", err)
	}

	metas := []*solana.AccountMeta{
		{PublicKey: accounts.User, IsSigner: true, IsWritable: true},
		{PublicKey: accounts.Amm, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.UserBase, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.UserQuote, IsSigner: false, IsWritable: true},
		{PublicKey: vaultBase, IsSigner: false, IsWritable: true},
		{PublicKey: vaultQuote, IsSigner: false, IsWritable: true},
		{PublicKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: eventAuthority, IsSigner: false, IsWritable: false},
		{PublicKey: program, IsSigner: false, IsWritable: false},
	}
	return solana.NewInstruction(program, metas, buf.Bytes()), nil
}
