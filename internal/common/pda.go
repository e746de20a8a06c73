package common

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

type ataKey struct {
	Wallet       solana.PublicKey
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey
}

var (
	ataCache   = make(map[ataKey]solana.PublicKey)
	ataCacheMu sync.RWMutex
)

// GetATAAddressForMint derives the associated token account of wallet for a
// mint owned by tokenProgram.
func GetATAAddressForMint(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	key := ataKey{Wallet: wallet, Mint: mint, TokenProgram: tokenProgram}

	ataCacheMu.RLock()
	if cached, ok := ataCache[key]; ok {
		ataCacheMu.RUnlock()
		return cached, nil
	}
	ataCacheMu.RUnlock()

	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			wallet[:],
			tokenProgram[:],
			mint[:],
		},
		ATAProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, err
	}

	ataCacheMu.Lock()
	ataCache[key] = ata
	ataCacheMu.Unlock()

	return ata, nil
}

var (
	eventAuthorityCache   = make(map[solana.PublicKey]solana.PublicKey)
	eventAuthorityCacheMu sync.RWMutex
)

// GetEventAuthorityPDA returns the Anchor event-cpi authority of a program.
func GetEventAuthorityPDA(programID solana.PublicKey) (solana.PublicKey, error) {
	eventAuthorityCacheMu.RLock()
	if cached, ok := eventAuthorityCache[programID]; ok {
		eventAuthorityCacheMu.RUnlock()
		return cached, nil
	}
	eventAuthorityCacheMu.RUnlock()

	pda, _, err := solana.FindProgramAddress([][]byte{[]byte(EventAuthoritySeed)}, programID)
	if err != nil {
		return solana.PublicKey{}, err
	}

	eventAuthorityCacheMu.Lock()
	eventAuthorityCache[programID] = pda
	eventAuthorityCacheMu.Unlock()

	return pda, nil
}

// CreateATAIdempotentInstruction creates the owner's ATA for mint if it does
// not exist yet and is a no-op otherwise.
func CreateATAIdempotentInstruction(payer, owner, mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	ata, err := GetATAAddressForMint(owner, mint, tokenProgram)
	if err != nil {
		return nil, err
	}
	return &createATAInstruction{
		payer:        payer,
		ata:          ata,
		owner:        owner,
		mint:         mint,
		tokenProgram: tokenProgram,
	}, nil
}

type createATAInstruction struct {
	payer        solana.PublicKey
	ata          solana.PublicKey
	owner        solana.PublicKey
	mint         solana.PublicKey
	tokenProgram solana.PublicKey
}

func (i *createATAInstruction) ProgramID() solana.PublicKey {
	return ATAProgramID
}

func (i *createATAInstruction) Accounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		{PublicKey: i.payer, IsSigner: true, IsWritable: true},
		{PublicKey: i.ata, IsSigner: false, IsWritable: true},
		{PublicKey: i.owner, IsSigner: false, IsWritable: false},
		{PublicKey: i.mint, IsSigner: false, IsWritable: false},
		{PublicKey: SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: i.tokenProgram, IsSigner: false, IsWritable: false},
	}
}

// Data is the CreateIdempotent discriminator of the ATA program.
func (i *createATAInstruction) Data() ([]byte, error) {
	return []byte{1}, nil
}
