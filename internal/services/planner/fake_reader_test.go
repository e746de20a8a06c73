package planner

import (
	"context"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/futarchy-engine/internal/domain"
)

type balanceKey struct {
	user solana.PublicKey
	mint solana.PublicKey
}

type fakeReader struct {
	daos      map[solana.PublicKey]*domain.Dao
	proposals map[solana.PublicKey]*domain.Proposal
	amms      map[solana.PublicKey]*domain.Amm
	vaults    map[solana.PublicKey]*domain.ConditionalVault
	decimals  map[solana.PublicKey]uint8
	balances  map[balanceKey]uint64

	// err, when set, fails every read.
	err error
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		daos:      make(map[solana.PublicKey]*domain.Dao),
		proposals: make(map[solana.PublicKey]*domain.Proposal),
		amms:      make(map[solana.PublicKey]*domain.Amm),
		vaults:    make(map[solana.PublicKey]*domain.ConditionalVault),
		decimals:  make(map[solana.PublicKey]uint8),
		balances:  make(map[balanceKey]uint64),
	}
}

func (f *fakeReader) setBalance(user, mint solana.PublicKey, amount uint64) {
	f.balances[balanceKey{user, mint}] = amount
}

func (f *fakeReader) GetDao(_ context.Context, id solana.PublicKey) (*domain.Dao, error) {
	if f.err != nil {
		return nil, f.err
	}
	if d, ok := f.daos[id]; ok {
		return d, nil
	}
	return nil, domain.NotFound("dao", id)
}

func (f *fakeReader) GetProposal(_ context.Context, id solana.PublicKey) (*domain.Proposal, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.proposals[id]; ok {
		return p, nil
	}
	return nil, domain.NotFound("proposal", id)
}

func (f *fakeReader) GetAmm(_ context.Context, id solana.PublicKey) (*domain.Amm, error) {
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.amms[id]; ok {
		return a, nil
	}
	return nil, domain.NotFound("amm", id)
}

func (f *fakeReader) GetVault(_ context.Context, id solana.PublicKey) (*domain.ConditionalVault, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vaults[id]; ok {
		return v, nil
	}
	return nil, domain.NotFound("vault", id)
}

func (f *fakeReader) GetMintDecimals(_ context.Context, mint solana.PublicKey) (uint8, error) {
	if f.err != nil {
		return 0, f.err
	}
	if d, ok := f.decimals[mint]; ok {
		return d, nil
	}
	return 0, domain.NotFound("mint", mint)
}

func (f *fakeReader) GetTokenBalance(ctx context.Context, user, mint solana.PublicKey) (domain.Balance, error) {
	if f.err != nil {
		return domain.Balance{}, f.err
	}
	amount, ok := f.balances[balanceKey{user, mint}]
	if !ok {
		return domain.Balance{}, domain.AccountNotFound("", user, mint)
	}
	decimals, err := f.GetMintDecimals(ctx, mint)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{Mint: mint, Amount: amount, Decimals: decimals}, nil
}

// market is a proposal with both vaults and both pools registered on a
// fakeReader. Every mint shares the same decimals.
type market struct {
	reader   *fakeReader
	proposal *domain.Proposal

	baseVault  *domain.ConditionalVault
	quoteVault *domain.ConditionalVault
	passAmm    *domain.Amm
	failAmm    *domain.Amm

	user solana.PublicKey
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func newVault(question solana.PublicKey, decimals uint8) *domain.ConditionalVault {
	return &domain.ConditionalVault{
		Address:                newKey(),
		Question:               question,
		UnderlyingTokenMint:    newKey(),
		UnderlyingTokenAccount: newKey(),
		// fail, pass
		ConditionalTokenMints: []solana.PublicKey{newKey(), newKey()},
		Decimals:              decimals,
	}
}

func newMarket(decimals uint8, state domain.ProposalState) *market {
	r := newFakeReader()
	question := newKey()

	baseVault := newVault(question, decimals)
	quoteVault := newVault(question, decimals)

	passAmm := &domain.Amm{
		Address:           newKey(),
		BaseMint:          baseVault.ConditionalTokenMints[1],
		QuoteMint:         quoteVault.ConditionalTokenMints[1],
		BaseMintDecimals:  decimals,
		QuoteMintDecimals: decimals,
		BaseAmount:        1_000_000,
		QuoteAmount:       500_000,
	}
	failAmm := &domain.Amm{
		Address:           newKey(),
		BaseMint:          baseVault.ConditionalTokenMints[0],
		QuoteMint:         quoteVault.ConditionalTokenMints[0],
		BaseMintDecimals:  decimals,
		QuoteMintDecimals: decimals,
		BaseAmount:        2_000_000,
		QuoteAmount:       1_000_000,
	}

	proposal := &domain.Proposal{
		Address:    newKey(),
		State:      state,
		PassAmm:    passAmm.Address,
		FailAmm:    failAmm.Address,
		BaseVault:  baseVault.Address,
		QuoteVault: quoteVault.Address,
		Question:   question,
	}

	r.proposals[proposal.Address] = proposal
	for _, v := range []*domain.ConditionalVault{baseVault, quoteVault} {
		r.vaults[v.Address] = v
		r.decimals[v.UnderlyingTokenMint] = decimals
		for _, m := range v.ConditionalTokenMints {
			r.decimals[m] = decimals
		}
	}
	r.amms[passAmm.Address] = passAmm
	r.amms[failAmm.Address] = failAmm

	return &market{
		reader:     r,
		proposal:   proposal,
		baseVault:  baseVault,
		quoteVault: quoteVault,
		passAmm:    passAmm,
		failAmm:    failAmm,
		user:       newKey(),
	}
}

func (m *market) planner() *Planner {
	n := 0
	return NewPlanner(m.reader, Config{NewID: func() string {
		n++
		return "plan-" + strconv.Itoa(n)
	}})
}
