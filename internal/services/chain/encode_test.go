package chain

import (
	"bytes"
	"encoding/binary"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// borshWriter hand-encodes account fixtures field by field.
type borshWriter struct {
	buf bytes.Buffer
}

func newAccountWriter(discriminator [8]byte) *borshWriter {
	w := &borshWriter{}
	w.buf.Write(discriminator[:])
	return w
}

func (w *borshWriter) u8(v uint8) *borshWriter {
	w.buf.WriteByte(v)
	return w
}

func (w *borshWriter) boolean(v bool) *borshWriter {
	if v {
		return w.u8(1)
	}
	return w.u8(0)
}

func (w *borshWriter) u16(v uint16) *borshWriter {
	w.buf.Write(binary.LittleEndian.AppendUint16(nil, v))
	return w
}

func (w *borshWriter) u32(v uint32) *borshWriter {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
	return w
}

func (w *borshWriter) u64(v uint64) *borshWriter {
	w.buf.Write(binary.LittleEndian.AppendUint64(nil, v))
	return w
}

func (w *borshWriter) key(k solana.PublicKey) *borshWriter {
	w.buf.Write(k[:])
	return w
}

func (w *borshWriter) str(s string) *borshWriter {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
	return w
}

func (w *borshWriter) bytes() []byte {
	return w.buf.Bytes()
}

type proposalFixture struct {
	address    solana.PublicKey
	number     uint32
	state      uint8
	passAmm    solana.PublicKey
	failAmm    solana.PublicKey
	baseVault  solana.PublicKey
	quoteVault solana.PublicKey
	dao        solana.PublicKey
	question   solana.PublicKey
}

func newProposalFixture(dao solana.PublicKey, number uint32, state uint8) proposalFixture {
	return proposalFixture{
		address:    solana.NewWallet().PublicKey(),
		number:     number,
		state:      state,
		passAmm:    solana.NewWallet().PublicKey(),
		failAmm:    solana.NewWallet().PublicKey(),
		baseVault:  solana.NewWallet().PublicKey(),
		quoteVault: solana.NewWallet().PublicKey(),
		dao:        dao,
		question:   solana.NewWallet().PublicKey(),
	}
}

func (f proposalFixture) encode() []byte {
	w := newAccountWriter(ProposalDiscriminator).
		u32(f.number).
		key(solana.NewWallet().PublicKey()).
		str("https://example.com/p.md").
		u64(1234).
		u8(f.state)
	// instruction: program id, two account metas, three data bytes
	w.key(solana.NewWallet().PublicKey()).
		u32(2).
		key(solana.NewWallet().PublicKey()).boolean(true).boolean(true).
		key(solana.NewWallet().PublicKey()).boolean(false).boolean(true).
		u32(3).u8(7).u8(8).u8(9)
	return w.key(f.passAmm).
		key(f.failAmm).
		key(f.baseVault).
		key(f.quoteVault).
		key(f.dao).
		u64(10).
		u64(11).
		u64(42).
		u8(254).
		key(f.question).
		u64(216_000).
		// trailing fields that are not decoded
		u64(99).
		bytes()
}

func encodeAmm(base, quote solana.PublicKey, baseAmount, quoteAmount uint64) []byte {
	return newAccountWriter(AmmDiscriminator).
		u8(255).
		u64(1000).
		key(solana.NewWallet().PublicKey()).
		key(base).
		key(quote).
		u8(9).
		u8(6).
		u64(baseAmount).
		u64(quoteAmount).
		bytes()
}

func encodeVault(question, underlying, underlyingAccount solana.PublicKey, mints []solana.PublicKey, decimals uint8) []byte {
	w := newAccountWriter(ConditionalVaultDiscriminator).
		key(question).
		key(underlying).
		key(underlyingAccount).
		u32(uint32(len(mints)))
	for _, m := range mints {
		w.key(m)
	}
	return w.u8(253).u8(decimals).bytes()
}

func encodeDao(tokenMint, usdcMint solana.PublicKey, proposalCount uint32) []byte {
	return newAccountWriter(DaoDiscriminator).
		u8(250).
		key(solana.NewWallet().PublicKey()).
		key(tokenMint).
		key(usdcMint).
		u32(proposalCount).
		u16(300).
		u64(216_000).
		bytes()
}

func encodeMint(t *testing.T, decimals uint8) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := bin.NewBinEncoder(&buf).Encode(&token.Mint{Supply: 1_000_000, Decimals: decimals, IsInitialized: true}); err != nil {
		t.Fatalf("encode mint: %v", err)
	}
	return buf.Bytes()
}

func encodeTokenAccount(t *testing.T, mint, owner solana.PublicKey, amount uint64) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := bin.NewBinEncoder(&buf).Encode(&token.Account{Mint: mint, Owner: owner, Amount: amount, State: token.Initialized}); err != nil {
		t.Fatalf("encode token account: %v", err)
	}
	return buf.Bytes()
}

func account(owner solana.PublicKey, data []byte) *rpc.Account {
	return &rpc.Account{Owner: owner, Data: rpc.DataBytesOrJSONFromBytes(data)}
}
