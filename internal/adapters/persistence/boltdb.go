package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
)

const (
	MintsBucket = "mints"

	DefaultDBPath = "./data/futarchy.db"
)

// MintInfo is the immutable part of a mint account the planner needs.
type MintInfo struct {
	Mint         solana.PublicKey
	Decimals     uint8
	TokenProgram solana.PublicKey
}

type StoredMint struct {
	Mint         string `json:"mint"`
	Decimals     uint8  `json:"decimals"`
	TokenProgram string `json:"tokenProgram"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[mintStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SaveMintBatch(infos []MintInfo) error {
	if len(infos) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, info := range infos {
		data, err := sonic.Marshal(mintToStored(info))
		if err != nil {
			return fmt.Errorf("failed to marshal mint %s: %w", info.Mint, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(MintsBucket),
			Key:    []byte(info.Mint.String()),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add mint %s to batch: %w", info.Mint, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(infos)).Msg("[mintStorage] FAILED to execute batch")
		return err
	}
	return nil
}

func (s *Storage) LoadAllMints() ([]MintInfo, error) {
	data, err := s.db.List(MintsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list mints: %w", err)
	}

	mints := make([]MintInfo, 0, len(data))
	failed := 0
	for address, value := range data {
		var stored StoredMint
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Warn().Str("mint", address).Err(err).Msg("[mintStorage] failed to unmarshal mint, skipping")
			failed++
			continue
		}
		info, err := storedToMint(&stored)
		if err != nil {
			log.Warn().Str("mint", address).Err(err).Msg("[mintStorage] invalid stored mint, skipping")
			failed++
			continue
		}
		mints = append(mints, info)
	}

	log.Info().
		Int("total_in_db", len(data)).
		Int("loaded", len(mints)).
		Int("failed", failed).
		Msg("[mintStorage] mint loading completed")

	return mints, nil
}

func mintToStored(info MintInfo) *StoredMint {
	return &StoredMint{
		Mint:         info.Mint.String(),
		Decimals:     info.Decimals,
		TokenProgram: info.TokenProgram.String(),
	}
}

func storedToMint(stored *StoredMint) (MintInfo, error) {
	mint, err := solana.PublicKeyFromBase58(stored.Mint)
	if err != nil {
		return MintInfo{}, fmt.Errorf("invalid mint: %w", err)
	}
	program, err := solana.PublicKeyFromBase58(stored.TokenProgram)
	if err != nil {
		return MintInfo{}, fmt.Errorf("invalid tokenProgram: %w", err)
	}
	return MintInfo{Mint: mint, Decimals: stored.Decimals, TokenProgram: program}, nil
}
