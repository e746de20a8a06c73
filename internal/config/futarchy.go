package config

import (
	"errors"
	"fmt"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"
)

// MetaDAO v0.4 deployments.
const (
	DefaultAutocratProgramID         = "autowMzCbM29YXMgVG3T62Hkgo7RcyrvgQQkd54fDQL"
	DefaultAmmProgramID              = "AMMyu265tkBpRW21iGQxKGLaves3gKm2JcMUqfXNSpqD"
	DefaultConditionalVaultProgramID = "VLTX1ishMBbcX3rdBWGssxawAo1Q2X2qxYFYqiGodVg"
)

type FutarchyConfig struct {
	AutocratProgramID         solana.PublicKey
	AmmProgramID              solana.PublicKey
	ConditionalVaultProgramID solana.PublicKey

	// DefaultSlippageBps applies when a trade request omits slippageBps.
	DefaultSlippageBps uint16

	// ProposerWallet is used for proposal preflight when the request names no proposer.
	ProposerWallet solana.PublicKey

	RateLimitRPS   int
	RateLimitBurst int
}

func (c *FutarchyConfig) Key() string {
	return FUTARCHY_CONFIG_KEY
}

func (c *FutarchyConfig) Load() error {
	var err error
	if c.AutocratProgramID, err = parseKey("AUTOCRAT_PROGRAM_ID", DefaultAutocratProgramID); err != nil {
		return err
	}
	if c.AmmProgramID, err = parseKey("AMM_PROGRAM_ID", DefaultAmmProgramID); err != nil {
		return err
	}
	if c.ConditionalVaultProgramID, err = parseKey("CONDITIONAL_VAULT_PROGRAM_ID", DefaultConditionalVaultProgramID); err != nil {
		return err
	}
	if c.ProposerWallet, err = parseKey("FUTARCHY_PROPOSER_WALLET", ""); err != nil {
		return err
	}

	slippage := common.GetEnvOrDefaultInt("DEFAULT_SLIPPAGE_BPS", 100)
	if slippage < 0 || slippage > 10000 {
		return fmt.Errorf("DEFAULT_SLIPPAGE_BPS out of range: %d", slippage)
	}
	c.DefaultSlippageBps = uint16(slippage)

	c.RateLimitRPS = common.GetEnvOrDefaultInt("RATE_LIMIT_RPS", 50)
	c.RateLimitBurst = common.GetEnvOrDefaultInt("RATE_LIMIT_BURST", 100)
	return c.Validate()
}

func (c *FutarchyConfig) Validate() error {
	if c.AutocratProgramID.IsZero() || c.AmmProgramID.IsZero() || c.ConditionalVaultProgramID.IsZero() {
		return errors.New("invalid futarchy program config")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("invalid rate limit config")
	}
	return nil
}

// parseKey reads a base58 public key from env. An empty value with an empty
// default yields the zero key.
func parseKey(env, def string) (solana.PublicKey, error) {
	raw := common.GetEnvOrDefault(env, def)
	if raw == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s: %w", env, err)
	}
	return key, nil
}
