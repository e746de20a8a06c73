package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"
	"github.com/thehyperflames/yellowstone"

	"github.com/hxuan190/futarchy-engine/internal/adapters/blockchain"
	"github.com/hxuan190/futarchy-engine/internal/config"
	"github.com/hxuan190/futarchy-engine/internal/futarchy"
	"github.com/hxuan190/futarchy-engine/internal/http"
	"github.com/hxuan190/futarchy-engine/internal/services/builder"
	"github.com/hxuan190/futarchy-engine/internal/services/chain"
)

// @title Futarchy Engine API
// @version 1.0-beta
// @description Trade planner for MetaDAO futarchy (v0.4) PASS/FAIL conditional markets on Solana.
// @description
// @description ## - Features
// @description - **Conditional Trading**: Buy or sell the PASS or FAIL token of any proposal
// @description - **Automatic Splits**: Spot quote is split into conditional tokens when the conditional balance is short
// @description - **Constant-Product Quotes**: Expected output, slippage-adjusted minimum and price impact per trade
// @description - **Redemption**: Redeem both vaults of an executed proposal in one transaction
// @description - **Unsigned Transactions**: Every plan comes back as one base64 transaction for the wallet to sign
// @description
// @description ## - Usage Tips
// @description - Amounts in requests are human-readable (e.g. `1.5` USDC) and rounded down to the smallest unit
// @description - Amounts in responses are in smallest token units
// @description - Default slippage is 100 bps (1%)
// @description - Transactions expire after ~60 seconds (based on lastValidBlockHeight)
// @description
// @BasePath /
// @schemes https http
// @tag.name trade
// @tag.description Plan conditional-token trades and redemptions
// @tag.name proposals
// @tag.description Proposal state and markets
// @tag.name daos
// @tag.description DAO lookups and proposal preflight

func main() {
	// load env
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	generalConfig := &config.GeneralConfig{}

	// di container config
	conf := container.NewConf(
		generalConfig,
		&config.RPCConfig{},
		&config.FutarchyConfig{},
		&config.StorageConfig{},
		&yellowstone.Config{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&yellowstone.Service{},
		&blockchain.BlockhashCacheService{},
		&chain.Service{},
		&builder.BuilderService{},
		&futarchy.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if level, err := zerolog.ParseLevel(generalConfig.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Use RunBlock() - waits for SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	// RunBlock() doesn't call Stop(), we must do it manually
	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
