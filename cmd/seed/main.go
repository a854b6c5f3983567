// Command seed provisions a wallet for a user and prints an access token
// for it, for local development against the ledger API.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"purse/internal/config"
	"purse/internal/logger"
	"purse/internal/models"
	"purse/internal/repositories"
	"purse/internal/utils"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	logger.Init(cfg.LogLevel, true)

	userID, err := strconv.ParseUint(os.Getenv("SEED_USER_ID"), 10, 64)
	if err != nil || userID == 0 {
		log.Fatal().Msg("SEED_USER_ID must be set to a positive integer")
	}
	email := config.GetEnv("SEED_EMAIL", fmt.Sprintf("user%d@example.com", userID))
	ttl := config.GetDurationEnv("SEED_TOKEN_TTL", 24*time.Hour)

	if err := repositories.InitDB(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			sqlDB.Close()
		}
		repositories.CacheService.Close()
	}()

	repo := repositories.NewWalletRepository(repositories.DB, repositories.RetryPolicy{
		MaxRetries: cfg.Ledger.MaxRetries,
		Backoff:    cfg.Ledger.RetryBackoff,
	}, cfg.Ledger.LockTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Ledger.OperationTimeout)
	defer cancel()

	var w *models.Wallet
	err = repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		var err error
		w, err = tx.GetOrCreateForUpdate(ctx, uint(userID), cfg.Ledger.Currency)
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to provision wallet")
	}

	token, err := utils.GenerateAccessToken(cfg.JWTSecret, &models.UserClaims{
		UserID: uint(userID),
		Email:  email,
		Role:   "user",
	}, ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign access token")
	}

	log.Info().
		Uint("user_id", w.UserID).
		Uint("wallet_id", w.ID).
		Str("balance", w.Balance.StringFixed(2)).
		Msg("wallet ready")
	fmt.Println(token)
}
