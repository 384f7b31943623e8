package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"match-crawler/internal/riot"

	"github.com/spf13/cobra"
)

var validateKeyCmd = &cobra.Command{
	Use:   "validate-key",
	Short: "Check that the configured Riot API key is accepted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.APIKey == "" {
			return errors.New("missing API key: set RIOT_API_KEY or pass --api-key")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		valid, err := riot.NewKeyValidator(cfg.Platform).ValidateKey(ctx, cfg.APIKey)
		if err != nil {
			return fmt.Errorf("could not validate key: %w", err)
		}
		if !valid {
			return fmt.Errorf("API key %s is expired or invalid", riot.MaskAPIKey(cfg.APIKey))
		}
		fmt.Printf("API key %s is valid for %s\n", riot.MaskAPIKey(cfg.APIKey), cfg.Platform)
		return nil
	},
}
