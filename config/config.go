package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the bot.
type Config struct {
	DatabaseURL string
	ServerPort  int

	OpenAIAPIKey string

	RPCEndpoint        string
	MarketplaceBaseURL string
	// CollectionAliases are the configured eligibility constraints; empty
	// means allow-any.
	CollectionAliases []string

	WalletLinkSecret string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. A missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		RPCEndpoint:        os.Getenv("RPC_ENDPOINT"),
		MarketplaceBaseURL: os.Getenv("MARKETPLACE_BASE_URL"),
		WalletLinkSecret:   os.Getenv("WALLET_LINK_SECRET"),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	if cfg.RPCEndpoint == "" {
		return nil, fmt.Errorf("RPC_ENDPOINT environment variable is not set")
	}
	if cfg.WalletLinkSecret == "" {
		return nil, fmt.Errorf("WALLET_LINK_SECRET environment variable is not set")
	}

	if aliases := os.Getenv("COLLECTION_ALIASES"); aliases != "" {
		for _, alias := range strings.Split(aliases, ",") {
			if alias = strings.TrimSpace(alias); alias != "" {
				cfg.CollectionAliases = append(cfg.CollectionAliases, alias)
			}
		}
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	return cfg, nil
}
