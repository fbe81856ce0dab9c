package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nftbrawl/arena-bot/brackets"
	"github.com/nftbrawl/arena-bot/chain"
	"github.com/nftbrawl/arena-bot/config"
	"github.com/nftbrawl/arena-bot/db"
	"github.com/nftbrawl/arena-bot/document"
	"github.com/nftbrawl/arena-bot/genai"
	"github.com/nftbrawl/arena-bot/handlers"
	"github.com/nftbrawl/arena-bot/repositories"
	"github.com/nftbrawl/arena-bot/routes"
	"github.com/nftbrawl/arena-bot/services"
	"github.com/nftbrawl/arena-bot/storage"
	"github.com/nftbrawl/arena-bot/ui"
	"github.com/nftbrawl/arena-bot/verify"
	"github.com/nftbrawl/arena-bot/workers"
)

const rpcTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbConn.Close()
	logger.Info("database connection established")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader, err := storage.NewR2Uploader(ctx, storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("artifact storage initialized")

	hub := brackets.NewHub(logger)
	notifier := brackets.NewHubNotifier(hub)
	prompter := ui.AutoPrompter{}

	rpc := chain.NewRPCClient(cfg.RPCEndpoint, rpcTimeout)
	aliasIndex := chain.NewMarketplaceAliasIndex(cfg.MarketplaceBaseURL, rpcTimeout)
	verifier := verify.New(rpc, aliasIndex, cfg.CollectionAliases, logger)

	provider := genai.NewOpenAIProvider(cfg.OpenAIAPIKey)

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	sessions := services.NewSessionStore()
	userService := services.NewUserService(userRepo, logger)
	walletService := services.NewWalletService(cfg.WalletLinkSecret, userService)
	setupService := services.NewSetupService(prompter, cfg.CollectionAliases, logger)
	lobbyService := services.NewLobbyService(sessions, verifier, userService, prompter, logger)
	matchService := services.NewMatchService(provider, uploader, services.CoinFlipPicker{}, notifier, logger)
	tournamentService := services.NewTournamentService(
		sessions,
		matchService,
		provider,
		uploader,
		notifier,
		func() document.Compiler { return document.NewPDFCompiler() },
		logger,
	)
	logger.Info("services initialized")

	janitor, err := workers.NewJanitor(sessions, userRepo, logger)
	if err != nil {
		logger.Error("failed to build janitor", slog.Any("error", err))
		os.Exit(1)
	}
	if err := janitor.Start(); err != nil {
		logger.Error("failed to start janitor", slog.Any("error", err))
		os.Exit(1)
	}
	defer janitor.Stop()

	router := routes.Setup(
		handlers.NewBattleHandler(ctx, sessions, setupService, lobbyService, tournamentService),
		handlers.NewVerifyHandler(walletService),
		handlers.NewWebSocketHandler(hub, logger),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		hub.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server terminated", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
