// cmd/oracle/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/oracle/internal/auth"
	"github.com/jason-s-yu/oracle/internal/cache"
	"github.com/jason-s-yu/oracle/internal/config"
	"github.com/jason-s-yu/oracle/internal/database"
	"github.com/jason-s-yu/oracle/internal/entitlement"
	"github.com/jason-s-yu/oracle/internal/handlers"
	"github.com/jason-s-yu/oracle/internal/interpreter"
	"github.com/jason-s-yu/oracle/internal/reading"
	"github.com/jason-s-yu/oracle/internal/tarot"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// store is everything the server needs from persistence; both backends provide it.
type store interface {
	auth.UserStore
	reading.Store
	tarot.CardStore
	handlers.Pinger
}

func (c *cli) serveCmd() *cobra.Command {
	var migrateFirst bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving (postgres store)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger, migrateFirst bool) error {
	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	st, closeStore, err := openStore(ctx, cfg, logger, migrateFirst)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, closeStore)

	tokens, err := newTokenManager(cfg, logger)
	if err != nil {
		return err
	}
	accounts := auth.NewAccounts(st, tokens, logger)

	counter, closeCounter, err := newUsageCounter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, closeCounter)

	completer, err := interpreter.NewCompleter(interpreterSettings(cfg), logger)
	if err != nil {
		return err
	}

	catalog := tarot.NewCatalog(st)
	readings := reading.NewService(reading.Deps{
		Catalog:     catalog,
		Interpreter: interpreter.NewOracle(completer, logger),
		Gate:        entitlement.NewGate(counter, logger),
		Store:       st,
		Profiles:    accounts,
		Logger:      logger,

		// every attempt plus the pauses between them
		SettleTimeout: time.Duration(cfg.Interpreter.MaxAttempts)*cfg.Interpreter.Timeout + 30*time.Second,
	})
	api := handlers.NewAPIServer(handlers.Deps{
		Accounts:      accounts,
		Readings:      readings,
		Catalog:       catalog,
		Health:        st,
		Logger:        logger,
		SecureCookies: !cfg.IsDev(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore returns the configured store and a func that releases it. The memory
// store is seeded with the embedded deck.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger, migrateFirst bool) (store, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store; nothing survives a restart")
		mem := database.NewMemStore()
		deck, err := tarot.DefaultDeck()
		if err != nil {
			return nil, nil, err
		}
		if err := mem.ReplaceCards(ctx, deck.Cards); err != nil {
			return nil, nil, err
		}
		return mem, func() {}, nil
	}

	if migrateFirst {
		if err := database.RunMigrations(cfg.DatabaseURL(), logger); err != nil {
			return nil, nil, err
		}
	}
	pool, err := database.ConnectDB(ctx, cfg.DatabaseURL(), logger)
	if err != nil {
		return nil, nil, err
	}
	return database.NewStore(pool), pool.Close, nil
}

func newTokenManager(cfg *config.Config, logger *logrus.Logger) (*auth.TokenManager, error) {
	ttl, err := auth.ParseTokenTTL(cfg.Auth.TokenExpire)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.PrivateKeyPath != "" {
		return auth.NewTokenManagerFromFiles(cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath, ttl)
	}
	logger.Warn("no JWT key files configured; generated an ephemeral key pair, sessions end on restart")
	return auth.NewTokenManager(ttl)
}

func newUsageCounter(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (entitlement.UsageCounter, func(), error) {
	if cfg.Trial.Counter != config.CounterRedis {
		return entitlement.ClientCounter{}, func() {}, nil
	}
	rdb, err := cache.ConnectRedis(ctx, cache.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB}, logger)
	if err != nil {
		return nil, nil, err
	}
	return entitlement.NewRedisCounter(rdb, cfg.Trial.TTL), func() { _ = rdb.Close() }, nil
}

func interpreterSettings(cfg *config.Config) interpreter.Settings {
	ic := cfg.Interpreter
	retry := interpreter.DefaultRetryConfig()
	retry.Timeout = ic.Timeout
	retry.MaxAttempts = ic.MaxAttempts

	s := interpreter.Settings{
		Provider: ic.Provider,
		BaseURL:  ic.BaseURL,
		APIKey:   ic.APIKey,
		Model:    ic.Model,
		Retry:    retry,
	}
	if ic.Provider == interpreter.ProviderAnthropic {
		s.BaseURL, s.APIKey, s.Model = ic.AnthropicURL, ic.AnthropicKey, ic.AnthropicModel
	}
	return s
}
