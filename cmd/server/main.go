package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harrylevesque/boardroom/internal/api"
	"github.com/harrylevesque/boardroom/internal/certs"
	"github.com/harrylevesque/boardroom/internal/config"
	"github.com/harrylevesque/boardroom/internal/db"
	"github.com/harrylevesque/boardroom/internal/utils"
)

// certWarnWindow is how close to expiry a certificate must be before a
// warning is logged at startup.
const certWarnWindow = 30 * 24 * time.Hour

var (
	configPath string
	addr       string
	noSeed     bool
)

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "Run the boardroom API server",
	SilenceUsage: true,
	RunE:         runServer,
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultFile, "path to the YAML config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config file")
	rootCmd.Flags().BoolVar(&noSeed, "no-seed", false, "do not create the demo board on startup")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer repo.Close()

	if cfg.Server.SeedDemo && !noSeed {
		created, err := db.SeedDemo(ctx, repo)
		if err != nil {
			return fmt.Errorf("seed demo board: %w", err)
		}
		if created {
			logger.Info("demo board created", zap.String("id", db.DemoBoardID))
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(api.NewServer(repo, api.WithLogger(logger))),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	if cfg.Server.TLSCert != "" {
		cm := certs.NewCertManager(cfg.Server.TLSCert, cfg.Server.TLSKey)
		tlsCfg, err := cm.TLSConfig()
		if err != nil {
			return err
		}
		if leaf := tlsCfg.Certificates[0].Leaf; cm.ExpiresWithin(leaf, certWarnWindow) {
			logger.Warn("TLS certificate expires soon", zap.Time("not_after", leaf.NotAfter))
		}
		srv.TLSConfig = tlsCfg
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", srv.TLSConfig != nil),
			zap.String("storage", cfg.Storage.Driver))
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}

func openRepository(ctx context.Context, sc config.StorageConfig) (db.Repository, error) {
	switch sc.Driver {
	case config.StorageMemory:
		return db.NewMemory(), nil
	case config.StorageSQLite:
		if err := os.MkdirAll(filepath.Dir(sc.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return db.OpenSQLite(ctx, sc.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
}
