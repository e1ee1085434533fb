// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/carterperez-dev/webuzz/internal/auth"
	"github.com/carterperez-dev/webuzz/internal/config"
	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/follow"
	"github.com/carterperez-dev/webuzz/internal/role"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := run(*configPath); err != nil {
		slog.Error("deploy failed", "error", err)
		os.Exit(1)
	}
}

// run applies every deployment step in order. Each step is idempotent, so a
// failed deploy can simply be rerun.
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := ensureKeys(cfg.JWT); err != nil {
		return err
	}

	if err := core.Migrate(cfg.Database.URL); err != nil {
		return err
	}
	slog.Info("migrations applied")

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}()

	if err := role.NewService(role.NewRepository(db.DB)).InsertRoles(ctx); err != nil {
		return err
	}

	if err := follow.NewService(follow.NewRepository(db.DB)).AddSelfFollows(ctx); err != nil {
		return err
	}

	slog.Info("deploy complete")
	return nil
}

func ensureKeys(cfg config.JWTConfig) error {
	_, err := os.Stat(cfg.PrivateKeyPath)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat private key: %w", err)
	}

	if err := auth.GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath); err != nil {
		return err
	}
	slog.Info("generated signing key pair", "private_key", cfg.PrivateKeyPath)
	return nil
}
