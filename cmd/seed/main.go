// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/webuzz/internal/config"
	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
	"github.com/carterperez-dev/webuzz/internal/user"
)

const (
	seedPassword = "password"
	postWindow   = 365 * 24 * time.Hour
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	users := flag.Int("users", 100, "number of users to create")
	posts := flag.Int("posts", 100, "number of posts to create")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := run(*configPath, *users, *posts); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, users, posts int) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}()

	fake := gofakeit.New(0)

	userSvc := user.NewService(
		user.NewRepository(db.DB),
		role.NewService(role.NewRepository(db.DB)),
		cfg.App.AdminEmail,
	)

	created, err := seedUsers(ctx, fake, userSvc, users)
	if err != nil {
		return err
	}
	slog.Info("users seeded", "created", created, "requested", users)

	written, err := seedPosts(ctx, fake, db.DB, posts)
	if err != nil {
		return err
	}
	slog.Info("posts seeded", "created", written)

	return nil
}

// seedUsers registers confirmed accounts sharing one password. Collisions
// on email or username are skipped rather than retried.
func seedUsers(ctx context.Context, fake *gofakeit.Faker, svc *user.Service, n int) (int, error) {
	hash, err := core.DefaultPasswords.Hash(seedPassword)
	if err != nil {
		return 0, err
	}

	created := 0
	for range n {
		info, err := svc.Register(ctx, fake.Email(), fake.Username(), hash)
		if errors.Is(err, core.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return created, err
		}

		if err := svc.Confirm(ctx, info.ID); err != nil {
			return created, err
		}

		_, err = svc.UpdateProfile(ctx, &role.Principal{UserID: info.ID}, user.ProfileInput{
			Name:     fake.Name(),
			Location: fake.City(),
			AboutMe:  fake.HackerPhrase(),
		})
		if err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}

// seedPosts inserts directly so timestamps can be backdated across the
// last year.
func seedPosts(ctx context.Context, fake *gofakeit.Faker, db *sqlx.DB, n int) (int, error) {
	var authors []int64
	if err := db.SelectContext(ctx, &authors, `SELECT id FROM users`); err != nil {
		return 0, fmt.Errorf("list authors: %w", err)
	}
	if len(authors) == 0 {
		return 0, nil
	}

	now := time.Now()
	for i := range n {
		phrases := make([]string, fake.IntRange(1, 5))
		for j := range phrases {
			phrases[j] = fake.HackerPhrase()
		}
		body := strings.Join(phrases, " ")

		html, err := core.RenderPostHTML(body)
		if err != nil {
			return i, err
		}

		_, err = db.ExecContext(ctx,
			`INSERT INTO posts (body, body_html, author_id, created_at) VALUES ($1, $2, $3, $4)`,
			body, html,
			authors[fake.IntRange(0, len(authors)-1)],
			fake.DateRange(now.Add(-postWindow), now),
		)
		if err != nil {
			return i, fmt.Errorf("insert post: %w", err)
		}
	}

	return n, nil
}
