// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/webuzz/internal/config"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	pingTimeout = 5 * time.Second
	dbTracer    = "github.com/carterperez-dev/webuzz/db"
)

// DBTX is the query surface shared by *sqlx.DB, *sqlx.Tx and the traced
// wrapper returned by Traced.
type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// TxStarter opens transactions. *sqlx.DB and the traced wrapper over it
// both satisfy it.
type TxStarter interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Pool is a query handle that can also open transactions.
type Pool interface {
	DBTX
	TxStarter
}

var errNoTx = errors.New("handle cannot begin transactions")

type Database struct {
	DB *sqlx.DB
}

func NewDatabase(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	configurePool(db, cfg)

	d := &Database{DB: db}
	if err := d.Ping(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on connection failure
		return nil, err
	}

	return d, nil
}

// configurePool spreads connection lifetimes so the pool does not recycle
// every connection in the same instant.
func configurePool(db *sqlx.DB, cfg config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(withJitter(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

// Conn returns the pool wrapped so every query opens a span.
func (d *Database) Conn() Pool {
	return &tracedDB{DBTX: d.DB}
}

func (d *Database) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

type tracedDB struct {
	DBTX
}

// Traced wraps db so Get, Select and Exec calls each run inside a span
// named after the statement verb. A missing row is not a span error.
func Traced(db DBTX) DBTX {
	if t, ok := db.(*tracedDB); ok {
		return t
	}
	return &tracedDB{DBTX: db}
}

// BeginTxx works when the wrapped handle is itself a TxStarter.
func (t *tracedDB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	starter, ok := t.DBTX.(TxStarter)
	if !ok {
		return nil, errNoTx
	}
	return starter.BeginTxx(ctx, opts)
}

func (t *tracedDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	ctx, span := StartSpan(ctx, dbTracer, spanName(query), queryAttrs(query)...)
	err := t.DBTX.GetContext(ctx, dest, query, args...)
	EndSpan(span, spanErr(err))
	return err
}

func (t *tracedDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	ctx, span := StartSpan(ctx, dbTracer, spanName(query), queryAttrs(query)...)
	err := t.DBTX.SelectContext(ctx, dest, query, args...)
	EndSpan(span, err)
	return err
}

func (t *tracedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, span := StartSpan(ctx, dbTracer, spanName(query), queryAttrs(query)...)
	result, err := t.DBTX.ExecContext(ctx, query, args...)
	EndSpan(span, err)
	return result, err
}

func spanName(query string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(query), " ")
	if verb == "" {
		return "db"
	}
	return "db." + strings.ToLower(strings.TrimSpace(verb))
}

func queryAttrs(query string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", strings.Join(strings.Fields(query), " ")),
	}
}

func spanErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// InTx runs fn inside one transaction. An error or panic from fn rolls it
// back. fn receives the transaction traced like any other handle.
func InTx(ctx context.Context, db TxStarter, fn func(tx DBTX) error) (err error) {
	ctx, span := StartSpan(ctx, dbTracer, "db.tx")
	defer func() { EndSpan(span, err) }()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() //nolint:errcheck // panic is rethrown
			panic(p)
		}
	}()

	if err = fn(Traced(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback: %w (after: %w)", rbErr, err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// withJitter adds up to a seventh of base.
func withJitter(base time.Duration) time.Duration {
	spread := int64(base / 7)
	if spread <= 0 {
		return base
	}
	//nolint:gosec // G404: pool jitter is not security sensitive
	return base + time.Duration(rand.Int64N(spread))
}
