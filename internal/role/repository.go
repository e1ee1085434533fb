// AngelaMos | 2026
// repository.go

package role

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/webuzz/internal/core"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	GetDefault(ctx context.Context) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Sync(ctx context.Context, seeds []Seed) error
}

type repository struct {
	db core.Pool
}

func NewRepository(db core.Pool) Repository {
	return &repository{db: db}
}

const roleColumns = `id, name, is_default, permissions`

func (r *repository) GetByID(ctx context.Context, id int64) (*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

	var role Role
	err := r.db.GetContext(ctx, &role, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}

	return &role, nil
}

func (r *repository) GetByName(ctx context.Context, name string) (*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE name = $1`

	var role Role
	err := r.db.GetContext(ctx, &role, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get role by name: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role by name: %w", err)
	}

	return &role, nil
}

func (r *repository) GetDefault(ctx context.Context) (*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE is_default`

	var role Role
	err := r.db.GetContext(ctx, &role, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get default role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get default role: %w", err)
	}

	return &role, nil
}

func (r *repository) List(ctx context.Context) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles ORDER BY permissions, name`

	var roles []Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

// Sync upserts every seed by name in one transaction. The default flag is
// cleared first so the single-default index never sees two rows.
func (r *repository) Sync(ctx context.Context, seeds []Seed) error {
	return core.InTx(ctx, r.db, func(tx core.DBTX) error {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE roles SET is_default = FALSE WHERE is_default`,
		); err != nil {
			return fmt.Errorf("clear default role: %w", err)
		}

		query := `
			INSERT INTO roles (name, is_default, permissions)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE
			SET is_default = EXCLUDED.is_default,
			    permissions = EXCLUDED.permissions`

		for _, s := range seeds {
			if _, err := tx.ExecContext(
				ctx, query, s.Name, s.Default, s.Permissions,
			); err != nil {
				return fmt.Errorf("upsert role %s: %w", s.Name, err)
			}
		}

		return nil
	})
}
