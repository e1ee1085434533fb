// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

type Repository interface {
	Create(ctx context.Context, user *User, firstAdmin *role.Role) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Count(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdateAccount(ctx context.Context, user *User) error
	SetConfirmed(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateEmail(ctx context.Context, id int64, email, avatarHash string) error
	IncrementTokenVersion(ctx context.Context, id int64) error
	Ping(ctx context.Context, id int64, olderThan time.Time) error
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
}

type repository struct {
	db core.Pool
}

func NewRepository(db core.Pool) Repository {
	return &repository{db: db}
}

const selectUser = `
	SELECT u.id, u.email, u.username, u.password_hash, u.confirmed, u.role_id,
	       r.name AS role_name, r.permissions, u.name, u.location, u.about_me,
	       u.member_since, u.last_seen, u.avatar_hash, u.default_gravatar,
	       u.token_version
	FROM users u
	JOIN roles r ON r.id = u.role_id`

// firstUserLock is the advisory lock key serializing first-account
// promotion.
const firstUserLock int64 = 0x77627a31

// Create inserts the user. When firstAdmin is set, an empty users table
// gives the account that role, confirmed. The emptiness check and the
// insert share one transaction under firstUserLock, so two racing first
// registrations cannot both be promoted.
func (r *repository) Create(ctx context.Context, user *User, firstAdmin *role.Role) error {
	if firstAdmin == nil {
		return insertUser(ctx, r.db, user)
	}

	return core.InTx(ctx, r.db, func(tx core.DBTX) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, firstUserLock); err != nil {
			return fmt.Errorf("lock first user: %w", err)
		}

		var taken bool
		if err := tx.GetContext(ctx, &taken, `SELECT EXISTS(SELECT 1 FROM users)`); err != nil {
			return fmt.Errorf("check first user: %w", err)
		}
		if !taken {
			user.assignRole(firstAdmin)
			user.Confirmed = true
		}

		return insertUser(ctx, tx, user)
	})
}

// insertUser writes the user and its self-follow edge in one statement.
func insertUser(ctx context.Context, db core.DBTX, user *User) error {
	query := `
		WITH inserted AS (
			INSERT INTO users (email, username, password_hash, confirmed, role_id,
			                   name, location, about_me, avatar_hash, default_gravatar)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, member_since, last_seen, token_version
		), self_follow AS (
			INSERT INTO follows (follower_id, followed_id)
			SELECT id, id FROM inserted
		)
		SELECT id, member_since, last_seen, token_version FROM inserted`

	err := db.GetContext(ctx, user, query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Confirmed,
		user.RoleID,
		user.Name,
		user.Location,
		user.AboutMe,
		user.AvatarHash,
		user.DefaultGravatar,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", mapWriteError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, "get user", selectUser+` WHERE u.id = $1`, id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "get user by email", selectUser+` WHERE u.email = $1`, email)
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, "get user by username", selectUser+` WHERE u.username = $1`, username)
}

func (r *repository) getOne(ctx context.Context, op, query string, arg any) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, location = $3, about_me = $4, default_gravatar = $5
		WHERE id = $1`

	return r.execOne(ctx, "update profile", query,
		user.ID,
		user.Name,
		user.Location,
		user.AboutMe,
		user.DefaultGravatar,
	)
}

// UpdateAccount writes every field an administrator may edit.
func (r *repository) UpdateAccount(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET email = $2, username = $3, confirmed = $4, role_id = $5,
		    name = $6, location = $7, about_me = $8, avatar_hash = $9
		WHERE id = $1`

	return r.execOne(ctx, "update account", query,
		user.ID,
		user.Email,
		user.Username,
		user.Confirmed,
		user.RoleID,
		user.Name,
		user.Location,
		user.AboutMe,
		user.AvatarHash,
	)
}

func (r *repository) SetConfirmed(ctx context.Context, id int64) error {
	return r.execOne(ctx, "confirm user", `UPDATE users SET confirmed = TRUE WHERE id = $1`, id)
}

func (r *repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execOne(ctx, "update password",
		`UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
}

func (r *repository) UpdateEmail(ctx context.Context, id int64, email, avatarHash string) error {
	return r.execOne(ctx, "update email",
		`UPDATE users SET email = $2, avatar_hash = $3 WHERE id = $1`, id, email, avatarHash)
}

func (r *repository) IncrementTokenVersion(ctx context.Context, id int64) error {
	return r.execOne(ctx, "increment token version",
		`UPDATE users SET token_version = token_version + 1 WHERE id = $1`, id)
}

// Ping moves last_seen to now unless it is already newer than olderThan.
func (r *repository) Ping(ctx context.Context, id int64, olderThan time.Time) error {
	query := `UPDATE users SET last_seen = NOW() WHERE id = $1 AND last_seen < $2`

	if _, err := r.db.ExecContext(ctx, query, id, olderThan); err != nil {
		return fmt.Errorf("ping user: %w", err)
	}
	return nil
}

func (r *repository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND id <> $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username, excludeID); err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}

	return exists, nil
}

func (r *repository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

// mapWriteError names which unique column a duplicate-key failure hit.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if core.IsUniqueViolation(err) {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return core.ErrEmailTaken
		case "users_username_key":
			return core.ErrUsernameTaken
		default:
			return core.ErrDuplicateKey
		}
	}

	if core.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s", core.ErrInvalidInput, pgErr.ConstraintName)
	}

	return err
}
