package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/pupaakdev/userd/internal/apperror"
	"github.com/pupaakdev/userd/internal/model"
	"github.com/pupaakdev/userd/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, fullname, email, avatar_url, hashed_password, auth_provider, external_id, created_at, updated_at`

// Create inserts a new user and assigns its ID and timestamps.
//
// Optional fields (email, external id, password hash) are stored as NULL
// when empty via NULLIF, so the UNIQUE constraints don't collide on empty
// strings. A constraint violation comes back as apperror.Conflict naming
// the offending field.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.AuthProvider == "" {
		user.AuthProvider = model.ProviderLocal
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, fullname, email, avatar_url, hashed_password, auth_provider, external_id, created_at, updated_at)
		 VALUES (?, ?, ?, NULLIF(?, ''), ?, NULLIF(?, ''), ?, NULLIF(?, ''), ?, ?)`,
		user.ID,
		user.Username,
		user.FullName,
		user.Email,
		user.AvatarURL,
		user.HashedPassword,
		user.AuthProvider,
		user.ExternalID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if conflictErr := translateConstraint(err, user); conflictErr != nil {
			return conflictErr
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `id = ?`, id, id)
}

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, `username = ?`, username, username)
}

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `email = ?`, email, email)
}

// GetByExternalID retrieves a user by the provider's user id.
func (db *DB) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return db.getUser(ctx, `external_id = ?`, externalID, externalID)
}

func (db *DB) getUser(ctx context.Context, where string, arg any, label string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg,
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", label)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", label, err)
	}

	return user, nil
}

// Update persists mutated fields of an existing record. Used by the OAuth
// linking path to attach a provider identity to a local account.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, fullname = ?, email = NULLIF(?, ''), avatar_url = ?,
		     hashed_password = NULLIF(?, ''), auth_provider = ?, external_id = NULLIF(?, ''), updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.FullName,
		user.Email,
		user.AvatarURL,
		user.HashedPassword,
		user.AuthProvider,
		user.ExternalID,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if conflictErr := translateConstraint(err, user); conflictErr != nil {
			return conflictErr
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes a user by internal ID.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// List returns all users, oldest first.
func (db *DB) List(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return users, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u          model.User
		email      sql.NullString
		hashed     sql.NullString
		externalID sql.NullString
	)

	err := s.Scan(
		&u.ID,
		&u.Username,
		&u.FullName,
		&email,
		&u.AvatarURL,
		&hashed,
		&u.AuthProvider,
		&externalID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Email = email.String
	u.HashedPassword = hashed.String
	u.ExternalID = externalID.String

	return &u, nil
}

// translateConstraint maps a SQLite UNIQUE violation to apperror.Conflict
// naming the field, or returns nil if err is not a constraint error. Raw
// driver errors never reach callers for duplicate keys.
func translateConstraint(err error, user *model.User) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}

	switch {
	case strings.Contains(msg, "users.username"):
		return apperror.Conflict("username", user.Username)
	case strings.Contains(msg, "users.email"):
		return apperror.Conflict("email", user.Email)
	case strings.Contains(msg, "users.external_id"):
		return apperror.Conflict("external_id", user.ExternalID)
	default:
		return apperror.Conflict("user", user.Username)
	}
}
