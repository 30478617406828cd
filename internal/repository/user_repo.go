package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atlantic-photo/internal/database"
	"atlantic-photo/internal/model"
)

const userColumns = `id, username, email, password_hash, avatar, role, status,
	refresh_token, picture_count, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Avatar, &u.Role, &u.Status,
		&u.RefreshToken, &u.PictureCount, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if isNoRows(err) {
		return model.User{}, notFound("user", id)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.TrimSpace(email)
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if isNoRows(err) {
		return model.User{}, notFound("user", email)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByUsername returns the oldest account carrying username. Usernames are
// display names and are not unique.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.TrimSpace(username)
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1) ORDER BY id LIMIT 1`, username))
	if isNoRows(err) {
		return model.User{}, notFound("user", username)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// Create inserts u. The very first account becomes admin; every later account
// gets u.Role (normally user). The table lock serialises concurrent first
// signups so only one of them observes an empty table.
func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	var created model.User
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock users: %w", err)
		}

		var hasUsers bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users)`).Scan(&hasUsers); err != nil {
			return fmt.Errorf("count users: %w", err)
		}

		role := u.Role
		if !hasUsers {
			role = model.RoleAdmin
		} else if role == model.RoleAdmin || !role.Valid() {
			role = model.RoleUser
		}

		var err error
		created, err = scanUser(tx.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash, avatar, role)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+userColumns,
			u.Username, strings.TrimSpace(u.Email), u.PasswordHash, u.Avatar, role))
		return err
	})
	if isUniqueViolation(err) {
		return model.User{}, fmt.Errorf("email %s: %w", u.Email, model.ErrConflict)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}
