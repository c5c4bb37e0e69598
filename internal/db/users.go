package db

import (
	"context"
	"time"

	"github.com/contacthub/backend/internal/model"
)

const userColumns = `id, username, email, hashed_password, created_at, avatar, confirmed, role, password_reset_token, password_reset_token_expiry`

func (db *Postgres) CreateUser(ctx context.Context, username, email, hashedPassword, avatar string) (*model.User, error) {
	query := `
		INSERT INTO users (username, email, hashed_password, avatar, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING ` + userColumns
	return db.scanUser(ctx, query, username, email, hashedPassword, avatar)
}

func (db *Postgres) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return db.scanUser(ctx, query, username)
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return db.scanUser(ctx, query, email)
}

func (db *Postgres) ConfirmEmail(ctx context.Context, email string) error {
	query := `UPDATE users SET confirmed = TRUE WHERE email = $1`
	_, err := db.Pool.Exec(ctx, query, email)
	return err
}

func (db *Postgres) UpdateAvatar(ctx context.Context, email, avatarURL string) (*model.User, error) {
	query := `
		UPDATE users SET avatar = $2
		WHERE email = $1
		RETURNING ` + userColumns
	return db.scanUser(ctx, query, email, avatarURL)
}

// SetResetTicket overwrites any previous ticket; re-requesting a reset does
// not stack tickets.
func (db *Postgres) SetResetTicket(ctx context.Context, email, ticket string, expiry time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token = $2, password_reset_token_expiry = $3
		WHERE email = $1
	`
	_, err := db.Pool.Exec(ctx, query, email, ticket, expiry)
	return err
}

// UpdateHashedPassword stores the new hash and retires the reset ticket in the
// same statement, so a consumed ticket can never be replayed.
func (db *Postgres) UpdateHashedPassword(ctx context.Context, email, hashedPassword string) error {
	query := `
		UPDATE users
		SET hashed_password = $2, password_reset_token = NULL, password_reset_token_expiry = NULL
		WHERE email = $1
	`
	_, err := db.Pool.Exec(ctx, query, email, hashedPassword)
	return err
}

func (db *Postgres) scanUser(ctx context.Context, query string, args ...any) (*model.User, error) {
	var user model.User
	err := db.Pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.Avatar,
		&user.Confirmed,
		&user.Role,
		&user.PasswordResetToken,
		&user.PasswordResetTokenExpiry,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
