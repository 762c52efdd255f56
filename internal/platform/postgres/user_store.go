package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// PostgresUserStore implements store.UserStore on PostgreSQL.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore creates a user store on db.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	return &PostgresUserStore{db: db, logger: logger.With("component", "user_store")}
}

// WithTx implements store.UserStore.WithTx.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx, logger: s.logger}
}

// Create implements store.UserStore.Create.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, hashed_password, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		user.Username, user.Email, user.HashedPassword, string(user.Role),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		mapped := MapError(err)
		if !store.IsDuplicateError(mapped) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert user", "error", err)
		}
		return mapped
	}
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *PostgresUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.getOne(ctx, `WHERE id = $1`, id)
}

// GetByUsername implements store.UserStore.GetByUsername.
func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getOne(ctx, `WHERE username = $1`, username)
}

func (s *PostgresUserStore) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, hashed_password, role, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}
