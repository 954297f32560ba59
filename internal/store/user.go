package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contratos/internal/utils"
	"contratos/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userTableName = "users"

var userColumns = utils.StructTagValues(types.User{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) getOne(ctx context.Context, where sq.Sqlizer) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) User(ctx context.Context, userID string) (*types.User, error) {
	return r.getOne(ctx, sq.Eq{"id": userID})
}

// UserByEmail matches case-insensitively.
func (r *UserRepository) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.getOne(ctx, sq.Expr("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))))
}

func (r *UserRepository) SetRole(ctx context.Context, userID string, role types.UserRole) error {
	query, args, err := psql().
		Update(userTableName).
		Set("role", string(role)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate set role query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}

	return nil
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// UpsertIdentity keeps the users row in step with the identity provider.
// The role is only written on insert.
func (r *UserRepository) UpsertIdentity(ctx context.Context, userID, email, givenName, familyName string, role types.UserRole) error {
	now := time.Now()

	var rolePtr *string
	if role != "" {
		rolePtr = utils.StringPtr(string(role))
	}

	query, args, err := psql().
		Insert(userTableName).
		Columns("id", "role", "email", "given_name", "family_name", "created_at", "updated_at").
		Values(userID, rolePtr, trimmedOrNil(email), trimmedOrNil(givenName), trimmedOrNil(familyName), now, now).
		Suffix("ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, given_name = COALESCE(EXCLUDED.given_name, users.given_name), family_name = COALESCE(EXCLUDED.family_name, users.family_name), updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert identity user query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert user identity fields: %w", err)
	}

	return nil
}
