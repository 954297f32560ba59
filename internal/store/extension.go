package store

import (
	"context"
	"fmt"
	"time"

	"contratos/internal/utils"
	"contratos/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const extensionTableName = "contract_members_extension"

var extensionColumns = utils.StructTagValues(types.ContractExtension{})

type ExtensionRepository struct {
	pool *pgxpool.Pool
}

func NewExtensionRepository(pool *pgxpool.Pool) *ExtensionRepository {
	return &ExtensionRepository{pool: pool}
}

func (r *ExtensionRepository) ExtensionsByMember(ctx context.Context, memberID string) ([]*types.ContractExtension, error) {
	query, args, err := psql().
		Select(extensionColumns...).
		From(extensionTableName).
		Where(sq.Eq{"contract_member_id": memberID}).
		Where(notDeleted).
		OrderBy("extension_start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate extensions query: %w", err)
	}

	var extensions []*types.ContractExtension
	err = pgxscan.Select(ctx, r.pool, &extensions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch extensions: %w", err)
	}

	return extensions, nil
}

func (r *ExtensionRepository) Create(ctx context.Context, extension *types.ContractExtension) error {
	if extension.ID == "" {
		extension.ID = utils.NanoID()
	}
	extension.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(extensionTableName).
		SetMap(utils.StructToMap(extension)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create extension query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create extension")
}
