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

const contractTableName = "contracts"

var contractColumns = utils.StructTagValues(types.Contract{})

type ContractRepository struct {
	pool *pgxpool.Pool
}

func NewContractRepository(pool *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{pool: pool}
}

func (r *ContractRepository) Contract(ctx context.Context, contractID string) (*types.Contract, error) {
	query, args, err := psql().
		Select(contractColumns...).
		From(contractTableName).
		Where(sq.Eq{"id": contractID}).
		Where(notDeleted).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate contract query: %w", err)
	}

	var contract types.Contract
	err = pgxscan.Get(ctx, r.pool, &contract, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrContractNotFound
		}
		return nil, fmt.Errorf("failed to fetch contract: %w", err)
	}

	return &contract, nil
}

func (r *ContractRepository) ContractsByProject(ctx context.Context, projectID string) ([]*types.Contract, error) {
	query, args, err := psql().
		Select(contractColumns...).
		From(contractTableName).
		Where(sq.Eq{"project_id": projectID}).
		Where(notDeleted).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate contracts-by-project query: %w", err)
	}

	var contracts []*types.Contract
	err = pgxscan.Select(ctx, r.pool, &contracts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contracts by project: %w", err)
	}

	return contracts, nil
}

func (r *ContractRepository) ContractsByIDs(ctx context.Context, contractIDs []string) ([]*types.Contract, error) {
	if len(contractIDs) == 0 {
		return []*types.Contract{}, nil
	}

	query, args, err := psql().
		Select(contractColumns...).
		From(contractTableName).
		Where(sq.Eq{"id": contractIDs}).
		Where(notDeleted).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate contracts-by-ids query: %w", err)
	}

	var contracts []*types.Contract
	err = pgxscan.Select(ctx, r.pool, &contracts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contracts by ids: %w", err)
	}

	return contracts, nil
}

func (r *ContractRepository) Create(ctx context.Context, contract *types.Contract) error {
	now := time.Now()
	if contract.ID == "" {
		contract.ID = utils.NanoID()
	}
	if contract.Status == "" {
		contract.Status = types.ContractStatusDraft
	}
	contract.CreatedAt = now
	contract.UpdatedAt = now

	query, args, err := psql().
		Insert(contractTableName).
		SetMap(utils.StructToMap(contract)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create contract query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create contract")
}

func (r *ContractRepository) update(ctx context.Context, contractID string, set map[string]any) error {
	set["updated_at"] = time.Now()

	query, args, err := psql().
		Update(contractTableName).
		SetMap(set).
		Where(sq.Eq{"id": contractID}).
		Where(notDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update contract query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrContractNotFound
	}

	return nil
}

func (r *ContractRepository) Rename(ctx context.Context, contractID, name string) error {
	return r.update(ctx, contractID, map[string]any{"name": name})
}

func (r *ContractRepository) SetDraftURL(ctx context.Context, contractID string, draftURL *string) error {
	return r.update(ctx, contractID, map[string]any{"draft_url": draftURL})
}

func (r *ContractRepository) SetStatus(ctx context.Context, contractID string, status types.ContractStatus) error {
	return r.update(ctx, contractID, map[string]any{"status": status})
}

func (r *ContractRepository) SoftDelete(ctx context.Context, contractID string) error {
	return r.update(ctx, contractID, softDeleteMap())
}
