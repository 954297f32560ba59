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

const extraDocumentTableName = "contractual_extra_documents"

var extraDocumentColumns = utils.StructTagValues(types.ContractualExtraDocument{})

type ExtraDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewExtraDocumentRepository(pool *pgxpool.Pool) *ExtraDocumentRepository {
	return &ExtraDocumentRepository{pool: pool}
}

func (r *ExtraDocumentRepository) ExtraDocument(ctx context.Context, memberID, id string) (*types.ContractualExtraDocument, error) {
	query, args, err := psql().
		Select(extraDocumentColumns...).
		From(extraDocumentTableName).
		Where(sq.Eq{"id": id, "contract_member_id": memberID}).
		Where(notDeleted).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate extra document query: %w", err)
	}

	var doc types.ContractualExtraDocument
	err = pgxscan.Get(ctx, r.pool, &doc, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to fetch extra document: %w", err)
	}

	return &doc, nil
}

func (r *ExtraDocumentRepository) ExtraDocumentsByMember(ctx context.Context, memberID string) ([]*types.ContractualExtraDocument, error) {
	query, args, err := psql().
		Select(extraDocumentColumns...).
		From(extraDocumentTableName).
		Where(sq.Eq{"contract_member_id": memberID}).
		Where(notDeleted).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate extra documents query: %w", err)
	}

	var docs []*types.ContractualExtraDocument
	err = pgxscan.Select(ctx, r.pool, &docs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch extra documents: %w", err)
	}

	return docs, nil
}

func (r *ExtraDocumentRepository) Create(ctx context.Context, doc *types.ContractualExtraDocument) error {
	if doc.ID == "" {
		doc.ID = utils.NanoID()
	}
	doc.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(extraDocumentTableName).
		SetMap(utils.StructToMap(doc)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create extra document query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create extra document")
}

func (r *ExtraDocumentRepository) SoftDelete(ctx context.Context, memberID, id string) error {
	query, args, err := psql().
		Update(extraDocumentTableName).
		SetMap(softDeleteMap()).
		Where(sq.Eq{"id": id, "contract_member_id": memberID}).
		Where(notDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete extra document query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete extra document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDocumentNotFound
	}

	return nil
}
