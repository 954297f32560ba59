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

const requiredDocumentTableName = "required_documents"

var requiredDocumentColumns = utils.StructTagValues(types.RequiredDocument{})

type RequiredDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewRequiredDocumentRepository(pool *pgxpool.Pool) *RequiredDocumentRepository {
	return &RequiredDocumentRepository{pool: pool}
}

func (r *RequiredDocumentRepository) RequiredDocument(ctx context.Context, id string) (*types.RequiredDocument, error) {
	query, args, err := psql().
		Select(requiredDocumentColumns...).
		From(requiredDocumentTableName).
		Where(sq.Eq{"id": id}).
		Where(notDeleted).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate required document query: %w", err)
	}

	var doc types.RequiredDocument
	err = pgxscan.Get(ctx, r.pool, &doc, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRequiredDocumentNotFound
		}
		return nil, fmt.Errorf("failed to fetch required document: %w", err)
	}

	return &doc, nil
}

// RequiredDocumentsByContract lists live requirements, oldest first.
func (r *RequiredDocumentRepository) RequiredDocumentsByContract(ctx context.Context, contractID string) ([]*types.RequiredDocument, error) {
	query, args, err := psql().
		Select(requiredDocumentColumns...).
		From(requiredDocumentTableName).
		Where(sq.Eq{"contract_id": contractID}).
		Where(notDeleted).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate required documents query: %w", err)
	}

	var docs []*types.RequiredDocument
	err = pgxscan.Select(ctx, r.pool, &docs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch required documents: %w", err)
	}

	return docs, nil
}

func (r *RequiredDocumentRepository) Create(ctx context.Context, doc *types.RequiredDocument) error {
	if doc.ID == "" {
		doc.ID = utils.NanoID()
	}
	doc.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(requiredDocumentTableName).
		SetMap(utils.StructToMap(doc)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create required document query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create required document")
}

func (r *RequiredDocumentRepository) SoftDelete(ctx context.Context, contractID, id string) error {
	query, args, err := psql().
		Update(requiredDocumentTableName).
		SetMap(softDeleteMap()).
		Where(sq.Eq{"id": id, "contract_id": contractID}).
		Where(notDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete required document query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete required document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRequiredDocumentNotFound
	}

	return nil
}
