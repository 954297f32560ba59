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

const (
	precontractualDocumentTableName = "precontractual_documents"
	contractualDocumentTableName    = "contractual_documents"
)

var (
	precontractualDocumentColumns = utils.StructTagValues(types.PrecontractualDocument{})
	contractualDocumentColumns    = utils.StructTagValues(types.ContractualDocument{})
)

// MemberDocumentRepository holds the per-member rows generated from a
// contract's required documents, for both phases.
type MemberDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewMemberDocumentRepository(pool *pgxpool.Pool) *MemberDocumentRepository {
	return &MemberDocumentRepository{pool: pool}
}

func (r *MemberDocumentRepository) PrecontractualDocumentsByMember(ctx context.Context, memberID string) ([]*types.PrecontractualDocument, error) {
	query, args, err := psql().
		Select(precontractualDocumentColumns...).
		From(precontractualDocumentTableName).
		Where(sq.Eq{"contract_member_id": memberID}).
		Where(notDeleted).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate precontractual documents query: %w", err)
	}

	var docs []*types.PrecontractualDocument
	err = pgxscan.Select(ctx, r.pool, &docs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch precontractual documents: %w", err)
	}

	return docs, nil
}

func (r *MemberDocumentRepository) CreatePrecontractualDocument(ctx context.Context, doc *types.PrecontractualDocument) error {
	now := time.Now()
	if doc.ID == "" {
		doc.ID = utils.NanoID()
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query, args, err := psql().
		Insert(precontractualDocumentTableName).
		SetMap(utils.StructToMap(doc)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create precontractual document query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create precontractual document")
}

// SetPrecontractualURL stores the upload on the existing row, creating the
// row when the member has none for that requirement yet.
func (r *MemberDocumentRepository) SetPrecontractualURL(ctx context.Context, memberID, requiredDocumentID, url string) error {
	query, args, err := psql().
		Update(precontractualDocumentTableName).
		Set("url", url).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"contract_member_id": memberID, "required_document_id": requiredDocumentID}).
		Where(notDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update precontractual document query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update precontractual document: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	return r.CreatePrecontractualDocument(ctx, &types.PrecontractualDocument{
		MemberID:           memberID,
		RequiredDocumentID: requiredDocumentID,
		URL:                &url,
	})
}

func (r *MemberDocumentRepository) ContractualDocumentsByMember(ctx context.Context, memberID string) ([]*types.ContractualDocument, error) {
	query, args, err := psql().
		Select(contractualDocumentColumns...).
		From(contractualDocumentTableName).
		Where(sq.Eq{"contract_member_id": memberID}).
		Where(notDeleted).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate contractual documents query: %w", err)
	}

	var docs []*types.ContractualDocument
	err = pgxscan.Select(ctx, r.pool, &docs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contractual documents: %w", err)
	}

	return docs, nil
}

func (r *MemberDocumentRepository) CreateContractualDocument(ctx context.Context, doc *types.ContractualDocument) error {
	now := time.Now()
	if doc.ID == "" {
		doc.ID = utils.NanoID()
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query, args, err := psql().
		Insert(contractualDocumentTableName).
		SetMap(utils.StructToMap(doc)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create contractual document query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create contractual document")
}

// SetContractualURL stores the upload for one (requirement, month) pair,
// creating the row lazily when it was never expanded.
func (r *MemberDocumentRepository) SetContractualURL(ctx context.Context, memberID, requiredDocumentID, month, url string) error {
	query, args, err := psql().
		Update(contractualDocumentTableName).
		Set("url", url).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"contract_member_id": memberID, "required_document_id": requiredDocumentID, "month": month}).
		Where(notDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update contractual document query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contractual document: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	return r.CreateContractualDocument(ctx, &types.ContractualDocument{
		MemberID:           memberID,
		RequiredDocumentID: requiredDocumentID,
		Month:              month,
		URL:                &url,
	})
}
