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

const templateTableName = "templates"

var templateColumns = utils.StructTagValues(types.Template{})

type TemplateRepository struct {
	pool *pgxpool.Pool
}

func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

func (r *TemplateRepository) Template(ctx context.Context, templateID string) (*types.Template, error) {
	query, args, err := psql().
		Select(templateColumns...).
		From(templateTableName).
		Where(sq.Eq{"id": templateID}).
		Where(notDeleted).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate template query: %w", err)
	}

	var template types.Template
	err = pgxscan.Get(ctx, r.pool, &template, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to fetch template: %w", err)
	}

	return &template, nil
}

// TemplatesForOrganization lists the organization's templates plus the
// shared ones that have no organization.
func (r *TemplateRepository) TemplatesForOrganization(ctx context.Context, organizationID string) ([]*types.Template, error) {
	query, args, err := psql().
		Select(templateColumns...).
		From(templateTableName).
		Where(sq.Or{sq.Eq{"organization_id": organizationID}, sq.Eq{"organization_id": nil}}).
		Where(notDeleted).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate templates query: %w", err)
	}

	var templates []*types.Template
	err = pgxscan.Select(ctx, r.pool, &templates, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch templates: %w", err)
	}

	return templates, nil
}

func (r *TemplateRepository) Create(ctx context.Context, template *types.Template) error {
	if template.ID == "" {
		template.ID = utils.NanoID()
	}
	template.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(templateTableName).
		SetMap(utils.StructToMap(template)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create template query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create template")
}
