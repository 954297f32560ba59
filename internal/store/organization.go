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
	organizationTableName = "organizations"
	projectTableName      = "contractual_projects"
)

var (
	organizationColumns = utils.StructTagValues(types.Organization{})
	projectColumns      = utils.StructTagValues(types.ContractualProject{})
)

type OrganizationRepository struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepository(pool *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

func (r *OrganizationRepository) Organization(ctx context.Context, organizationID string) (*types.Organization, error) {
	query, args, err := psql().
		Select(organizationColumns...).
		From(organizationTableName).
		Where(sq.Eq{"id": organizationID}).
		Where(notDeleted).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate organization query: %w", err)
	}

	var org types.Organization
	err = pgxscan.Get(ctx, r.pool, &org, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to fetch organization: %w", err)
	}

	return &org, nil
}

func (r *OrganizationRepository) OrganizationsByOwner(ctx context.Context, ownerID string) ([]*types.Organization, error) {
	query, args, err := psql().
		Select(organizationColumns...).
		From(organizationTableName).
		Where(sq.Eq{"owner_id": ownerID}).
		Where(notDeleted).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate organizations query: %w", err)
	}

	var orgs []*types.Organization
	err = pgxscan.Select(ctx, r.pool, &orgs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organizations: %w", err)
	}

	return orgs, nil
}

func (r *OrganizationRepository) Create(ctx context.Context, org *types.Organization) error {
	now := time.Now()
	if org.ID == "" {
		org.ID = utils.NanoID()
	}
	org.CreatedAt = now
	org.UpdatedAt = now

	query, args, err := psql().
		Insert(organizationTableName).
		SetMap(utils.StructToMap(org)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create organization query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create organization")
}

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Project(ctx context.Context, projectID string) (*types.ContractualProject, error) {
	query, args, err := psql().
		Select(projectColumns...).
		From(projectTableName).
		Where(sq.Eq{"id": projectID}).
		Where(notDeleted).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate project query: %w", err)
	}

	var project types.ContractualProject
	err = pgxscan.Get(ctx, r.pool, &project, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	return &project, nil
}

func (r *ProjectRepository) ProjectsByOrganization(ctx context.Context, organizationID string) ([]*types.ContractualProject, error) {
	query, args, err := psql().
		Select(projectColumns...).
		From(projectTableName).
		Where(sq.Eq{"organization_id": organizationID}).
		Where(notDeleted).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate projects query: %w", err)
	}

	var projects []*types.ContractualProject
	err = pgxscan.Select(ctx, r.pool, &projects, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}

	return projects, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *types.ContractualProject) error {
	now := time.Now()
	if project.ID == "" {
		project.ID = utils.NanoID()
	}
	project.CreatedAt = now
	project.UpdatedAt = now

	query, args, err := psql().
		Insert(projectTableName).
		SetMap(utils.StructToMap(project)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create project query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create project")
}

// Update writes the contratante data and, when non-nil, the signature url.
func (r *ProjectRepository) Update(ctx context.Context, projectID string, contratanteData map[string]string, signatureURL *string) error {
	set := map[string]any{
		"contratante_data": contratanteData,
		"updated_at":       time.Now(),
	}
	if signatureURL != nil {
		set["signature_url"] = *signatureURL
	}

	query, args, err := psql().
		Update(projectTableName).
		SetMap(set).
		Where(sq.Eq{"id": projectID}).
		Where(notDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update project query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrProjectNotFound
	}

	return nil
}
