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

const memberTableName = "contract_members"

var memberColumns = utils.StructTagValues(types.ContractMember{})

type MemberRepository struct {
	pool *pgxpool.Pool
}

func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

func (r *MemberRepository) Member(ctx context.Context, memberID string) (*types.ContractMember, error) {
	query, args, err := psql().
		Select(memberColumns...).
		From(memberTableName).
		Where(sq.Eq{"id": memberID}).
		Where(notDeleted).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate member query: %w", err)
	}

	var member types.ContractMember
	err = pgxscan.Get(ctx, r.pool, &member, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to fetch member: %w", err)
	}

	return &member, nil
}

func (r *MemberRepository) list(ctx context.Context, where sq.Eq) ([]*types.ContractMember, error) {
	query, args, err := psql().
		Select(memberColumns...).
		From(memberTableName).
		Where(where).
		Where(notDeleted).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate member list query: %w", err)
	}

	var members []*types.ContractMember
	err = pgxscan.Select(ctx, r.pool, &members, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}

	return members, nil
}

func (r *MemberRepository) MembersByContract(ctx context.Context, contractID string) ([]*types.ContractMember, error) {
	return r.list(ctx, sq.Eq{"contract_id": contractID})
}

func (r *MemberRepository) MembersByUser(ctx context.Context, userID string) ([]*types.ContractMember, error) {
	return r.list(ctx, sq.Eq{"user_id": userID})
}

func (r *MemberRepository) Create(ctx context.Context, member *types.ContractMember) error {
	now := time.Now()
	if member.ID == "" {
		member.ID = utils.NanoID()
	}
	if member.Status == "" {
		member.Status = types.MemberStatusPending
	}
	member.CreatedAt = now
	member.UpdatedAt = now

	query, args, err := psql().
		Insert(memberTableName).
		SetMap(utils.StructToMap(member)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create member query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create member")
}

// updateWhere applies set to the member when the extra condition holds and
// reports whether a row changed.
func (r *MemberRepository) updateWhere(ctx context.Context, memberID string, set map[string]any, cond sq.Sqlizer) (bool, error) {
	set["updated_at"] = time.Now()

	builder := psql().
		Update(memberTableName).
		SetMap(set).
		Where(sq.Eq{"id": memberID}).
		Where(notDeleted)
	if cond != nil {
		builder = builder.Where(cond)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate update member query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update member: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *MemberRepository) update(ctx context.Context, memberID string, set map[string]any) error {
	ok, err := r.updateWhere(ctx, memberID, set, nil)
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrMemberNotFound
	}
	return nil
}

// Accept moves a pending invitation to accepted.
func (r *MemberRepository) Accept(ctx context.Context, memberID string) error {
	ok, err := r.updateWhere(ctx, memberID, map[string]any{"status": types.MemberStatusAccepted}, sq.Eq{"status": types.MemberStatusPending})
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrInvitationClosed
	}
	return nil
}

func (r *MemberRepository) SetEndDate(ctx context.Context, memberID string, endDate time.Time) error {
	return r.update(ctx, memberID, map[string]any{"end_date": endDate})
}

// SetEnding records a termination. Only the first one sticks; later calls
// get ErrEndingAlreadySet.
func (r *MemberRepository) SetEnding(ctx context.Context, memberID string, ending *types.Ending) error {
	ok, err := r.updateWhere(ctx, memberID, map[string]any{"ending": ending}, sq.Eq{"ending": nil})
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrEndingAlreadySet
	}
	return nil
}

// MarkSigned stores the contratista signature and the signed document. The
// flag never goes back to false.
func (r *MemberRepository) MarkSigned(ctx context.Context, memberID, signatureURL string, document types.Sections) error {
	ok, err := r.updateWhere(ctx, memberID, map[string]any{
		"signed":        true,
		"signature_url": signatureURL,
		"document":      document,
	}, sq.Eq{"signed": false})
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrAlreadySigned
	}
	return nil
}

func (r *MemberRepository) MarkContratanteSigned(ctx context.Context, memberID string, document types.Sections) error {
	set := map[string]any{"contratante_signed": true}
	if document != nil {
		set["document"] = document
	}

	ok, err := r.updateWhere(ctx, memberID, set, sq.Eq{"contratante_signed": false})
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrAlreadySigned
	}
	return nil
}
