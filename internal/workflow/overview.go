package workflow

import (
	"context"
	"errors"

	"contratos/internal/lifecycle"
	"contratos/pkg/types"
)

// MemberOverview is everything the dashboards show about one member.
type MemberOverview struct {
	Member         *types.ContractMember             `json:"member"`
	Contract       *types.Contract                   `json:"contract"`
	User           *types.User                       `json:"user"`
	Requirements   []*types.RequiredDocument         `json:"requirements"`
	Precontractual []*types.PrecontractualDocument   `json:"precontractual"`
	Contractual    []*types.ContractualDocument      `json:"contractual"`
	Extras         []*types.ContractualExtraDocument `json:"extras"`
	Extensions     []*types.ContractExtension        `json:"extensions"`
	Months         []string                          `json:"months"`
	Status         lifecycle.MemberStatus            `json:"status"`
}

// overview builds the member view, serving it from the cache when present.
// Callers authorize before calling.
func (s *Service) overview(ctx context.Context, member *types.ContractMember) (*MemberOverview, error) {
	var cached MemberOverview
	found, err := s.cache.Get(ctx, member.ID, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("member_id", member.ID).Warn("member cache read failed")
	}
	if found {
		return &cached, nil
	}

	ov, err := s.buildOverview(ctx, member)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, member.ID, ov); err != nil {
		s.logger.WithError(err).WithField("member_id", member.ID).Warn("member cache write failed")
	}

	return ov, nil
}

func (s *Service) buildOverview(ctx context.Context, member *types.ContractMember) (*MemberOverview, error) {
	contract, err := s.stores.Contracts.Contract(ctx, member.ContractID)
	if err != nil {
		return nil, err
	}

	user, err := s.stores.Users.User(ctx, member.UserID)
	if err != nil && !errors.Is(err, types.ErrUserNotFound) {
		return nil, err
	}

	reqs, err := s.stores.Requirements.RequiredDocumentsByContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}

	pre, err := s.stores.Documents.PrecontractualDocumentsByMember(ctx, member.ID)
	if err != nil {
		return nil, err
	}

	con, err := s.stores.Documents.ContractualDocumentsByMember(ctx, member.ID)
	if err != nil {
		return nil, err
	}

	extras, err := s.stores.Extras.ExtraDocumentsByMember(ctx, member.ID)
	if err != nil {
		return nil, err
	}

	extensions, err := s.stores.Extensions.ExtensionsByMember(ctx, member.ID)
	if err != nil {
		return nil, err
	}

	status := lifecycle.Aggregate(lifecycle.MemberSignals{
		PrecontractualComplete: lifecycle.PrecontractualComplete(reqs, pre),
		Signed:                 member.Signed,
		ContractualComplete:    lifecycle.ContractualComplete(reqs, con),
		Ending:                 member.Ending,
		Juridico:               member.StatusJuridico,
		SeguridadSocial:        member.StatusSeguridadSocial,
	})

	return &MemberOverview{
		Member:         member,
		Contract:       contract,
		User:           user,
		Requirements:   reqs,
		Precontractual: pre,
		Contractual:    con,
		Extras:         extras,
		Extensions:     extensions,
		Months:         lifecycle.SortMonthLabels(lifecycle.ExistingMonths(con)),
		Status:         status,
	}, nil
}

// MemberOverview returns the member view to either party of the contract.
func (s *Service) MemberOverview(ctx context.Context, userID, memberID string) (*MemberOverview, error) {
	member, err := s.memberForEither(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}
	return s.overview(ctx, member)
}

// storedPaths lists every object reference attached to the member.
func (ov *MemberOverview) storedPaths() []string {
	out := make([]string, 0)
	add := func(p *string) {
		if p != nil && *p != "" {
			out = append(out, *p)
		}
	}

	if ov.Contract != nil {
		add(ov.Contract.DraftURL)
	}
	if ov.Member.Ending != nil {
		add(ov.Member.Ending.URL)
	}
	for _, d := range ov.Precontractual {
		add(d.URL)
	}
	for _, d := range ov.Contractual {
		add(d.URL)
	}
	for _, d := range ov.Extras {
		add(d.URL)
	}
	for _, e := range ov.Extensions {
		add(e.DocumentURL)
	}
	return out
}

// DocumentPreviewURL signs a short-lived URL for a private file attached to
// the member. Stored references that are not exact object paths are resolved
// by trying the plausible candidates in order.
func (s *Service) DocumentPreviewURL(ctx context.Context, userID, memberID, stored string) (string, error) {
	member, err := s.memberForEither(ctx, userID, memberID)
	if err != nil {
		return "", err
	}

	ov, err := s.overview(ctx, member)
	if err != nil {
		return "", err
	}

	known := false
	for _, p := range ov.storedPaths() {
		if p == stored {
			known = true
			break
		}
	}
	if !known {
		return "", types.ErrDocumentNotFound
	}

	if ov.Contract != nil && ov.Contract.DraftURL != nil && *ov.Contract.DraftURL == stored {
		if _, ok := ov.Contract.GoogleDocID(); ok {
			return stored, nil
		}
	}

	return s.resolveSigned(ctx, stored)
}
