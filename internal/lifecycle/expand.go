package lifecycle

import (
	"context"
	"fmt"

	"contratos/pkg/types"
)

// MissingDocument is one (requirement, month) pair that has no row yet.
type MissingDocument struct {
	RequiredDocumentID string
	Month              string
}

func liveRequirements(reqs []*types.RequiredDocument, phase types.DocumentPhase) []*types.RequiredDocument {
	out := make([]*types.RequiredDocument, 0, len(reqs))
	for _, req := range reqs {
		if req == nil || req.DeletedAt != nil || req.Type != phase {
			continue
		}
		out = append(out, req)
	}
	return out
}

func contractualKey(requiredDocumentID, month string) string {
	return requiredDocumentID + "\x00" + month
}

// MissingContractual is the cartesian product of the live contractual
// requirements and months, minus the pairs already present in existing.
func MissingContractual(reqs []*types.RequiredDocument, months []string, existing []*types.ContractualDocument) []MissingDocument {
	have := make(map[string]struct{}, len(existing))
	for _, doc := range existing {
		if doc == nil || doc.DeletedAt != nil {
			continue
		}
		have[contractualKey(doc.RequiredDocumentID, doc.Month)] = struct{}{}
	}

	contractual := liveRequirements(reqs, types.PhaseContractual)

	out := make([]MissingDocument, 0, len(contractual)*len(months))
	for _, req := range contractual {
		for _, month := range months {
			key := contractualKey(req.ID, month)
			if _, ok := have[key]; ok {
				continue
			}
			have[key] = struct{}{}
			out = append(out, MissingDocument{RequiredDocumentID: req.ID, Month: month})
		}
	}

	return out
}

// MissingPrecontractual returns the ids of live precontractual requirements
// that have no document row.
func MissingPrecontractual(reqs []*types.RequiredDocument, existing []*types.PrecontractualDocument) []string {
	have := make(map[string]struct{}, len(existing))
	for _, doc := range existing {
		if doc == nil || doc.DeletedAt != nil {
			continue
		}
		have[doc.RequiredDocumentID] = struct{}{}
	}

	out := make([]string, 0)
	for _, req := range liveRequirements(reqs, types.PhasePrecontractual) {
		if _, ok := have[req.ID]; ok {
			continue
		}
		have[req.ID] = struct{}{}
		out = append(out, req.ID)
	}

	return out
}

// ExistingMonths returns the distinct months of docs in first-seen order.
func ExistingMonths(docs []*types.ContractualDocument) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, doc := range docs {
		if doc == nil || doc.DeletedAt != nil {
			continue
		}
		if _, ok := seen[doc.Month]; ok {
			continue
		}
		seen[doc.Month] = struct{}{}
		out = append(out, doc.Month)
	}
	return out
}

// ContractualDocumentStore is the persistence the expander needs.
type ContractualDocumentStore interface {
	ContractualDocumentsByMember(ctx context.Context, memberID string) ([]*types.ContractualDocument, error)
	CreateContractualDocument(ctx context.Context, doc *types.ContractualDocument) error
}

// PrecontractualDocumentStore is the persistence the precontractual
// expansion needs.
type PrecontractualDocumentStore interface {
	PrecontractualDocumentsByMember(ctx context.Context, memberID string) ([]*types.PrecontractualDocument, error)
	CreatePrecontractualDocument(ctx context.Context, doc *types.PrecontractualDocument) error
}

// ExpandContractual creates empty contractual document rows for every
// contractual requirement and every month of r that the member has no rows
// for yet. Running it twice with the same input creates nothing the second
// time. A failing row becomes a warning and the rest keep going.
func ExpandContractual(ctx context.Context, store ContractualDocumentStore, memberID string, reqs []*types.RequiredDocument, r DateRange) (types.BatchReport, error) {
	var report types.BatchReport

	if len(liveRequirements(reqs, types.PhaseContractual)) == 0 {
		return report, nil
	}

	existing, err := store.ContractualDocumentsByMember(ctx, memberID)
	if err != nil {
		return report, fmt.Errorf("failed to load contractual documents for member %s: %w", memberID, err)
	}

	return createContractual(ctx, store, memberID, reqs, NewMonths(r, ExistingMonths(existing)), existing), nil
}

// BackfillContractual creates the rows a requirement added later is missing
// for every month the member already has rows for and every month of r.
func BackfillContractual(ctx context.Context, store ContractualDocumentStore, memberID string, reqs []*types.RequiredDocument, r DateRange) (types.BatchReport, error) {
	if len(liveRequirements(reqs, types.PhaseContractual)) == 0 {
		return types.BatchReport{}, nil
	}

	existing, err := store.ContractualDocumentsByMember(ctx, memberID)
	if err != nil {
		return types.BatchReport{}, fmt.Errorf("failed to load contractual documents for member %s: %w", memberID, err)
	}

	have := ExistingMonths(existing)
	months := append(have, NewMonths(r, have)...)

	return createContractual(ctx, store, memberID, reqs, SortMonthLabels(months), existing), nil
}

func createContractual(ctx context.Context, store ContractualDocumentStore, memberID string, reqs []*types.RequiredDocument, months []string, existing []*types.ContractualDocument) types.BatchReport {
	var report types.BatchReport
	for _, missing := range MissingContractual(reqs, months, existing) {
		doc := &types.ContractualDocument{
			MemberID:           memberID,
			RequiredDocumentID: missing.RequiredDocumentID,
			Month:              missing.Month,
		}
		if err := store.CreateContractualDocument(ctx, doc); err != nil {
			report.Warn(fmt.Sprintf("no se pudo crear el documento %s de %s: %v", missing.RequiredDocumentID, missing.Month, err))
			continue
		}
		report.Created++
	}

	return report
}

// ExpandPrecontractual creates empty rows for precontractual requirements
// the member has no row for.
func ExpandPrecontractual(ctx context.Context, store PrecontractualDocumentStore, memberID string, reqs []*types.RequiredDocument) (types.BatchReport, error) {
	var report types.BatchReport

	if len(liveRequirements(reqs, types.PhasePrecontractual)) == 0 {
		return report, nil
	}

	existing, err := store.PrecontractualDocumentsByMember(ctx, memberID)
	if err != nil {
		return report, fmt.Errorf("failed to load precontractual documents for member %s: %w", memberID, err)
	}

	for _, reqID := range MissingPrecontractual(reqs, existing) {
		doc := &types.PrecontractualDocument{
			MemberID:           memberID,
			RequiredDocumentID: reqID,
		}
		if err := store.CreatePrecontractualDocument(ctx, doc); err != nil {
			report.Warn(fmt.Sprintf("no se pudo crear el documento %s: %v", reqID, err))
			continue
		}
		report.Created++
	}

	return report, nil
}
