package lifecycle

import "contratos/pkg/types"

type Badge string

const (
	BadgePending     Badge = "pending"
	BadgeComplete    Badge = "complete"
	BadgeSigned      Badge = "signed"
	BadgeTermination Badge = "termination"
)

// CheckStatus is the decoded background check outcome. The stored boolean
// uses true for "flag raised"; only EvaluateCheck looks at it.
type CheckStatus string

const (
	CheckPending  CheckStatus = "PENDING"
	CheckApproved CheckStatus = "APPROVED"
	CheckRejected CheckStatus = "REJECTED"
)

type CheckResult struct {
	Status  CheckStatus `json:"status"`
	Details []string    `json:"details,omitempty"`
}

func EvaluateCheck(c *types.BackgroundCheck) CheckResult {
	if c == nil || c.Status == nil {
		return CheckResult{Status: CheckPending}
	}

	if !*c.Status {
		return CheckResult{Status: CheckApproved}
	}

	if len(c.Novedades) == 0 {
		return CheckResult{Status: CheckRejected}
	}

	details := make([]string, len(c.Novedades))
	copy(details, c.Novedades)
	return CheckResult{Status: CheckRejected, Details: details}
}

// MemberSignals are the independent inputs the badges are derived from.
type MemberSignals struct {
	PrecontractualComplete bool
	Signed                 bool
	ContractualComplete    bool
	Ending                 *types.Ending
	Juridico               *types.BackgroundCheck
	SeguridadSocial        *types.BackgroundCheck
}

type Gates struct {
	SignatureLocked   bool `json:"signatureLocked"`
	ContractualLocked bool `json:"contractualLocked"`
}

type MemberStatus struct {
	Overall         Badge       `json:"overall"`
	Precontractual  Badge       `json:"precontractual"`
	Signature       Badge       `json:"signature"`
	Contractual     Badge       `json:"contractual"`
	Juridico        CheckResult `json:"juridico"`
	SeguridadSocial CheckResult `json:"seguridadSocial"`
	Gates           Gates       `json:"gates"`
}

func terminated(e *types.Ending) bool {
	return e != nil && e.Status != ""
}

func badge(ending *types.Ending, done bool, doneBadge Badge) Badge {
	if terminated(ending) {
		return BadgeTermination
	}
	if done {
		return doneBadge
	}
	return BadgePending
}

// Aggregate derives the member badges. A recorded termination outranks every
// other state.
func Aggregate(s MemberSignals) MemberStatus {
	return MemberStatus{
		Overall:         badge(s.Ending, s.PrecontractualComplete && s.Signed && s.ContractualComplete, BadgeComplete),
		Precontractual:  badge(s.Ending, s.PrecontractualComplete, BadgeComplete),
		Signature:       badge(s.Ending, s.Signed, BadgeSigned),
		Contractual:     badge(s.Ending, s.ContractualComplete, BadgeComplete),
		Juridico:        EvaluateCheck(s.Juridico),
		SeguridadSocial: EvaluateCheck(s.SeguridadSocial),
		Gates:           PhaseGates(s.PrecontractualComplete, s.Signed),
	}
}

// PhaseGates locks signature until the precontractual phase is complete and
// the contractual phase until the signature is in as well.
func PhaseGates(precontractualComplete, signed bool) Gates {
	return Gates{
		SignatureLocked:   !precontractualComplete,
		ContractualLocked: !precontractualComplete || !signed,
	}
}

func uploaded(url *string) bool {
	return url != nil && *url != ""
}

// PrecontractualComplete reports whether every live precontractual
// requirement has an uploaded document.
func PrecontractualComplete(reqs []*types.RequiredDocument, docs []*types.PrecontractualDocument) bool {
	done := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if doc == nil || doc.DeletedAt != nil {
			continue
		}
		done[doc.RequiredDocumentID] = done[doc.RequiredDocumentID] || uploaded(doc.URL)
	}

	for _, req := range liveRequirements(reqs, types.PhasePrecontractual) {
		if !done[req.ID] {
			return false
		}
	}
	return true
}

// ContractualComplete reports whether every live contractual requirement has
// an uploaded document for every month that has been created.
func ContractualComplete(reqs []*types.RequiredDocument, docs []*types.ContractualDocument) bool {
	done := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if doc == nil || doc.DeletedAt != nil {
			continue
		}
		key := contractualKey(doc.RequiredDocumentID, doc.Month)
		done[key] = done[key] || uploaded(doc.URL)
	}

	months := ExistingMonths(docs)
	for _, req := range liveRequirements(reqs, types.PhaseContractual) {
		for _, month := range months {
			if !done[contractualKey(req.ID, month)] {
				return false
			}
		}
	}
	return true
}
