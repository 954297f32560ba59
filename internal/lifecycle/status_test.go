package lifecycle

import (
	"testing"

	"contratos/internal/utils"
	"contratos/pkg/types"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateCheck(t *testing.T) {
	tests := []struct {
		name  string
		check *types.BackgroundCheck
		want  CheckResult
	}{
		{name: "nil record", check: nil, want: CheckResult{Status: CheckPending}},
		{name: "nil status", check: &types.BackgroundCheck{Code: "abc"}, want: CheckResult{Status: CheckPending}},
		{name: "false approves", check: &types.BackgroundCheck{Status: utils.BoolPtr(false)}, want: CheckResult{Status: CheckApproved}},
		{name: "true without novedades", check: &types.BackgroundCheck{Status: utils.BoolPtr(true), Novedades: []string{}}, want: CheckResult{Status: CheckRejected}},
		{name: "true with novedades", check: &types.BackgroundCheck{Status: utils.BoolPtr(true), Novedades: []string{"x"}}, want: CheckResult{Status: CheckRejected, Details: []string{"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateCheck(tt.check))
		})
	}
}

func TestAggregateTerminationWins(t *testing.T) {
	got := Aggregate(MemberSignals{
		PrecontractualComplete: true,
		Signed:                 true,
		ContractualComplete:    true,
		Ending:                 &types.Ending{Status: types.EndingRequested},
	})

	assert.Equal(t, BadgeTermination, got.Overall)
	assert.Equal(t, BadgeTermination, got.Precontractual)
	assert.Equal(t, BadgeTermination, got.Signature)
	assert.Equal(t, BadgeTermination, got.Contractual)
}

func TestAggregate(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		got := Aggregate(MemberSignals{PrecontractualComplete: true, Signed: true, ContractualComplete: true})
		assert.Equal(t, BadgeComplete, got.Overall)
		assert.Equal(t, BadgeSigned, got.Signature)
		assert.Equal(t, Gates{}, got.Gates)
	})

	t.Run("pending and locked", func(t *testing.T) {
		got := Aggregate(MemberSignals{ContractualComplete: true})
		assert.Equal(t, BadgePending, got.Overall)
		assert.Equal(t, BadgePending, got.Precontractual)
		assert.Equal(t, BadgePending, got.Signature)
		assert.Equal(t, Gates{SignatureLocked: true, ContractualLocked: true}, got.Gates)
		assert.Equal(t, CheckPending, got.Juridico.Status)
	})

	t.Run("contractual waits for signature", func(t *testing.T) {
		got := Aggregate(MemberSignals{PrecontractualComplete: true})
		assert.Equal(t, Gates{SignatureLocked: false, ContractualLocked: true}, got.Gates)
	})

	t.Run("empty ending status is not a termination", func(t *testing.T) {
		got := Aggregate(MemberSignals{PrecontractualComplete: true, Signed: true, ContractualComplete: true, Ending: &types.Ending{}})
		assert.Equal(t, BadgeComplete, got.Overall)
	})
}

func TestPrecontractualComplete(t *testing.T) {
	reqs := []*types.RequiredDocument{
		requirement("cedula", types.PhasePrecontractual),
		requirement("rut", types.PhasePrecontractual),
		requirement("planilla", types.PhaseContractual),
	}

	assert.False(t, PrecontractualComplete(reqs, []*types.PrecontractualDocument{
		{RequiredDocumentID: "cedula", URL: utils.StringPtr("a")},
		{RequiredDocumentID: "rut"},
	}))
	assert.True(t, PrecontractualComplete(reqs, []*types.PrecontractualDocument{
		{RequiredDocumentID: "cedula", URL: utils.StringPtr("a")},
		{RequiredDocumentID: "rut", URL: utils.StringPtr("b")},
	}))
	assert.True(t, PrecontractualComplete(nil, nil))
}

func TestContractualComplete(t *testing.T) {
	reqs := []*types.RequiredDocument{
		requirement("planilla", types.PhaseContractual),
		requirement("informe", types.PhaseContractual),
	}

	docs := []*types.ContractualDocument{
		{RequiredDocumentID: "planilla", Month: "enero 2024", URL: utils.StringPtr("a")},
		{RequiredDocumentID: "informe", Month: "enero 2024", URL: utils.StringPtr("b")},
		{RequiredDocumentID: "planilla", Month: "febrero 2024", URL: utils.StringPtr("c")},
	}
	assert.False(t, ContractualComplete(reqs, docs), "informe for febrero has no row")

	docs = append(docs, &types.ContractualDocument{RequiredDocumentID: "informe", Month: "febrero 2024", URL: utils.StringPtr("d")})
	assert.True(t, ContractualComplete(reqs, docs))
}
