package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"contratos/internal/lifecycle"
	"contratos/internal/mailer"
	"contratos/internal/utils"
	"contratos/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Clients{})

	_, err := f.svc.AcceptInvitation(ctx, ownerID, "m1")
	assert.ErrorIs(t, err, types.ErrForbidden)

	report, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
	require.NoError(t, err)
	assert.Equal(t, 4, report.Created)
	assert.Empty(t, report.Warnings)

	ov, err := f.svc.MemberOverview(ctx, workerID, "m1")
	require.NoError(t, err)
	assert.Equal(t, types.MemberStatusAccepted, ov.Member.Status)
	assert.Len(t, ov.Precontractual, 1)
	assert.Equal(t, []string{"enero 2024", "febrero 2024", "marzo 2024"}, ov.Months)
	assert.Equal(t, types.ContractStatusActive, f.db.contracts["c1"].Status)

	_, err = f.svc.AcceptInvitation(ctx, workerID, "m1")
	assert.ErrorIs(t, err, types.ErrInvitationClosed)
}

func TestUploadsRequireAcceptance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Clients{})

	_, err := f.svc.UploadPrecontractual(ctx, workerID, "m1", "cedula", upload("c.pdf", "x"))
	assert.ErrorIs(t, err, types.ErrPhaseLocked)
}

func TestUploadPrecontractual(t *testing.T) {
	ctx := context.Background()

	t.Run("verified upload is stored", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("Verify", mock.Anything, "Cédula Ana.pdf", "Cédula").Return(true, nil)

		f := newFixture(Clients{Verifier: verifier})
		_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
		require.NoError(t, err)

		// warm the cache so the upload has to invalidate it
		_, err = f.svc.MemberOverview(ctx, workerID, "m1")
		require.NoError(t, err)

		stored, err := f.svc.UploadPrecontractual(ctx, workerID, "m1", "cedula", upload("Cédula Ana.pdf", "%PDF"))
		require.NoError(t, err)
		assert.Equal(t, "members/m1/precontractual/cedula/cedula-ana.pdf", stored)
		assert.True(t, f.objects.has("documents", stored))

		ov, err := f.svc.MemberOverview(ctx, workerID, "m1")
		require.NoError(t, err)
		require.Len(t, ov.Precontractual, 1)
		assert.Equal(t, stored, utils.PtrString(ov.Precontractual[0].URL))
		assert.False(t, ov.Status.Gates.SignatureLocked)
		verifier.AssertExpectations(t)
	})

	t.Run("rejected upload is not stored", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

		f := newFixture(Clients{Verifier: verifier})
		_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
		require.NoError(t, err)

		_, err = f.svc.UploadPrecontractual(ctx, workerID, "m1", "cedula", upload("c.pdf", "x"))
		assert.ErrorIs(t, err, types.ErrDocumentRejected)
		assert.Empty(t, f.objects.objects)
	})

	t.Run("verifier failure", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("timeout"))

		f := newFixture(Clients{Verifier: verifier})
		_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
		require.NoError(t, err)

		_, err = f.svc.UploadPrecontractual(ctx, workerID, "m1", "cedula", upload("c.pdf", "x"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrDocumentRejected)
	})

	t.Run("wrong phase requirement", func(t *testing.T) {
		f := newFixture(Clients{})
		_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
		require.NoError(t, err)

		_, err = f.svc.UploadPrecontractual(ctx, workerID, "m1", "planilla", upload("c.pdf", "x"))
		assert.ErrorIs(t, err, types.ErrRequiredDocumentNotFound)
	})

	t.Run("size limit", func(t *testing.T) {
		f := newFixture(Clients{})
		f.config.MaxUploadBytes = 4
		_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
		require.NoError(t, err)

		_, err = f.svc.UploadPrecontractual(ctx, workerID, "m1", "cedula", upload("c.pdf", "12345"))
		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "file")
	})
}

// signedFixture returns a fixture whose member accepted, uploaded every
// precontractual document and signed.
func signedFixture(t *testing.T, clients Clients) *fixture {
	t.Helper()
	ctx := context.Background()

	f := newFixture(clients)
	f.notifier.On("SendContractSigned", mock.Anything, "owner@example.com", mock.Anything).Return(nil).Maybe()

	_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
	require.NoError(t, err)
	_, err = f.svc.UploadPrecontractual(ctx, workerID, "m1", "cedula", upload("c.pdf", "x"))
	require.NoError(t, err)
	_, err = f.svc.Sign(ctx, workerID, "m1", upload("firma.png", "png"))
	require.NoError(t, err)

	return f
}

func TestSign(t *testing.T) {
	ctx := context.Background()

	t.Run("locked until precontractual is complete", func(t *testing.T) {
		f := newFixture(Clients{})
		_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
		require.NoError(t, err)

		_, err = f.svc.Sign(ctx, workerID, "m1", upload("firma.png", "png"))
		assert.ErrorIs(t, err, types.ErrPhaseLocked)
	})

	t.Run("substitutes and signs the document", func(t *testing.T) {
		f := newFixture(Clients{})
		f.notifier.On("SendContractSigned", mock.Anything, "owner@example.com", mailer.ContractSigned{
			ContractName:    "Interventoría",
			ContratistaName: "Ana Ruiz",
			SignedOn:        "01/02/2024",
		}).Return(nil).Once()

		_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
		require.NoError(t, err)
		_, err = f.svc.UploadPrecontractual(ctx, workerID, "m1", "cedula", upload("c.pdf", "x"))
		require.NoError(t, err)

		report, err := f.svc.Sign(ctx, workerID, "m1", upload("Firma.png", "png"))
		require.NoError(t, err)
		assert.Empty(t, report.Warnings)

		member := f.db.members["m1"]
		assert.True(t, member.Signed)
		signatureURL := "https://cdn.test/public-assets/" + lifecycle.MemberSignaturePath("m1", "Firma.png")
		assert.Equal(t, signatureURL, utils.PtrString(member.SignatureURL))
		assert.Equal(t, "Valor 1000000 hasta 10/03/2024 para ana@example.com", member.Document["objeto"].Content)
		assert.Equal(t, "<p>Contratante</p><hr><p>Contratista</p>"+lifecycle.SignatureImageTag(signatureURL), member.Document["firmas"].Content)

		_, err = f.svc.Sign(ctx, workerID, "m1", upload("Firma.png", "png"))
		assert.ErrorIs(t, err, types.ErrAlreadySigned)

		f.notifier.AssertExpectations(t)
	})

	t.Run("stamps generated documents and keeps going on failure", func(t *testing.T) {
		stamper := new(MockStamper)
		stamper.On("StampSignature", mock.Anything, "doc123", mock.Anything, "Firma del contratista: Ana Ruiz").Return(errors.New("quota"))

		f := newFixture(Clients{Stamper: stamper})
		f.db.contracts["c1"].DraftURL = utils.StringPtr(types.GoogleDocEditURL("doc123"))
		f.notifier.On("SendContractSigned", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
		require.NoError(t, err)
		_, err = f.svc.UploadPrecontractual(ctx, workerID, "m1", "cedula", upload("c.pdf", "x"))
		require.NoError(t, err)

		report, err := f.svc.Sign(ctx, workerID, "m1", upload("firma.png", "png"))
		require.NoError(t, err)
		assert.Len(t, report.Warnings, 2)
		assert.True(t, f.db.members["m1"].Signed)
		stamper.AssertExpectations(t)
	})
}

func TestSignAsContratante(t *testing.T) {
	ctx := context.Background()

	t.Run("requires the contratista signature", func(t *testing.T) {
		f := newFixture(Clients{})
		_, err := f.svc.SignAsContratante(ctx, ownerID, "m1")
		assert.ErrorIs(t, err, types.ErrPhaseLocked)
	})

	t.Run("fills the remaining signature line", func(t *testing.T) {
		f := signedFixture(t, Clients{})

		report, err := f.svc.SignAsContratante(ctx, ownerID, "m1")
		require.NoError(t, err)
		assert.Empty(t, report.Warnings)

		content := f.db.members["m1"].Document["firmas"].Content
		assert.NotContains(t, content, lifecycle.SignatureMarker)
		assert.True(t, strings.HasPrefix(content, "<p>Contratante</p>"+lifecycle.SignatureImageTag(*f.db.projects["p1"].SignatureURL)))
		assert.True(t, f.db.members["m1"].ContratanteSigned)

		_, err = f.svc.SignAsContratante(ctx, ownerID, "m1")
		assert.ErrorIs(t, err, types.ErrAlreadySigned)
	})

	t.Run("needs a project signature", func(t *testing.T) {
		f := signedFixture(t, Clients{})
		f.db.projects["p1"].SignatureURL = nil

		_, err := f.svc.SignAsContratante(ctx, ownerID, "m1")
		var verr *types.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestUploadContractual(t *testing.T) {
	ctx := context.Background()

	t.Run("locked until signed", func(t *testing.T) {
		f := newFixture(Clients{})
		_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
		require.NoError(t, err)

		_, err = f.svc.UploadContractual(ctx, workerID, "m1", "planilla", "enero 2024", upload("p.pdf", "x"))
		assert.ErrorIs(t, err, types.ErrPhaseLocked)
	})

	t.Run("stores the month's file", func(t *testing.T) {
		f := signedFixture(t, Clients{})

		stored, err := f.svc.UploadContractual(ctx, workerID, "m1", "planilla", " Febrero 2024 ", upload("Planilla.pdf", "x"))
		require.NoError(t, err)
		assert.Equal(t, lifecycle.ContractualPath("m1", "planilla", "febrero 2024", "Planilla.pdf"), stored)

		ov, err := f.svc.MemberOverview(ctx, ownerID, "m1")
		require.NoError(t, err)
		for _, d := range ov.Contractual {
			if d.Month == "febrero 2024" {
				assert.Equal(t, stored, utils.PtrString(d.URL))
			} else {
				assert.Nil(t, d.URL)
			}
		}
	})

	t.Run("month outside the period", func(t *testing.T) {
		f := signedFixture(t, Clients{})

		_, err := f.svc.UploadContractual(ctx, workerID, "m1", "planilla", "enero 1999", upload("p.pdf", "x"))
		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "month")

		ov, err := f.svc.MemberOverview(ctx, workerID, "m1")
		require.NoError(t, err)
		assert.NotContains(t, ov.Months, "enero 1999")
	})

	t.Run("month must parse", func(t *testing.T) {
		f := signedFixture(t, Clients{})

		_, err := f.svc.UploadContractual(ctx, workerID, "m1", "planilla", "2024-02", upload("p.pdf", "x"))
		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "month")
	})
}

func TestExtraDocuments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Clients{})
	_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
	require.NoError(t, err)

	doc, err := f.svc.UploadExtraDocument(ctx, workerID, "m1", ExtraDocumentInput{
		Name:  "Acta de inicio",
		Month: utils.StringPtr("Enero 2024"),
		File:  upload("Acta.pdf", "x"),
	})
	require.NoError(t, err)
	assert.Equal(t, "enero 2024", *doc.Month)
	assert.Equal(t, "members/m1/extra/enero-2024/acta.pdf", *doc.URL)

	f.objects.removeErr = errors.New("storage down")
	report, err := f.svc.DeleteExtraDocument(ctx, workerID, "m1", doc.ID)
	require.NoError(t, err)
	assert.Len(t, report.Warnings, 1)

	ov, err := f.svc.MemberOverview(ctx, workerID, "m1")
	require.NoError(t, err)
	assert.Empty(t, ov.Extras)

	_, err = f.svc.DeleteExtraDocument(ctx, workerID, "m1", doc.ID)
	assert.ErrorIs(t, err, types.ErrDocumentNotFound)
}

func TestListMyContracts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Clients{})
	f.db.contracts["c2"] = &types.Contract{ID: "c2", ProjectID: "p1", Name: "Consultoría"}
	f.db.members["m2"] = &types.ContractMember{ID: "m2", UserID: workerID, ContractID: "c2", Status: types.MemberStatusPending}
	f.db.contracts["c3"] = &types.Contract{ID: "c3", ProjectID: "p1", Name: "Borrado", DeletedAt: utils.TimePtr(date(2024, 1, 1))}
	f.db.members["m3"] = &types.ContractMember{ID: "m3", UserID: workerID, ContractID: "c3", Status: types.MemberStatusPending}

	page, err := f.svc.ListMyContracts(ctx, workerID, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = f.svc.ListMyContracts(ctx, workerID, ListQuery{Search: "consul"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "m2", page.Items[0].MemberID)
}

func TestDocumentPreviewURL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Clients{})
	_, err := f.svc.AcceptInvitation(ctx, workerID, "m1")
	require.NoError(t, err)

	stored, err := f.svc.UploadPrecontractual(ctx, workerID, "m1", "cedula", upload("c.pdf", "x"))
	require.NoError(t, err)

	url, err := f.svc.DocumentPreviewURL(ctx, ownerID, "m1", stored)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/signed/documents/"+stored, url)

	_, err = f.svc.DocumentPreviewURL(ctx, ownerID, "m1", "members/m2/otro.pdf")
	assert.ErrorIs(t, err, types.ErrDocumentNotFound)

	_, err = f.svc.DocumentPreviewURL(ctx, "stranger", "m1", stored)
	assert.ErrorIs(t, err, types.ErrForbidden)
}
