package lifecycle

import (
	"strings"
	"testing"

	"contratos/internal/utils"
	"contratos/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	sections := types.Sections{
		"objeto": {Content: "Value: ${value}, End: ${endDate}", Type: "html"},
		"partes": {Content: "Contratista: ${userEmail} (${value})", Type: "html"},
		"anexos": {Content: "sin tokens", Type: "text"},
	}

	endDate := day(2024, 12, 31)
	got := Substitute(sections, Replacements{
		Value:     utils.StringPtr("1000000"),
		EndDate:   &endDate,
		UserEmail: utils.StringPtr("ana@example.com"),
	})

	assert.Equal(t, "Value: 1000000, End: 31/12/2024", got["objeto"].Content)
	assert.Equal(t, "Contratista: ana@example.com (1000000)", got["partes"].Content)
	assert.Equal(t, "html", got["objeto"].Type)
	assert.Empty(t, RemainingTokens(got))
	for _, s := range got {
		assert.NotContains(t, s.Content, "${")
	}

	assert.Equal(t, "Value: ${value}, End: ${endDate}", sections["objeto"].Content, "input must not be modified")
}

func TestSubstituteSkipsMissingValues(t *testing.T) {
	sections := types.Sections{"objeto": {Content: "${value} hasta ${endDate}"}}

	got := Substitute(sections, Replacements{Value: utils.StringPtr("500")})

	assert.Equal(t, "500 hasta ${endDate}", got["objeto"].Content)
	assert.Equal(t, []string{TokenEndDate}, RemainingTokens(got))
}

func TestInsertSignature(t *testing.T) {
	content := "<p>Contratante</p><hr><p>Contratista</p><hr><p>fin</p>"
	sections := types.Sections{SignaturesSection: {Content: content, Type: "html"}}

	got, err := InsertSignature(sections, "https://cdn.example.com/firma.png")
	require.NoError(t, err)

	out := got[SignaturesSection].Content
	assert.Equal(t, 1, strings.Count(out, SignatureMarker))

	img := SignatureImageTag("https://cdn.example.com/firma.png")
	assert.Equal(t, "<p>Contratante</p><hr><p>Contratista</p>"+img+"<p>fin</p>", out)
	assert.Equal(t, content, sections[SignaturesSection].Content)
}

func TestInsertSignatureMissingSection(t *testing.T) {
	sections := types.Sections{"objeto": {Content: "x"}}

	got, err := InsertSignature(sections, "https://cdn.example.com/firma.png")
	assert.ErrorIs(t, err, ErrSignatureSectionMissing)
	assert.Equal(t, sections, got)
}

func TestInsertSignatureMissingMarker(t *testing.T) {
	sections := types.Sections{SignaturesSection: {Content: "<p>sin linea</p>"}}

	_, err := InsertSignature(sections, "https://cdn.example.com/firma.png")
	assert.ErrorIs(t, err, ErrSignatureMarkerMissing)
}

func TestSignatureImageTagEscapesURL(t *testing.T) {
	tag := SignatureImageTag(`https://x.test/a.png?a=1&b="2"`)
	assert.Contains(t, tag, `a=1&amp;b=&#34;2&#34;`)
}
