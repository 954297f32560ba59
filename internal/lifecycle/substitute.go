package lifecycle

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"contratos/pkg/types"
)

const (
	TokenValue     = "${value}"
	TokenEndDate   = "${endDate}"
	TokenUserEmail = "${userEmail}"

	// SignaturesSection is the section holding every party's signature line.
	SignaturesSection = "firmas"
	// SignatureMarker is the rule drawn above each signature line.
	SignatureMarker = "<hr>"

	// DateLayout is the day/month/year layout used everywhere dates are shown.
	DateLayout = "02/01/2006"
)

var (
	ErrSignatureSectionMissing = errors.New("signatures section not found")
	ErrSignatureMarkerMissing  = errors.New("signature marker not found")
)

// Replacements are the values substituted into a contract document. A nil
// field leaves its token untouched.
type Replacements struct {
	Value     *string
	EndDate   *time.Time
	UserEmail *string
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func (r Replacements) pairs() []string {
	pairs := make([]string, 0, 6)
	if r.Value != nil {
		pairs = append(pairs, TokenValue, *r.Value)
	}
	if r.EndDate != nil {
		pairs = append(pairs, TokenEndDate, FormatDate(*r.EndDate))
	}
	if r.UserEmail != nil {
		pairs = append(pairs, TokenUserEmail, *r.UserEmail)
	}
	return pairs
}

// Substitute returns a copy of sections with every known token replaced in
// every section's content. The input is not modified.
func Substitute(sections types.Sections, r Replacements) types.Sections {
	out := sections.Clone()

	pairs := r.pairs()
	if len(pairs) == 0 {
		return out
	}

	replacer := strings.NewReplacer(pairs...)
	for name, section := range out {
		section.Content = replacer.Replace(section.Content)
		out[name] = section
	}

	return out
}

// SignatureImageTag is the inline image placed where a signature line was.
func SignatureImageTag(signatureURL string) string {
	return fmt.Sprintf(`<img src="%s" alt="Firma" style="max-width: 200px; height: auto;" />`, html.EscapeString(signatureURL))
}

// InsertSignature replaces the last signature marker of the signatures
// section with an image of signatureURL. Earlier markers belong to other
// parties and are kept. The input is not modified; on error the returned
// sections equal the input.
func InsertSignature(sections types.Sections, signatureURL string) (types.Sections, error) {
	out := sections.Clone()

	section, ok := out[SignaturesSection]
	if !ok {
		return out, ErrSignatureSectionMissing
	}

	idx := strings.LastIndex(section.Content, SignatureMarker)
	if idx < 0 {
		return out, ErrSignatureMarkerMissing
	}

	section.Content = section.Content[:idx] + SignatureImageTag(signatureURL) + section.Content[idx+len(SignatureMarker):]
	out[SignaturesSection] = section

	return out, nil
}

// RemainingTokens lists the known tokens still present anywhere in sections.
func RemainingTokens(sections types.Sections) []string {
	out := make([]string, 0)
	for _, token := range []string{TokenValue, TokenEndDate, TokenUserEmail} {
		for _, section := range sections {
			if strings.Contains(section.Content, token) {
				out = append(out, token)
				break
			}
		}
	}
	return out
}
