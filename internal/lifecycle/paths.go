package lifecycle

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^\w\s.\-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SanitizeName turns a user supplied name into a storage path segment:
// trimmed, lowercased, accents folded, anything outside word characters,
// whitespace, dots and hyphens dropped, whitespace runs collapsed to "-".
// Different names can collide; callers prefix entity ids where it matters.
func SanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = foldAccents(s)
	s = unsafeNameChars.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, "-")
	return s
}

func sanitizedOr(name, fallback string) string {
	if s := SanitizeName(name); s != "" && s != "." && s != ".." {
		return s
	}
	return fallback
}

func ContractDraftPath(contractID, fileName string) string {
	return path.Join("contracts", contractID, sanitizedOr(fileName, "borrador"))
}

func PrecontractualPath(memberID, requiredDocumentID, fileName string) string {
	return path.Join("members", memberID, "precontractual", requiredDocumentID, sanitizedOr(fileName, "documento"))
}

func ContractualPath(memberID, requiredDocumentID, month, fileName string) string {
	return path.Join("members", memberID, "contractual", sanitizedOr(month, "sin-mes"), requiredDocumentID, sanitizedOr(fileName, "documento"))
}

func ExtraDocumentPath(memberID string, month *string, fileName string) string {
	bucket := "general"
	if month != nil {
		bucket = sanitizedOr(*month, bucket)
	}
	return path.Join("members", memberID, "extra", bucket, sanitizedOr(fileName, "documento"))
}

func ExtensionPath(memberID, extensionID, fileName string) string {
	return path.Join("members", memberID, "extensions", extensionID, sanitizedOr(fileName, "otrosi"))
}

func TerminationPath(memberID, fileName string) string {
	return path.Join("members", memberID, "terminacion", sanitizedOr(fileName, "acta"))
}

func MemberSignaturePath(memberID, fileName string) string {
	return path.Join("signatures", "members", memberID, sanitizedOr(fileName, "firma.png"))
}

func ProjectSignaturePath(projectID, fileName string) string {
	return path.Join("signatures", "projects", projectID, sanitizedOr(fileName, "firma.png"))
}

// StorageCandidates lists plausible object paths for a stored reference,
// which may be a bare path, a path prefixed with the bucket, or a full
// public/signed storage URL. Order is most to least specific, without
// duplicates.
func StorageCandidates(stored, bucket string) []string {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return nil
	}

	out := make([]string, 0, 4)
	seen := map[string]bool{}
	add := func(p string) {
		p = strings.TrimLeft(p, "/")
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	if u, err := url.Parse(stored); err == nil && u.Scheme != "" && u.Host != "" {
		p := u.Path
		for _, marker := range []string{"/object/public/", "/object/sign/", "/object/authenticated/", "/object/"} {
			if i := strings.Index(p, marker); i >= 0 {
				p = p[i+len(marker):]
				break
			}
		}
		stored = p
	}

	if decoded, err := url.PathUnescape(stored); err == nil {
		add(strings.TrimPrefix(strings.TrimLeft(decoded, "/"), bucket+"/"))
		add(decoded)
	}
	add(strings.TrimPrefix(strings.TrimLeft(stored, "/"), bucket+"/"))
	add(stored)

	return out
}
