package types

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrOrganizationNotFound     = errors.New("organization not found")
	ErrProjectNotFound          = errors.New("project not found")
	ErrContractNotFound         = errors.New("contract not found")
	ErrMemberNotFound           = errors.New("contract member not found")
	ErrRequiredDocumentNotFound = errors.New("required document not found")
	ErrDocumentNotFound         = errors.New("document not found")
	ErrTemplateNotFound         = errors.New("template not found")

	ErrForbidden        = errors.New("forbidden")
	ErrPhaseLocked      = errors.New("phase is locked until the previous phase is complete")
	ErrEndingAlreadySet = errors.New("termination already recorded for this member")
	ErrAlreadySigned    = errors.New("already signed")
	ErrInvitationClosed = errors.New("invitation already accepted")

	// ErrDocumentRejected is returned when the verification service answers
	// isValid=false. The upload is refused and nothing is stored.
	ErrDocumentRejected = errors.New("document did not pass verification")
)

// ValidationError carries per-field messages for input rejected before any
// backend call is made.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns nil when no field failed so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrUserNotFound,
		ErrOrganizationNotFound,
		ErrProjectNotFound,
		ErrContractNotFound,
		ErrMemberNotFound,
		ErrRequiredDocumentNotFound,
		ErrDocumentNotFound,
		ErrTemplateNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
