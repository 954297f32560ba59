package lifecycle

import (
	"time"

	"contratos/pkg/types"
)

// ValidateDateRange rejects a missing or reversed range.
func ValidateDateRange(r DateRange) error {
	verr := &types.ValidationError{}
	if r.From.IsZero() {
		verr.Add("startDate", "la fecha de inicio es obligatoria")
	}
	if r.To.IsZero() {
		verr.Add("endDate", "la fecha de fin es obligatoria")
	}
	if verr.HasErrors() {
		return verr
	}
	if r.From.After(r.To) {
		verr.Add("endDate", "la fecha de fin debe ser posterior a la fecha de inicio")
	}
	return verr.OrNil()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateExtension checks a new extension against the member's contract
// dates: it may not start before the current end date and may not end more
// than one year after the contract start. Missing contract dates skip the
// corresponding rule.
func ValidateExtension(r DateRange, contractStart, contractEnd *time.Time) error {
	if err := ValidateDateRange(r); err != nil {
		return err
	}

	verr := &types.ValidationError{}
	if contractEnd != nil && dateOnly(r.From).Before(dateOnly(*contractEnd)) {
		verr.Add("startDate", "la prórroga debe iniciar en o después de la fecha de fin del contrato ("+FormatDate(*contractEnd)+")")
	}
	if contractStart != nil {
		limit := dateOnly(*contractStart).AddDate(1, 0, 0)
		if dateOnly(r.To).After(limit) {
			verr.Add("endDate", "la prórroga no puede superar un año desde el inicio del contrato ("+FormatDate(limit)+")")
		}
	}
	return verr.OrNil()
}
