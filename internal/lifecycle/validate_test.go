package lifecycle

import (
	"testing"
	"time"

	"contratos/internal/utils"
	"contratos/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDateRange(t *testing.T) {
	assert.NoError(t, ValidateDateRange(DateRange{From: day(2024, 1, 1), To: day(2024, 1, 1)}))

	err := ValidateDateRange(DateRange{From: day(2024, 2, 1), To: day(2024, 1, 1)})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "endDate")

	err = ValidateDateRange(DateRange{})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}

func TestValidateExtension(t *testing.T) {
	start := day(2024, 1, 1)
	end := day(2024, 6, 30)

	tests := []struct {
		name   string
		r      DateRange
		fields []string
	}{
		{name: "starts on the end date", r: DateRange{From: end, To: day(2024, 12, 31)}},
		{name: "ends exactly one year after start", r: DateRange{From: day(2024, 7, 1), To: day(2025, 1, 1)}},
		{name: "starts before the end date", r: DateRange{From: day(2024, 6, 29), To: day(2024, 9, 1)}, fields: []string{"startDate"}},
		{name: "ends past one year", r: DateRange{From: day(2024, 7, 1), To: day(2025, 1, 2)}, fields: []string{"endDate"}},
		{name: "both rules broken", r: DateRange{From: day(2024, 3, 1), To: day(2025, 3, 1)}, fields: []string{"startDate", "endDate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExtension(tt.r, &start, &end)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestValidateExtensionWithoutContractDates(t *testing.T) {
	r := DateRange{From: day(2020, 1, 1), To: day(2030, 1, 1)}
	assert.NoError(t, ValidateExtension(r, nil, nil))

	// time of day on the stored end date is ignored
	end := time.Date(2024, 6, 30, 18, 30, 0, 0, time.UTC)
	assert.NoError(t, ValidateExtension(DateRange{From: day(2024, 6, 30), To: day(2024, 8, 1)}, utils.TimePtr(day(2024, 1, 1)), &end))
}
