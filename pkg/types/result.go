package types

// BatchReport summarises a multi-row operation that keeps going when a
// single row fails. Failed rows are reported as warnings and never rolled
// back.
type BatchReport struct {
	Created  int      `json:"created"`
	Warnings []string `json:"warnings,omitempty"`
}

func (b *BatchReport) Warn(msg string) {
	b.Warnings = append(b.Warnings, msg)
}

func (b *BatchReport) Merge(other BatchReport) {
	b.Created += other.Created
	b.Warnings = append(b.Warnings, other.Warnings...)
}

// Envelope is the single response shape of the JSON API.
type Envelope struct {
	Success  bool              `json:"success"`
	Data     any               `json:"data,omitempty"`
	Error    string            `json:"error,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Page is one slice of a filtered list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}
