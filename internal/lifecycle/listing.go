package lifecycle

import (
	"strings"

	"contratos/pkg/types"
)

// FilterBySubstring keeps the items where any selector's value contains term,
// ignoring case. An empty term keeps everything. Input order is preserved and
// the input slice is not modified.
func FilterBySubstring[T any](items []T, term string, selectors ...func(T) string) []T {
	term = strings.ToLower(strings.TrimSpace(term))

	out := make([]T, 0, len(items))
	for _, item := range items {
		if term == "" {
			out = append(out, item)
			continue
		}
		for _, sel := range selectors {
			if strings.Contains(strings.ToLower(sel(item)), term) {
				out = append(out, item)
				break
			}
		}
	}

	return out
}

// Paginate returns the 1-based page of items. Pages past the end, page < 1
// and pageSize < 1 yield an empty slice.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return []T{}
	}

	// compare page counts before multiplying so a huge page cannot overflow
	if page-1 >= PageCount(len(items), pageSize) {
		return []T{}
	}

	start := (page - 1) * pageSize

	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize < 1 {
		return 0
	}
	return (total-1)/pageSize + 1
}

// PageOf filters then paginates items into a types.Page.
func PageOf[T any](items []T, term string, page, pageSize int, selectors ...func(T) string) types.Page[T] {
	filtered := FilterBySubstring(items, term, selectors...)
	return types.Page[T]{
		Items:      Paginate(filtered, page, pageSize),
		Page:       page,
		PageSize:   pageSize,
		Total:      len(filtered),
		TotalPages: PageCount(len(filtered), pageSize),
	}
}
