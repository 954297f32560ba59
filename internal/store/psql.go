package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// notDeleted is the soft delete filter every list query carries.
var notDeleted = sq.Eq{"deleted_at": nil}

func softDeleteMap() map[string]any {
	return map[string]any{"deleted_at": time.Now()}
}
