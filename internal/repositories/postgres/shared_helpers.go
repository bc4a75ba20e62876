package postgres

import (
	"fmt"

	"gorm.io/gorm"
)

// applyPagination applies limit/offset with sane bounds.
func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}

// applySort orders by a whitelisted column; anything else falls back to
// created_at so user input never reaches the ORDER BY clause raw.
func applySort(query *gorm.DB, sortBy, sortOrder string, allowed map[string]bool) *gorm.DB {
	column := "created_at"
	if allowed[sortBy] {
		column = sortBy
	}
	direction := "DESC"
	if sortOrder == "asc" {
		direction = "ASC"
	}
	return query.Order(fmt.Sprintf("%s %s", column, direction))
}
