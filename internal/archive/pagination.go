package archive

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PageSize is the maximum number of rows any single query returns. Callers
// needing more rows than this get a silently truncated result; there is no
// cursor or offset.
const PageSize = 10000

func clampPageSize(n int) int {
	if n <= 0 || n > PageSize {
		return PageSize
	}

	return n
}

// capped limits a query to limit rows, taken in ascending block order.
func capped(limit int, tiebreak string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Order(clause.OrderByColumn{Column: clause.Column{Name: "block_num"}}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: tiebreak}}).
			Limit(limit)
	}
}
