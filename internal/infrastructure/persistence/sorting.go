package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

const defaultSortColumn = "created_at"

// sortColumns is the set of columns a list endpoint may order by. Anything
// outside the set falls back to created_at so user input never reaches SQL.
type sortColumns map[string]struct{}

func newSortColumns(cols ...string) sortColumns {
	s := make(sortColumns, len(cols)+1)
	s[defaultSortColumn] = struct{}{}
	for _, c := range cols {
		s[c] = struct{}{}
	}
	return s
}

var (
	productSortColumns = newSortColumns("id", "updated_at", "title", "price", "rating", "external_ref")
	orderSortColumns   = newSortColumns("id", "updated_at")
)

// column returns field when it is allowed, the default column otherwise.
// Matching is case sensitive.
func (s sortColumns) column(field string) string {
	field = strings.TrimSpace(field)
	if _, ok := s[field]; ok {
		return field
	}
	return defaultSortColumn
}

// orderBy builds the ORDER BY clause. Only "asc" (any case) sorts ascending.
func (s sortColumns) orderBy(field, dir string) clause.OrderByColumn {
	return clause.OrderByColumn{
		Column: clause.Column{Name: s.column(field)},
		Desc:   !strings.EqualFold(strings.TrimSpace(dir), "asc"),
	}
}
