package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Normalize(t *testing.T) {
	tests := []struct {
		name           string
		in             Filter
		page, pageSize int
		offset         int
	}{
		{"zero values", Filter{}, 1, DefaultPageSize, 0},
		{"negative page", Filter{Page: -3, PageSize: 10}, 1, 10, 0},
		{"oversized page", Filter{Page: 3, PageSize: 500}, 3, MaxPageSize, 200},
		{"in range", Filter{Page: 2, PageSize: 25}, 2, 25, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.in.Normalize()
			assert.Equal(t, tt.page, f.Page)
			assert.Equal(t, tt.pageSize, f.PageSize)
			assert.Equal(t, tt.offset, f.Offset())
		})
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, 20))
	assert.Equal(t, 1, PageCount(20, 20))
	assert.Equal(t, 2, PageCount(21, 20))
	assert.Equal(t, 0, PageCount(10, 0))
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]string{"a", "b"}, 5, 1, 2)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(5), p.Total)
	assert.Len(t, p.Items, 2)
}
