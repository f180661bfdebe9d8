package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePerPage(t *testing.T) {
	assert.Equal(t, 20, NormalizePerPage(20))
	assert.Equal(t, 50, NormalizePerPage(50))
	assert.Equal(t, DefaultPerPage, NormalizePerPage(0))
	assert.Equal(t, DefaultPerPage, NormalizePerPage(15))
	assert.Equal(t, DefaultPerPage, NormalizePerPage(100))
}

func TestPaginate(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i + 1
	}

	page := Paginate(items, 3, 10)
	assert.Equal(t, []int{21, 22, 23, 24, 25}, page.Data)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, int64(25), page.Total)
	require.NotNil(t, page.From)
	require.NotNil(t, page.To)
	assert.Equal(t, 21, *page.From)
	assert.Equal(t, 25, *page.To)

	page = Paginate(items, 9, 7)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
	assert.Equal(t, DefaultPerPage, page.PerPage)
	assert.Nil(t, page.From)
	assert.Nil(t, page.To)
}

func TestNewPaginationEmpty(t *testing.T) {
	p := NewPagination(1, 10, 0, 0)
	assert.Equal(t, 1, p.LastPage)
	assert.Nil(t, p.From)
}

func TestPaginateHugePage(t *testing.T) {
	var page *Page[int]
	require.NotPanics(t, func() { page = Paginate([]int{1, 2, 3}, math.MaxInt64/7, 50) })
	assert.Empty(t, page.Data)
	assert.Equal(t, math.MaxInt64/7, page.CurrentPage)
	assert.Equal(t, 1, page.LastPage)
	assert.Nil(t, page.From)
	assert.Nil(t, page.To)
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, PageOffset(1, 10, 25))
	assert.Equal(t, 20, PageOffset(3, 10, 25))
	assert.Equal(t, 30, PageOffset(4, 10, 25))
	assert.Equal(t, 25, PageOffset(5, 10, 25))
	assert.Equal(t, 0, PageOffset(math.MaxInt, 50, 0))
}
