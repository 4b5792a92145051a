package console

import (
	"errors"
	"fmt"
	"slices"
)

// PageSizes 可选每页条数
var PageSizes = []int{10, 25, 50}

// DefaultPageSize 默认每页条数
const DefaultPageSize = 25

// ErrInvalidPageSize 每页条数不在 PageSizes 中
var ErrInvalidPageSize = errors.New("page size must be one of 10, 25, 50")

// ValidPageSize 是否为可选值
func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// Pagination 分页显示
type Pagination struct {
	Page  int
	Limit int
	Total int
}

// Summary "Showing {from}–{to} of {total}"
func (p Pagination) Summary() string {
	from := (p.Page-1)*p.Limit + 1
	to := min(p.Page*p.Limit, p.Total)
	return fmt.Sprintf("Showing %d–%d of %d", from, to, p.Total)
}

// HasPrev 上一页可用
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext 下一页可用
func (p Pagination) HasNext() bool {
	return p.Page*p.Limit < p.Total
}

// Pages 总页数，至少为 1
func (p Pagination) Pages() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.Limit - 1) / p.Limit
}
