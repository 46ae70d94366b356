// Package listutil pages and filters admin list responses.
package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPerPage is the page size used when the request names none.
const DefaultPerPage = 50

// PerPageOptions are the accepted per_page values.
var PerPageOptions = []int{10, 25, 50, 100, 500}

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
	Search  string
}

// PageInfo is the pagination metadata returned alongside a page.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ParsePageParams extracts page, per_page and q from query values.
// PRE: none
// POST: Page >= 1 and PerPage is one of PerPageOptions
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !isValidPerPage(perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage, Search: strings.TrimSpace(q.Get("q"))}
}

// NewPageInfo computes pagination metadata, clamping page into range.
// PRE: total >= 0
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the index of the first item on the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Filter keeps items whose key contains search, case-insensitively. An
// empty search keeps everything.
func Filter[T any](items []T, search string, key func(T) string) []T {
	if search == "" {
		return items
	}
	needle := strings.ToLower(search)
	out := make([]T, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(key(it)), needle) {
			out = append(out, it)
		}
	}
	return out
}

// Paginate returns the slice of items on the requested page. The result is
// never nil.
// POST: len(result) <= p.PerPage
func Paginate[T any](items []T, p PageParams) ([]T, PageInfo) {
	info := NewPageInfo(p.Page, p.PerPage, len(items))
	start := min(info.Offset(), len(items))
	end := min(start+info.PerPage, len(items))
	page := make([]T, 0, end-start)
	return append(page, items[start:end]...), info
}

func isValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}
