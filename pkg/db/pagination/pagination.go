// Package pagination normalizes caller-supplied paging parameters into
// offset/limit pairs. Malformed input falls back to defaults instead of
// erroring.
package pagination

import (
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 250
)

// Page is a normalized offset/limit window.
type Page struct {
	Page   int `json:"page"`
	Offset int `json:"-"`
	Limit  int `json:"-"`
}

// Normalize parses a raw page parameter against a fixed page size.
// Non-numeric or sub-1 values clamp to page 1.
func Normalize(rawPage string, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	page := 1
	if trimmed := strings.TrimSpace(rawPage); trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 1 {
			page = parsed
		}
	}

	return Page{
		Page:   page,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
}

// TotalPages returns the page count for a result set; zero rows is zero
// pages, not one.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	pages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		pages++
	}
	return int(pages)
}
