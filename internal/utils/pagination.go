// Package utils holds small helpers with no domain knowledge.
package utils

import "strconv"

// AtoiDefault parses s, returning def when s is empty or not an integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads raw page and page-size values. Missing or invalid values
// fall back to page 1 and defSize; the size is clamped to [1, maxSize].
func ParsePage(page, size string, defSize, maxSize int) Page {
	return Page{
		Number: max(AtoiDefault(page, 1), 1),
		Size:   min(max(AtoiDefault(size, defSize), 1), maxSize),
	}
}

// Offset is the number of rows before this page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages is the page count for total rows at this page size.
func (p Page) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}
