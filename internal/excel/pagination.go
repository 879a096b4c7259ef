package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultPageSize is the number of cells a page holds when none is given.
const DefaultPageSize = 5000

// Pager splits a block of cells into pages of whole rows, each holding at
// most pageSize cells. A page is never smaller than one row.
type Pager struct {
	pages []string
}

// NewPager pages dimension, e.g. "A1:C10". An invalid dimension yields no
// pages.
func NewPager(dimension string, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{pages: calculateFixedSizeRanges(dimension, pageSize)}
}

// calculateFixedSizeRanges computes paging ranges for a given dimension and page size.
func calculateFixedSizeRanges(dimension string, pageSize int) []string {
	startCol, startRow, endCol, endRow, err := ParseRange(dimension)
	if err != nil {
		return []string{}
	}

	totalCols := endCol - startCol + 1
	rowsPerPage := pageSize / totalCols
	if rowsPerPage < 1 {
		rowsPerPage = 1
	}

	var ranges []string
	currentRow := startRow
	for currentRow <= endRow {
		pageEndRow := min(currentRow+rowsPerPage-1, endRow)

		startRange, err := excelize.CoordinatesToCellName(startCol, currentRow)
		if err != nil {
			return ranges
		}
		endRange, err := excelize.CoordinatesToCellName(endCol, pageEndRow)
		if err != nil {
			return ranges
		}
		ranges = append(ranges, fmt.Sprintf("%s:%s", startRange, endRange))

		currentRow = pageEndRow + 1
	}

	return ranges
}

// Pages returns every page in order.
func (p *Pager) Pages() []string { return append([]string(nil), p.pages...) }

// First returns the first page, or "" when there is none.
func (p *Pager) First() string {
	if len(p.pages) == 0 {
		return ""
	}
	return p.pages[0]
}

// Next returns the page after current, or "" when current is the last page
// or not a page at all.
func (p *Pager) Next(current string) string {
	current = NormalizeRange(current)
	for i, r := range p.pages {
		if r == current && i+1 < len(p.pages) {
			return p.pages[i+1]
		}
	}
	return ""
}

// Remaining returns the pages that are not in known.
func (p *Pager) Remaining(known []string) []string {
	if len(known) == 0 {
		return p.Pages()
	}

	knownMap := make(map[string]bool)
	for _, r := range known {
		knownMap[NormalizeRange(r)] = true
	}

	remaining := make([]string, 0)
	for _, r := range p.pages {
		if !knownMap[r] {
			remaining = append(remaining, r)
		}
	}

	return remaining
}
