package excel

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var rangeRegexp = regexp.MustCompile(`^(\$?[A-Z]+\$?\d+)(?::(\$?[A-Z]+\$?\d+))?$`)

// ParseRange parses Excel's range string (e.g. A1:C10 or A1)
func ParseRange(rangeStr string) (int, int, int, int, error) {
	matches := rangeRegexp.FindStringSubmatch(strings.ToUpper(rangeStr))
	if matches == nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid range format: %s", rangeStr)
	}
	startCol, startRow, err := excelize.CellNameToCoordinates(matches[1])
	if err != nil {
		return 0, 0, 0, 0, err
	}

	if matches[2] == "" {
		// Single cell case
		return startCol, startRow, startCol, startRow, nil
	}

	endCol, endRow, err := excelize.CellNameToCoordinates(matches[2])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return startCol, startRow, endCol, endRow, nil
}

func NormalizeRange(rangeStr string) string {
	startCol, startRow, endCol, endRow, err := ParseRange(rangeStr)
	if err != nil {
		return rangeStr
	}
	startCell, err := excelize.CoordinatesToCellName(startCol, startRow)
	if err != nil {
		return rangeStr
	}
	endCell, err := excelize.CoordinatesToCellName(endCol, endRow)
	if err != nil {
		return rangeStr
	}
	return fmt.Sprintf("%s:%s", startCell, endCell)
}

// CellCount returns the number of cells rangeStr covers.
func CellCount(rangeStr string) (int, error) {
	startCol, startRow, endCol, endRow, err := ParseRange(rangeStr)
	if err != nil {
		return 0, err
	}
	cols := endCol - startCol + 1
	rows := endRow - startRow + 1
	if cols < 1 || rows < 1 {
		return 0, fmt.Errorf("range %s is reversed", rangeStr)
	}
	return cols * rows, nil
}

// CheckRangeSize fails when rangeStr is invalid or covers more than
// maxCells cells.
func CheckRangeSize(rangeStr string, maxCells int) error {
	cells, err := CellCount(rangeStr)
	if err != nil {
		return err
	}
	if cells > maxCells {
		return fmt.Errorf("range %s holds %d cells, more than the page size of %d; read it page by page", rangeStr, cells, maxCells)
	}
	return nil
}

// IsSingleCell reports whether rangeStr names exactly one cell.
func IsSingleCell(rangeStr string) bool {
	startCol, startRow, endCol, endRow, err := ParseRange(rangeStr)
	return err == nil && startCol == endCol && startRow == endRow
}

// RangeRef returns the reference of the rows x cols block whose top-left
// cell is anchor.
func RangeRef(anchor string, rows, cols int) (string, error) {
	if rows < 1 || cols < 1 {
		return "", fmt.Errorf("empty block %dx%d at %s", rows, cols, anchor)
	}
	startCol, startRow, _, _, err := ParseRange(anchor)
	if err != nil {
		return "", err
	}
	startCell, err := excelize.CoordinatesToCellName(startCol, startRow)
	if err != nil {
		return "", err
	}
	endCell, err := excelize.CoordinatesToCellName(startCol+cols-1, startRow+rows-1)
	if err != nil {
		return "", fmt.Errorf("block %dx%d at %s leaves the sheet: %w", rows, cols, anchor, err)
	}
	return fmt.Sprintf("%s:%s", startCell, endCell), nil
}

// MaxSheetNameLength is the longest sheet name the server accepts, in characters.
const MaxSheetNameLength = 31

// SheetNameFits reports whether name is short enough to be a sheet name.
func SheetNameFits(name string) bool {
	return utf8.RuneCountInString(name) <= MaxSheetNameLength
}

// FileIsNotWritable checks if a file is not writable
func FileIsNotWritable(absolutePath string) bool {
	f, err := os.OpenFile(path.Clean(absolutePath), os.O_WRONLY, os.ModePerm)
	if err != nil {
		return true
	}
	defer f.Close()
	return false
}
