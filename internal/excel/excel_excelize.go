package excel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/negokaz/excel-com/internal/automation"
)

// SavedWorkbook reads a workbook file from disk without going through the
// automation server. It is used to check what a save actually wrote.
type SavedWorkbook struct {
	file *excelize.File
}

func OpenSavedWorkbook(absoluteFilePath string) (*SavedWorkbook, error) {
	file, err := excelize.OpenFile(absoluteFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", absoluteFilePath, err)
	}
	return &SavedWorkbook{file: file}, nil
}

func (w *SavedWorkbook) Close() error {
	return w.file.Close()
}

// SheetNames returns the sheet names in workbook order.
func (w *SavedWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// resolveSheet maps "" to the first sheet and rejects unknown names.
func (w *SavedWorkbook) resolveSheet(sheetName string) (string, error) {
	if sheetName == "" {
		sheets := w.file.GetSheetList()
		if len(sheets) == 0 {
			return "", fmt.Errorf("workbook has no sheets")
		}
		return sheets[0], nil
	}
	index, err := w.file.GetSheetIndex(sheetName)
	if err != nil {
		return "", fmt.Errorf("sheet not found: %s: %w", sheetName, err)
	}
	if index < 0 {
		return "", fmt.Errorf("sheet not found: %s", sheetName)
	}
	return sheetName, nil
}

// Dimension returns the used range of a sheet.
func (w *SavedWorkbook) Dimension(sheetName string) (string, error) {
	sheet, err := w.resolveSheet(sheetName)
	if err != nil {
		return "", err
	}
	dimension, err := w.file.GetSheetDimension(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to get dimension of %s: %w", sheet, err)
	}
	return NormalizeRange(dimension), nil
}

// Read returns the cells of rangeStr as a Matrix. Numbers without a
// fractional part that fit in 32 bits read back as Int, other numbers as
// Double. Booleans read back as Bool and blank cells as Empty. Everything
// else, including dates and error values, reads back as Text.
func (w *SavedWorkbook) Read(sheetName, rangeStr string) (automation.Value, error) {
	sheet, err := w.resolveSheet(sheetName)
	if err != nil {
		return automation.Value{}, err
	}
	startCol, startRow, endCol, endRow, err := ParseRange(rangeStr)
	if err != nil {
		return automation.Value{}, err
	}

	rows := make([][]automation.Value, 0, endRow-startRow+1)
	for row := startRow; row <= endRow; row++ {
		cells := make([]automation.Value, 0, endCol-startCol+1)
		for col := startCol; col <= endCol; col++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return automation.Value{}, err
			}
			v, err := w.cell(sheet, cell)
			if err != nil {
				return automation.Value{}, err
			}
			cells = append(cells, v)
		}
		rows = append(rows, cells)
	}
	return automation.Matrix(rows), nil
}

func (w *SavedWorkbook) cell(sheet, cell string) (automation.Value, error) {
	raw, err := w.file.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return automation.Value{}, fmt.Errorf("failed to get cell value %s: %w", cell, err)
	}
	if raw == "" {
		return automation.Empty(), nil
	}
	cellType, err := w.file.GetCellType(sheet, cell)
	if err != nil {
		return automation.Value{}, fmt.Errorf("failed to get cell type %s: %w", cell, err)
	}

	switch cellType {
	case excelize.CellTypeBool:
		return automation.Bool(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula,
		excelize.CellTypeError, excelize.CellTypeDate:
		return automation.Text(raw), nil
	}
	return numberOrText(raw), nil
}

func numberOrText(raw string) automation.Value {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return automation.Text(raw)
	}
	if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 {
		return automation.Int(int32(f))
	}
	return automation.Double(f)
}

// ReadBack opens the workbook at absoluteFilePath and reads rangeStr from
// sheetName, or from the first sheet when sheetName is empty.
func ReadBack(absoluteFilePath, sheetName, rangeStr string) (automation.Value, error) {
	w, err := OpenSavedWorkbook(absoluteFilePath)
	if err != nil {
		return automation.Value{}, err
	}
	defer w.Close()
	return w.Read(sheetName, rangeStr)
}
