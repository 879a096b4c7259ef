package excel

import (
	"strings"
	"testing"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantSCol  int
		wantSRow  int
		wantECol  int
		wantERow  int
		wantError bool
	}{
		{
			name:     "simple range",
			input:    "A1:C10",
			wantSCol: 1, wantSRow: 1, wantECol: 3, wantERow: 10,
		},
		{
			name:     "single cell",
			input:    "B5",
			wantSCol: 2, wantSRow: 5, wantECol: 2, wantERow: 5,
		},
		{
			name:     "absolute references",
			input:    "$A$1:$C$10",
			wantSCol: 1, wantSRow: 1, wantECol: 3, wantERow: 10,
		},
		{
			name:     "mixed absolute references",
			input:    "$A1:C$10",
			wantSCol: 1, wantSRow: 1, wantECol: 3, wantERow: 10,
		},
		{
			name:     "multi-letter columns",
			input:    "AA1:AZ100",
			wantSCol: 27, wantSRow: 1, wantECol: 52, wantERow: 100,
		},
		{
			name:     "lower case",
			input:    "b2:d4",
			wantSCol: 2, wantSRow: 2, wantECol: 4, wantERow: 4,
		},
		{
			name:      "empty string",
			input:     "",
			wantError: true,
		},
		{
			name:      "invalid format",
			input:     "not-a-range",
			wantError: true,
		},
		{
			name:      "missing row number",
			input:     "A:C",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sCol, sRow, eCol, eRow, err := ParseRange(tt.input)
			if tt.wantError {
				if err == nil {
					t.Errorf("ParseRange(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseRange(%q) unexpected error: %v", tt.input, err)
				return
			}
			if sCol != tt.wantSCol || sRow != tt.wantSRow || eCol != tt.wantECol || eRow != tt.wantERow {
				t.Errorf("ParseRange(%q) = (%d,%d,%d,%d), want (%d,%d,%d,%d)",
					tt.input, sCol, sRow, eCol, eRow, tt.wantSCol, tt.wantSRow, tt.wantECol, tt.wantERow)
			}
		})
	}
}

func TestNormalizeRange(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already normalized",
			input: "A1:C10",
			want:  "A1:C10",
		},
		{
			name:  "strips absolute references",
			input: "$A$1:$C$10",
			want:  "A1:C10",
		},
		{
			name:  "invalid input returns original",
			input: "not-a-range",
			want:  "not-a-range",
		},
		{
			name:  "empty string returns original",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRange(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeRange(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRangeRef(t *testing.T) {
	tests := []struct {
		name      string
		anchor    string
		rows      int
		cols      int
		want      string
		wantError bool
	}{
		{name: "two by two", anchor: "A1", rows: 2, cols: 2, want: "A1:B2"},
		{name: "single cell", anchor: "C3", rows: 1, cols: 1, want: "C3:C3"},
		{name: "column wrap", anchor: "Y10", rows: 3, cols: 4, want: "Y10:AB12"},
		{name: "absolute anchor", anchor: "$B$2", rows: 1, cols: 3, want: "B2:D2"},
		{name: "anchor range uses its first cell", anchor: "D4:F9", rows: 2, cols: 1, want: "D4:D5"},
		{name: "no rows", anchor: "A1", rows: 0, cols: 2, wantError: true},
		{name: "no columns", anchor: "A1", rows: 2, cols: 0, wantError: true},
		{name: "past the last column", anchor: "XFD1", rows: 1, cols: 2, wantError: true},
		{name: "invalid anchor", anchor: "1A", rows: 1, cols: 1, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RangeRef(tt.anchor, tt.rows, tt.cols)
			if tt.wantError {
				if err == nil {
					t.Errorf("RangeRef(%q, %d, %d) = %q, expected error", tt.anchor, tt.rows, tt.cols, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("RangeRef(%q, %d, %d) unexpected error: %v", tt.anchor, tt.rows, tt.cols, err)
			}
			if got != tt.want {
				t.Errorf("RangeRef(%q, %d, %d) = %q, want %q", tt.anchor, tt.rows, tt.cols, got, tt.want)
			}
		})
	}
}

func TestIsSingleCell(t *testing.T) {
	tests := map[string]bool{
		"A1":      true,
		"$B$7":    true,
		"C3:C3":   true,
		"A1:B2":   false,
		"garbage": false,
		"":        false,
	}
	for input, want := range tests {
		if got := IsSingleCell(input); got != want {
			t.Errorf("IsSingleCell(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestSheetNameFits(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "empty", input: "", want: true},
		{name: "31 ascii", input: strings.Repeat("x", 31), want: true},
		{name: "32 ascii", input: strings.Repeat("x", 32), want: false},
		{name: "31 multibyte", input: strings.Repeat("売", 31), want: true},
		{name: "32 multibyte", input: strings.Repeat("売", 32), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SheetNameFits(tt.input); got != tt.want {
				t.Errorf("SheetNameFits(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCellCount(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "A1", want: 1},
		{input: "A1:B2", want: 4},
		{input: "b2:d5", want: 12},
		{input: "A1:XFD1048576", want: 16384 * 1048576},
		{input: "C3:A1", wantErr: true},
		{input: "garbage", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := CellCount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CellCount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("CellCount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCheckRangeSize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxCells int
		wantErr  bool
	}{
		{name: "fits", input: "A1:B2", maxCells: 4},
		{name: "too large", input: "A1:B3", maxCells: 4, wantErr: true},
		{name: "whole sheet", input: "A1:XFD1048576", maxCells: DefaultPageSize, wantErr: true},
		{name: "invalid", input: "1A", maxCells: 10, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRangeSize(tt.input, tt.maxCells)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckRangeSize(%q, %d) error = %v, wantErr %v", tt.input, tt.maxCells, err, tt.wantErr)
			}
		})
	}
}
