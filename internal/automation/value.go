package automation

import (
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindInt
	KindDouble
	KindBool
	KindText
	KindObject
	KindMatrix
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindObject:
		return "object"
	case KindMatrix:
		return "matrix"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable snapshot of data that can cross the automation
// boundary. The zero Value is Empty.
type Value struct {
	kind Kind
	i    int32
	f    float64
	b    bool
	s    string
	obj  *Handle
	rows [][]Value
}

func Empty() Value { return Value{} }

func Int(v int32) Value { return Value{kind: KindInt, i: v} }

func Double(v float64) Value { return Value{kind: KindDouble, f: v} }

func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

func Text(v string) Value { return Value{kind: KindText, s: v} }

// Object wraps a remote object handle. The Value does not take a reference
// of its own; whoever built it keeps owning h.
func Object(h *Handle) Value { return Value{kind: KindObject, obj: h} }

// Matrix builds a two-dimensional Value from rows of cells. The rows are
// copied so later changes to the argument do not leak into the Value.
func Matrix(rows [][]Value) Value {
	return Value{kind: KindMatrix, rows: copyRows(rows)}
}

func copyRows(rows [][]Value) [][]Value {
	out := make([][]Value, len(rows))
	for i, row := range rows {
		out[i] = append([]Value(nil), row...)
	}
	return out
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

func (v Value) Int() (int32, bool) { return v.i, v.kind == KindInt }

func (v Value) Double() (float64, bool) { return v.f, v.kind == KindDouble }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Text() (string, bool) { return v.s, v.kind == KindText }

func (v Value) Object() (*Handle, bool) { return v.obj, v.kind == KindObject }

// Matrix returns a copy of the rows held by a matrix Value.
func (v Value) Matrix() ([][]Value, bool) {
	if v.kind != KindMatrix {
		return nil, false
	}
	return copyRows(v.rows), true
}

// Rows returns the number of rows of a matrix, or 0 for any other kind.
func (v Value) Rows() int { return len(v.rows) }

// Cols returns the width of row i of a matrix.
func (v Value) Cols(i int) int {
	if i < 0 || i >= len(v.rows) {
		return 0
	}
	return len(v.rows[i])
}

// At returns the cell at row i, column j of a matrix, or Empty when out of range.
func (v Value) At(i, j int) Value {
	if i < 0 || i >= len(v.rows) || j < 0 || j >= len(v.rows[i]) {
		return Value{}
	}
	return v.rows[i][j]
}

// String renders v for humans. Doubles use six fractional digits, matrices
// join cells with ", " and rows with a newline.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(int64(v.i), 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'f', 6, 64)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindText:
		return v.s
	case KindObject:
		return v.obj.String()
	case KindMatrix:
		var sb strings.Builder
		for i, row := range v.rows {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(RowString(row))
		}
		return sb.String()
	}
	return ""
}

// RowString renders one matrix row the way Value.String does.
func RowString(row []Value) string {
	cells := make([]string, len(row))
	for j, c := range row {
		cells[j] = c.String()
	}
	return strings.Join(cells, ", ")
}

// Equal reports whether v and o carry the same content. Objects compare by
// the identity of the remote object they point to.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindEmpty:
		return true
	case KindInt:
		return v.i == o.i
	case KindDouble:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindText:
		return v.s == o.s
	case KindObject:
		return v.obj.Raw() == o.obj.Raw()
	case KindMatrix:
		if len(v.rows) != len(o.rows) {
			return false
		}
		for i := range v.rows {
			if len(v.rows[i]) != len(o.rows[i]) {
				return false
			}
			for j := range v.rows[i] {
				if !v.rows[i][j].Equal(o.rows[i][j]) {
					return false
				}
			}
		}
		return true
	}
	return false
}

// Release drops the handle references held by a Value returned from the
// marshaller, including those nested in a matrix.
func (v Value) Release() {
	switch v.kind {
	case KindObject:
		v.obj.Release()
	case KindMatrix:
		for _, row := range v.rows {
			for _, c := range row {
				c.Release()
			}
		}
	}
}
