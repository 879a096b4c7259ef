package automation

import (
	"fmt"
	"math"

	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"
)

const vtVariantArray = ole.VT_ARRAY | ole.VT_VARIANT

// Marshaller converts between Value and the VARIANT wire format. Every
// Handle created by a Marshaller uses it for its own calls.
type Marshaller struct {
	rt  Runtime
	log zerolog.Logger
}

func NewMarshaller(rt Runtime, log zerolog.Logger) *Marshaller {
	return &Marshaller{rt: rt, log: log}
}

// Runtime returns the wire runtime backing m.
func (m *Marshaller) Runtime() Runtime { return m.rt }

// FromVariant converts a wire value into a Value. v stays owned by the
// caller. Object results hold a reference of their own, which the caller
// releases through the Handle.
func (m *Marshaller) FromVariant(v *ole.VARIANT) (Value, error) {
	switch v.VT {
	case ole.VT_EMPTY, ole.VT_NULL:
		return Empty(), nil
	case ole.VT_I4:
		return Int(int32(v.Val)), nil
	case ole.VT_R8:
		return Double(math.Float64frombits(uint64(v.Val))), nil
	case ole.VT_BOOL:
		return Bool(int16(v.Val) != 0), nil
	case ole.VT_BSTR:
		return Text(m.rt.ReadString(v)), nil
	case ole.VT_DISPATCH:
		return Object(m.Wrap(m.rt.Object(v))), nil
	case vtVariantArray:
		return m.fromArray(v)
	}
	return Value{}, &Error{
		Op:   "from_variant",
		Kind: KindUnsupportedType,
		Err:  fmt.Errorf("unsupported VARIANT type %s (0x%04x)", v.VT, uint16(v.VT)),
	}
}

func (m *Marshaller) fromArray(v *ole.VARIANT) (Value, error) {
	arr, err := m.rt.OpenArray(v)
	if err != nil {
		return Value{}, &Error{Op: "from_variant", Kind: KindUnsupportedType, Err: err}
	}
	if dims := arr.Dims(); dims != 2 {
		return Value{}, &Error{
			Op:   "from_variant",
			Kind: KindUnsupportedType,
			Err:  fmt.Errorf("array of %d dimensions, want 2", dims),
		}
	}
	lo1, hi1, err := arr.Bounds(1)
	if err != nil {
		return Value{}, &Error{Op: "from_variant", Kind: KindUnsupportedType, Err: err}
	}
	lo2, hi2, err := arr.Bounds(2)
	if err != nil {
		return Value{}, &Error{Op: "from_variant", Kind: KindUnsupportedType, Err: err}
	}

	var rows [][]Value
	for i := lo1; i <= hi1; i++ {
		row := make([]Value, 0, max(0, int(hi2-lo2+1)))
		for j := lo2; j <= hi2; j++ {
			cell, err := m.element(arr, i, j)
			if err != nil {
				Value{kind: KindMatrix, rows: append(rows, row)}.Release()
				return Value{}, err
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return Value{kind: KindMatrix, rows: rows}, nil
}

func (m *Marshaller) element(arr Array, i, j int32) (Value, error) {
	elem, err := arr.Get(i, j)
	if err != nil {
		return Value{}, &Error{
			Op:   "from_variant",
			Kind: KindWireAllocation,
			Err:  fmt.Errorf("read element (%d, %d): %w", i, j, err),
		}
	}
	defer m.clear(&elem)
	return m.FromVariant(&elem)
}

// ToVariant converts v into a new wire value owned by the caller, who must
// release it with Clear. v is not modified.
func (m *Marshaller) ToVariant(v Value) (ole.VARIANT, error) {
	switch v.kind {
	case KindEmpty:
		return ole.NewVariant(ole.VT_EMPTY, 0), nil
	case KindInt:
		return ole.NewVariant(ole.VT_I4, int64(v.i)), nil
	case KindDouble:
		return ole.NewVariant(ole.VT_R8, int64(math.Float64bits(v.f))), nil
	case KindBool:
		if v.b {
			return ole.NewVariant(ole.VT_BOOL, -1), nil
		}
		return ole.NewVariant(ole.VT_BOOL, 0), nil
	case KindText:
		out, err := m.rt.AllocString(v.s)
		if err != nil {
			return ole.VARIANT{}, &Error{Op: "to_variant", Kind: KindWireAllocation, Err: err}
		}
		return out, nil
	case KindObject:
		return m.objectVariant(v.obj)
	case KindMatrix:
		return m.toArray(v.rows)
	}
	return ole.VARIANT{}, &Error{
		Op:   "to_variant",
		Kind: KindUnsupportedType,
		Err:  fmt.Errorf("unknown value kind %s", v.kind),
	}
}

func (m *Marshaller) objectVariant(h *Handle) (ole.VARIANT, error) {
	d := h.Raw()
	if d == nil {
		return ole.NewVariant(ole.VT_DISPATCH, 0), nil
	}
	d.AddRef()
	out, err := m.rt.ObjectVariant(d)
	if err != nil {
		d.Release()
		return ole.VARIANT{}, &Error{Op: "to_variant", Kind: KindUnsupportedType, Err: err}
	}
	return out, nil
}

// toArray sizes the array from the first row. Shorter rows are padded with
// Empty and longer rows are cut.
func (m *Marshaller) toArray(rows [][]Value) (ole.VARIANT, error) {
	nrows := len(rows)
	ncols := 0
	if nrows > 0 {
		ncols = len(rows[0])
	}

	arr, err := m.rt.CreateArray(int32(nrows), int32(ncols))
	if err != nil {
		return ole.VARIANT{}, &Error{Op: "to_variant", Kind: KindWireAllocation, Err: err}
	}
	for i, row := range rows {
		for j := 0; j < ncols; j++ {
			var cell Value
			if j < len(row) {
				cell = row[j]
			}
			if err := m.putElement(arr, int32(i), int32(j), cell); err != nil {
				if derr := arr.Destroy(); derr != nil {
					m.log.Warn().Err(derr).Msg("failed to destroy array")
				}
				return ole.VARIANT{}, err
			}
		}
	}
	return arr.Variant(), nil
}

func (m *Marshaller) putElement(arr Array, i, j int32, cell Value) error {
	elem, err := m.ToVariant(cell)
	if err != nil {
		return err
	}
	defer m.clear(&elem)
	if err := arr.Put(i, j, &elem); err != nil {
		return &Error{
			Op:   "to_variant",
			Kind: KindWireAllocation,
			Err:  fmt.Errorf("write element (%d, %d): %w", i, j, err),
		}
	}
	return nil
}

// Clear releases a wire value produced by ToVariant or returned by Invoke.
func (m *Marshaller) Clear(v *ole.VARIANT) { m.clear(v) }

func (m *Marshaller) clear(v *ole.VARIANT) {
	if err := m.rt.Clear(v); err != nil {
		m.log.Warn().Err(err).Str("vt", v.VT.String()).Msg("failed to clear variant")
	}
}

// Wrap returns a handle on d that uses m for its calls, taking a new
// reference.
func (m *Marshaller) Wrap(d Dispatcher) *Handle {
	if d == nil {
		return nil
	}
	d.AddRef()
	return &Handle{disp: d, m: m}
}

// adopt takes over a reference the caller already owns.
func (m *Marshaller) adopt(d Dispatcher) *Handle {
	if d == nil {
		return nil
	}
	return &Handle{disp: d, m: m}
}
