package automation

import (
	"github.com/go-ole/go-ole"
)

// InvokeKind selects how IDispatch::Invoke treats a member.
type InvokeKind int16

const (
	InvokeMethod      InvokeKind = 1
	InvokePropertyGet InvokeKind = 2
	InvokePropertyPut InvokeKind = 4
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeMethod:
		return "method"
	case InvokePropertyGet:
		return "propget"
	case InvokePropertyPut:
		return "propput"
	}
	return "invoke"
}

// dispidPropertyPut is the named-argument id that marks the value of a
// property assignment.
const dispidPropertyPut int32 = -3

// Dispatcher is a late-bound remote object.
type Dispatcher interface {
	// AddRef takes one more reference on the object.
	AddRef() int32
	// Release drops one reference on the object.
	Release() int32
	// GetIDsOfNames resolves member names to dispatch identifiers.
	GetIDsOfNames(names []string) ([]int32, error)
	// Invoke calls a member. args are in call order; named lists the
	// dispatch ids of trailing named arguments. The returned variant is
	// owned by the caller.
	Invoke(dispid int32, kind InvokeKind, args []ole.VARIANT, named []int32) (ole.VARIANT, error)
}

// Runtime owns the wire-format memory behind VARIANT payloads: strings,
// arrays and embedded object pointers.
type Runtime interface {
	// AllocString returns a VT_BSTR variant owning a new copy of s.
	AllocString(s string) (ole.VARIANT, error)
	// ReadString returns the text held by a VT_BSTR variant.
	ReadString(v *ole.VARIANT) string
	// Object returns the object a VT_DISPATCH variant points to without
	// taking a reference. It returns nil for a null pointer.
	Object(v *ole.VARIANT) Dispatcher
	// ObjectVariant embeds d in a VT_DISPATCH variant without taking a
	// reference.
	ObjectVariant(d Dispatcher) (ole.VARIANT, error)
	// CreateArray allocates a zero-based rows x cols array of variants.
	CreateArray(rows, cols int32) (Array, error)
	// OpenArray gives access to the array a VT_ARRAY|VT_VARIANT variant
	// holds. The variant keeps ownership.
	OpenArray(v *ole.VARIANT) (Array, error)
	// Clear frees whatever v owns and resets it to VT_EMPTY.
	Clear(v *ole.VARIANT) error
}

// Array is a SAFEARRAY of variants.
type Array interface {
	// Dims returns the number of dimensions.
	Dims() int
	// Bounds returns the inclusive bounds of dimension dim, counted from 1.
	Bounds(dim int) (lower, upper int32, err error)
	// Get returns a copy of the element at (i, j); the caller clears it.
	Get(i, j int32) (ole.VARIANT, error)
	// Put stores a copy of v at (i, j).
	Put(i, j int32, v *ole.VARIANT) error
	// Variant hands the array over to a VT_ARRAY|VT_VARIANT variant.
	Variant() ole.VARIANT
	// Destroy frees the array and every element in it.
	Destroy() error
}
