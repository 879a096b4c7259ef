//go:build windows

package automation

import (
	"fmt"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

var (
	modoleaut32 = windows.NewLazySystemDLL("oleaut32.dll")

	procSafeArrayCreate     = modoleaut32.NewProc("SafeArrayCreate")
	procSafeArrayDestroy    = modoleaut32.NewProc("SafeArrayDestroy")
	procSafeArrayGetDim     = modoleaut32.NewProc("SafeArrayGetDim")
	procSafeArrayGetLBound  = modoleaut32.NewProc("SafeArrayGetLBound")
	procSafeArrayGetUBound  = modoleaut32.NewProc("SafeArrayGetUBound")
	procSafeArrayGetElement = modoleaut32.NewProc("SafeArrayGetElement")
	procSafeArrayPutElement = modoleaut32.NewProc("SafeArrayPutElement")
)

// oleRuntime backs wire values with oleaut32 allocations.
type oleRuntime struct{}

func (oleRuntime) AllocString(s string) (ole.VARIANT, error) {
	p := ole.SysAllocStringLen(s)
	if p == nil {
		return ole.VARIANT{}, fmt.Errorf("SysAllocStringLen failed for %d bytes", len(s))
	}
	return ole.NewVariant(ole.VT_BSTR, int64(uintptr(unsafe.Pointer(p)))), nil
}

func (oleRuntime) ReadString(v *ole.VARIANT) string {
	return v.ToString()
}

func (oleRuntime) Object(v *ole.VARIANT) Dispatcher {
	d := v.ToIDispatch()
	if d == nil {
		return nil
	}
	return (*oleDispatcher)(d)
}

func (oleRuntime) ObjectVariant(d Dispatcher) (ole.VARIANT, error) {
	od, ok := d.(*oleDispatcher)
	if !ok {
		return ole.VARIANT{}, fmt.Errorf("%w: %T", ErrForeignObject, d)
	}
	return ole.NewVariant(ole.VT_DISPATCH, int64(uintptr(unsafe.Pointer(od)))), nil
}

func (oleRuntime) CreateArray(rows, cols int32) (Array, error) {
	bounds := [2]ole.SafeArrayBound{
		{Elements: uint32(rows), LowerBound: 0},
		{Elements: uint32(cols), LowerBound: 0},
	}
	sa, _, _ := procSafeArrayCreate.Call(
		uintptr(ole.VT_VARIANT),
		2,
		uintptr(unsafe.Pointer(&bounds[0])),
	)
	if sa == 0 {
		return nil, fmt.Errorf("SafeArrayCreate failed for %dx%d", rows, cols)
	}
	return &oleArray{sa: sa}, nil
}

func (oleRuntime) OpenArray(v *ole.VARIANT) (Array, error) {
	if v.VT != vtVariantArray {
		return nil, fmt.Errorf("variant of type %s is not an array of variants", v.VT)
	}
	if v.Val == 0 {
		return nil, fmt.Errorf("null SAFEARRAY pointer")
	}
	return &oleArray{sa: uintptr(v.Val)}, nil
}

func (oleRuntime) Clear(v *ole.VARIANT) error {
	return ole.VariantClear(v)
}

type oleArray struct {
	sa uintptr
}

func (a *oleArray) Dims() int {
	n, _, _ := procSafeArrayGetDim.Call(a.sa)
	return int(n)
}

func (a *oleArray) Bounds(dim int) (int32, int32, error) {
	var lower, upper int32
	if hr, _, _ := procSafeArrayGetLBound.Call(a.sa, uintptr(dim), uintptr(unsafe.Pointer(&lower))); hr != 0 {
		return 0, 0, ole.NewError(hr)
	}
	if hr, _, _ := procSafeArrayGetUBound.Call(a.sa, uintptr(dim), uintptr(unsafe.Pointer(&upper))); hr != 0 {
		return 0, 0, ole.NewError(hr)
	}
	return lower, upper, nil
}

func (a *oleArray) Get(i, j int32) (ole.VARIANT, error) {
	idx := [2]int32{i, j}
	var out ole.VARIANT
	hr, _, _ := procSafeArrayGetElement.Call(
		a.sa,
		uintptr(unsafe.Pointer(&idx[0])),
		uintptr(unsafe.Pointer(&out)),
	)
	if hr != 0 {
		return ole.VARIANT{}, ole.NewError(hr)
	}
	return out, nil
}

func (a *oleArray) Put(i, j int32, v *ole.VARIANT) error {
	idx := [2]int32{i, j}
	hr, _, _ := procSafeArrayPutElement.Call(
		a.sa,
		uintptr(unsafe.Pointer(&idx[0])),
		uintptr(unsafe.Pointer(v)),
	)
	if hr != 0 {
		return ole.NewError(hr)
	}
	return nil
}

func (a *oleArray) Variant() ole.VARIANT {
	return ole.NewVariant(vtVariantArray, int64(a.sa))
}

func (a *oleArray) Destroy() error {
	if hr, _, _ := procSafeArrayDestroy.Call(a.sa); hr != 0 {
		return ole.NewError(hr)
	}
	return nil
}
