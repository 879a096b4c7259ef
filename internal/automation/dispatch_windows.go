//go:build windows

package automation

import (
	"runtime"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
)

const (
	localeSystemDefault = 0x0800
	dispEException      = 0x80020009
)

type dispParams struct {
	rgvarg            uintptr
	rgdispidNamedArgs uintptr
	cArgs             uint32
	cNamedArgs        uint32
}

type excepInfo struct {
	wCode             uint16
	wReserved         uint16
	bstrSource        *uint16
	bstrDescription   *uint16
	bstrHelpFile      *uint16
	dwHelpContext     uint32
	pvReserved        uintptr
	pfnDeferredFillIn uintptr
	scode             uint32
}

func (e *excepInfo) description() string {
	if e.bstrDescription == nil {
		return ""
	}
	return ole.BstrToString(e.bstrDescription)
}

func (e *excepInfo) free() {
	for _, p := range []*uint16{e.bstrSource, e.bstrDescription, e.bstrHelpFile} {
		if p != nil {
			ole.SysFreeString((*int16)(unsafe.Pointer(p)))
		}
	}
}

// oleDispatcher shares its layout with ole.IDispatch, so a *oleDispatcher
// is the COM interface pointer itself.
type oleDispatcher ole.IDispatch

func (d *oleDispatcher) raw() *ole.IDispatch { return (*ole.IDispatch)(d) }

func (d *oleDispatcher) AddRef() int32 { return d.raw().AddRef() }

func (d *oleDispatcher) Release() int32 { return d.raw().Release() }

func (d *oleDispatcher) GetIDsOfNames(names []string) ([]int32, error) {
	return d.raw().GetIDsOfName(names)
}

func (d *oleDispatcher) Invoke(dispid int32, kind InvokeKind, args []ole.VARIANT, named []int32) (ole.VARIANT, error) {
	// DISPPARAMS lists arguments last to first.
	rev := make([]ole.VARIANT, len(args))
	for i := range args {
		rev[len(args)-1-i] = args[i]
	}

	var params dispParams
	if len(rev) > 0 {
		params.rgvarg = uintptr(unsafe.Pointer(&rev[0]))
		params.cArgs = uint32(len(rev))
	}
	if len(named) > 0 {
		params.rgdispidNamedArgs = uintptr(unsafe.Pointer(&named[0]))
		params.cNamedArgs = uint32(len(named))
	}

	var result ole.VARIANT
	var excep excepInfo
	hr, _, _ := syscall.SyscallN(
		d.raw().VTable().Invoke,
		uintptr(unsafe.Pointer(d)),
		uintptr(dispid),
		uintptr(unsafe.Pointer(ole.IID_NULL)),
		uintptr(localeSystemDefault),
		uintptr(kind),
		uintptr(unsafe.Pointer(&params)),
		uintptr(unsafe.Pointer(&result)),
		uintptr(unsafe.Pointer(&excep)),
		0,
	)
	runtime.KeepAlive(rev)
	runtime.KeepAlive(named)

	if hr == 0 {
		return result, nil
	}
	defer excep.free()
	if hr == dispEException {
		if desc := excep.description(); desc != "" {
			return result, ole.NewErrorWithDescription(hr, desc)
		}
	}
	return result, ole.NewError(hr)
}
