package automation

import (
	"errors"
	"fmt"

	"github.com/go-ole/go-ole"
)

// Handle owns one reference to a remote object. A nil *Handle, or one that
// has been released, is the null handle: every operation on it is a no-op
// returning a null handle or an Empty value.
//
// Handles are affine to the thread that created the session; callers that
// share one across goroutines go through an Apartment.
type Handle struct {
	disp Dispatcher
	m    *Marshaller
}

// IsNull reports whether h points to no object.
func (h *Handle) IsNull() bool { return h == nil || h.disp == nil }

// Raw returns the underlying dispatcher without taking a reference.
func (h *Handle) Raw() Dispatcher {
	if h == nil {
		return nil
	}
	return h.disp
}

func (h *Handle) String() string {
	if h.IsNull() {
		return "[automation.Handle 0x0]"
	}
	return fmt.Sprintf("[automation.Handle %p]", h.disp)
}

// Clone returns a second handle to the same object, taking one more
// reference.
func (h *Handle) Clone() *Handle {
	if h.IsNull() {
		return nil
	}
	return h.m.Wrap(h.disp)
}

// Release drops the reference held by h. Releasing twice, or releasing a
// null handle, does nothing.
func (h *Handle) Release() {
	if h.IsNull() {
		return
	}
	h.disp.Release()
	h.disp = nil
}

// GetDispatch reads an object-valued property, passing args positionally.
// It returns a null handle when the property holds anything but an object.
func (h *Handle) GetDispatch(name string, args ...Value) (*Handle, error) {
	if h.IsNull() {
		return nil, nil
	}
	result, err := h.invoke(name, InvokePropertyGet, args, nil)
	if err != nil {
		return nil, err
	}
	return h.takeObject(&result), nil
}

// GetValue reads a property and converts it to a Value.
func (h *Handle) GetValue(name string, args ...Value) (Value, error) {
	if h.IsNull() {
		return Empty(), nil
	}
	result, err := h.invoke(name, InvokePropertyGet, args, nil)
	if err != nil {
		return Value{}, err
	}
	defer h.m.clear(&result)

	v, err := h.m.FromVariant(&result)
	if err != nil {
		return Value{}, withMember(err, name)
	}
	return v, nil
}

// PutValue assigns v to a property.
func (h *Handle) PutValue(name string, v Value) error {
	if h.IsNull() {
		return nil
	}
	result, err := h.invoke(name, InvokePropertyPut, []Value{v}, []int32{dispidPropertyPut})
	if err != nil {
		return err
	}
	h.m.clear(&result)
	return nil
}

// Call invokes a method. Like GetDispatch it returns a handle only when the
// method returns an object.
func (h *Handle) Call(name string, args ...Value) (*Handle, error) {
	if h.IsNull() {
		return nil, nil
	}
	result, err := h.invoke(name, InvokeMethod, args, nil)
	if err != nil {
		return nil, err
	}
	return h.takeObject(&result), nil
}

// CallValue invokes a method and converts its result to a Value.
func (h *Handle) CallValue(name string, args ...Value) (Value, error) {
	if h.IsNull() {
		return Empty(), nil
	}
	result, err := h.invoke(name, InvokeMethod, args, nil)
	if err != nil {
		return Value{}, err
	}
	defer h.m.clear(&result)

	v, err := h.m.FromVariant(&result)
	if err != nil {
		return Value{}, withMember(err, name)
	}
	return v, nil
}

func (h *Handle) takeObject(result *ole.VARIANT) *Handle {
	defer h.m.clear(result)
	if result.VT != ole.VT_DISPATCH {
		return nil
	}
	return h.m.Wrap(h.m.rt.Object(result))
}

func (h *Handle) dispID(name string) (int32, error) {
	ids, err := h.disp.GetIDsOfNames([]string{name})
	if err == nil && len(ids) == 0 {
		err = fmt.Errorf("no dispatch id returned")
	}
	if err != nil {
		return 0, &Error{Op: "get_ids_of_names", Kind: KindMemberResolution, Member: name, Err: err}
	}
	return ids[0], nil
}

// invoke resolves name, marshals args, calls the object and returns the
// raw result. Marshalled arguments are released before it returns.
func (h *Handle) invoke(name string, kind InvokeKind, args []Value, named []int32) (ole.VARIANT, error) {
	id, err := h.dispID(name)
	if err != nil {
		return ole.VARIANT{}, err
	}

	wire := make([]ole.VARIANT, 0, len(args))
	defer func() {
		for i := range wire {
			h.m.clear(&wire[i])
		}
	}()
	for _, a := range args {
		v, err := h.m.ToVariant(a)
		if err != nil {
			return ole.VARIANT{}, withMember(err, name)
		}
		wire = append(wire, v)
	}

	h.m.log.Debug().
		Str("member", name).
		Int32("dispid", id).
		Stringer("kind", kind).
		Int("args", len(wire)).
		Msg("invoke")

	result, err := h.disp.Invoke(id, kind, wire, named)
	if err != nil {
		h.m.clear(&result)
		return ole.VARIANT{}, &Error{Op: "invoke_" + kind.String(), Kind: KindInvocation, Member: name, Err: err}
	}
	return result, nil
}

func withMember(err error, name string) error {
	var ae *Error
	if errors.As(err, &ae) && ae.Member == "" {
		ae.Member = name
	}
	return err
}
