package automation_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/negokaz/excel-com/internal/automation"
	"github.com/negokaz/excel-com/internal/automation/automationtest"
)

func TestNullHandleIsSafe(t *testing.T) {
	rt := automationtest.NewRuntime()
	m := automation.NewMarshaller(rt, zerolog.Nop())
	released := m.Wrap(automationtest.NewObject(rt, "gone"))
	released.Release()

	handles := map[string]*automation.Handle{
		"nil":      nil,
		"zero":     {},
		"released": released,
	}
	for name, h := range handles {
		t.Run(name, func(t *testing.T) {
			if !h.IsNull() {
				t.Fatalf("IsNull() = false")
			}
			if got, err := h.GetDispatch("Workbooks"); err != nil || got != nil {
				t.Errorf("GetDispatch() = %v, %v", got, err)
			}
			if got, err := h.GetDispatch("Range", automation.Text("A1")); err != nil || got != nil {
				t.Errorf("GetDispatch(arg) = %v, %v", got, err)
			}
			if got, err := h.GetValue("Value"); err != nil || !got.IsEmpty() {
				t.Errorf("GetValue() = %v, %v", got, err)
			}
			if err := h.PutValue("Value", automation.Int(1)); err != nil {
				t.Errorf("PutValue() = %v", err)
			}
			if got, err := h.Call("Quit"); err != nil || got != nil {
				t.Errorf("Call() = %v, %v", got, err)
			}
			if got, err := h.CallValue("Quit"); err != nil || !got.IsEmpty() {
				t.Errorf("CallValue() = %v, %v", got, err)
			}
			if got := h.Clone(); got != nil {
				t.Errorf("Clone() = %v", got)
			}
			h.Release()
			if got := h.String(); got != "[automation.Handle 0x0]" {
				t.Errorf("String() = %q", got)
			}
		})
	}
}

func TestHandleReferenceCounting(t *testing.T) {
	rt := automationtest.NewRuntime()
	m := automation.NewMarshaller(rt, zerolog.Nop())
	obj := automationtest.NewObject(rt, "app")

	h := m.Wrap(obj)
	base := obj.Refs()

	c1 := h.Clone()
	c2 := c1.Clone()
	if obj.Refs() != base+2 {
		t.Fatalf("refs = %d after two clones, want %d", obj.Refs(), base+2)
	}
	if c1.Raw() != h.Raw() {
		t.Errorf("clone points to a different object")
	}

	c1.Release()
	c1.Release()
	if obj.Refs() != base+1 {
		t.Errorf("refs = %d after double release of one clone, want %d", obj.Refs(), base+1)
	}
	c2.Release()
	if obj.Refs() != base {
		t.Errorf("refs = %d after releasing all clones, want %d", obj.Refs(), base)
	}
	h.Release()
	if obj.Refs() != 1 {
		t.Errorf("refs = %d after releasing the original, want 1", obj.Refs())
	}
}

func TestGetDispatch(t *testing.T) {
	rt := automationtest.NewRuntime()
	m := automation.NewMarshaller(rt, zerolog.Nop())
	books := automationtest.NewObject(rt, "books")
	booksRef := m.Wrap(books)
	defer booksRef.Release()

	app := automationtest.NewObject(rt, "app").
		Prop("Workbooks", automation.Object(booksRef)).
		Prop("Version", automation.Text("16.0"))
	h := m.Wrap(app)
	defer h.Release()

	before := books.Refs()
	got, err := h.GetDispatch("Workbooks")
	if err != nil {
		t.Fatalf("GetDispatch() unexpected error: %v", err)
	}
	if got.Raw() != automation.Dispatcher(books) {
		t.Fatalf("GetDispatch() = %v, want the books object", got)
	}
	if books.Refs() != before+1 {
		t.Errorf("refs = %d, want %d", books.Refs(), before+1)
	}
	got.Release()
	if books.Refs() != before {
		t.Errorf("refs = %d after release, want %d", books.Refs(), before)
	}

	scalar, err := h.GetDispatch("Version")
	if err != nil {
		t.Fatalf("GetDispatch(Version) unexpected error: %v", err)
	}
	if scalar != nil {
		t.Errorf("GetDispatch(Version) = %v, want null handle", scalar)
	}
	if n := rt.Live(); n != 0 {
		t.Errorf("%d wire allocations leaked", n)
	}
}

func TestGetDispatchWithArgument(t *testing.T) {
	rt := automationtest.NewRuntime()
	m := automation.NewMarshaller(rt, zerolog.Nop())
	rng := automationtest.NewObject(rt, "range")
	rngRef := m.Wrap(rng)
	defer rngRef.Release()

	sheet := automationtest.NewObject(rt, "sheet").Getter("Range", func(args []automation.Value) (automation.Value, error) {
		if len(args) != 1 || !args[0].Equal(automation.Text("A1:B2")) {
			return automation.Value{}, errors.New("bad range argument")
		}
		return automation.Object(rngRef), nil
	})
	h := m.Wrap(sheet)
	defer h.Release()

	got, err := h.GetDispatch("Range", automation.Text("A1:B2"))
	if err != nil {
		t.Fatalf("GetDispatch() unexpected error: %v", err)
	}
	defer got.Release()
	if got.Raw() != automation.Dispatcher(rng) {
		t.Errorf("GetDispatch() = %v, want the range object", got)
	}
	if n := rt.Live(); n != 0 {
		t.Errorf("%d wire allocations leaked", n)
	}
}

func TestPutValue(t *testing.T) {
	rt := automationtest.NewRuntime()
	m := automation.NewMarshaller(rt, zerolog.Nop())
	obj := automationtest.NewObject(rt, "range").Prop("Value", automation.Empty())
	h := m.Wrap(obj)
	defer h.Release()

	block := automation.Matrix([][]automation.Value{{automation.Double(1.55), automation.Text("x")}, {automation.Bool(true), automation.Int(4)}})
	if err := h.PutValue("Value", block); err != nil {
		t.Fatalf("PutValue() unexpected error: %v", err)
	}

	if len(obj.Calls()) != 1 {
		t.Fatalf("calls = %d, want 1", len(obj.Calls()))
	}
	call := obj.Calls()[0]
	if call.Kind != automation.InvokePropertyPut {
		t.Errorf("kind = %s, want %s", call.Kind, automation.InvokePropertyPut)
	}
	if len(call.Named) != 1 || call.Named[0] != automationtest.DispidPropertyPut {
		t.Errorf("named = %v, want [%d]", call.Named, automationtest.DispidPropertyPut)
	}
	if !obj.Value("Value").Equal(block) {
		t.Errorf("stored %v, want %v", obj.Value("Value"), block)
	}
	if n := rt.Live(); n != 0 {
		t.Errorf("%d wire allocations leaked", n)
	}

	got, err := h.GetValue("Value")
	if err != nil {
		t.Fatalf("GetValue() unexpected error: %v", err)
	}
	if !got.Equal(block) {
		t.Errorf("GetValue() = %v, want %v", got, block)
	}
}

func TestCall(t *testing.T) {
	rt := automationtest.NewRuntime()
	m := automation.NewMarshaller(rt, zerolog.Nop())
	book := automationtest.NewObject(rt, "book")
	bookRef := m.Wrap(book)
	defer bookRef.Release()

	books := automationtest.NewObject(rt, "books").
		Method("Add", func(args []automation.Value) (automation.Value, error) { return automation.Object(bookRef), nil }).
		Method("Quit", func(args []automation.Value) (automation.Value, error) { return automation.Empty(), nil }).
		Method("Count", func(args []automation.Value) (automation.Value, error) { return automation.Int(int32(len(args))), nil })
	h := m.Wrap(books)
	defer h.Release()

	got, err := h.Call("Add")
	if err != nil {
		t.Fatalf("Call(Add) unexpected error: %v", err)
	}
	if got.Raw() != automation.Dispatcher(book) {
		t.Errorf("Call(Add) = %v, want the book object", got)
	}
	got.Release()

	quit, err := h.Call("Quit")
	if err != nil || quit != nil {
		t.Errorf("Call(Quit) = %v, %v, want null handle", quit, err)
	}

	n, err := h.CallValue("Count", automation.Text("a"), automation.Text("b"))
	if err != nil {
		t.Fatalf("CallValue() unexpected error: %v", err)
	}
	if !n.Equal(automation.Int(2)) {
		t.Errorf("CallValue() = %v, want 2", n)
	}
	if live := rt.Live(); live != 0 {
		t.Errorf("%d wire allocations leaked", live)
	}
	if book.Refs() != 2 {
		t.Errorf("book refs = %d, want 2", book.Refs())
	}
}

func TestHandleErrors(t *testing.T) {
	rt := automationtest.NewRuntime()
	m := automation.NewMarshaller(rt, zerolog.Nop())
	obj := automationtest.NewObject(rt, "app").
		Method("Save", func(args []automation.Value) (automation.Value, error) { return automation.Value{}, errors.New("server busy") }).
		Prop("When", automation.Empty())
	h := m.Wrap(obj)
	defer h.Release()

	_, err := h.Call("NoSuchMember")
	if !automation.IsKind(err, automation.KindMemberResolution) {
		t.Errorf("Call(NoSuchMember) error = %v, want %s", err, automation.KindMemberResolution)
	}
	var ae *automation.Error
	if !errors.As(err, &ae) || ae.Member != "NoSuchMember" {
		t.Errorf("error member = %v, want NoSuchMember", err)
	}

	if _, err := h.Call("Save", automation.Text("leak?")); !automation.IsKind(err, automation.KindInvocation) {
		t.Errorf("Call(Save) error = %v, want %s", err, automation.KindInvocation)
	}
	if n := rt.Live(); n != 0 {
		t.Errorf("%d wire allocations leaked after a failed call", n)
	}

	rt.FailAllocString = true
	if err := h.PutValue("When", automation.Text("now")); !automation.IsKind(err, automation.KindWireAllocation) {
		t.Errorf("PutValue() error = %v, want %s", err, automation.KindWireAllocation)
	}
	if len(obj.Calls()) != 1 {
		t.Errorf("calls = %d, want only the failed Save to reach the object", len(obj.Calls()))
	}
}
