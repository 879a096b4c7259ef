// Package automationtest provides an in-memory automation runtime and
// scriptable remote objects for tests. Reference counts, live wire
// allocations and every invocation are observable.
package automationtest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"

	"github.com/negokaz/excel-com/internal/automation"
)

// DispidPropertyPut is the named argument a property put must carry.
const DispidPropertyPut int32 = -3

const vtVariantArray = ole.VT_ARRAY | ole.VT_VARIANT

// Runtime keeps wire allocations in maps so tests can observe leaks.
type Runtime struct {
	mu      sync.Mutex
	nextID  int64
	strings map[int64]string
	arrays  map[int64]*Array
	objects map[int64]automation.Dispatcher
	ids     map[automation.Dispatcher]int64

	FailAllocString bool
	FailCreateArray bool
	FailPutAt       int // fails the n-th Put when > 0
	puts            int
}

func NewRuntime() *Runtime {
	return &Runtime{
		strings: map[int64]string{},
		arrays:  map[int64]*Array{},
		objects: map[int64]automation.Dispatcher{},
		ids:     map[automation.Dispatcher]int64{},
	}
}

func (rt *Runtime) id() int64 {
	rt.nextID++
	return rt.nextID
}

// Live counts wire allocations that have not been freed.
func (rt *Runtime) Live() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.strings) + len(rt.arrays)
}

func (rt *Runtime) AllocString(s string) (ole.VARIANT, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.allocString(s)
}

func (rt *Runtime) allocString(s string) (ole.VARIANT, error) {
	if rt.FailAllocString {
		return ole.VARIANT{}, errors.New("out of memory")
	}
	id := rt.id()
	rt.strings[id] = s
	return ole.NewVariant(ole.VT_BSTR, id), nil
}

func (rt *Runtime) ReadString(v *ole.VARIANT) string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.strings[v.Val]
}

func (rt *Runtime) Object(v *ole.VARIANT) automation.Dispatcher {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.objects[v.Val]
}

func (rt *Runtime) ObjectVariant(d automation.Dispatcher) (ole.VARIANT, error) {
	if _, ok := d.(*Object); !ok {
		return ole.VARIANT{}, automation.ErrForeignObject
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return ole.NewVariant(ole.VT_DISPATCH, rt.register(d)), nil
}

func (rt *Runtime) register(d automation.Dispatcher) int64 {
	if id, ok := rt.ids[d]; ok {
		return id
	}
	id := rt.id()
	rt.ids[d] = id
	rt.objects[id] = d
	return id
}

func (rt *Runtime) CreateArray(rows, cols int32) (automation.Array, error) {
	if rt.FailCreateArray {
		return nil, errors.New("out of memory")
	}
	return rt.NewArray(2, [2]int32{0, 0}, [2]int32{rows, cols}), nil
}

// NewArray allocates an array with the given dimension count, lower bounds
// and sizes. Servers hand out arrays with lower bounds of one.
func (rt *Runtime) NewArray(dims int, lower, size [2]int32) *Array {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	a := &Array{rt: rt, id: rt.id(), dims: dims, lower: lower, size: size}
	a.Cells = make([][]ole.VARIANT, size[0])
	for i := range a.Cells {
		a.Cells[i] = make([]ole.VARIANT, size[1])
	}
	rt.arrays[a.id] = a
	return a
}

func (rt *Runtime) OpenArray(v *ole.VARIANT) (automation.Array, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	a, ok := rt.arrays[v.Val]
	if !ok {
		return nil, fmt.Errorf("no array %d", v.Val)
	}
	return a, nil
}

func (rt *Runtime) Clear(v *ole.VARIANT) error {
	switch v.VT {
	case ole.VT_BSTR:
		rt.mu.Lock()
		_, ok := rt.strings[v.Val]
		delete(rt.strings, v.Val)
		rt.mu.Unlock()
		if !ok {
			return fmt.Errorf("string %d freed twice", v.Val)
		}
	case ole.VT_DISPATCH:
		if d := rt.Object(v); d != nil {
			d.Release()
		}
	case vtVariantArray:
		rt.mu.Lock()
		a, ok := rt.arrays[v.Val]
		rt.mu.Unlock()
		if !ok {
			return fmt.Errorf("array %d freed twice", v.Val)
		}
		if err := a.Destroy(); err != nil {
			return err
		}
	}
	*v = ole.NewVariant(ole.VT_EMPTY, 0)
	return nil
}

// copy duplicates v the way VariantCopy does.
func (rt *Runtime) copy(v *ole.VARIANT) (ole.VARIANT, error) {
	switch v.VT {
	case ole.VT_BSTR:
		rt.mu.Lock()
		defer rt.mu.Unlock()
		return rt.allocString(rt.strings[v.Val])
	case ole.VT_DISPATCH:
		if d := rt.Object(v); d != nil {
			d.AddRef()
		}
	case vtVariantArray:
		return ole.VARIANT{}, errors.New("nested arrays are not supported")
	}
	return *v, nil
}

// Array is a SAFEARRAY stand-in. Cells is indexed from zero regardless of
// the bounds the array reports.
type Array struct {
	rt    *Runtime
	id    int64
	dims  int
	lower [2]int32
	size  [2]int32
	Cells [][]ole.VARIANT
}

func (a *Array) Dims() int { return a.dims }

func (a *Array) Bounds(dim int) (int32, int32, error) {
	if dim < 1 || dim > a.dims {
		return 0, 0, fmt.Errorf("bad dimension %d", dim)
	}
	return a.lower[dim-1], a.lower[dim-1] + a.size[dim-1] - 1, nil
}

func (a *Array) index(i, j int32) (int32, int32, error) {
	r, c := i-a.lower[0], j-a.lower[1]
	if r < 0 || r >= a.size[0] || c < 0 || c >= a.size[1] {
		return 0, 0, fmt.Errorf("index (%d, %d) out of bounds", i, j)
	}
	return r, c, nil
}

func (a *Array) Get(i, j int32) (ole.VARIANT, error) {
	r, c, err := a.index(i, j)
	if err != nil {
		return ole.VARIANT{}, err
	}
	return a.rt.copy(&a.Cells[r][c])
}

func (a *Array) Put(i, j int32, v *ole.VARIANT) error {
	a.rt.mu.Lock()
	a.rt.puts++
	fail := a.rt.FailPutAt > 0 && a.rt.puts == a.rt.FailPutAt
	a.rt.mu.Unlock()
	if fail {
		return errors.New("put rejected")
	}
	r, c, err := a.index(i, j)
	if err != nil {
		return err
	}
	cp, err := a.rt.copy(v)
	if err != nil {
		return err
	}
	if err := a.rt.Clear(&a.Cells[r][c]); err != nil {
		return err
	}
	a.Cells[r][c] = cp
	return nil
}

func (a *Array) Variant() ole.VARIANT { return ole.NewVariant(vtVariantArray, a.id) }

func (a *Array) Destroy() error {
	for r := range a.Cells {
		for c := range a.Cells[r] {
			if err := a.rt.Clear(&a.Cells[r][c]); err != nil {
				return err
			}
		}
	}
	a.rt.mu.Lock()
	delete(a.rt.arrays, a.id)
	a.rt.mu.Unlock()
	return nil
}

// Call records one Invoke on an Object.
type Call struct {
	Member string
	Kind   automation.InvokeKind
	Args   []automation.Value
	Named  []int32
}

// Func computes the result of a getter or method from its arguments.
type Func func(args []automation.Value) (automation.Value, error)

// Object is a scriptable remote object. Properties set through Prop are
// readable and writable; Getter and Method install computed members.
type Object struct {
	rt   *Runtime
	m    *automation.Marshaller
	name string

	mu      sync.Mutex
	refs    int32
	dispids map[string]int32
	names   map[int32]string
	props   map[string]automation.Value
	getters map[string]Func
	methods map[string]Func
	calls   []Call
}

// NewObject returns an object holding one reference, owned by the caller.
func NewObject(rt *Runtime, name string) *Object {
	return &Object{
		rt:      rt,
		m:       automation.NewMarshaller(rt, zerolog.Nop()),
		name:    name,
		refs:    1,
		dispids: map[string]int32{},
		names:   map[int32]string{},
		props:   map[string]automation.Value{},
		getters: map[string]Func{},
		methods: map[string]Func{},
	}
}

func (o *Object) String() string { return o.name }

func (o *Object) member(name string) {
	if _, ok := o.dispids[name]; ok {
		return
	}
	id := int32(len(o.dispids) + 1)
	o.dispids[name] = id
	o.names[id] = name
}

func (o *Object) Prop(name string, v automation.Value) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.member(name)
	o.props[name] = v
	return o
}

func (o *Object) Getter(name string, fn Func) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.member(name)
	o.getters[name] = fn
	return o
}

func (o *Object) Method(name string, fn Func) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.member(name)
	o.methods[name] = fn
	return o
}

// Refs returns the current reference count.
func (o *Object) Refs() int32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refs
}

// Calls returns a copy of the invocations recorded so far.
func (o *Object) Calls() []Call {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Call(nil), o.calls...)
}

// Value returns the current value of a property.
func (o *Object) Value(name string) automation.Value {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.props[name]
}

func (o *Object) AddRef() int32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refs++
	return o.refs
}

func (o *Object) Release() int32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refs--
	return o.refs
}

func (o *Object) GetIDsOfNames(names []string) ([]int32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]int32, len(names))
	for i, n := range names {
		id, ok := o.dispids[n]
		if !ok {
			return nil, fmt.Errorf("%s has no member %q", o.name, n)
		}
		ids[i] = id
	}
	return ids, nil
}

func (o *Object) Invoke(dispid int32, kind automation.InvokeKind, args []ole.VARIANT, named []int32) (ole.VARIANT, error) {
	decoded := make([]automation.Value, len(args))
	for i := range args {
		decoded[i] = o.peek(&args[i])
	}

	o.mu.Lock()
	name, ok := o.names[dispid]
	if !ok {
		o.mu.Unlock()
		return ole.VARIANT{}, fmt.Errorf("unknown dispid %d", dispid)
	}
	o.calls = append(o.calls, Call{Member: name, Kind: kind, Args: decoded, Named: append([]int32(nil), named...)})
	getter, method := o.getters[name], o.methods[name]
	prop := o.props[name]
	o.mu.Unlock()

	var result automation.Value
	var err error
	switch kind {
	case automation.InvokePropertyGet:
		if getter != nil {
			result, err = getter(decoded)
		} else {
			result = prop
		}
	case automation.InvokePropertyPut:
		if len(decoded) != 1 || len(named) != 1 || named[0] != DispidPropertyPut {
			return ole.VARIANT{}, errors.New("malformed property put")
		}
		o.mu.Lock()
		o.props[name] = decoded[0]
		o.mu.Unlock()
	case automation.InvokeMethod:
		if method == nil {
			return ole.VARIANT{}, fmt.Errorf("%s is not a method", name)
		}
		result, err = method(decoded)
	}
	if err != nil {
		return ole.VARIANT{}, err
	}
	return o.m.ToVariant(result)
}

// peek decodes a wire argument. Object arguments keep the reference taken
// while decoding, as a server storing them would.
func (o *Object) peek(v *ole.VARIANT) automation.Value {
	switch v.VT {
	case vtVariantArray:
		arr, err := o.rt.OpenArray(v)
		if err != nil {
			return automation.Empty()
		}
		a := arr.(*Array)
		rows := make([][]automation.Value, len(a.Cells))
		for i := range a.Cells {
			rows[i] = make([]automation.Value, len(a.Cells[i]))
			for j := range a.Cells[i] {
				rows[i][j] = o.peek(&a.Cells[i][j])
			}
		}
		return automation.Matrix(rows)
	}
	val, err := o.m.FromVariant(v)
	if err != nil {
		return automation.Empty()
	}
	return val
}

// Session returns a session rooted at root. The session takes one new
// reference on root, so Close leaves the caller's own reference alone.
func Session(rt *Runtime, root *Object, opts ...automation.Option) *automation.Session {
	root.AddRef()
	return automation.NewSession(rt, root, nil, opts...)
}
