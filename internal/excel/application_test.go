package excel

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/negokaz/excel-com/internal/automation"
	"github.com/negokaz/excel-com/internal/automation/automationtest"
)

// fakeExcel is a minimal server object graph:
// Application -> Workbooks -> Workbook -> ActiveSheet -> Range.
type fakeExcel struct {
	rt    *automationtest.Runtime
	m     *automation.Marshaller
	app   *automationtest.Object
	books *automationtest.Object
	book  *automationtest.Object
	sheet *automationtest.Object
	rng   *automationtest.Object

	saveErr error
}

func newFakeExcel(t *testing.T) *fakeExcel {
	t.Helper()
	f := &fakeExcel{rt: automationtest.NewRuntime()}
	f.m = automation.NewMarshaller(f.rt, zerolog.Nop())
	noop := func(args []automation.Value) (automation.Value, error) { return automation.Empty(), nil }

	f.rng = automationtest.NewObject(f.rt, "range").Prop("Value", automation.Empty())
	rngRef := f.m.Wrap(f.rng)

	f.sheet = automationtest.NewObject(f.rt, "sheet").
		Prop("Name", automation.Text("Sheet1")).
		Getter("Range", func(args []automation.Value) (automation.Value, error) {
			return automation.Object(rngRef), nil
		})
	sheetRef := f.m.Wrap(f.sheet)

	f.book = automationtest.NewObject(f.rt, "book").
		Prop("ActiveSheet", automation.Object(sheetRef)).
		Method("Save", noop).
		Method("SaveAs", func(args []automation.Value) (automation.Value, error) {
			return automation.Empty(), f.saveErr
		}).
		Method("Close", noop)
	bookRef := f.m.Wrap(f.book)

	f.books = automationtest.NewObject(f.rt, "books").
		Method("Add", func(args []automation.Value) (automation.Value, error) {
			return automation.Object(bookRef), nil
		}).
		Method("Open", func(args []automation.Value) (automation.Value, error) {
			return automation.Object(bookRef), nil
		})
	booksRef := f.m.Wrap(f.books)

	f.app = automationtest.NewObject(f.rt, "app").
		Prop("Visible", automation.Empty()).
		Prop("DisplayAlerts", automation.Empty()).
		Prop("Workbooks", automation.Object(booksRef)).
		Method("Quit", noop)

	t.Cleanup(func() {
		rngRef.Release()
		sheetRef.Release()
		bookRef.Release()
		booksRef.Release()
	})
	return f
}

func (f *fakeExcel) application() *Application {
	return NewApplication(f.m.Wrap(f.app))
}

// lastCall returns the most recent invocation of member on o.
func lastCall(t *testing.T, o *automationtest.Object, member string) automationtest.Call {
	t.Helper()
	calls := o.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Member == member {
			return calls[i]
		}
	}
	t.Fatalf("%s was never invoked on %s", member, o)
	return automationtest.Call{}
}

func TestApplicationProperties(t *testing.T) {
	f := newFakeExcel(t)
	app := f.application()
	defer app.Release()

	tests := []struct {
		name   string
		apply  func() error
		member string
		want   automation.Value
	}{
		{name: "visible", apply: func() error { return app.SetVisible(true) }, member: "Visible", want: automation.Int(1)},
		{name: "hidden", apply: func() error { return app.SetVisible(false) }, member: "Visible", want: automation.Int(0)},
		{name: "alerts off", apply: func() error { return app.SetDisplayAlerts(false) }, member: "DisplayAlerts", want: automation.Bool(false)},
		{name: "alerts on", apply: func() error { return app.SetDisplayAlerts(true) }, member: "DisplayAlerts", want: automation.Bool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.apply(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := f.app.Value(tt.member); !got.Equal(tt.want) {
				t.Errorf("%s = %v (%s), want %v (%s)", tt.member, got, got.Kind(), tt.want, tt.want.Kind())
			}
			if call := lastCall(t, f.app, tt.member); call.Kind != automation.InvokePropertyPut {
				t.Errorf("%s invoked as %s, want %s", tt.member, call.Kind, automation.InvokePropertyPut)
			}
		})
	}
}

func TestSampleScenario(t *testing.T) {
	f := newFakeExcel(t)
	bookRefs, sheetRefs, rngRefs := f.book.Refs(), f.sheet.Refs(), f.rng.Refs()

	app := f.application()
	if err := app.SetVisible(true); err != nil {
		t.Fatalf("SetVisible() unexpected error: %v", err)
	}
	if err := app.SetDisplayAlerts(false); err != nil {
		t.Fatalf("SetDisplayAlerts() unexpected error: %v", err)
	}

	book, err := app.AddWorkbook()
	if err != nil {
		t.Fatalf("AddWorkbook() unexpected error: %v", err)
	}
	sheet, err := book.ActiveSheet()
	if err != nil {
		t.Fatalf("ActiveSheet() unexpected error: %v", err)
	}
	if err := sheet.SetName("売上データ2025"); err != nil {
		t.Fatalf("SetName() unexpected error: %v", err)
	}
	if name, err := sheet.Name(); err != nil || name != "売上データ2025" {
		t.Errorf("Name() = %q, %v", name, err)
	}

	rng, err := sheet.Range("A1:B2")
	if err != nil {
		t.Fatalf("Range() unexpected error: %v", err)
	}
	block := automation.Matrix([][]automation.Value{
		{automation.Double(1.55), automation.Double(2.333)},
		{automation.Double(3.14), automation.Int(4)},
	})
	if err := rng.SetValue(block); err != nil {
		t.Fatalf("SetValue() unexpected error: %v", err)
	}
	if call := lastCall(t, f.sheet, "Range"); len(call.Args) != 1 || !call.Args[0].Equal(automation.Text("A1:B2")) {
		t.Errorf("Range called with %v, want [A1:B2]", call.Args)
	}
	got, err := rng.Value()
	if err != nil {
		t.Fatalf("Value() unexpected error: %v", err)
	}
	if want := "1.550000, 2.333000\n3.140000, 4"; got.String() != want {
		t.Errorf("Value() = %q, want %q", got.String(), want)
	}

	saved, err := book.SaveAs("test.xlsx")
	if err != nil {
		t.Fatalf("SaveAs() unexpected error: %v", err)
	}
	if err := book.Close(false); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if err := app.Quit(); err != nil {
		t.Fatalf("Quit() unexpected error: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	wantPath := filepath.Join(wd, "test.xlsx")
	if saved != wantPath {
		t.Errorf("SaveAs() = %q, want %q", saved, wantPath)
	}
	if call := lastCall(t, f.book, "SaveAs"); len(call.Args) != 1 || !call.Args[0].Equal(automation.Text(wantPath)) {
		t.Errorf("SaveAs called with %v, want [%s]", call.Args, wantPath)
	}
	if call := lastCall(t, f.book, "Close"); len(call.Args) != 1 || !call.Args[0].Equal(automation.Bool(false)) {
		t.Errorf("Close called with %v, want [false]", call.Args)
	}
	if call := lastCall(t, f.app, "Quit"); call.Kind != automation.InvokeMethod {
		t.Errorf("Quit invoked as %s, want %s", call.Kind, automation.InvokeMethod)
	}

	rng.Release()
	sheet.Release()
	book.Release()
	app.Release()
	if f.book.Refs() != bookRefs || f.sheet.Refs() != sheetRefs || f.rng.Refs() != rngRefs {
		t.Errorf("refs not restored: book %d/%d sheet %d/%d range %d/%d",
			f.book.Refs(), bookRefs, f.sheet.Refs(), sheetRefs, f.rng.Refs(), rngRefs)
	}
	if f.app.Refs() != 1 {
		t.Errorf("app refs = %d, want 1", f.app.Refs())
	}
	if n := f.rt.Live(); n != 0 {
		t.Errorf("%d wire allocations leaked", n)
	}
}

func TestSaveAsPath(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	abs := filepath.Join(t.TempDir(), "out.xlsx")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "relative file", path: "test.xlsx", want: filepath.Join(wd, "test.xlsx")},
		{name: "relative directory", path: filepath.Join("out", "..", "report.xlsx"), want: filepath.Join(wd, "report.xlsx")},
		{name: "absolute", path: abs, want: abs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeExcel(t)
			book := NewWorkbook(f.m.Wrap(f.book))
			defer book.Release()

			got, err := book.SaveAs(tt.path)
			if err != nil {
				t.Fatalf("SaveAs(%q) unexpected error: %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("SaveAs(%q) = %q, want %q", tt.path, got, tt.want)
			}
			if call := lastCall(t, f.book, "SaveAs"); !call.Args[0].Equal(automation.Text(tt.want)) {
				t.Errorf("server got %v, want %s", call.Args[0], tt.want)
			}
		})
	}
}

func TestSaveAsServerError(t *testing.T) {
	f := newFakeExcel(t)
	f.saveErr = errors.New("disk full")
	book := NewWorkbook(f.m.Wrap(f.book))
	defer book.Release()

	_, err := book.SaveAs("test.xlsx")
	if !automation.IsKind(err, automation.KindInvocation) {
		t.Errorf("SaveAs() error = %v, want %s", err, automation.KindInvocation)
	}
	if n := f.rt.Live(); n != 0 {
		t.Errorf("%d wire allocations leaked", n)
	}
}

func TestWriteAt(t *testing.T) {
	f := newFakeExcel(t)
	sheet := NewWorksheet(f.m.Wrap(f.sheet))
	defer sheet.Release()

	block := automation.Matrix([][]automation.Value{
		{automation.Text("a"), automation.Text("b"), automation.Text("c")},
		{automation.Int(1), automation.Int(2), automation.Int(3)},
	})
	ref, err := sheet.WriteAt("B2", block)
	if err != nil {
		t.Fatalf("WriteAt() unexpected error: %v", err)
	}
	if ref != "B2:D3" {
		t.Errorf("WriteAt() = %q, want B2:D3", ref)
	}
	if call := lastCall(t, f.sheet, "Range"); !call.Args[0].Equal(automation.Text("B2:D3")) {
		t.Errorf("Range called with %v, want B2:D3", call.Args[0])
	}
	if got := f.rng.Value("Value"); !got.Equal(block) {
		t.Errorf("range holds %v, want %v", got, block)
	}

	if _, err := sheet.WriteAt("A1", automation.Int(1)); err == nil {
		t.Errorf("WriteAt() with a scalar expected error")
	}
	if _, err := sheet.WriteAt("A1", automation.Matrix(nil)); err == nil {
		t.Errorf("WriteAt() with an empty matrix expected error")
	}
}

func TestNullFacadeIsSafe(t *testing.T) {
	app := NewApplication(nil)
	book, err := app.AddWorkbook()
	if err != nil {
		t.Fatalf("AddWorkbook() unexpected error: %v", err)
	}
	sheet, err := book.ActiveSheet()
	if err != nil {
		t.Fatalf("ActiveSheet() unexpected error: %v", err)
	}
	rng, err := sheet.Range("A1")
	if err != nil {
		t.Fatalf("Range() unexpected error: %v", err)
	}

	steps := map[string]error{
		"SetVisible":       app.SetVisible(true),
		"SetDisplayAlerts": app.SetDisplayAlerts(false),
		"Save":             book.Save(),
		"Close":            book.Close(true),
		"SetName":          sheet.SetName("x"),
		"SetValue":         rng.SetValue(automation.Int(1)),
		"Quit":             app.Quit(),
	}
	for name, err := range steps {
		if err != nil {
			t.Errorf("%s() on a null object = %v", name, err)
		}
	}
	if v, err := rng.Value(); err != nil || !v.IsEmpty() {
		t.Errorf("Value() on a null range = %v, %v", v, err)
	}
	if name, err := sheet.Name(); err != nil || name != "" {
		t.Errorf("Name() on a null sheet = %q, %v", name, err)
	}
	rng.Release()
	sheet.Release()
	book.Release()
	app.Release()
}

func TestApplicationRun(t *testing.T) {
	rt := automationtest.NewRuntime()
	m := automation.NewMarshaller(rt, zerolog.Nop())
	obj := automationtest.NewObject(rt, "app").
		Method("Run", func(args []automation.Value) (automation.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.String()
			}
			return automation.Text(strings.Join(parts, "|")), nil
		})
	app := NewApplication(m.Wrap(obj))
	defer app.Release()

	got, err := app.Run("Book1!Total", automation.Text("x"), automation.Int(2))
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if want := automation.Text("Book1!Total|x|2"); !got.Equal(want) {
		t.Errorf("Run() = %v, want %v", got, want)
	}
	if call := lastCall(t, obj, "Run"); call.Kind != automation.InvokeMethod || len(call.Args) != 3 {
		t.Errorf("Run invoked as %s with %d args", call.Kind, len(call.Args))
	}
	if n := rt.Live(); n != 0 {
		t.Errorf("%d wire allocations leaked", n)
	}
}

func TestOpenWorkbook(t *testing.T) {
	f := newFakeExcel(t)
	bookRefs := f.book.Refs()
	app := f.application()
	defer app.Release()

	book, err := app.OpenWorkbook("report.xlsx")
	if err != nil {
		t.Fatalf("OpenWorkbook() unexpected error: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if call := lastCall(t, f.books, "Open"); !call.Args[0].Equal(automation.Text(filepath.Join(wd, "report.xlsx"))) {
		t.Errorf("Open called with %v", call.Args[0])
	}
	if f.book.Refs() != bookRefs+1 {
		t.Errorf("book refs = %d, want %d", f.book.Refs(), bookRefs+1)
	}
	book.Release()
	if f.book.Refs() != bookRefs {
		t.Errorf("book refs = %d after Release, want %d", f.book.Refs(), bookRefs)
	}
}

func TestWorksheetName(t *testing.T) {
	tests := []struct {
		name    string
		value   automation.Value
		want    string
		wantErr bool
	}{
		{name: "text", value: automation.Text("売上データ2025"), want: "売上データ2025"},
		{name: "empty", value: automation.Empty(), want: ""},
		{name: "number", value: automation.Int(5), wantErr: true},
		{name: "bool", value: automation.Bool(true), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := automationtest.NewRuntime()
			m := automation.NewMarshaller(rt, zerolog.Nop())
			obj := automationtest.NewObject(rt, "sheet").Prop("Name", tt.value)
			sheet := NewWorksheet(m.Wrap(obj))
			defer sheet.Release()

			got, err := sheet.Name()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Name() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}
