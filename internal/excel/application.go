package excel

import (
	"fmt"
	"path/filepath"

	"github.com/negokaz/excel-com/internal/automation"
)

// Application is the spreadsheet server's top-level object.
type Application struct {
	h *automation.Handle
}

// NewApplication wraps h, taking over the reference it holds.
func NewApplication(h *automation.Handle) *Application {
	return &Application{h: h}
}

// Handle returns the underlying handle. It stays owned by a.
func (a *Application) Handle() *automation.Handle { return a.h }

// Release drops the application reference. The server keeps running until
// Quit or until its last reference goes away.
func (a *Application) Release() { a.h.Release() }

// SetVisible shows or hides the application window.
func (a *Application) SetVisible(visible bool) error {
	v := int32(0)
	if visible {
		v = 1
	}
	if err := a.h.PutValue("Visible", automation.Int(v)); err != nil {
		return fmt.Errorf("failed to set Visible: %w", err)
	}
	return nil
}

// SetDisplayAlerts turns the server's modal prompts on or off.
func (a *Application) SetDisplayAlerts(enabled bool) error {
	if err := a.h.PutValue("DisplayAlerts", automation.Bool(enabled)); err != nil {
		return fmt.Errorf("failed to set DisplayAlerts: %w", err)
	}
	return nil
}

// AddWorkbook creates a new workbook in the Workbooks collection.
func (a *Application) AddWorkbook() (*Workbook, error) {
	books, err := a.h.GetDispatch("Workbooks")
	if err != nil {
		return nil, fmt.Errorf("failed to get Workbooks: %w", err)
	}
	defer books.Release()

	book, err := books.Call("Add")
	if err != nil {
		return nil, fmt.Errorf("failed to add workbook: %w", err)
	}
	return &Workbook{h: book}, nil
}

// OpenWorkbook opens the file at path. Relative paths are resolved against
// the caller's working directory.
func (a *Application) OpenWorkbook(path string) (*Workbook, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	books, err := a.h.GetDispatch("Workbooks")
	if err != nil {
		return nil, fmt.Errorf("failed to get Workbooks: %w", err)
	}
	defer books.Release()

	book, err := books.Call("Open", automation.Text(abs))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", abs, err)
	}
	return &Workbook{h: book}, nil
}

// Quit asks the server to exit. Open workbooks with unsaved changes may
// prompt unless alerts are disabled.
func (a *Application) Quit() error {
	if err := call(a.h, "Quit"); err != nil {
		return fmt.Errorf("failed to quit: %w", err)
	}
	return nil
}

// Run calls the macro named macro with args and returns its result.
func (a *Application) Run(macro string, args ...automation.Value) (automation.Value, error) {
	all := make([]automation.Value, 0, len(args)+1)
	all = append(all, automation.Text(macro))
	all = append(all, args...)
	v, err := a.h.CallValue("Run", all...)
	if err != nil {
		return automation.Value{}, fmt.Errorf("failed to run macro %s: %w", macro, err)
	}
	return v, nil
}

type Workbook struct {
	h *automation.Handle
}

// NewWorkbook wraps h, taking over the reference it holds.
func NewWorkbook(h *automation.Handle) *Workbook { return &Workbook{h: h} }

func (b *Workbook) Handle() *automation.Handle { return b.h }

func (b *Workbook) Release() { b.h.Release() }

func (b *Workbook) ActiveSheet() (*Worksheet, error) {
	sheet, err := b.h.GetDispatch("ActiveSheet")
	if err != nil {
		return nil, fmt.Errorf("failed to get ActiveSheet: %w", err)
	}
	return &Worksheet{h: sheet}, nil
}

func (b *Workbook) Save() error {
	if err := call(b.h, "Save"); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// SaveAs saves the workbook to path. Relative paths are resolved against
// the caller's working directory; the server would resolve them against its
// own. It returns the absolute path it passed to the server.
func (b *Workbook) SaveAs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := call(b.h, "SaveAs", automation.Text(abs)); err != nil {
		return "", fmt.Errorf("failed to save workbook as %s: %w", abs, err)
	}
	return abs, nil
}

// Close closes the workbook, saving pending changes when saveChanges is set.
func (b *Workbook) Close(saveChanges bool) error {
	if err := call(b.h, "Close", automation.Bool(saveChanges)); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	return nil
}

type Worksheet struct {
	h *automation.Handle
}

// NewWorksheet wraps h, taking over the reference it holds.
func NewWorksheet(h *automation.Handle) *Worksheet { return &Worksheet{h: h} }

func (s *Worksheet) Handle() *automation.Handle { return s.h }

func (s *Worksheet) Release() { s.h.Release() }

// Range returns the cells addressed by ref, e.g. "A1" or "A1:B2".
func (s *Worksheet) Range(ref string) (*Range, error) {
	r, err := s.h.GetDispatch("Range", automation.Text(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to get range %s: %w", ref, err)
	}
	return &Range{h: r}, nil
}

func (s *Worksheet) SetName(name string) error {
	if err := s.h.PutValue("Name", automation.Text(name)); err != nil {
		return fmt.Errorf("failed to rename sheet to %s: %w", name, err)
	}
	return nil
}

// Name returns the sheet name. A null sheet has the empty name.
func (s *Worksheet) Name() (string, error) {
	v, err := s.h.GetValue("Name")
	if err != nil {
		return "", fmt.Errorf("failed to get sheet name: %w", err)
	}
	if v.IsEmpty() {
		return "", nil
	}
	name, ok := v.Text()
	if !ok {
		v.Release()
		return "", fmt.Errorf("sheet name is %s, not text", v.Kind())
	}
	return name, nil
}

// WriteAt writes a Matrix into the block whose top-left cell is anchor and
// returns the reference of the block written. The block is sized from the
// number of rows and the width of the first row.
func (s *Worksheet) WriteAt(anchor string, v automation.Value) (string, error) {
	if v.Kind() != automation.KindMatrix {
		return "", fmt.Errorf("WriteAt needs a matrix, got %s", v.Kind())
	}
	ref, err := RangeRef(anchor, v.Rows(), v.Cols(0))
	if err != nil {
		return "", err
	}
	r, err := s.Range(ref)
	if err != nil {
		return "", err
	}
	defer r.Release()
	if err := r.SetValue(v); err != nil {
		return "", err
	}
	return ref, nil
}

type Range struct {
	h *automation.Handle
}

// NewRange wraps h, taking over the reference it holds.
func NewRange(h *automation.Handle) *Range { return &Range{h: h} }

func (r *Range) Handle() *automation.Handle { return r.h }

func (r *Range) Release() { r.h.Release() }

// SetValue assigns a scalar to every cell of the range, or a Matrix
// cell by cell.
func (r *Range) SetValue(v automation.Value) error {
	if err := r.h.PutValue("Value", v); err != nil {
		return fmt.Errorf("failed to set range value: %w", err)
	}
	return nil
}

// Value reads the range. Single cells come back as scalars, blocks as a
// Matrix.
func (r *Range) Value() (automation.Value, error) {
	v, err := r.h.GetValue("Value")
	if err != nil {
		return automation.Value{}, fmt.Errorf("failed to get range value: %w", err)
	}
	return v, nil
}

// call invokes a method whose result is not needed.
func call(h *automation.Handle, name string, args ...automation.Value) error {
	result, err := h.Call(name, args...)
	if err != nil {
		return err
	}
	result.Release()
	return nil
}
