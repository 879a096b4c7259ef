package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/negokaz/excel-com/internal/automation"
	"github.com/negokaz/excel-com/internal/excel"
	imcp "github.com/negokaz/excel-com/internal/mcp"
)

// AppProvider returns the application tools operate on. It is called on the
// apartment thread. The application stays owned by the provider.
type AppProvider func() (*excel.Application, error)

type trackedBook struct {
	id    string
	book  *excel.Workbook
	sheet string
	path  string
}

// Workspace tracks the workbooks created through the tools. All server
// calls and all access to the tracked set happen on the apartment thread.
type Workspace struct {
	apt      *automation.Apartment
	provider AppProvider
	log      zerolog.Logger
	pageSize int

	app    *excel.Application
	books  map[string]*trackedBook
	nextID int
}

func NewWorkspace(apt *automation.Apartment, provider AppProvider, log zerolog.Logger, pageSize int) *Workspace {
	if pageSize < 1 {
		pageSize = excel.DefaultPageSize
	}
	return &Workspace{
		apt:      apt,
		provider: provider,
		log:      log,
		pageSize: pageSize,
		books:    make(map[string]*trackedBook),
	}
}

// do runs fn on the apartment thread.
func (w *Workspace) do(ctx context.Context, fn func() error) error {
	return w.apt.Do(ctx, fn)
}

// run executes fn on the apartment thread. Unknown workbook ids become an
// invalid argument result rather than a protocol error.
func (w *Workspace) run(ctx context.Context, fn func() (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	var result *mcp.CallToolResult
	err := w.do(ctx, func() error {
		r, err := fn()
		result = r
		return err
	})
	var unknown *unknownWorkbookError
	if errors.As(err, &unknown) {
		return imcp.NewToolResultInvalidArgumentError(unknown.Error()), nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *Workspace) application() (*excel.Application, error) {
	if w.app != nil {
		return w.app, nil
	}
	app, err := w.provider()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Excel: %w", err)
	}
	w.app = app
	return app, nil
}

func (w *Workspace) track(book *excel.Workbook, sheet string) *trackedBook {
	w.nextID++
	tb := &trackedBook{
		id:    fmt.Sprintf("book-%d", w.nextID),
		book:  book,
		sheet: sheet,
	}
	w.books[tb.id] = tb
	return tb
}

type unknownWorkbookError struct {
	id string
}

func (e *unknownWorkbookError) Error() string {
	return fmt.Sprintf("unknown workbook: %s", e.id)
}

func (w *Workspace) lookup(id string) (*trackedBook, error) {
	tb, ok := w.books[id]
	if !ok {
		return nil, &unknownWorkbookError{id: id}
	}
	return tb, nil
}

func (w *Workspace) forget(tb *trackedBook) {
	delete(w.books, tb.id)
	tb.book.Release()
}

// list returns the tracked workbooks ordered by creation.
func (w *Workspace) list() []*trackedBook {
	books := make([]*trackedBook, 0, len(w.books))
	for _, tb := range w.books {
		books = append(books, tb)
	}
	sort.Slice(books, func(i, j int) bool {
		return idNumber(books[i].id) < idNumber(books[j].id)
	})
	return books
}

func idNumber(id string) int {
	var n int
	fmt.Sscanf(id, "book-%d", &n)
	return n
}

// Close releases every tracked workbook without closing it on the server.
func (w *Workspace) Close(ctx context.Context) error {
	return w.do(ctx, func() error {
		for _, tb := range w.books {
			w.log.Debug().Str("workbook", tb.id).Msg("releasing workbook")
			tb.book.Release()
		}
		w.books = make(map[string]*trackedBook)
		w.app = nil
		return nil
	})
}
