package gridcalc

import (
	"fmt"
)

// RunnableDocument provides a chainable interface for document
// operations addressed in A1 form. wraps the standard Document and tracks
// errors internally
type RunnableDocument struct {
	document *Document
	err      error
	printLn  func(string)
}

// NewRunnableDocument creates a new RunnableDocument over doc. printLn is
// required and will be used for all logging operations (Log, CheckError)
func NewRunnableDocument(doc *Document, printLn func(string)) *RunnableDocument {
	return &RunnableDocument{
		document: doc,
		printLn:  printLn,
	}
}

func (r *RunnableDocument) ref(address string) (CellRef, bool) {
	ref, err := ParseCellRef(address)
	if err != nil {
		r.err = err
		return CellRef{}, false
	}
	return ref, true
}

// Set classifies text and stores it (chainable)
func (r *RunnableDocument) Set(address string, text string) *RunnableDocument {
	return r.SetInput(address, TextInput(text))
}

// SetInput stores any raw input (chainable)
func (r *RunnableDocument) SetInput(address string, in RawInput) *RunnableDocument {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	ref, ok := r.ref(address)
	if !ok {
		return r
	}
	_, r.err = r.document.SetValue(ref, in)
	return r
}

// Clear empties a cell (chainable)
func (r *RunnableDocument) Clear(address string) *RunnableDocument {
	return r.SetInput(address, EmptyInput())
}

// InsertRow inserts an empty row before the 1-based row (chainable)
func (r *RunnableDocument) InsertRow(row int) *RunnableDocument {
	if r.err != nil {
		return r
	}
	r.err = r.document.InsertRowBefore(row - 1)
	return r
}

// InsertColumn inserts an empty column before the named column (chainable)
func (r *RunnableDocument) InsertColumn(column string) *RunnableDocument {
	return r.columnOp(column, r.document.InsertColumnBefore)
}

// RemoveRow removes the 1-based row (chainable)
func (r *RunnableDocument) RemoveRow(row int) *RunnableDocument {
	if r.err != nil {
		return r
	}
	r.err = r.document.RemoveRow(row - 1)
	return r
}

// RemoveColumn removes the named column (chainable)
func (r *RunnableDocument) RemoveColumn(column string) *RunnableDocument {
	return r.columnOp(column, r.document.RemoveColumn)
}

// SortAscending sorts rows by the named column (chainable)
func (r *RunnableDocument) SortAscending(column string) *RunnableDocument {
	return r.columnOp(column, r.document.SortAscending)
}

// SortDescending sorts rows by the named column (chainable)
func (r *RunnableDocument) SortDescending(column string) *RunnableDocument {
	return r.columnOp(column, r.document.SortDescending)
}

func (r *RunnableDocument) columnOp(column string, op func(int) error) *RunnableDocument {
	if r.err != nil {
		return r
	}
	col, err := ColumnIndex(column)
	if err != nil {
		r.err = err
		return r
	}
	r.err = op(col)
	return r
}

// Error returns the current error state
func (r *RunnableDocument) Error() error {
	return r.err
}

// CheckError logs the current error using the PrintLn function (chainable)
func (r *RunnableDocument) CheckError() *RunnableDocument {
	if r.err != nil {
		r.printLn(fmt.Sprintf("ERROR: %v", r.err))
	} else {
		r.printLn("No errors")
	}
	return r
}

// Reset clears the error state (chainable)
func (r *RunnableDocument) Reset() *RunnableDocument {
	r.err = nil
	return r
}

// Then allows conditional execution based on current error state
func (r *RunnableDocument) Then(fn func(*RunnableDocument) *RunnableDocument) *RunnableDocument {
	if r.err != nil {
		return r // skip if there's an error
	}
	return fn(r)
}

// OnError allows error handling in the chain
func (r *RunnableDocument) OnError(fn func(error) error) *RunnableDocument {
	if r.err != nil {
		r.err = fn(r.err)
	}
	return r
}

// Run returns the document and any error. typically the last method in
// the chain
func (r *RunnableDocument) Run() (*Document, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.document, nil
}

// Document returns the underlying document. use with caution as it
// bypasses error tracking.
func (r *RunnableDocument) Document() *Document {
	return r.document
}

// Value is a helper to get the display value of a single cell from the
// chain
func (r *RunnableDocument) Value(address string) CellValue {
	if r.err != nil {
		return nil
	}
	ref, ok := r.ref(address)
	if !ok {
		return nil
	}
	return r.document.DisplayValue(ref)
}

// Log logs the display value of a cell using the provided PrintLn
// function (chainable)
func (r *RunnableDocument) Log(address string) *RunnableDocument {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	ref, ok := r.ref(address)
	if !ok {
		return r
	}

	var output string
	if val := r.document.DisplayValue(ref); val == nil {
		if msg := r.document.CellError(ref); msg != "" {
			output = fmt.Sprintf("%s: <error: %s>", address, msg)
		} else {
			output = fmt.Sprintf("%s: <empty>", address)
		}
	} else {
		output = fmt.Sprintf("%s: %v", address, val)
	}

	r.printLn(output)
	return r
}
