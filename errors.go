package gridcalc

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents errors at the application level (not formula
// errors). codes follow the gRPC taxonomy, and we skip the ones that make
// no sense for a local document, like unauthenticated.
type AppError struct {
	Code    codes.Code
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// GRPCStatus lets status.FromError and status.Code see through an AppError
func (e *AppError) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Message)
}

// NewApplicationError creates a new application error
func NewApplicationError(code codes.Code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// newStructuralError is returned when a row or column cannot be removed
// because other cells still read from it
func newStructuralError(format string, args ...any) *AppError {
	return NewApplicationError(codes.FailedPrecondition, fmt.Sprintf(format, args...))
}

// ErrorKind classifies formula failures
type ErrorKind uint8

const (
	KindLexical    ErrorKind = 1 // invalid character or malformed number
	KindSyntax     ErrorKind = 2 // token sequence or parser rule violated
	KindEvaluation ErrorKind = 3 // operator or function failed at run time
	KindDependency ErrorKind = 4 // a referenced formula has no result
	KindCycle      ErrorKind = 5 // the edit would close a reference loop
)

// kindNames maps error kinds to the label used in messages
var kindNames = map[ErrorKind]string{
	KindLexical:    "lexical error",
	KindSyntax:     "syntax error",
	KindEvaluation: "evaluation error",
	KindDependency: "dependency error",
	KindCycle:      "cycle error",
}

func (k ErrorKind) String() string {
	if name, exists := kindNames[k]; exists {
		return name
	}
	return "unknown error"
}

// FormulaError is a failure raised while lexing, parsing, linking or
// evaluating a formula. Pos is the offending token index, or -1 when the
// failure is not tied to a token.
type FormulaError struct {
	Kind    ErrorKind
	Pos     int
	Cell    CellRef // set for cycle errors
	Message string
}

func (e *FormulaError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s at token %d: %s", e.Kind, e.Pos, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewFormulaError creates a formula error not tied to a token position
func NewFormulaError(kind ErrorKind, message string) *FormulaError {
	return &FormulaError{Kind: kind, Pos: -1, Message: message}
}

func newTokenError(kind ErrorKind, pos int, format string, args ...any) *FormulaError {
	return &FormulaError{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func newCycleError(cell CellRef) *FormulaError {
	return &FormulaError{
		Kind:    KindCycle,
		Pos:     -1,
		Cell:    cell,
		Message: fmt.Sprintf("circular reference through %s", cell),
	}
}

// ErrDependency is raised when a formula reads a formula cell whose last
// evaluation failed
var ErrDependency = NewFormulaError(KindDependency, "dependency has an error")

// IsKind reports whether err is a formula error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var fe *FormulaError
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
