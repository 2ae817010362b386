package gridcalc

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCellFactoryFromInput(t *testing.T) {
	at := time.Date(2023, 7, 1, 9, 30, 15, 500, time.UTC)
	tests := []struct {
		name     string
		in       RawInput
		expected CellValue
		formula  bool
	}{
		{"Text int", TextInput("42"), IntVal(42), false},
		{"Text formula", TextInput("=A1+1"), StringVal("=A1+1"), true},
		{"Int", IntInput(-3), IntVal(-3), false},
		{"Double", DoubleInput(0.25), DoubleVal(0.25), false},
		{"Bool", BoolInput(false), BoolVal(false), false},
		{"Time", TimeInput(at), NewDateTime(at), false},
		{"Value", ValueInput(StringVal("x")), StringVal("x"), false},
		{"Value formula", ValueInput(StringVal("=2")), StringVal("=2"), true},
	}

	address := CellRef{Row: 1, Col: 2}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, shell, err := DefaultCellFactory{}.FromInput(tt.in, address)
			if err != nil {
				t.Fatalf("FromInput failed: %v", err)
			}
			if diff := cmp.Diff(tt.expected, value); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
			if (shell != nil) != tt.formula {
				t.Fatalf("shell = %v, formula %v", shell, tt.formula)
			}
			if shell != nil && (shell.Address != address || shell.Expression != nil || shell.Result != nil) {
				t.Errorf("shell should be unlinked, got %+v", shell)
			}
		})
	}

	_, _, err := DefaultCellFactory{}.FromInput(EmptyInput(), address)
	expectCode(t, err, codes.InvalidArgument)
}

func TestRawInputIsEmpty(t *testing.T) {
	tests := []struct {
		in       RawInput
		expected bool
	}{
		{EmptyInput(), true},
		{TextInput(""), true},
		{TextInput(" \t"), true},
		{TextInput(" a "), false},
		{ValueInput(nil), true},
		{IntInput(0), false},
		{BoolInput(false), false},
	}
	for _, tt := range tests {
		if got := tt.in.IsEmpty(); got != tt.expected {
			t.Errorf("%#v.IsEmpty() = %v, want %v", tt.in, got, tt.expected)
		}
	}
}

func TestErrors(t *testing.T) {
	err := NewApplicationError(codes.FailedPrecondition, "row 1 is referenced")
	if status.Code(err) != codes.FailedPrecondition {
		t.Errorf("status.Code() = %v", status.Code(err))
	}

	wrapped := errors.Join(errors.New("context"), newCycleError(CellRef{Row: 0, Col: 1}))
	if !IsKind(wrapped, KindCycle) || IsKind(wrapped, KindSyntax) {
		t.Errorf("IsKind did not see through wrapping: %v", wrapped)
	}

	tests := []struct {
		err      *FormulaError
		expected string
	}{
		{newTokenError(KindSyntax, 3, "unexpected %s", ")"), "syntax error at token 3: unexpected )"},
		{ErrDependency, "dependency error: dependency has an error"},
		{newCycleError(CellRef{Row: 1, Col: 1}), "cycle error: circular reference through B2"},
		{NewFormulaError(ErrorKind(42), "x"), "unknown error: x"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Error() = %q, want %q", got, tt.expected)
		}
	}
}
