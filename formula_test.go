package gridcalc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormulaCacheHit(t *testing.T) {
	cache, err := NewFormulaCache(4)
	if err != nil {
		t.Fatal(err)
	}

	first, err := cache.Parse("=A1 + 1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.Parse(" =a1 + 1 ")
	if err != nil {
		t.Fatal(err)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached tree mismatch (-want +got):\n%s", diff)
	}
	if first == second {
		t.Error("cache hits must return a private copy")
	}
}

func TestFormulaCacheCopiesAreIndependent(t *testing.T) {
	cache, err := NewFormulaCache(4)
	if err != nil {
		t.Fatal(err)
	}

	tree, err := cache.Parse("=A1*2")
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range CellRefs(tree) {
		ref.Ref = CellRef{Row: 7, Col: 7}
	}

	again, err := cache.Parse("=A1*2")
	if err != nil {
		t.Fatal(err)
	}
	if got := ToFormula(again); got != "A1 * 2" {
		t.Errorf("cached tree was rewritten: %s", got)
	}
}

func TestFormulaCacheErrors(t *testing.T) {
	cache, err := NewFormulaCache(4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Parse("=1+"); !IsKind(err, KindSyntax) {
		t.Errorf("Parse error = %v, want a syntax error", err)
	}
	if cache.Len() != 0 {
		t.Errorf("errors must not be cached, Len() = %d", cache.Len())
	}
}

func TestFormulaCacheDisabled(t *testing.T) {
	cache, err := NewFormulaCache(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Parse("=1+2"); err != nil {
		t.Fatal(err)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}

	var none *FormulaCache
	node, err := none.Parse("=2*3")
	if err != nil || node == nil {
		t.Errorf("nil cache Parse() = %v, %v", node, err)
	}
}

func TestFormulaCacheEvicts(t *testing.T) {
	cache, err := NewFormulaCache(2)
	if err != nil {
		t.Fatal(err)
	}
	for _, text := range []string{"=A1", "=A2", "=A3"} {
		if _, err := cache.Parse(text); err != nil {
			t.Fatal(err)
		}
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}
