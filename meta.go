package gridcalc

import (
	"slices"
)

// MetaID is the stable identity of a metadata slot. a slot keeps its ID
// while it exists, even when the cell's metadata is replaced or the cell
// moves during a structural edit.
type MetaID uint32

// Meta is per-cell bookkeeping: either a bare *MetaCell that other
// formulas read from, or a *MetaFunc for a formula cell
type Meta interface {
	base() *MetaCell
}

// MetaCell tracks which formulas read a cell. a bare MetaCell only exists
// while at least one formula depends on it.
type MetaCell struct {
	ID         MetaID
	Address    CellRef
	Dependents []MetaID // formula slots reading this cell, topologically ordered
}

func (m *MetaCell) base() *MetaCell { return m }

// MetaFunc is the metadata of a formula cell
type MetaFunc struct {
	MetaCell

	Expression   Node      // nil until the formula text parsed
	Result       CellValue // nil when the last evaluation failed
	Error        string    // message of the last failure
	Dependencies []MetaID  // slots this formula reads, without duplicates
}

// NewMetaFunc creates an unlinked formula shell for address
func NewMetaFunc(address CellRef) *MetaFunc {
	return &MetaFunc{MetaCell: MetaCell{Address: address}}
}

// MetaStore is the metadata layer shared by every storage backend. nodes
// live in an arena keyed by MetaID, with a coordinate index on top.
type MetaStore struct {
	// arena

	nodes  map[MetaID]Meta
	nextID MetaID

	// coordinate index

	index map[CellRef]MetaID

	// formula slots in insertion order

	formulas []MetaID
}

// NewMetaStore creates an empty metadata layer
func NewMetaStore() *MetaStore {
	return &MetaStore{
		nodes:  make(map[MetaID]Meta),
		index:  make(map[CellRef]MetaID),
		nextID: 1, // 0 is never a valid slot
	}
}

// Get returns the metadata at ref, or nil
func (s *MetaStore) Get(ref CellRef) Meta {
	id, exists := s.index[ref]
	if !exists {
		return nil
	}
	return s.nodes[id]
}

// Node returns the metadata of a slot, or nil
func (s *MetaStore) Node(id MetaID) Meta {
	return s.nodes[id]
}

// Func returns the formula metadata of a slot, or nil
func (s *MetaStore) Func(id MetaID) *MetaFunc {
	f, _ := s.nodes[id].(*MetaFunc)
	return f
}

// Len returns the number of live slots
func (s *MetaStore) Len() int {
	return len(s.nodes)
}

// GetOrCreate returns the metadata at ref, creating a bare slot if needed
func (s *MetaStore) GetOrCreate(ref CellRef) Meta {
	if m := s.Get(ref); m != nil {
		return m
	}
	m := &MetaCell{ID: s.allocate(), Address: ref}
	s.nodes[m.ID] = m
	s.index[ref] = m.ID
	return m
}

func (s *MetaStore) allocate() MetaID {
	id := s.nextID
	s.nextID++
	return id
}

// Set installs m at ref. the slot ID and dependents of the previous
// metadata carry over to m. a previous formula is unlinked from the cells
// it read. a nil m clears formula metadata.
func (s *MetaStore) Set(ref CellRef, m Meta) {
	if m == nil {
		s.ClearFormula(ref)
		return
	}

	mc := m.base()
	mc.Address = ref
	if old := s.Get(ref); old != nil {
		ob := old.base()
		mc.ID = ob.ID
		mc.Dependents = ob.Dependents
		if of, ok := old.(*MetaFunc); ok {
			s.removeFormula(of.ID)
			s.detach(of)
		}
	} else {
		mc.ID = s.allocate()
	}

	s.nodes[mc.ID] = m
	s.index[ref] = mc.ID
	if _, ok := m.(*MetaFunc); ok {
		s.formulas = append(s.formulas, mc.ID)
	}
}

// ClearFormula drops formula metadata at ref. the slot survives as a bare
// MetaCell while other formulas still read it.
func (s *MetaStore) ClearFormula(ref CellRef) {
	f, ok := s.Get(ref).(*MetaFunc)
	if !ok {
		return
	}
	s.removeFormula(f.ID)
	s.detach(f)

	if len(f.Dependents) > 0 {
		s.nodes[f.ID] = &MetaCell{ID: f.ID, Address: ref, Dependents: f.Dependents}
		return
	}
	delete(s.nodes, f.ID)
	delete(s.index, ref)
}

// Formulas returns every formula in insertion order
func (s *MetaStore) Formulas() []*MetaFunc {
	result := make([]*MetaFunc, 0, len(s.formulas))
	for _, id := range s.formulas {
		if f := s.Func(id); f != nil {
			result = append(result, f)
		}
	}
	return result
}

func (s *MetaStore) removeFormula(id MetaID) {
	if i := slices.Index(s.formulas, id); i >= 0 {
		s.formulas = slices.Delete(s.formulas, i, i+1)
	}
}

// Link resolves every reference of f's expression to a slot, creating bare
// slots as needed, and records them as f's dependencies
func (s *MetaStore) Link(f *MetaFunc) {
	f.Dependencies = nil
	for _, ref := range CellRefs(f.Expression) {
		id := s.GetOrCreate(ref.Ref).base().ID
		if !slices.Contains(f.Dependencies, id) {
			f.Dependencies = append(f.Dependencies, id)
		}
	}
}

// attach adds f to the dependents of every cell it reads
func (s *MetaStore) attach(f *MetaFunc) {
	for _, id := range f.Dependencies {
		dep := s.nodes[id].base()
		if !slices.Contains(dep.Dependents, f.ID) {
			dep.Dependents = append(dep.Dependents, f.ID)
		}
	}
}

// detach removes f from the dependents of every cell it reads and drops
// bare slots nobody reads anymore
func (s *MetaStore) detach(f *MetaFunc) {
	for _, id := range f.Dependencies {
		node, exists := s.nodes[id]
		if !exists {
			continue
		}
		dep := node.base()
		if i := slices.Index(dep.Dependents, f.ID); i >= 0 {
			dep.Dependents = slices.Delete(dep.Dependents, i, i+1)
		}
		s.cleanupNodeIfEmpty(id)
	}
	f.Dependencies = nil
}

// cleanupNodeIfEmpty removes a bare slot without dependents
func (s *MetaStore) cleanupNodeIfEmpty(id MetaID) {
	m, ok := s.nodes[id].(*MetaCell)
	if !ok || len(m.Dependents) > 0 {
		return
	}
	delete(s.nodes, id)
	if s.index[m.Address] == id {
		delete(s.index, m.Address)
	}
}

// ordered returns every slot sorted by row, then column
func (s *MetaStore) ordered() []Meta {
	result := make([]Meta, 0, len(s.nodes))
	for _, m := range s.nodes {
		result = append(result, m)
	}
	slices.SortFunc(result, func(a, b Meta) int {
		ra, rb := a.base().Address, b.base().Address
		if ra.Row != rb.Row {
			return ra.Row - rb.Row
		}
		return ra.Col - rb.Col
	})
	return result
}

// HasDependentsInRow reports whether any formula reads a cell of row
func (s *MetaStore) HasDependentsInRow(row int) bool {
	for _, m := range s.nodes {
		mc := m.base()
		if mc.Address.Row == row && len(mc.Dependents) > 0 {
			return true
		}
	}
	return false
}

// HasDependentsInColumn reports whether any formula reads a cell of col
func (s *MetaStore) HasDependentsInColumn(col int) bool {
	for _, m := range s.nodes {
		mc := m.base()
		if mc.Address.Col == col && len(mc.Dependents) > 0 {
			return true
		}
	}
	return false
}

// remap moves every slot address and every reference inside formula
// trees through move, then rebuilds the coordinate index
func (s *MetaStore) remap(move func(CellRef) CellRef) {
	s.index = make(map[CellRef]MetaID, len(s.nodes))
	for id, m := range s.nodes {
		mc := m.base()
		mc.Address = move(mc.Address)
		s.index[mc.Address] = id

		if f, ok := m.(*MetaFunc); ok {
			for _, ref := range CellRefs(f.Expression) {
				ref.Ref = move(ref.Ref)
			}
		}
	}
}

// ShiftRowsRight moves rows at or after index down by one
func (s *MetaStore) ShiftRowsRight(index int) {
	s.remap(func(r CellRef) CellRef {
		if r.Row >= index {
			r.Row++
		}
		return r
	})
}

// ShiftRowsLeft moves rows after index up by one
func (s *MetaStore) ShiftRowsLeft(index int) {
	s.remap(func(r CellRef) CellRef {
		if r.Row > index {
			r.Row--
		}
		return r
	})
}

// ShiftColumnsRight moves columns at or after index right by one
func (s *MetaStore) ShiftColumnsRight(index int) {
	s.remap(func(r CellRef) CellRef {
		if r.Col >= index {
			r.Col++
		}
		return r
	})
}

// ShiftColumnsLeft moves columns after index left by one
func (s *MetaStore) ShiftColumnsLeft(index int) {
	s.remap(func(r CellRef) CellRef {
		if r.Col > index {
			r.Col--
		}
		return r
	})
}

// RemapRows applies a row permutation: row i moves to mapping[i]. rows
// outside the mapping keep their index.
func (s *MetaStore) RemapRows(mapping []int) {
	s.remap(func(r CellRef) CellRef {
		if r.Row >= 0 && r.Row < len(mapping) {
			r.Row = mapping[r.Row]
		}
		return r
	})
}
