package gridcalc

import (
	"slices"
)

// visit states for the depth-first walks. unvisited slots are absent from
// the state map.
const (
	stateVisiting = false
	stateVisited  = true
)

// reorderForUpdate walks dependents depth-first from every target and
// returns the reverse postorder restricted to keep. reaching a slot that
// is still being visited is a cycle.
func reorderForUpdate(s *MetaStore, targets []MetaID, keep func(MetaID) bool) ([]MetaID, error) {
	type frame struct {
		id   MetaID
		next int
	}

	state := make(map[MetaID]bool)
	var order []MetaID

	for _, target := range targets {
		if _, seen := state[target]; seen {
			continue
		}
		state[target] = stateVisiting
		stack := []frame{{id: target}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			var dependents []MetaID
			if node := s.Node(top.id); node != nil {
				dependents = node.base().Dependents
			}

			if top.next < len(dependents) {
				child := dependents[top.next]
				top.next++
				visited, seen := state[child]
				if !seen {
					state[child] = stateVisiting
					stack = append(stack, frame{id: child})
				} else if visited == stateVisiting {
					return nil, newCycleError(s.Node(child).base().Address)
				}
				continue
			}

			stack = stack[:len(stack)-1]
			state[top.id] = stateVisited
			if keep(top.id) {
				order = append(order, top.id)
			}
		}
	}

	slices.Reverse(order)
	return order, nil
}

// inSet restricts a walk to the given slots
func inSet(ids []MetaID) func(MetaID) bool {
	set := make(map[MetaID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(id MetaID) bool {
		_, exists := set[id]
		return exists
	}
}

// BuildAllDependencies orders every dependents list topologically and
// returns every formula in an order where each comes after the formulas
// it reads. roots are formulas no other formula feeds.
func BuildAllDependencies(s *MetaStore) ([]*MetaFunc, error) {
	formulas := s.Formulas()
	roots := make(map[MetaID]struct{}, len(formulas))
	for _, f := range formulas {
		roots[f.ID] = struct{}{}
	}

	for _, m := range s.ordered() {
		mc := m.base()
		if len(mc.Dependents) == 0 {
			continue
		}
		if _, isFunc := m.(*MetaFunc); isFunc {
			for _, id := range mc.Dependents {
				delete(roots, id)
			}
		}
		reordered, err := reorderForUpdate(s, mc.Dependents, inSet(mc.Dependents))
		if err != nil {
			return nil, err
		}
		mc.Dependents = reordered
	}

	var rootIDs []MetaID
	for _, f := range formulas {
		if _, isRoot := roots[f.ID]; isRoot {
			rootIDs = append(rootIDs, f.ID)
		}
	}

	order, err := reorderForUpdate(s, rootIDs, func(id MetaID) bool { return s.Func(id) != nil })
	if err != nil {
		return nil, err
	}

	result := make([]*MetaFunc, len(order))
	for i, id := range order {
		result[i] = s.Func(id)
	}
	return result, nil
}

// UpdateCellDependencies registers a freshly linked formula with every
// cell it reads and reorders their dependents. on a cycle every link of f
// is rolled back and the cycle error is returned.
func UpdateCellDependencies(s *MetaStore, f *MetaFunc) error {
	s.attach(f)
	for _, id := range f.Dependencies {
		dep := s.Node(id).base()
		reordered, err := reorderForUpdate(s, dep.Dependents, inSet(dep.Dependents))
		if err != nil {
			s.detach(f)
			return err
		}
		dep.Dependents = reordered
	}
	return nil
}

// CascadeOrder returns every formula that transitively reads start, each
// once, in an order where every formula follows the formulas it reads
func CascadeOrder(s *MetaStore, start MetaID) ([]*MetaFunc, error) {
	order, err := reorderForUpdate(s, []MetaID{start}, func(id MetaID) bool {
		return id != start && s.Func(id) != nil
	})
	if err != nil {
		return nil, err
	}
	result := make([]*MetaFunc, len(order))
	for i, id := range order {
		result[i] = s.Func(id)
	}
	return result, nil
}
