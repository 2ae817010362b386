package gridcalc

import (
	"fmt"
	"iter"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
)

// StoredCell is one persisted non-empty cell. Value is the canonical
// string of the stored value, or the formula text.
type StoredCell struct {
	Row   int    `json:"row" yaml:"row"`
	Col   int    `json:"col" yaml:"col"`
	Value string `json:"value" yaml:"value"`
}

// StoredGrid is the persisted form of a document
type StoredGrid struct {
	RowCount    int          `json:"rowCount" yaml:"rowCount"`
	ColumnCount int          `json:"columnCount" yaml:"columnCount"`
	Cells       []StoredCell `json:"cells" yaml:"cells"`
}

// Document owns a grid and orchestrates edits: classification, formula
// linking, evaluation, storage switching and change propagation
type Document struct {
	grid    Grid
	factory CellFactory
	cache   *FormulaCache
	cfg     Config
	log     zerolog.Logger

	unsaved bool
}

// Option configures a document
type Option func(*Document)

// WithConfig replaces the default configuration
func WithConfig(cfg Config) Option {
	return func(d *Document) { d.cfg = cfg }
}

// WithLogger sets the logger. documents are silent by default.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Document) { d.log = log }
}

// WithCellFactory replaces the input classifier
func WithCellFactory(factory CellFactory) Option {
	return func(d *Document) { d.factory = factory }
}

// NewDocument creates an empty document. new documents start sparse.
func NewDocument(rows, cols int, opts ...Option) (*Document, error) {
	if rows < 0 || cols < 0 {
		return nil, NewApplicationError(codes.InvalidArgument, fmt.Sprintf("invalid grid size %dx%d", rows, cols))
	}

	d := &Document{
		factory: DefaultCellFactory{},
		cfg:     DefaultConfig(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}

	cache, err := NewFormulaCache(d.cfg.ParseCacheSize)
	if err != nil {
		return nil, err
	}
	d.cache = cache
	d.grid = NewGrid(StorageSparse, rows, cols)
	return d, nil
}

// LoadDocument rebuilds a document from its persisted form. every cell
// is classified again, the whole dependency graph is rebuilt, and every
// formula is evaluated in dependency order. a cycle fails the load.
func LoadDocument(stored StoredGrid, opts ...Option) (*Document, error) {
	d, err := NewDocument(stored.RowCount, stored.ColumnCount, opts...)
	if err != nil {
		return nil, err
	}
	meta := d.grid.Metadata()

	for _, c := range stored.Cells {
		ref := CellRef{Row: c.Row, Col: c.Col}
		if err := d.checkBounds(ref); err != nil {
			return nil, err
		}
		value, shell := d.factory.FromString(c.Value, ref)
		d.grid.SetValue(ref, value)
		if shell == nil {
			continue
		}
		d.grid.SetMeta(ref, shell)
		expr, err := d.cache.Parse(value.String())
		if err != nil {
			shell.Error = err.Error()
			continue
		}
		shell.Expression = expr
	}

	for _, f := range meta.Formulas() {
		if f.Expression != nil {
			meta.Link(f)
			meta.attach(f)
		}
	}

	order, err := BuildAllDependencies(meta)
	if err != nil {
		return nil, err
	}
	d.log.Debug().Int("formulas", len(order)).Msg("rebuilt dependency graph")

	evaluator := NewEvaluator(d.grid)
	for _, f := range order {
		d.evaluate(evaluator, f)
	}

	d.checkStorage()
	return d, nil
}

func (d *Document) checkBounds(ref CellRef) error {
	if ref.Row < 0 || ref.Row >= d.grid.RowCount() || ref.Col < 0 || ref.Col >= d.grid.ColumnCount() {
		return NewApplicationError(codes.OutOfRange,
			fmt.Sprintf("cell %s outside %dx%d grid", ref, d.grid.RowCount(), d.grid.ColumnCount()))
	}
	return nil
}

// SetValue applies one edit and returns every cell whose value or result
// changed: the edited cell first, then its transitive dependents in
// dependency order. a formula that fails to parse or evaluate is stored
// with its error, propagated, and the error is returned with the change
// list. a formula that would close a cycle is rejected and the cell keeps
// its previous content.
func (d *Document) SetValue(ref CellRef, in RawInput) ([]CellRef, error) {
	if err := d.checkBounds(ref); err != nil {
		return nil, err
	}

	if in.IsEmpty() {
		d.unsaved = true
		d.grid.Clear(ref)
		d.log.Debug().Stringer("cell", ref).Msg("cleared cell")
		return d.onCellChanged(ref), nil
	}

	value, shell, err := d.factory.FromInput(in, ref)
	if err != nil {
		return nil, err
	}
	d.unsaved = true

	if shell == nil {
		d.grid.SetValue(ref, value)
		d.grid.SetMeta(ref, nil)
		d.log.Debug().Stringer("cell", ref).Stringer("type", value.Type()).Msg("set value")
		return d.onCellChanged(ref), nil
	}

	prior := d.capture(ref)
	d.grid.SetValue(ref, value)
	d.grid.SetMeta(ref, shell)

	if err := d.processFormula(shell, value.String()); err != nil {
		if IsKind(err, KindCycle) {
			d.restore(ref, prior)
			d.log.Warn().Stringer("cell", ref).Err(err).Msg("rejected formula")
			return nil, err
		}
		shell.Result = nil
		shell.Error = err.Error()
		d.log.Debug().Stringer("cell", ref).Err(err).Msg("formula failed")
		return d.onCellChanged(ref), err
	}

	d.log.Debug().Stringer("cell", ref).Stringer("result", shell.Result).Msg("set formula")
	return d.onCellChanged(ref), nil
}

// processFormula parses, links and evaluates a freshly installed shell
func (d *Document) processFormula(f *MetaFunc, text string) error {
	expr, err := d.cache.Parse(text)
	if err != nil {
		return err
	}
	f.Expression = expr

	meta := d.grid.Metadata()
	meta.Link(f)
	if err := UpdateCellDependencies(meta, f); err != nil {
		return err
	}

	result, err := NewEvaluator(d.grid).Evaluate(expr)
	if err != nil {
		return err
	}
	f.Result = result
	f.Error = ""
	return nil
}

// evaluate refreshes the cached result of one formula
func (d *Document) evaluate(evaluator *Evaluator, f *MetaFunc) {
	if f.Expression == nil {
		return
	}
	result, err := evaluator.Evaluate(f.Expression)
	if err != nil {
		f.Result = nil
		f.Error = err.Error()
		return
	}
	f.Result = result
	f.Error = ""
}

// onCellChanged switches storage if needed and recomputes every
// transitive dependent of ref exactly once
func (d *Document) onCellChanged(ref CellRef) []CellRef {
	d.checkStorage()

	changes := []CellRef{ref}
	m := d.grid.Meta(ref)
	if m == nil {
		return changes
	}

	meta := d.grid.Metadata()
	order, err := CascadeOrder(meta, m.base().ID)
	if err != nil {
		d.log.Error().Stringer("cell", ref).Err(err).Msg("cannot order dependents")
		return changes
	}

	evaluator := NewEvaluator(d.grid)
	for _, f := range order {
		d.evaluate(evaluator, f)
		changes = append(changes, f.Address)
	}
	return changes
}

// checkStorage moves the grid to the other backend when occupancy leaves
// the hysteresis band
func (d *Document) checkStorage() {
	total := d.grid.RowCount() * d.grid.ColumnCount()
	if total == 0 {
		return
	}
	ratio := float64(d.grid.CellCount()) / float64(total)

	var target StorageKind
	switch {
	case d.grid.Kind() == StorageSparse && ratio > d.cfg.DenseThreshold:
		target = StorageDense
	case d.grid.Kind() == StorageDense && ratio < d.cfg.SparseThreshold:
		target = StorageSparse
	default:
		return
	}

	d.log.Info().
		Stringer("from", d.grid.Kind()).
		Stringer("to", target).
		Float64("occupancy", ratio).
		Msg("switching storage")
	d.grid = CopyTo(d.grid, target)
}

// cellState is the content of a cell captured before an edit
type cellState struct {
	value CellValue
	meta  *MetaFunc
}

func (d *Document) capture(ref CellRef) cellState {
	state := cellState{value: d.grid.Value(ref)}
	if f, ok := d.grid.Meta(ref).(*MetaFunc); ok {
		state.meta = f
	}
	return state
}

// restore puts back a cell captured by capture. a previous formula is
// linked again with its old tree and result.
func (d *Document) restore(ref CellRef, state cellState) {
	d.grid.Clear(ref)
	if state.value != nil {
		d.grid.SetValue(ref, state.value)
	}
	if state.meta == nil || state.meta.Expression == nil {
		if state.meta != nil {
			d.grid.SetMeta(ref, state.meta)
		}
		return
	}

	meta := d.grid.Metadata()
	d.grid.SetMeta(ref, state.meta)
	meta.Link(state.meta)
	if err := UpdateCellDependencies(meta, state.meta); err != nil {
		d.log.Error().Stringer("cell", ref).Err(err).Msg("cannot relink previous formula")
	}
}

// Value returns the stored (edit) value: the formula text for formulas
func (d *Document) Value(ref CellRef) CellValue {
	return d.grid.Value(ref)
}

// DisplayValue returns what a cell shows: the cached result for formulas,
// nil for failed formulas and empty cells
func (d *Document) DisplayValue(ref CellRef) CellValue {
	return d.grid.EvaluatedValue(ref)
}

// CellError returns the last error of a formula cell, or ""
func (d *Document) CellError(ref CellRef) string {
	if f, ok := d.grid.Meta(ref).(*MetaFunc); ok {
		return f.Error
	}
	return ""
}

// Type returns the type of the stored value
func (d *Document) Type(ref CellRef) (CellType, bool) {
	v := d.grid.Value(ref)
	if v == nil {
		return 0, false
	}
	return v.Type(), true
}

// PresentationType returns the type of the displayed value. a failed
// formula displays nothing and has no type.
func (d *Document) PresentationType(ref CellRef) (CellType, bool) {
	if f, isFormula := d.grid.Meta(ref).(*MetaFunc); isFormula {
		if f.Result == nil {
			return 0, false
		}
		return f.Result.Type(), true
	}
	return d.Type(ref)
}

func (d *Document) RowCount() int            { return d.grid.RowCount() }
func (d *Document) ColumnCount() int         { return d.grid.ColumnCount() }
func (d *Document) StorageKind() StorageKind { return d.grid.Kind() }
func (d *Document) HasUnsavedChanges() bool  { return d.unsaved }

// MarkSaved clears the unsaved flag after the document was persisted
func (d *Document) MarkSaved() {
	d.unsaved = false
}

// structural runs a grid edit and logs refusals
func (d *Document) structural(op string, index int, edit func(int) error) error {
	if err := edit(index); err != nil {
		d.log.Warn().Str("op", op).Int("index", index).Err(err).Msg("structural edit refused")
		return err
	}
	d.unsaved = true
	d.log.Debug().Str("op", op).Int("index", index).Msg("structural edit")
	d.checkStorage()
	return nil
}

func (d *Document) InsertRowBefore(row int) error {
	return d.structural("insert row", row, func(i int) error { return d.grid.InsertRowAt(i) })
}

func (d *Document) InsertRowAfter(row int) error {
	return d.structural("insert row", row+1, func(i int) error { return d.grid.InsertRowAt(i) })
}

func (d *Document) InsertColumnBefore(col int) error {
	return d.structural("insert column", col, func(i int) error { return d.grid.InsertColumnAt(i) })
}

func (d *Document) InsertColumnAfter(col int) error {
	return d.structural("insert column", col+1, func(i int) error { return d.grid.InsertColumnAt(i) })
}

// RemoveRow deletes a row. rows read by formulas cannot be removed.
func (d *Document) RemoveRow(row int) error {
	return d.structural("remove row", row, func(i int) error { return d.grid.RemoveRow(i) })
}

// RemoveColumn deletes a column. columns read by formulas cannot be
// removed.
func (d *Document) RemoveColumn(col int) error {
	return d.structural("remove column", col, func(i int) error { return d.grid.RemoveColumn(i) })
}

func (d *Document) SortAscending(col int) error {
	return d.structural("sort ascending", col, func(i int) error { return d.grid.SortByColumn(i, false) })
}

func (d *Document) SortDescending(col int) error {
	return d.structural("sort descending", col, func(i int) error { return d.grid.SortByColumn(i, true) })
}

// Snapshot returns the persisted form of the document, row-major
func (d *Document) Snapshot() StoredGrid {
	stored := StoredGrid{
		RowCount:    d.grid.RowCount(),
		ColumnCount: d.grid.ColumnCount(),
		Cells:       []StoredCell{},
	}
	for ref, value := range d.grid.Cells() {
		stored.Cells = append(stored.Cells, StoredCell{Row: ref.Row, Col: ref.Col, Value: value.String()})
	}
	return stored
}

// Cells iterates non-empty cells row-major with their display values
func (d *Document) Cells() iter.Seq2[CellRef, CellValue] {
	return func(yield func(CellRef, CellValue) bool) {
		for ref := range d.grid.Cells() {
			if !yield(ref, d.grid.EvaluatedValue(ref)) {
				return
			}
		}
	}
}
