// Package persist reads and writes documents as JSON, YAML or XLSX files.
// all formats carry the same content: the grid size and every non-empty
// cell as its canonical string or formula text.
package persist

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vogtb/go-spreadsheet/packages/gridcalc"
	"google.golang.org/grpc/codes"
)

// Codec converts between a byte stream and the persisted grid
type Codec interface {
	Encode(w io.Writer, stored gridcalc.StoredGrid) error
	Decode(r io.Reader) (gridcalc.StoredGrid, error)
}

// CodecFor picks a codec by file extension
func CodecFor(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONCodec{}, nil
	case ".yaml", ".yml":
		return YAMLCodec{}, nil
	case ".xlsx":
		return XLSXCodec{}, nil
	}
	return nil, gridcalc.NewApplicationError(codes.InvalidArgument, fmt.Sprintf("unsupported file type: %s", path))
}

// ReadFile loads a document, rebuilding its dependency graph and results
func ReadFile(path string, opts ...gridcalc.Option) (*gridcalc.Document, error) {
	codec, err := CodecFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stored, err := codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return gridcalc.LoadDocument(stored, opts...)
}

// WriteFile saves a document and clears its unsaved flag
func WriteFile(path string, doc *gridcalc.Document) error {
	codec, err := CodecFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := codec.Encode(f, doc.Snapshot()); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	doc.MarkSaved()
	return nil
}
