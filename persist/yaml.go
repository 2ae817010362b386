package persist

import (
	"io"

	"github.com/vogtb/go-spreadsheet/packages/gridcalc"
	"gopkg.in/yaml.v2"
)

// YAMLCodec stores the same shape as JSONCodec in YAML
type YAMLCodec struct{}

func (YAMLCodec) Encode(w io.Writer, stored gridcalc.StoredGrid) error {
	b, err := yaml.Marshal(stored)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (YAMLCodec) Decode(r io.Reader) (gridcalc.StoredGrid, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return gridcalc.StoredGrid{}, err
	}
	var stored gridcalc.StoredGrid
	if err := yaml.Unmarshal(b, &stored); err != nil {
		return gridcalc.StoredGrid{}, err
	}
	return stored, nil
}
