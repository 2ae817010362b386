package persist

import (
	"encoding/json"
	"io"

	"github.com/vogtb/go-spreadsheet/packages/gridcalc"
)

// JSONCodec stores {"rowCount", "columnCount", "cells": [{"row", "col",
// "value"}]}
type JSONCodec struct{}

func (JSONCodec) Encode(w io.Writer, stored gridcalc.StoredGrid) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stored)
}

func (JSONCodec) Decode(r io.Reader) (gridcalc.StoredGrid, error) {
	var stored gridcalc.StoredGrid
	if err := json.NewDecoder(r).Decode(&stored); err != nil {
		return gridcalc.StoredGrid{}, err
	}
	return stored, nil
}
