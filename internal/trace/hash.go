package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/werous/covid-transmission-sim/internal/grid"
)

// DomainGrid prefixes grid fingerprints. The version suffix leaves room for
// a different encoding later.
const DomainGrid = "percolate/grid/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GridObject is the canonical representation of a grid state.
func GridObject(rows, cols int, cells []grid.State) map[string]any {
	return map[string]any{
		"rows":  rows,
		"cols":  cols,
		"cells": cells,
	}
}

// Fingerprint returns a hex digest identifying a grid's dimensions and cells.
func Fingerprint(rows, cols int, cells []grid.State) (string, error) {
	if len(cells) != rows*cols {
		return "", fmt.Errorf("fingerprint: %d cells for %dx%d grid", len(cells), rows, cols)
	}
	data, err := MarshalCanonical(GridObject(rows, cols, cells))
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainGrid, data), nil
}
