// Package obs provides the observable collections exchanged between the
// simulator, the masks and the likelihood: measured data sets, simulated
// ensemble sets, covariances and masks.
//
// Entries are keyed by Key and insertion-ordered. Pixel counts are opaque
// sizes; nothing in this package assumes HEALPix geometry.
//
// Masking convention: a masked pixel carries value 0, an unmasked pixel
// value 1. Masking drops masked pixels and re-keys the entry with the
// surviving pixel count; entries without a registered mask pass through
// untouched.
package obs

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Key identifies one observable entry. Freq and Tag are free-form strings
// ("nan" where not applicable, following the upstream data convention);
// Pixels is the number of data points in each realization.
type Key struct {
	Name   string
	Freq   string
	Pixels int
	Tag    string
}

func (k Key) String() string {
	return fmt.Sprintf("(%s,%s,%d,%s)", k.Name, k.Freq, k.Pixels, k.Tag)
}

// WithPixels returns the key re-labelled for a different pixel count,
// as produced by masking.
func (k Key) WithPixels(n int) Key {
	k.Pixels = n
	return k
}

// Observable holds one entry's data: one row per realization, all rows of
// equal length. Measured data and covariance diagonals have a single row;
// simulated ensemble sets have ensemble-size rows.
type Observable struct {
	rows [][]float64
}

// Rows returns the underlying realization rows. Callers must not mutate.
func (o *Observable) Rows() [][]float64 { return o.rows }

// Pixels returns the length of each row.
func (o *Observable) Pixels() int {
	if len(o.rows) == 0 {
		return 0
	}
	return len(o.rows[0])
}

// EnsembleSize returns the number of realization rows.
func (o *Observable) EnsembleSize() int { return len(o.rows) }

// EnsembleMean returns the per-pixel mean over all realization rows.
func (o *Observable) EnsembleMean() []float64 {
	mean := make([]float64, o.Pixels())
	for _, row := range o.rows {
		floats.Add(mean, row)
	}
	if len(o.rows) > 0 {
		floats.Scale(1/float64(len(o.rows)), mean)
	}
	return mean
}

// Dict is an insertion-ordered collection of observables.
type Dict struct {
	keys []Key
	m    map[Key]*Observable
}

// Keys returns the entry keys in insertion order.
func (d *Dict) Keys() []Key { return append([]Key(nil), d.keys...) }

// Get returns the entry for a key, if present.
func (d *Dict) Get(k Key) (*Observable, bool) {
	o, ok := d.m[k]
	return o, ok
}

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.keys) }

func (d *Dict) put(k Key, rows [][]float64) error {
	for _, row := range rows {
		if len(row) != k.Pixels {
			return fmt.Errorf("entry %s: row length %d does not match key pixel count", k, len(row))
		}
	}
	if d.m == nil {
		d.m = make(map[Key]*Observable)
	}
	if existing, ok := d.m[k]; ok {
		existing.rows = append(existing.rows, rows...)
		return nil
	}
	d.keys = append(d.keys, k)
	d.m[k] = &Observable{rows: rows}
	return nil
}

func (d *Dict) set(k Key, rows [][]float64) error {
	if _, ok := d.m[k]; ok {
		d.m[k].rows = nil
	}
	return d.put(k, rows)
}

// Measurements stores measured data sets, one row per entry.
type Measurements struct {
	Dict
}

// Append adds or replaces the measured data for a key.
func (m *Measurements) Append(k Key, data []float64) error {
	return m.set(k, [][]float64{append([]float64(nil), data...)})
}

// Covariances stores per-entry diagonal covariances, one variance per pixel.
type Covariances struct {
	Dict
}

// Append adds or replaces the variance diagonal for a key.
func (c *Covariances) Append(k Key, variances []float64) error {
	return c.set(k, [][]float64{append([]float64(nil), variances...)})
}

// Simulations stores simulated ensemble sets. Appending to an existing key
// stacks realizations, so repeated simulator calls accumulate the ensemble.
type Simulations struct {
	Dict
}

// Append stacks realization rows onto the entry for a key.
func (s *Simulations) Append(k Key, rows ...[]float64) error {
	copied := make([][]float64, len(rows))
	for i, row := range rows {
		copied[i] = append([]float64(nil), row...)
	}
	return s.put(k, copied)
}
