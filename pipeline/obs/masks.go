package obs

import "fmt"

// Masks stores mask vectors keyed like the observables they apply to.
// Pixel value 1 keeps, 0 drops.
type Masks struct {
	Dict
}

// Append adds or replaces the mask for a key. Entries must be 0 or 1.
func (m *Masks) Append(k Key, mask []float64) error {
	for i, v := range mask {
		if v != 0 && v != 1 {
			return fmt.Errorf("mask %s: pixel %d has value %g, want 0 or 1", k, i, v)
		}
	}
	return m.set(k, [][]float64{append([]float64(nil), mask...)})
}

// keep returns the indices of unmasked pixels.
func keep(mask []float64) []int {
	idx := make([]int, 0, len(mask))
	for i, v := range mask {
		if v == 1 {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m *Masks) maskRows(k Key, o *Observable) (Key, [][]float64, bool) {
	mask, ok := m.m[k]
	if !ok {
		return k, nil, false
	}
	idx := keep(mask.rows[0])
	rows := make([][]float64, len(o.rows))
	for r, row := range o.rows {
		out := make([]float64, len(idx))
		for j, i := range idx {
			out[j] = row[i]
		}
		rows[r] = out
	}
	return k.WithPixels(len(idx)), rows, true
}

// ApplySimulations returns a new simulation set with masked pixels dropped.
// Entries without a registered mask are carried over unchanged.
func (m *Masks) ApplySimulations(s *Simulations) (*Simulations, error) {
	out := &Simulations{}
	for _, k := range s.keys {
		o := s.m[k]
		nk, rows, masked := m.maskRows(k, o)
		if !masked {
			if err := out.put(k, o.rows); err != nil {
				return nil, err
			}
			continue
		}
		if err := out.put(nk, rows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ApplyMeasurements returns a new measurement set with masked pixels dropped.
func (m *Masks) ApplyMeasurements(meas *Measurements) (*Measurements, error) {
	out := &Measurements{}
	for _, k := range meas.keys {
		o := meas.m[k]
		nk, rows, masked := m.maskRows(k, o)
		if !masked {
			nk, rows = k, o.rows
		}
		if err := out.set(nk, rows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ApplyCovariances returns a new covariance set with masked pixels dropped
// from each variance diagonal.
func (m *Masks) ApplyCovariances(cov *Covariances) (*Covariances, error) {
	out := &Covariances{}
	for _, k := range cov.keys {
		o := cov.m[k]
		nk, rows, masked := m.maskRows(k, o)
		if !masked {
			nk, rows = k, o.rows
		}
		if err := out.set(nk, rows); err != nil {
			return nil, err
		}
	}
	return out, nil
}
