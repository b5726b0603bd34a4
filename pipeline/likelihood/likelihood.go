// Package likelihood defines the scoring contract between simulated
// observables and reference data, and provides an ensemble Gaussian
// implementation.
package likelihood

import (
	"fmt"
	"math"

	"github.com/field-infer/field-infer/pipeline/obs"
)

// Likelihood scores a simulated observable set against reference data.
// Masks returns the mask set the evaluator applies to the simulations
// before scoring; nil means no masking.
type Likelihood interface {
	Masks() *obs.Masks
	Score(sims *obs.Simulations) (float64, error)
}

// Ensemble is a Gaussian ensemble likelihood: for each measured entry it
// compares the ensemble mean of the matching simulated entry against the
// data under the stored diagonal covariance,
//
//	logL = -1/2 Σ_pixels (mean - data)² / σ²
//
// summed over all entries. Masks registered at construction are applied to
// the measurements and covariances once, up front; the evaluator applies
// the same masks to each simulation set before scoring.
type Ensemble struct {
	data  *obs.Measurements
	cov   *obs.Covariances
	masks *obs.Masks
}

// NewEnsemble builds an ensemble likelihood from measurements and their
// diagonal covariances. masks may be nil. Every measured entry must have a
// covariance entry under the same (post-masking) key.
func NewEnsemble(data *obs.Measurements, cov *obs.Covariances, masks *obs.Masks) (*Ensemble, error) {
	if masks != nil {
		var err error
		data, err = masks.ApplyMeasurements(data)
		if err != nil {
			return nil, fmt.Errorf("masking measurements: %w", err)
		}
		cov, err = masks.ApplyCovariances(cov)
		if err != nil {
			return nil, fmt.Errorf("masking covariances: %w", err)
		}
	}
	for _, k := range data.Keys() {
		if _, ok := cov.Get(k); !ok {
			return nil, fmt.Errorf("measured entry %s has no covariance", k)
		}
	}
	return &Ensemble{data: data, cov: cov, masks: masks}, nil
}

func (e *Ensemble) Masks() *obs.Masks { return e.masks }

func (e *Ensemble) Score(sims *obs.Simulations) (float64, error) {
	total := 0.0
	for _, k := range e.data.Keys() {
		measured, _ := e.data.Get(k)
		variance, _ := e.cov.Get(k)
		simulated, ok := sims.Get(k)
		if !ok {
			return 0, fmt.Errorf("no simulated entry for %s", k)
		}
		if simulated.Pixels() != measured.Pixels() {
			return 0, fmt.Errorf("entry %s: simulated pixel count %d, measured %d",
				k, simulated.Pixels(), measured.Pixels())
		}
		mean := simulated.EnsembleMean()
		dataRow := measured.Rows()[0]
		varRow := variance.Rows()[0]
		for i := range mean {
			if varRow[i] <= 0 {
				return 0, fmt.Errorf("entry %s: non-positive variance at pixel %d", k, i)
			}
			d := mean[i] - dataRow[i]
			total -= 0.5 * d * d / varRow[i]
		}
	}
	if math.IsNaN(total) {
		return 0, fmt.Errorf("likelihood evaluated to NaN")
	}
	return total, nil
}
