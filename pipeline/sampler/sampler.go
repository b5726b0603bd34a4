// Package sampler defines the boundary between the pipeline and the external
// sampling algorithm, plus a naive Monte Carlo evidence estimator used to
// exercise that boundary. Real nested-sampling or MCMC engines plug in
// behind the same interface; their internals are out of scope here.
package sampler

import "context"

// Problem is what the pipeline hands to a sampler: the declared
// dimensionality and the two callables of the standard nested-sampling
// calling convention.
type Problem struct {
	Dim int
	// PriorTransform maps a unit cube to physical parameter values.
	PriorTransform func(cube []float64) ([]float64, error)
	// LogLikelihood evaluates one proposal. The cube is unit-scale; the
	// pipeline owns boundary handling and cross-worker synchronization.
	LogLikelihood func(cube []float64) (float64, error)
	// Controllers are sampler-specific knobs the pipeline passes through.
	Controllers map[string]float64
}

// Result is what a completed run reports back.
type Result struct {
	LogEvidence    float64
	LogEvidenceErr float64
	// Samples holds posterior samples in unit scale, one row per sample,
	// columns in the problem's parameter order.
	Samples [][]float64
}

// Sampler runs a sampling algorithm over a problem until termination.
type Sampler interface {
	Run(ctx context.Context, p Problem) (Result, error)
}
