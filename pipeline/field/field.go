// Package field defines generated physical fields and the factory contract
// the pipeline drives them through.
package field

import "github.com/field-infer/field-infer/pipeline/prior"

// Field is one generated physical field: the resolved parameter set plus the
// ensemble of stochastic realizations the simulator consumes. The pipeline
// treats Realizations as opaque; only the producing factory and the
// simulator interpret them.
type Field struct {
	FactoryName  string
	Parameters   map[string]float64
	EnsembleSize int
	// Seeds holds the ensemble seeds used for this generation, nil when the
	// randomness policy left seeding to process-local entropy.
	Seeds        []int64
	Realizations [][]float64
}

// Range is a closed parameter interval [Min, Max].
type Range struct {
	Min float64
	Max float64
}

// Factory produces Field values from physical parameter assignments.
// Generate must be deterministic given identical variables, ensemble size
// and seeds; with nil seeds it may fall back to process-local entropy.
type Factory interface {
	Name() string
	// ActiveParameters returns the ordered names of the parameters the
	// sampler is permitted to vary. The order is part of the contract with
	// the flat sampling cube and must be stable.
	ActiveParameters() []string
	ParameterRanges() map[string]Range
	Priors() map[string]prior.Prior
	Generate(variables map[string]float64, ensembleSize int, seeds []int64) (Field, error)
}
