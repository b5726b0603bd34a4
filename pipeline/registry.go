package pipeline

import (
	"github.com/field-infer/field-infer/pipeline/field"
	"github.com/field-infer/field-infer/pipeline/prior"
)

// Registry is the flattened parameter space derived from an ordered factory
// list. Qualified names are factoryName + "_" + parameterName, concatenated
// in factory registration order then intra-factory declaration order. That
// ordering is the contract with the external sampler's flat cube and is
// never reordered after construction.
type Registry struct {
	factories []field.Factory
	names     []string
	ranges    map[string]field.Range
	priors    map[string]prior.Prior
	// offsets[i] is the cube index where factory i's slice begins;
	// offsets[len(factories)] is the total dimension.
	offsets []int
}

// BuildRegistry derives a Registry from an ordered factory list. Building
// from a new list fully replaces any previous registry; there is no
// incremental merge.
func BuildRegistry(factories []field.Factory) (*Registry, error) {
	r := &Registry{
		factories: append([]field.Factory(nil), factories...),
		ranges:    make(map[string]field.Range),
		priors:    make(map[string]prior.Prior),
		offsets:   make([]int, 0, len(factories)+1),
	}
	for _, f := range factories {
		r.offsets = append(r.offsets, len(r.names))
		ranges := f.ParameterRanges()
		priors := f.Priors()
		for _, p := range f.ActiveParameters() {
			qualified := f.Name() + "_" + p
			if _, dup := r.ranges[qualified]; dup {
				return nil, configErrorf("duplicate qualified parameter %q", qualified)
			}
			rg, ok := ranges[p]
			if !ok {
				return nil, configErrorf("factory %q: active parameter %q has no range", f.Name(), p)
			}
			pr, ok := priors[p]
			if !ok {
				return nil, configErrorf("factory %q: active parameter %q has no prior", f.Name(), p)
			}
			r.names = append(r.names, qualified)
			r.ranges[qualified] = rg
			r.priors[qualified] = pr
		}
	}
	r.offsets = append(r.offsets, len(r.names))
	return r, nil
}

// Dim returns the total number of active parameters.
func (r *Registry) Dim() int { return len(r.names) }

// Names returns the ordered qualified parameter names.
func (r *Registry) Names() []string { return append([]string(nil), r.names...) }

// RangeOf returns the range of a qualified parameter.
func (r *Registry) RangeOf(qualified string) (field.Range, bool) {
	rg, ok := r.ranges[qualified]
	return rg, ok
}

// PriorOf returns the prior of a qualified parameter.
func (r *Registry) PriorOf(qualified string) (prior.Prior, bool) {
	p, ok := r.priors[qualified]
	return p, ok
}

// Factories returns the registered factories in order.
func (r *Registry) Factories() []field.Factory {
	return append([]field.Factory(nil), r.factories...)
}

// FactorySlice is one factory's contiguous share of a sampling cube: the
// sub-slice itself and the mapping from local parameter names to its values.
type FactorySlice struct {
	Factory field.Factory
	Cube    []float64
	Values  map[string]float64
}

// Slice partitions a full cube across the registered factories, in order.
// Pure and stateless: concatenating the Cube fields of the result in order
// reconstructs the input exactly.
func (r *Registry) Slice(cube []float64) ([]FactorySlice, error) {
	if len(cube) != r.Dim() {
		return nil, configErrorf("cube has %d coordinates, registry has %d active parameters",
			len(cube), r.Dim())
	}
	out := make([]FactorySlice, len(r.factories))
	for i, f := range r.factories {
		sub := cube[r.offsets[i]:r.offsets[i+1]]
		values := make(map[string]float64, len(sub))
		for j, p := range f.ActiveParameters() {
			values[p] = sub[j]
		}
		out[i] = FactorySlice{Factory: f, Cube: sub, Values: values}
	}
	return out, nil
}
