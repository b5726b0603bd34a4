package pipeline

// Transform maps a uniform unit-cube sample onto physical parameter values,
// applying each position's prior inverse CDF in registry order. Element
// count and ordering are preserved; the input is not modified.
func (r *Registry) Transform(cube []float64) ([]float64, error) {
	if len(cube) != r.Dim() {
		return nil, configErrorf("cube has %d coordinates, registry has %d active parameters",
			len(cube), r.Dim())
	}
	out := make([]float64, len(cube))
	for i, name := range r.names {
		out[i] = r.priors[name].InvCDF(cube[i])
	}
	return out, nil
}

// PDF evaluates each position's prior density at the given values, in
// registry order. Diagnostic use only; not part of the likelihood path.
func (r *Registry) PDF(values []float64) ([]float64, error) {
	if len(values) != r.Dim() {
		return nil, configErrorf("value vector has %d coordinates, registry has %d active parameters",
			len(values), r.Dim())
	}
	out := make([]float64, len(values))
	for i, name := range r.names {
		out[i] = r.priors[name].PDF(values[i])
	}
	return out, nil
}
