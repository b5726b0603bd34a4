// Package prior defines the prior-distribution capability used by the
// parameter registry and provides the stock implementations.
//
// A Prior maps between the sampler's unit interval and physical parameter
// values: InvCDF takes a uniform unit sample to a physical value (the
// MultiNest-style prior transform) and PDF evaluates the prior density at a
// physical value. Implementations must be pure.
package prior

import "gonum.org/v1/gonum/stat/distuv"

// Prior is the capability the pipeline requires from a prior distribution.
type Prior interface {
	// InvCDF maps a unit-interval value to a physical parameter value.
	InvCDF(u float64) float64
	// PDF evaluates the prior density at a physical parameter value.
	PDF(x float64) float64
}

// Flat is a uniform prior over [Min, Max].
type Flat struct {
	dist distuv.Uniform
}

// NewFlat returns a flat prior over [min, max].
func NewFlat(min, max float64) Flat {
	return Flat{dist: distuv.Uniform{Min: min, Max: max}}
}

func (f Flat) InvCDF(u float64) float64 { return f.dist.Quantile(u) }

func (f Flat) PDF(x float64) float64 { return f.dist.Prob(x) }

// Gaussian is a normal prior with mean Mu and standard deviation Sigma.
type Gaussian struct {
	dist distuv.Normal
}

// NewGaussian returns a Gaussian prior with the given mean and stddev.
func NewGaussian(mu, sigma float64) Gaussian {
	return Gaussian{dist: distuv.Normal{Mu: mu, Sigma: sigma}}
}

func (g Gaussian) InvCDF(u float64) float64 { return g.dist.Quantile(u) }

func (g Gaussian) PDF(x float64) float64 { return g.dist.Prob(x) }

// Func adapts a pair of plain functions into a Prior, for user-supplied
// distributions that are not backed by a distuv distribution.
type Func struct {
	Inv     func(u float64) float64
	Density func(x float64) float64
}

func (f Func) InvCDF(u float64) float64 { return f.Inv(u) }

func (f Func) PDF(x float64) float64 { return f.Density(x) }
