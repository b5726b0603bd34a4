package pipeline

import (
	"fmt"
	"math/rand"

	"github.com/field-infer/field-infer/pipeline/field"
	"github.com/field-infer/field-infer/pipeline/obs"
	"github.com/field-infer/field-infer/pipeline/prior"
)

// stubParam declares one active parameter with a flat prior over its range.
type stubParam struct {
	name     string
	min, max float64
}

// stubFactory is a minimal deterministic factory: each realization row holds
// the resolved variable values in declaration order. When noisy is set, a
// seed-driven perturbation is added per realization so seed policies become
// observable in the score.
type stubFactory struct {
	name   string
	params []stubParam
	noisy  bool

	lastSeeds []int64
}

func newStubFactory(name string, params ...stubParam) *stubFactory {
	return &stubFactory{name: name, params: params}
}

func (f *stubFactory) Name() string { return f.name }

func (f *stubFactory) ActiveParameters() []string {
	out := make([]string, len(f.params))
	for i, p := range f.params {
		out[i] = p.name
	}
	return out
}

func (f *stubFactory) ParameterRanges() map[string]field.Range {
	out := make(map[string]field.Range, len(f.params))
	for _, p := range f.params {
		out[p.name] = field.Range{Min: p.min, Max: p.max}
	}
	return out
}

func (f *stubFactory) Priors() map[string]prior.Prior {
	out := make(map[string]prior.Prior, len(f.params))
	for _, p := range f.params {
		out[p.name] = prior.NewFlat(p.min, p.max)
	}
	return out
}

func (f *stubFactory) Generate(variables map[string]float64, ensembleSize int, seeds []int64) (field.Field, error) {
	f.lastSeeds = seeds
	rows := make([][]float64, ensembleSize)
	for r := range rows {
		row := make([]float64, len(f.params))
		for i, p := range f.params {
			row[i] = variables[p.name]
		}
		if f.noisy {
			var rng *rand.Rand
			if seeds != nil {
				rng = rand.New(rand.NewSource(seeds[r]))
			} else {
				rng = rand.New(rand.NewSource(rand.Int63()))
			}
			for i := range row {
				row[i] += rng.NormFloat64()
			}
		}
		rows[r] = row
	}
	return field.Field{
		FactoryName:  f.name,
		Parameters:   variables,
		EnsembleSize: ensembleSize,
		Seeds:        seeds,
		Realizations: rows,
	}, nil
}

// passthroughSimulator exposes each field's realizations as one simulated
// entry keyed by the factory name.
type passthroughSimulator struct{}

func (passthroughSimulator) Evaluate(fields []field.Field) (*obs.Simulations, error) {
	sims := &obs.Simulations{}
	for _, f := range fields {
		if len(f.Realizations) == 0 {
			return nil, fmt.Errorf("field %q has no realizations", f.FactoryName)
		}
		k := obs.Key{Name: f.FactoryName, Freq: "nan", Pixels: len(f.Realizations[0]), Tag: "nan"}
		if err := sims.Append(k, f.Realizations...); err != nil {
			return nil, err
		}
	}
	return sims, nil
}

// stubLikelihood scores with an arbitrary function and optional masks.
type stubLikelihood struct {
	masks *obs.Masks
	score func(sims *obs.Simulations) (float64, error)
}

func (l *stubLikelihood) Masks() *obs.Masks { return l.masks }

func (l *stubLikelihood) Score(sims *obs.Simulations) (float64, error) { return l.score(sims) }

// quadraticLikelihood scores -(x-target)² where x is the ensemble mean of
// the named entry's first pixel.
func quadraticLikelihood(factoryName string, pixels int, target float64) *stubLikelihood {
	return &stubLikelihood{
		score: func(sims *obs.Simulations) (float64, error) {
			entry, ok := sims.Get(obs.Key{Name: factoryName, Freq: "nan", Pixels: pixels, Tag: "nan"})
			if !ok {
				return 0, fmt.Errorf("no entry for factory %q", factoryName)
			}
			x := entry.EnsembleMean()[0]
			return -(x - target) * (x - target), nil
		},
	}
}
