// Package demo provides a small runnable inference model: a deterministic
// regular field, a stochastic random field, a simulator summing them into a
// single sky map, and mock data generation. The CLI and the end-to-end
// tests drive the pipeline with it.
package demo

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/field-infer/field-infer/pipeline/field"
	"github.com/field-infer/field-infer/pipeline/obs"
	"github.com/field-infer/field-infer/pipeline/prior"
)

// SkyKey is the single observable the demo simulator produces.
func SkyKey(pixels int) obs.Key {
	return obs.Key{Name: "sky", Freq: "23", Pixels: pixels, Tag: "I"}
}

// basis returns a fixed per-parameter spatial pattern, derived from the
// parameter name so distinct parameters imprint distinct structure.
func basis(name string, pixels int) []float64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	freq := float64(1 + h.Sum64()%5)
	out := make([]float64, pixels)
	for i := range out {
		out[i] = math.Sin(freq * float64(i+1) / float64(pixels) * 2 * math.Pi)
	}
	return out
}

// RegularFactory generates a deterministic field: the weighted sum of one
// fixed basis pattern per parameter. All ensemble realizations are
// identical.
type RegularFactory struct {
	*field.Base
	pixels int
}

// NewRegularFactory builds the demo's deterministic factory.
func NewRegularFactory(name string, pixels int, spec field.Spec) (*RegularFactory, error) {
	base, err := field.NewBase(spec)
	if err != nil {
		return nil, err
	}
	return &RegularFactory{Base: base, pixels: pixels}, nil
}

func (f *RegularFactory) Generate(variables map[string]float64, ensembleSize int, seeds []int64) (field.Field, error) {
	full, err := f.Resolve(variables)
	if err != nil {
		return field.Field{}, err
	}
	// sorted iteration keeps float summation bit-for-bit reproducible
	names := make([]string, 0, len(full))
	for name := range full {
		names = append(names, name)
	}
	sort.Strings(names)
	row := make([]float64, f.pixels)
	for _, name := range names {
		for i, b := range basis(name, f.pixels) {
			row[i] += full[name] * b
		}
	}
	rows := make([][]float64, ensembleSize)
	for r := range rows {
		rows[r] = append([]float64(nil), row...)
	}
	return field.Field{
		FactoryName:  f.Name(),
		Parameters:   full,
		EnsembleSize: ensembleSize,
		Seeds:        seeds,
		Realizations: rows,
	}, nil
}

// NoiseFactory generates a stochastic field: per-realization Gaussian noise
// scaled by the "rms" parameter, seeded per realization. With nil seeds it
// falls back to time entropy.
type NoiseFactory struct {
	*field.Base
	pixels int
}

// NewNoiseFactory builds the demo's stochastic factory. The spec must
// declare an "rms" parameter.
func NewNoiseFactory(name string, pixels int, spec field.Spec) (*NoiseFactory, error) {
	base, err := field.NewBase(spec)
	if err != nil {
		return nil, err
	}
	if _, ok := spec.Defaults["rms"]; !ok {
		return nil, fmt.Errorf("noise factory %q: spec declares no rms parameter", name)
	}
	return &NoiseFactory{Base: base, pixels: pixels}, nil
}

func (f *NoiseFactory) Generate(variables map[string]float64, ensembleSize int, seeds []int64) (field.Field, error) {
	full, err := f.Resolve(variables)
	if err != nil {
		return field.Field{}, err
	}
	if seeds != nil && len(seeds) != ensembleSize {
		return field.Field{}, fmt.Errorf("factory %q: %d seeds for ensemble size %d",
			f.Name(), len(seeds), ensembleSize)
	}
	rms := full["rms"]
	rows := make([][]float64, ensembleSize)
	for r := range rows {
		var rng *rand.Rand
		if seeds != nil {
			rng = rand.New(rand.NewSource(seeds[r]))
		} else {
			rng = rand.New(rand.NewSource(time.Now().UnixNano() + int64(r)))
		}
		row := make([]float64, f.pixels)
		for i := range row {
			row[i] = rms * rng.NormFloat64()
		}
		rows[r] = row
	}
	return field.Field{
		FactoryName:  f.Name(),
		Parameters:   full,
		EnsembleSize: ensembleSize,
		Seeds:        seeds,
		Realizations: rows,
	}, nil
}

// SumSimulator adds all fields' realizations pixel-wise into the single sky
// observable, one realization per ensemble member.
type SumSimulator struct {
	Pixels int
}

func (s SumSimulator) Evaluate(fields []field.Field) (*obs.Simulations, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to simulate")
	}
	ensemble := fields[0].EnsembleSize
	rows := make([][]float64, ensemble)
	for r := range rows {
		rows[r] = make([]float64, s.Pixels)
	}
	for _, f := range fields {
		if f.EnsembleSize != ensemble {
			return nil, fmt.Errorf("field %q ensemble size %d, want %d",
				f.FactoryName, f.EnsembleSize, ensemble)
		}
		for r, row := range f.Realizations {
			if len(row) != s.Pixels {
				return nil, fmt.Errorf("field %q realization has %d pixels, want %d",
					f.FactoryName, len(row), s.Pixels)
			}
			for i, v := range row {
				rows[r][i] += v
			}
		}
	}
	sims := &obs.Simulations{}
	if err := sims.Append(SkyKey(s.Pixels), rows...); err != nil {
		return nil, err
	}
	return sims, nil
}

// Model is the assembled demo problem.
type Model struct {
	Factories []field.Factory
	Simulator SumSimulator
	Pixels    int
}

// NewModel assembles the demo factories: a regular field with active b0 and
// psi0, and a random field with active rms.
func NewModel(pixels int) (*Model, error) {
	regular, err := NewRegularFactory("breg", pixels, field.Spec{
		Name:     "breg",
		Defaults: map[string]float64{"b0": 3, "psi0": 27},
		Active:   []string{"b0", "psi0"},
		Ranges: map[string]field.Range{
			"b0":   {Min: 0, Max: 10},
			"psi0": {Min: 0, Max: 50},
		},
		Priors: map[string]prior.Prior{
			"b0":   prior.NewFlat(0, 10),
			"psi0": prior.NewFlat(0, 50),
		},
	})
	if err != nil {
		return nil, err
	}
	noise, err := NewNoiseFactory("brnd", pixels, field.Spec{
		Name:     "brnd",
		Defaults: map[string]float64{"rms": 1},
		Active:   []string{"rms"},
		Ranges:   map[string]field.Range{"rms": {Min: 0, Max: 4}},
		Priors:   map[string]prior.Prior{"rms": prior.NewFlat(0, 4)},
	})
	if err != nil {
		return nil, err
	}
	return &Model{
		Factories: []field.Factory{regular, noise},
		Simulator: SumSimulator{Pixels: pixels},
		Pixels:    pixels,
	}, nil
}

// Mock generates mock measurements and covariances by running the model at
// the given true parameter values and adding Gaussian noise of the given
// standard deviation.
func (m *Model) Mock(truth map[string]map[string]float64, noiseStd float64, seed int64) (*obs.Measurements, *obs.Covariances, error) {
	fields := make([]field.Field, len(m.Factories))
	for i, f := range m.Factories {
		generated, err := f.Generate(truth[f.Name()], 1, []int64{seed + int64(i)})
		if err != nil {
			return nil, nil, fmt.Errorf("generating truth %s field: %w", f.Name(), err)
		}
		fields[i] = generated
	}
	sims, err := m.Simulator.Evaluate(fields)
	if err != nil {
		return nil, nil, fmt.Errorf("simulating truth: %w", err)
	}
	sky, _ := sims.Get(SkyKey(m.Pixels))
	truthRow := sky.Rows()[0]

	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, len(truthRow))
	variances := make([]float64, len(truthRow))
	for i, v := range truthRow {
		data[i] = v + noiseStd*rng.NormFloat64()
		variances[i] = noiseStd * noiseStd
	}
	meas := &obs.Measurements{}
	if err := meas.Append(SkyKey(m.Pixels), data); err != nil {
		return nil, nil, err
	}
	cov := &obs.Covariances{}
	if err := cov.Append(SkyKey(m.Pixels), variances); err != nil {
		return nil, nil, err
	}
	return meas, cov, nil
}
