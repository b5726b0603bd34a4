// Package pipeline couples a set of stochastic field factories to a
// simulator and a likelihood, and exposes the callables an external sampler
// drives over the bounded parameter cube, synchronizing each logical
// likelihood evaluation across a fixed-size worker group.
package pipeline

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/field-infer/field-infer/pipeline/comm"
	"github.com/field-infer/field-infer/pipeline/field"
	"github.com/field-infer/field-infer/pipeline/likelihood"
	"github.com/field-infer/field-infer/pipeline/sampler"
)

// Options wires a Pipeline. Factories, Simulator and Likelihood are
// required; Comm defaults to a single-member group and Config to its
// normalized zero value.
type Options struct {
	Factories  []field.Factory
	Simulator  Simulator
	Likelihood likelihood.Likelihood
	Config     *RunConfig
	Comm       comm.Communicator
}

// Pipeline owns the parameter registry, randomness policy and distributed
// evaluator, and records the sampler's result for the post-run accessors.
type Pipeline struct {
	registry *Registry
	eval     *Evaluator
	cfg      RunConfig

	result *sampler.Result
}

// New validates the wiring and builds a pipeline. All configuration errors
// surface here, before any evaluation proceeds.
func New(opts Options) (*Pipeline, error) {
	if len(opts.Factories) == 0 {
		return nil, configErrorf("no field factories registered")
	}
	if opts.Simulator == nil {
		return nil, configErrorf("no simulator registered")
	}
	if opts.Likelihood == nil {
		return nil, configErrorf("no likelihood registered")
	}
	cfg := RunConfig{}
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalize()

	registry, err := BuildRegistry(opts.Factories)
	if err != nil {
		return nil, err
	}
	if registry.Dim() == 0 {
		return nil, configErrorf("factory list declares no active parameters")
	}
	randomness, err := NewRandomness(cfg.RandomPolicy, cfg.SeedTracer)
	if err != nil {
		return nil, err
	}
	communicator := opts.Comm
	if communicator == nil {
		communicator = comm.Solo()
	}
	p := &Pipeline{
		registry: registry,
		cfg:      cfg,
		eval: &Evaluator{
			registry:       registry,
			randomness:     randomness,
			simulator:      opts.Simulator,
			like:           opts.Likelihood,
			ensembleSize:   cfg.EnsembleSize,
			rescaler:       cfg.LikelihoodRescaler,
			checkThreshold: cfg.CheckThreshold,
			threshold:      cfg.LikelihoodThreshold,
			protocol:       cfg.Protocol,
			comm:           communicator,
		},
	}
	logrus.Debugf("pipeline: %d active parameters, ensemble size %d, %s randomness, %s protocol",
		registry.Dim(), cfg.EnsembleSize, cfg.RandomPolicy, cfg.Protocol)
	return p, nil
}

// Registry returns the derived parameter registry.
func (p *Pipeline) Registry() *Registry { return p.registry }

// Dim returns the sampling-cube dimensionality declared to the sampler.
func (p *Pipeline) Dim() int { return p.registry.Dim() }

// LogLikelihood is the callable the external sampler invokes with a raw
// cube. It dispatches to the configured cross-worker protocol.
func (p *Pipeline) LogLikelihood(cube []float64) (float64, error) {
	return p.eval.Evaluate(cube)
}

// PriorTransform is the prior-transform callable handed to the sampler.
func (p *Pipeline) PriorTransform(cube []float64) ([]float64, error) {
	return p.registry.Transform(cube)
}

// Run starts the external sampler with the pipeline's callables and blocks
// until it terminates, then records the result for the accessors.
func (p *Pipeline) Run(ctx context.Context, s sampler.Sampler) error {
	res, err := s.Run(ctx, sampler.Problem{
		Dim:            p.registry.Dim(),
		PriorTransform: p.registry.Transform,
		LogLikelihood:  p.eval.Evaluate,
		Controllers:    p.cfg.SamplingControllers,
	})
	if err != nil {
		return err
	}
	p.result = &res
	logrus.Infof("run complete: logZ=%g±%g, %d posterior samples",
		res.LogEvidence, res.LogEvidenceErr, len(res.Samples))
	return nil
}

// Evidence returns the log-evidence estimate of the completed run.
func (p *Pipeline) Evidence() (float64, error) {
	if p.result == nil {
		return 0, &NotAvailableError{What: "evidence"}
	}
	return p.result.LogEvidence, nil
}

// EvidenceErr returns the log-evidence error estimate of the completed run.
func (p *Pipeline) EvidenceErr() (float64, error) {
	if p.result == nil {
		return 0, &NotAvailableError{What: "evidence error"}
	}
	return p.result.LogEvidenceErr, nil
}

// SampleTable is a posterior sample table: one column per qualified
// parameter, one row per sample.
type SampleTable struct {
	Names []string
	Rows  [][]float64
}

// Column returns the values of one qualified parameter across all rows.
func (t *SampleTable) Column(name string) ([]float64, bool) {
	col := -1
	for i, n := range t.Names {
		if n == name {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[col]
	}
	return out, true
}

// SamplesUnit returns the posterior samples in unit scale.
func (p *Pipeline) SamplesUnit() (*SampleTable, error) {
	if p.result == nil {
		return nil, &NotAvailableError{What: "samples"}
	}
	rows := make([][]float64, len(p.result.Samples))
	for i, row := range p.result.Samples {
		rows[i] = append([]float64(nil), row...)
	}
	return &SampleTable{Names: p.registry.Names(), Rows: rows}, nil
}

// Samples returns the posterior samples in physical scale. The prior
// transform is applied per access, not cached.
func (p *Pipeline) Samples() (*SampleTable, error) {
	table, err := p.SamplesUnit()
	if err != nil {
		return nil, err
	}
	for i, row := range table.Rows {
		physical, err := p.registry.Transform(row)
		if err != nil {
			return nil, err
		}
		table.Rows[i] = physical
	}
	return table, nil
}

// Summary holds the median and the 16th/84th-percentile bounds of one
// parameter's posterior.
type Summary struct {
	Median float64
	ErrLo  float64
	ErrUp  float64
}

// PosteriorSummary reports per-parameter physical-scale posterior
// constraints from the completed run.
func (p *Pipeline) PosteriorSummary() (map[string]Summary, error) {
	table, err := p.Samples()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Summary, len(table.Names))
	for _, name := range table.Names {
		col, _ := table.Column(name)
		if len(col) == 0 {
			continue
		}
		sort.Float64s(col)
		median := stat.Quantile(0.5, stat.Empirical, col, nil)
		out[name] = Summary{
			Median: median,
			ErrLo:  median - stat.Quantile(0.16, stat.Empirical, col, nil),
			ErrUp:  stat.Quantile(0.84, stat.Empirical, col, nil) - median,
		}
	}
	return out, nil
}
