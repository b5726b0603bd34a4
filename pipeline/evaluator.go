package pipeline

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/field-infer/field-infer/pipeline/comm"
	"github.com/field-infer/field-infer/pipeline/field"
	"github.com/field-infer/field-infer/pipeline/likelihood"
	"github.com/field-infer/field-infer/pipeline/obs"
)

// Protocol selects how one logical likelihood evaluation is synchronized
// across the worker group.
type Protocol string

const (
	// ProtocolCoordinated serves samplers that drive each worker with its
	// own distinct proposal. All proposals are exchanged, every worker
	// evaluates every proposal in rank order, and each worker keeps the
	// value for its own proposal. The redundant compute buys a
	// deterministic rank-to-value correspondence and avoids partial
	// results if a worker fails mid-evaluation.
	ProtocolCoordinated Protocol = "coordinated"
	// ProtocolReplicated serves samplers that broadcast one proposal to all
	// workers. Proposals are exchanged and must be bit-identical to rank
	// 0's; a mismatch means the sampler's broadcast failed and is fatal.
	ProtocolReplicated Protocol = "replicated"
)

// ValidProtocols is the set of recognized protocol names.
var ValidProtocols = map[Protocol]bool{ProtocolCoordinated: true, ProtocolReplicated: true}

// BoundaryReject is the sentinel log-likelihood returned for any cube with a
// coordinate outside [0,1]. Not an error: it steers the sampler away from
// the infeasible region.
const BoundaryReject = -math.MaxFloat64

// Simulator turns an ordered field tuple into simulated observables.
type Simulator interface {
	Evaluate(fields []field.Field) (*obs.Simulations, error)
}

// Evaluator produces exactly one scalar log-likelihood per logical
// evaluation, consistent across the worker group.
type Evaluator struct {
	registry   *Registry
	randomness *Randomness
	simulator  Simulator
	like       likelihood.Likelihood

	ensembleSize int
	rescaler     float64

	checkThreshold bool
	threshold      float64

	protocol Protocol
	comm     comm.Communicator
}

// Core computes the log-likelihood for a single raw unit cube, with no
// cross-worker coordination. The error return is reserved for fatal
// conditions; a BoundaryReject outcome is a value, never an error.
func (e *Evaluator) Core(cube []float64) (float64, error) {
	logrus.Debugf("sampler at %v", cube)
	for _, c := range cube {
		if c < 0 || c > 1 {
			logrus.Debugf("cube %v outside unit hypercube, returning boundary sentinel", cube)
			return BoundaryReject, nil
		}
	}
	if err := e.randomness.Refresh(e.ensembleSize); err != nil {
		return 0, err
	}
	physical, err := e.registry.Transform(cube)
	if err != nil {
		return 0, err
	}
	slices, err := e.registry.Slice(physical)
	if err != nil {
		return 0, err
	}
	seeds := e.randomness.EnsembleSeeds()
	fields := make([]field.Field, len(slices))
	for i, fs := range slices {
		f, err := fs.Factory.Generate(fs.Values, e.ensembleSize, seeds)
		if err != nil {
			return 0, err
		}
		logrus.Debugf("generated %s field", fs.Factory.Name())
		fields[i] = f
	}
	sims, err := e.simulator.Evaluate(fields)
	if err != nil {
		return 0, err
	}
	if masks := e.like.Masks(); masks != nil {
		sims, err = masks.ApplySimulations(sims)
		if err != nil {
			return 0, err
		}
	}
	score, err := e.like.Score(sims)
	if err != nil {
		return 0, err
	}
	if e.checkThreshold && score > e.threshold {
		return 0, &ThresholdExceeded{Value: score, Threshold: e.threshold}
	}
	return score * e.rescaler, nil
}

// Evaluate runs one logical evaluation under the configured protocol.
func (e *Evaluator) Evaluate(cube []float64) (float64, error) {
	switch e.protocol {
	case ProtocolCoordinated:
		return e.evaluateCoordinated(cube)
	case ProtocolReplicated:
		return e.evaluateReplicated(cube)
	default:
		return 0, configErrorf("unknown protocol %q", e.protocol)
	}
}

// evaluateCoordinated exchanges all workers' proposals, evaluates every one
// in rank order, then scatters so each worker keeps its own value.
//
// Core evaluation is deterministic given identical seeds, so any fatal
// condition fires identically on every worker before the scatter; no worker
// aborts while peers wait in the collective.
func (e *Evaluator) evaluateCoordinated(cube []float64) (float64, error) {
	pool, err := e.comm.AllGather(cube)
	if err != nil {
		return 0, err
	}
	scores := make([]float64, len(pool))
	for i, proposal := range pool {
		scores[i], err = e.Core(proposal)
		if err != nil {
			return 0, err
		}
	}
	return e.comm.Scatter(scores, 0)
}

// evaluateReplicated verifies all workers hold the same proposal, then
// evaluates it once locally.
func (e *Evaluator) evaluateReplicated(cube []float64) (float64, error) {
	pool, err := e.comm.AllGather(cube)
	if err != nil {
		return 0, err
	}
	for rank := 1; rank < len(pool); rank++ {
		if !bitIdentical(pool[rank], pool[0]) {
			return 0, &ConsistencyFault{
				Rank:   rank,
				Reason: "proposal differs from rank 0; sampler broadcast diverged",
			}
		}
	}
	return e.Core(cube)
}

// bitIdentical compares without tolerance: replicated workers must hold the
// exact same broadcast bytes.
func bitIdentical(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}
