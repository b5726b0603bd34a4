package pipeline

import (
	"hash/fnv"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// RandomPolicy selects how ensemble seeds are produced for each likelihood
// evaluation.
type RandomPolicy string

const (
	// RandomFree generates no explicit ensemble seeds; field generation
	// falls back to process-local, time-seeded entropy.
	RandomFree RandomPolicy = "free"
	// RandomControllable derives a fresh seed set from the tracer-seeded
	// source on every evaluation, advancing the source: a run with the same
	// tracer reproduces the same seed sequence.
	RandomControllable RandomPolicy = "controllable"
	// RandomFixed re-derives the source from the tracer before every
	// evaluation, so each evaluation sees the identical seed set.
	RandomFixed RandomPolicy = "fixed"
)

// ValidRandomPolicies is the set of recognized randomness policy names.
var ValidRandomPolicies = map[RandomPolicy]bool{
	RandomFree: true, RandomControllable: true, RandomFixed: true,
}

// SeedSource derives deterministic ensemble seed streams from a tracer
// value. The stream seed is the tracer XOR an FNV-1a hash of the stream
// name, keeping unrelated streams isolated without any ambient global
// generator.
type SeedSource struct {
	tracer int64
	rng    *rand.Rand
}

const ensembleStream = "ensemble"

// NewSeedSource creates a seed source for the given tracer.
func NewSeedSource(tracer int64) *SeedSource {
	return &SeedSource{
		tracer: tracer,
		rng:    rand.New(rand.NewSource(tracer ^ fnv1a64(ensembleStream))),
	}
}

// EnsembleSeeds draws the next n seeds from the stream.
func (s *SeedSource) EnsembleSeeds(n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = s.rng.Int63()
	}
	return seeds
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// Randomness owns the per-process seed policy state. Each worker process has
// its own independent copy; seeds never cross process boundaries.
type Randomness struct {
	policy RandomPolicy
	tracer int64
	source *SeedSource
	seeds  []int64
}

// NewRandomness validates the policy and returns a controller for it.
func NewRandomness(policy RandomPolicy, tracer int64) (*Randomness, error) {
	if !ValidRandomPolicies[policy] {
		return nil, configErrorf("unknown randomness policy %q", policy)
	}
	r := &Randomness{policy: policy, tracer: tracer}
	if policy != RandomFree {
		r.source = NewSeedSource(tracer)
	}
	return r, nil
}

// Policy returns the active randomness policy.
func (r *Randomness) Policy() RandomPolicy { return r.policy }

// Refresh re-derives the ensemble seed set for one likelihood evaluation.
func (r *Randomness) Refresh(ensembleSize int) error {
	switch r.policy {
	case RandomFree:
		// Guard against a stale policy switch silently reusing seeds.
		if r.seeds != nil {
			return configErrorf("stale ensemble seeds present under free randomness")
		}
	case RandomControllable:
		r.seeds = r.source.EnsembleSeeds(ensembleSize)
		logrus.Debugf("controllable ensemble seeds %v", r.seeds)
	case RandomFixed:
		r.source = NewSeedSource(r.tracer)
		r.seeds = r.source.EnsembleSeeds(ensembleSize)
		logrus.Debugf("fixed ensemble seeds %v", r.seeds)
	default:
		return configErrorf("unknown randomness policy %q", r.policy)
	}
	return nil
}

// EnsembleSeeds returns the current seed set, nil under the free policy.
func (r *Randomness) EnsembleSeeds() []int64 { return r.seeds }
