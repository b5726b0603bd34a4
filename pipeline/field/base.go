package field

import (
	"fmt"
	"sort"

	"github.com/field-infer/field-infer/pipeline/prior"
)

// Spec describes a factory: its full default parameter set and the subset of
// parameters activated for sampling, with their ranges and priors. A Spec is
// consumed once by NewBase; the resulting Base is immutable.
type Spec struct {
	Name     string
	Defaults map[string]float64
	Active   []string
	Ranges   map[string]Range
	Priors   map[string]prior.Prior
}

// Base carries the descriptor half of a Factory: name, defaults, active
// parameter set, ranges and priors. Concrete factories embed a *Base and add
// their Generate method.
type Base struct {
	name     string
	defaults map[string]float64
	active   []string
	ranges   map[string]Range
	priors   map[string]prior.Prior
}

// NewBase validates a Spec and returns the immutable Base it describes.
// Every active parameter must appear in Defaults and have both a range and a
// prior; active names must be unique.
func NewBase(spec Spec) (*Base, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("factory name must not be empty")
	}
	seen := make(map[string]bool, len(spec.Active))
	for _, name := range spec.Active {
		if seen[name] {
			return nil, fmt.Errorf("factory %q: duplicate active parameter %q", spec.Name, name)
		}
		seen[name] = true
		if _, ok := spec.Defaults[name]; !ok {
			return nil, fmt.Errorf("factory %q: active parameter %q has no default", spec.Name, name)
		}
		if _, ok := spec.Ranges[name]; !ok {
			return nil, fmt.Errorf("factory %q: active parameter %q has no range", spec.Name, name)
		}
		if _, ok := spec.Priors[name]; !ok {
			return nil, fmt.Errorf("factory %q: active parameter %q has no prior", spec.Name, name)
		}
	}
	b := &Base{
		name:     spec.Name,
		defaults: make(map[string]float64, len(spec.Defaults)),
		active:   append([]string(nil), spec.Active...),
		ranges:   make(map[string]Range, len(spec.Ranges)),
		priors:   make(map[string]prior.Prior, len(spec.Priors)),
	}
	for k, v := range spec.Defaults {
		b.defaults[k] = v
	}
	for _, name := range spec.Active {
		b.ranges[name] = spec.Ranges[name]
		b.priors[name] = spec.Priors[name]
	}
	return b, nil
}

func (b *Base) Name() string { return b.name }

func (b *Base) ActiveParameters() []string {
	return append([]string(nil), b.active...)
}

func (b *Base) ParameterRanges() map[string]Range {
	out := make(map[string]Range, len(b.ranges))
	for k, v := range b.ranges {
		out[k] = v
	}
	return out
}

func (b *Base) Priors() map[string]prior.Prior {
	out := make(map[string]prior.Prior, len(b.priors))
	for k, v := range b.priors {
		out[k] = v
	}
	return out
}

// Resolve merges the sampled variable assignment over the factory defaults,
// producing the full physical parameter set a Generate call works from.
// Variables naming parameters outside the active set are rejected.
func (b *Base) Resolve(variables map[string]float64) (map[string]float64, error) {
	full := make(map[string]float64, len(b.defaults))
	for k, v := range b.defaults {
		full[k] = v
	}
	// deterministic error for multi-variable mistakes
	names := make([]string, 0, len(variables))
	for k := range variables {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if _, ok := b.ranges[k]; !ok {
			return nil, fmt.Errorf("factory %q: variable %q is not an active parameter", b.name, k)
		}
		full[k] = variables[k]
	}
	return full, nil
}
