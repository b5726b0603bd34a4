package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/field-infer/field-infer/pipeline/field"
	"github.com/field-infer/field-infer/pipeline/prior"
)

func TestBuildRegistry_OrderingMatchesDeclaration(t *testing.T) {
	f1 := newStubFactory("breg", stubParam{"b0", 0, 10}, stubParam{"psi0", 0, 50})
	f2 := newStubFactory("brnd", stubParam{"rms", 0, 4})

	reg, err := BuildRegistry([]field.Factory{f1, f2})
	require.NoError(t, err)

	assert.Equal(t, []string{"breg_b0", "breg_psi0", "brnd_rms"}, reg.Names())
	assert.Equal(t, 3, reg.Dim())

	rg, ok := reg.RangeOf("breg_psi0")
	require.True(t, ok)
	assert.Equal(t, field.Range{Min: 0, Max: 50}, rg)

	_, ok = reg.PriorOf("brnd_rms")
	assert.True(t, ok)
}

func TestBuildRegistry_DuplicateQualifiedName(t *testing.T) {
	// "a" + "b_c" and "a_b" + "c" both qualify to "a_b_c".
	f1 := newStubFactory("a", stubParam{"b_c", 0, 1})
	f2 := newStubFactory("a_b", stubParam{"c", 0, 1})

	_, err := BuildRegistry([]field.Factory{f1, f2})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestBuildRegistry_MissingRangeOrPrior(t *testing.T) {
	f := &incompleteFactory{stubFactory: newStubFactory("f", stubParam{"x", 0, 1}), dropRange: true}
	_, err := BuildRegistry([]field.Factory{f})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	f = &incompleteFactory{stubFactory: newStubFactory("f", stubParam{"x", 0, 1}), dropPrior: true}
	_, err = BuildRegistry([]field.Factory{f})
	require.ErrorAs(t, err, &cfgErr)
}

// incompleteFactory declares an active parameter but withholds its range or
// prior.
type incompleteFactory struct {
	*stubFactory
	dropRange bool
	dropPrior bool
}

func (f *incompleteFactory) ParameterRanges() map[string]field.Range {
	if f.dropRange {
		return nil
	}
	return f.stubFactory.ParameterRanges()
}

func (f *incompleteFactory) Priors() map[string]prior.Prior {
	if f.dropPrior {
		return nil
	}
	return f.stubFactory.Priors()
}

func TestBuildRegistry_RebuildFullyReplaces(t *testing.T) {
	old, err := BuildRegistry([]field.Factory{newStubFactory("a", stubParam{"x", 0, 1})})
	require.NoError(t, err)

	reg, err := BuildRegistry([]field.Factory{newStubFactory("b", stubParam{"y", 0, 1})})
	require.NoError(t, err)

	assert.Equal(t, []string{"b_y"}, reg.Names())
	_, ok := reg.RangeOf("a_x")
	assert.False(t, ok, "previous active-parameter identities must not survive")
	assert.Equal(t, []string{"a_x"}, old.Names(), "earlier registry stays immutable")
}

func TestRegistry_SliceRoundTrip(t *testing.T) {
	partitions := [][]int{{3}, {1, 2}, {2, 1, 3}, {1, 1, 1, 1}}
	for _, counts := range partitions {
		factories := make([]field.Factory, len(counts))
		total := 0
		for i, n := range counts {
			params := make([]stubParam, n)
			for j := range params {
				params[j] = stubParam{name: string(rune('a' + j)), min: 0, max: 1}
			}
			factories[i] = newStubFactory(string(rune('f'+i)), params...)
			total += n
		}
		reg, err := BuildRegistry(factories)
		require.NoError(t, err)

		cube := make([]float64, total)
		for i := range cube {
			cube[i] = float64(i) / float64(total)
		}
		slices, err := reg.Slice(cube)
		require.NoError(t, err)
		require.Len(t, slices, len(counts))

		var rebuilt []float64
		for _, s := range slices {
			rebuilt = append(rebuilt, s.Cube...)
		}
		assert.Equal(t, cube, rebuilt)
	}
}

func TestRegistry_SliceValuesByLocalName(t *testing.T) {
	reg, err := BuildRegistry([]field.Factory{
		newStubFactory("f1", stubParam{"a", 0, 1}, stubParam{"b", 0, 1}),
		newStubFactory("f2", stubParam{"c", 0, 1}),
	})
	require.NoError(t, err)

	slices, err := reg.Slice([]float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 0.1, "b": 0.2}, slices[0].Values)
	assert.Equal(t, map[string]float64{"c": 0.3}, slices[1].Values)
}

func TestRegistry_SliceLengthMismatch(t *testing.T) {
	reg, err := BuildRegistry([]field.Factory{newStubFactory("f", stubParam{"x", 0, 1})})
	require.NoError(t, err)

	_, err = reg.Slice([]float64{0.1, 0.2})
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}
