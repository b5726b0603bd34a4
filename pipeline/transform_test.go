package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/field-infer/field-infer/pipeline/field"
)

func TestTransform_FlatPriors(t *testing.T) {
	reg, err := BuildRegistry([]field.Factory{
		newStubFactory("f1", stubParam{"x", 0, 10}, stubParam{"y", -1, 1}),
	})
	require.NoError(t, err)

	out, err := reg.Transform([]float64{0.5, 0.25})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, out[0], 1e-12)
	assert.InDelta(t, -0.5, out[1], 1e-12)
	assert.Len(t, out, 2)
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	reg, err := BuildRegistry([]field.Factory{newStubFactory("f", stubParam{"x", 0, 10})})
	require.NoError(t, err)

	cube := []float64{0.3}
	_, err = reg.Transform(cube)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3}, cube)
}

func TestTransform_LengthMismatch(t *testing.T) {
	reg, err := BuildRegistry([]field.Factory{newStubFactory("f", stubParam{"x", 0, 10})})
	require.NoError(t, err)

	_, err = reg.Transform([]float64{0.1, 0.2})
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestPDF_FlatPriors(t *testing.T) {
	reg, err := BuildRegistry([]field.Factory{newStubFactory("f", stubParam{"x", 0, 10})})
	require.NoError(t, err)

	out, err := reg.PDF([]float64{5})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, out[0], 1e-12)

	out, err = reg.PDF([]float64{11})
	require.NoError(t, err)
	assert.Zero(t, out[0])
}
