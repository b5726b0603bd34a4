package likelihood

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/field-infer/field-infer/pipeline/obs"
)

var skyKey = obs.Key{Name: "sky", Freq: "23", Pixels: 3, Tag: "I"}

func newTestData(t *testing.T, data, variances []float64) (*obs.Measurements, *obs.Covariances) {
	t.Helper()
	meas := &obs.Measurements{}
	require.NoError(t, meas.Append(skyKey, data))
	cov := &obs.Covariances{}
	require.NoError(t, cov.Append(skyKey, variances))
	return meas, cov
}

func TestEnsemble_PerfectMatchScoresZero(t *testing.T) {
	meas, cov := newTestData(t, []float64{1, 2, 3}, []float64{1, 1, 1})
	like, err := NewEnsemble(meas, cov, nil)
	require.NoError(t, err)

	sims := &obs.Simulations{}
	require.NoError(t, sims.Append(skyKey, []float64{1, 2, 3}))

	score, err := like.Score(sims)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestEnsemble_MismatchPenalized(t *testing.T) {
	meas, cov := newTestData(t, []float64{0, 0, 0}, []float64{4, 4, 4})
	like, err := NewEnsemble(meas, cov, nil)
	require.NoError(t, err)

	sims := &obs.Simulations{}
	require.NoError(t, sims.Append(skyKey, []float64{2, 0, 0}))

	score, err := like.Score(sims)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, score, 1e-12, "-(1/2)·2²/4")
}

func TestEnsemble_UsesEnsembleMean(t *testing.T) {
	meas, cov := newTestData(t, []float64{2, 2, 2}, []float64{1, 1, 1})
	like, err := NewEnsemble(meas, cov, nil)
	require.NoError(t, err)

	sims := &obs.Simulations{}
	require.NoError(t, sims.Append(skyKey, []float64{1, 1, 1}, []float64{3, 3, 3}))

	score, err := like.Score(sims)
	require.NoError(t, err)
	assert.Zero(t, score, "ensemble mean matches the data exactly")
}

func TestEnsemble_MissingSimulatedEntry(t *testing.T) {
	meas, cov := newTestData(t, []float64{1, 2, 3}, []float64{1, 1, 1})
	like, err := NewEnsemble(meas, cov, nil)
	require.NoError(t, err)

	_, err = like.Score(&obs.Simulations{})
	assert.Error(t, err)
}

func TestNewEnsemble_MissingCovariance(t *testing.T) {
	meas := &obs.Measurements{}
	require.NoError(t, meas.Append(skyKey, []float64{1, 2, 3}))

	_, err := NewEnsemble(meas, &obs.Covariances{}, nil)
	assert.Error(t, err)
}

func TestEnsemble_NonPositiveVariance(t *testing.T) {
	meas, cov := newTestData(t, []float64{1, 2, 3}, []float64{1, 0, 1})
	like, err := NewEnsemble(meas, cov, nil)
	require.NoError(t, err)

	sims := &obs.Simulations{}
	require.NoError(t, sims.Append(skyKey, []float64{1, 2, 3}))

	_, err = like.Score(sims)
	assert.Error(t, err)
}

func TestNewEnsemble_AppliesMasks(t *testing.T) {
	meas, cov := newTestData(t, []float64{1, 2, 3}, []float64{1, 1, 1})
	masks := &obs.Masks{}
	require.NoError(t, masks.Append(skyKey, []float64{1, 0, 1}))

	like, err := NewEnsemble(meas, cov, masks)
	require.NoError(t, err)
	assert.Same(t, masks, like.Masks())

	// The evaluator applies the same masks to the simulations before
	// scoring; emulate that here.
	sims := &obs.Simulations{}
	require.NoError(t, sims.Append(skyKey, []float64{1, 99, 3}))
	maskedSims, err := masks.ApplySimulations(sims)
	require.NoError(t, err)

	score, err := like.Score(maskedSims)
	require.NoError(t, err)
	assert.Zero(t, score, "the masked pixel must not contribute")
}
