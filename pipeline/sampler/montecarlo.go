package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// MonteCarlo estimates the evidence by uniform sampling of the unit cube:
// Z ≈ (1/N) Σ exp(logL_i). Posterior samples are drawn by rejection against
// the best likelihood seen. It exercises the pipeline boundary end to end;
// production runs plug in a real nested sampler behind the same interface.
//
// Controllers: "points" overrides Points, "seed" overrides Seed.
type MonteCarlo struct {
	Points int
	Seed   int64
}

const defaultPoints = 1000

func (m MonteCarlo) Run(ctx context.Context, p Problem) (Result, error) {
	if p.Dim <= 0 {
		return Result{}, fmt.Errorf("problem dimensionality must be positive, got %d", p.Dim)
	}
	if p.LogLikelihood == nil {
		return Result{}, fmt.Errorf("problem has no log-likelihood callable")
	}
	points := m.Points
	if v, ok := p.Controllers["points"]; ok {
		points = int(v)
	}
	if points <= 0 {
		points = defaultPoints
	}
	seed := m.Seed
	if v, ok := p.Controllers["seed"]; ok {
		seed = int64(v)
	}
	rng := rand.New(rand.NewSource(seed))

	cubes := make([][]float64, points)
	logL := make([]float64, points)
	best := math.Inf(-1)
	for i := 0; i < points; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		cube := make([]float64, p.Dim)
		for j := range cube {
			cube[j] = rng.Float64()
		}
		ll, err := p.LogLikelihood(cube)
		if err != nil {
			return Result{}, fmt.Errorf("evaluating point %d: %w", i, err)
		}
		cubes[i] = cube
		logL[i] = ll
		if ll > best {
			best = ll
		}
	}

	logZ := logSumExp(logL) - math.Log(float64(points))

	// Relative standard error of the weight mean, carried into log space.
	var sumW, sumW2 float64
	for _, ll := range logL {
		w := math.Exp(ll - best)
		sumW += w
		sumW2 += w * w
	}
	meanW := sumW / float64(points)
	varW := sumW2/float64(points) - meanW*meanW
	logZErr := 0.0
	if meanW > 0 && varW > 0 {
		logZErr = math.Sqrt(varW/float64(points)) / meanW
	}

	// Rejection sampling against the best point.
	var samples [][]float64
	for i, cube := range cubes {
		if rng.Float64() < math.Exp(logL[i]-best) {
			samples = append(samples, cube)
		}
	}
	logrus.Infof("monte carlo: %d points, %d posterior samples, logZ=%g±%g",
		points, len(samples), logZ, logZErr)
	return Result{LogEvidence: logZ, LogEvidenceErr: logZErr, Samples: samples}, nil
}

// logSumExp computes log Σ exp(x_i) without overflow.
func logSumExp(xs []float64) float64 {
	max := math.Inf(-1)
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}
