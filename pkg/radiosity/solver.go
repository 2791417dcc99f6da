package radiosity

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-radiosity/pkg/core"
)

// Number of color channels carried through the solve
const channels = 3

// Solution holds the outcome of a radiosity solve
type Solution struct {
	Radiosity  []core.Vec3 // Converged per-patch radiosity, parallel to scene.Patches
	Iterations int         // Iterations actually performed
	Residual   float64     // Max per-channel L2 residual of the last iteration
	Converged  bool        // True when the residual threshold stopped the solve
}

// Solve runs Jacobi iteration on the radiosity equation
//
//	B = E + rho (.) (F * B)
//
// per color channel, starting from B = E. Each iteration completes fully
// before the next starts, since iteration n+1 needs the complete B of
// iteration n. With all reflectances below 1 the spectral radius of
// diag(rho)*F stays below 1 and the iteration converges; the fixed
// iteration budget bounds the solve either way.
//
// On success the result is also written back into each patch's Radiosity
// field. The context is checked between iterations.
func Solve(ctx context.Context, coupling *CouplingMatrix, scene *Scene, cfg Config, logger core.Logger) (*Solution, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NewDefaultLogger()
	}
	n := scene.PatchCount()
	if coupling.N() != n {
		return nil, fmt.Errorf("%w: coupling matrix is %dx%d but scene has %d patches",
			ErrInvalidConfig, coupling.N(), coupling.N(), n)
	}

	// Per-channel planar storage: b/e/rho hold channel c of every patch
	var b, e, rho [channels][]float64
	for c := 0; c < channels; c++ {
		b[c] = make([]float64, n)
		e[c] = make([]float64, n)
		rho[c] = make([]float64, n)
	}
	for i := range scene.Patches {
		p := &scene.Patches[i]
		e[0][i], e[1][i], e[2][i] = p.Emission.X, p.Emission.Y, p.Emission.Z
		rho[0][i], rho[1][i], rho[2][i] = p.Reflectance.X, p.Reflectance.Y, p.Reflectance.Z
	}
	for c := 0; c < channels; c++ {
		copy(b[c], e[c]) // Start from E: same fixed point as starting from 0, fewer iterations
	}

	incoming := make([]float64, n)
	next := make([]float64, n)

	sol := &Solution{}
	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		residual := 0.0
		for c := 0; c < channels; c++ {
			coupling.MulVec(b[c], incoming)
			floats.MulTo(next, rho[c], incoming)
			floats.Add(next, e[c])

			residual = math.Max(residual, floats.Distance(next, b[c], 2))
			copy(b[c], next)
		}

		sol.Iterations = iter + 1
		sol.Residual = residual
		if cfg.ConvergenceThreshold > 0 && residual < cfg.ConvergenceThreshold {
			sol.Converged = true
			break
		}
	}

	sol.Radiosity = make([]core.Vec3, n)
	for i := 0; i < n; i++ {
		sol.Radiosity[i] = core.NewVec3(b[0][i], b[1][i], b[2][i])
		scene.Patches[i].Radiosity = sol.Radiosity[i]
	}

	logger.Printf("Solver: %d iterations, residual %.3g, converged=%v\n",
		sol.Iterations, sol.Residual, sol.Converged)
	return sol, nil
}
