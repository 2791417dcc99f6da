package radiosity

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/df07/go-radiosity/pkg/core"
)

func solve(t *testing.T, tris []InputTriangle, cfg Config) (*Scene, *CouplingMatrix, *Solution) {
	t.Helper()
	scene, coupling := computeCoupling(t, tris, cfg)
	solution, err := Solve(context.Background(), coupling, scene, cfg, &core.SilentLogger{})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	return scene, coupling, solution
}

func TestSolve_EmitterAndReceiver(t *testing.T) {
	emission := core.NewVec3(1, 1, 1)
	reflectance := core.NewVec3(0.8, 0.8, 0.8)

	scene, coupling, solution := solve(t, facingSquares(emission, reflectance), coarseConfig())

	const tolerance = 1e-12

	// A non-reflective emitter's radiosity is exactly its emission,
	// unchanged across iterations
	for _, i := range []int{0, 1} {
		if solution.Radiosity[i].Subtract(emission).Length() > tolerance {
			t.Errorf("Emitter patch %d: expected B=%v, got %v", i, emission, solution.Radiosity[i])
		}
	}

	// The receiver sees only the emitter (its own patches are coplanar),
	// so its converged radiosity is exactly rho * sum_j F[b][j] * E_j.
	// That is strictly positive and below the single-bounce energy bound.
	for _, b := range []int{2, 3} {
		incoming := 0.0
		coupling.Row(b, func(j int, f float64) {
			if j < 2 {
				incoming += f
			}
		})
		expected := 0.8 * incoming

		got := solution.Radiosity[b]
		if got.X <= 0 {
			t.Errorf("Receiver patch %d: expected positive radiosity, got %v", b, got)
		}
		if got.X >= 0.8 {
			t.Errorf("Receiver patch %d: radiosity %v exceeds single-bounce bound", b, got)
		}
		if math.Abs(got.X-expected) > 1e-9 {
			t.Errorf("Receiver patch %d: expected %v, got %v", b, expected, got.X)
		}
		// Gray light on a gray surface: all channels identical
		if got.X != got.Y || got.Y != got.Z {
			t.Errorf("Receiver patch %d: channels diverged: %v", b, got)
		}
	}

	// Radiosity is written back into the patches
	for i := range scene.Patches {
		if scene.Patches[i].Radiosity != solution.Radiosity[i] {
			t.Errorf("Patch %d radiosity not written back", i)
		}
	}
}

func TestSolve_OccludedReceiverStaysDark(t *testing.T) {
	tris := facingSquares(core.NewVec3(1, 1, 1), core.NewVec3(0.8, 0.8, 0.8))
	// Opaque non-reflective wall directly between emitter and receiver
	tris = append(tris, quadTris(
		core.NewVec3(-2, -2, 0.5),
		core.NewVec3(5, 0, 0),
		core.NewVec3(0, 5, 0),
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, 0),
	)...)

	_, _, solution := solve(t, tris, coarseConfig())

	// With F[A][B] forced to zero and the wall absorbing everything, the
	// receiver converges to exactly its own emission: black
	for _, b := range []int{2, 3} {
		if solution.Radiosity[b] != core.NewVec3(0, 0, 0) {
			t.Errorf("Occluded receiver patch %d: expected zero radiosity, got %v", b, solution.Radiosity[b])
		}
	}
}

func TestSolve_EnclosureBoundedByGeometricSeries(t *testing.T) {
	// Closed unit cube, uniform rho = 0.5, one emissive face with E = 1.
	// The fixed point is bounded by E/(1-rho) = 2 per the geometric
	// series; the point-to-patch approximation can overshoot slightly
	// for patches this close, hence the 10% slack.
	rho := core.NewVec3(0.5, 0.5, 0.5)
	dark := core.NewVec3(0, 0, 0)
	lit := core.NewVec3(1, 1, 1)

	var tris []InputTriangle
	// Floor (+Y), lit
	tris = append(tris, quadTris(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 0), rho, lit)...)
	// Ceiling (-Y)
	tris = append(tris, quadTris(core.NewVec3(0, 1, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1), rho, dark)...)
	// Back (+Z->interior at -Z side): wall at z=1 facing -Z
	tris = append(tris, quadTris(core.NewVec3(0, 0, 1), core.NewVec3(0, 1, 0), core.NewVec3(1, 0, 0), rho, dark)...)
	// Front: wall at z=0 facing +Z
	tris = append(tris, quadTris(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), rho, dark)...)
	// Left: wall at x=0 facing +X
	tris = append(tris, quadTris(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 1), rho, dark)...)
	// Right: wall at x=1 facing -X
	tris = append(tris, quadTris(core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1), core.NewVec3(0, 1, 0), rho, dark)...)

	cfg := coarseConfig()
	cfg.Iterations = 200
	cfg.ConvergenceThreshold = 1e-10

	_, _, solution := solve(t, tris, cfg)

	if !solution.Converged {
		t.Fatalf("Enclosure did not converge in %d iterations (residual %v)", solution.Iterations, solution.Residual)
	}

	bound := 1.0 / (1.0 - 0.5)
	for i, b := range solution.Radiosity {
		if b.MinComponent() < 0 {
			t.Errorf("Patch %d: negative radiosity %v", i, b)
		}
		if b.MaxComponent() > bound*1.1 {
			t.Errorf("Patch %d: radiosity %v exceeds geometric-series bound %v", i, b, bound)
		}
	}

	// Interreflection must actually brighten the dark faces
	lit2 := false
	for _, b := range solution.Radiosity[2:] {
		if b.MaxComponent() > 0 {
			lit2 = true
		}
	}
	if !lit2 {
		t.Error("Expected the dark faces to receive bounced light")
	}
}

func TestSolve_NonNegativity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEdgeLength = 0.4

	_, _, solution := solve(t, facingSquares(core.NewVec3(2, 0.5, 0.1), core.NewVec3(0.9, 0.5, 0.2)), cfg)

	for i, b := range solution.Radiosity {
		if b.MinComponent() < 0 {
			t.Errorf("Patch %d: negative radiosity %v", i, b)
		}
	}
}

func TestSolve_ResidualIdempotence(t *testing.T) {
	cfg := coarseConfig()
	cfg.Iterations = 500
	cfg.ConvergenceThreshold = 1e-8

	_, _, solution := solve(t, facingSquares(core.NewVec3(1, 1, 1), core.NewVec3(0.8, 0.8, 0.8)), cfg)

	// Early exit fired: the final iteration moved B by less than the
	// threshold, so one more application is below threshold too
	if !solution.Converged {
		t.Fatalf("Expected convergence, residual %v after %d iterations", solution.Residual, solution.Iterations)
	}
	if solution.Residual >= cfg.ConvergenceThreshold {
		t.Errorf("Converged but residual %v >= threshold %v", solution.Residual, cfg.ConvergenceThreshold)
	}
	if solution.Iterations >= cfg.Iterations {
		t.Errorf("Expected early exit, used all %d iterations", solution.Iterations)
	}
}

func TestSolve_FixedIterationBudget(t *testing.T) {
	cfg := coarseConfig()
	cfg.Iterations = 3
	cfg.ConvergenceThreshold = 0 // Disable early exit

	_, _, solution := solve(t, facingSquares(core.NewVec3(1, 1, 1), core.NewVec3(0.8, 0.8, 0.8)), cfg)

	if solution.Iterations != 3 {
		t.Errorf("Expected exactly 3 iterations, got %d", solution.Iterations)
	}
	if solution.Converged {
		t.Error("Converged flag must stay false with early exit disabled")
	}
}

func TestSolve_MismatchedMatrix(t *testing.T) {
	sceneA, couplingA := computeCoupling(t,
		facingSquares(core.NewVec3(1, 1, 1), core.NewVec3(0.5, 0.5, 0.5)), coarseConfig())
	_ = couplingA

	// A matrix built for a differently refined scene must be rejected
	cfg := DefaultConfig()
	cfg.MaxEdgeLength = 0.5
	_, couplingB := computeCoupling(t,
		facingSquares(core.NewVec3(1, 1, 1), core.NewVec3(0.5, 0.5, 0.5)), cfg)

	_, err := Solve(context.Background(), couplingB, sceneA, coarseConfig(), &testLogger{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for mismatched matrix, got %v", err)
	}
}

func TestSolve_Cancellation(t *testing.T) {
	scene, coupling := computeCoupling(t,
		facingSquares(core.NewVec3(1, 1, 1), core.NewVec3(0.5, 0.5, 0.5)), coarseConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Solve(ctx, coupling, scene, coarseConfig(), &testLogger{}); err == nil {
		t.Error("Expected a cancellation error")
	}
}
