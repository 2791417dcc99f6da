package radiosity

import "fmt"

// Config contains all recognized options for a radiosity computation
type Config struct {
	// MaxEdgeLength bounds patch edge length during refinement. Must be > 0.
	MaxEdgeLength float64

	// Epsilon is the numerical tolerance for back-face and occlusion
	// tests and the ray origin bias. 0 means derive it from the scene
	// scale (1e-5 x bounding box diagonal).
	Epsilon float64

	// Iterations is the solver's iteration budget. Must be > 0.
	Iterations int

	// ConvergenceThreshold enables residual-based early exit when > 0:
	// the solver stops once the per-channel L2 residual of an iteration
	// falls below it. 0 disables early exit.
	ConvergenceThreshold float64

	// MaxPatches caps the refined patch count; refinement beyond it
	// aborts with ErrPatchBudget rather than exhausting memory.
	MaxPatches int

	// NumWorkers is the number of parallel workers for the form-factor
	// pass (0 = use CPU count).
	NumWorkers int

	// ClampReflectance clamps per-channel reflectance to just below 1
	// instead of only warning. Reflectance >= 1 risks divergence.
	ClampReflectance bool
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		MaxEdgeLength:        1.0,
		Epsilon:              0, // Derive from scene scale
		Iterations:           50,
		ConvergenceThreshold: 1e-6,
		MaxPatches:           200_000,
		NumWorkers:           0, // Auto-detect CPU count
	}
}

// Validate fails fast on contract violations, before any computation
func (c Config) Validate() error {
	if c.MaxEdgeLength <= 0 {
		return fmt.Errorf("%w: MaxEdgeLength must be > 0, got %g", ErrInvalidConfig, c.MaxEdgeLength)
	}
	if c.Epsilon < 0 {
		return fmt.Errorf("%w: Epsilon must be >= 0, got %g", ErrInvalidConfig, c.Epsilon)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: Iterations must be > 0, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.ConvergenceThreshold < 0 {
		return fmt.Errorf("%w: ConvergenceThreshold must be >= 0, got %g", ErrInvalidConfig, c.ConvergenceThreshold)
	}
	if c.MaxPatches <= 0 {
		return fmt.Errorf("%w: MaxPatches must be > 0, got %d", ErrInvalidConfig, c.MaxPatches)
	}
	if c.NumWorkers < 0 {
		return fmt.Errorf("%w: NumWorkers must be >= 0, got %d", ErrInvalidConfig, c.NumWorkers)
	}
	return nil
}
