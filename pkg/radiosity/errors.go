package radiosity

import "errors"

// Sentinel errors for the failure classes callers are expected to
// distinguish. Wrap with fmt.Errorf("...: %w", ...) to add context.
var (
	// ErrInvalidConfig indicates a configuration contract violation
	// (non-positive max edge length, iteration count, etc). Detected
	// before any computation starts.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidGeometry indicates a zero-area or degenerate input
	// triangle. Scene construction recovers from it per-triangle by
	// excluding the offender; it only surfaces as an error when a whole
	// scene ends up empty.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrPatchBudget indicates refinement exceeded the configured patch
	// ceiling. Fatal: no partial scene is returned.
	ErrPatchBudget = errors.New("patch budget exceeded")
)
