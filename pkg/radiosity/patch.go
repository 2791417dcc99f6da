package radiosity

import (
	"github.com/df07/go-radiosity/pkg/core"
	"github.com/df07/go-radiosity/pkg/geometry"
)

// InputTriangle is the boundary contract with the scene-loading side: a
// triangle plus its material in linear color space. Reflectance defaults
// to mid-gray and emission to zero when a loader leaves them unset.
type InputTriangle struct {
	V0, V1, V2  core.Vec3
	Reflectance core.Vec3 // Per-channel diffuse reflectance in [0,1)
	Emission    core.Vec3 // Per-channel emitted energy, >= 0
}

// DefaultReflectance is used when a material specifies no reflectance
var DefaultReflectance = core.NewVec3(0.5, 0.5, 0.5)

// Patch is the atomic unit of the simulation: a refined triangle with
// inherited material properties and mutable radiosity. Geometry is
// immutable after creation; only Radiosity changes, written by the
// solver once per solve.
type Patch struct {
	Triangle    *geometry.Triangle
	Reflectance core.Vec3
	Emission    core.Vec3
	Radiosity   core.Vec3 // Converged exitant radiosity, set by Solve
}

// Centroid returns the patch centroid
func (p *Patch) Centroid() core.Vec3 {
	return p.Triangle.Centroid()
}

// Normal returns the patch's unit normal
func (p *Patch) Normal() core.Vec3 {
	return p.Triangle.Normal()
}

// Area returns the patch area
func (p *Patch) Area() float64 {
	return p.Triangle.Area()
}
