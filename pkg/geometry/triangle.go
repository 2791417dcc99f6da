package geometry

import (
	"github.com/df07/go-radiosity/pkg/core"
)

// Triangle represents a single triangle defined by three vertices.
// Normal, centroid, area and bounding box are computed once at
// construction; the geometry is immutable afterwards.
type Triangle struct {
	V0, V1, V2 core.Vec3 // The three vertices
	normal     core.Vec3 // Cached unit normal
	centroid   core.Vec3 // Cached centroid (mean of vertices)
	area       float64   // Cached triangle area
	bbox       core.AABB // Cached bounding box
}

// NewTriangle creates a new triangle from three vertices.
// The normal follows the right-hand rule over (V1-V0) x (V2-V0).
// A degenerate (collinear) triangle gets area 0 and a zero normal;
// callers decide whether to reject it.
func NewTriangle(v0, v1, v2 core.Vec3) *Triangle {
	t := &Triangle{
		V0: v0,
		V1: v1,
		V2: v2,
	}

	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)
	cross := edge1.Cross(edge2)

	t.normal = cross.Normalize()
	t.area = 0.5 * cross.Length()
	t.centroid = v0.Add(v1).Add(v2).Multiply(1.0 / 3.0)
	t.bbox = core.NewAABBFromPoints(v0, v1, v2)

	return t
}

// Hit tests if a ray intersects the triangle using the Möller-Trumbore
// algorithm. Returns the ray parameter t of the intersection, or false
// if there is none within [tMin, tMax]. Both faces are intersectable.
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64) (float64, bool) {
	const epsilon = 1e-8

	// Calculate two edge vectors
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	// Calculate determinant
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// If determinant is near zero, ray lies in plane of triangle
	if a > -epsilon && a < epsilon {
		return 0, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)

	// Check if intersection is outside triangle
	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)

	// Check if intersection is outside triangle
	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	// Calculate t parameter and check range
	tParam := f * edge2.Dot(q)
	if tParam < tMin || tParam > tMax {
		return 0, false
	}

	return tParam, true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Normal returns the triangle's unit normal vector
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

// Centroid returns the triangle's centroid
func (t *Triangle) Centroid() core.Vec3 {
	return t.centroid
}

// Area returns the triangle's area
func (t *Triangle) Area() float64 {
	return t.area
}

// Edges returns the lengths of the triangle's three edges
func (t *Triangle) Edges() [3]float64 {
	return [3]float64{
		t.V1.Subtract(t.V0).Length(),
		t.V2.Subtract(t.V1).Length(),
		t.V0.Subtract(t.V2).Length(),
	}
}
