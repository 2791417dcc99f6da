// Package refine subdivides triangles until no edge exceeds a requested
// maximum length. Subdivision happens in the triangle's own plane: the
// triangle is projected into a local 2D basis, midpoints are inserted on
// long edges, and the growing point set is re-triangulated with a
// Delaunay triangulation until every edge satisfies the bound.
package refine

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/delaunay"

	"github.com/df07/go-radiosity/pkg/core"
	"github.com/df07/go-radiosity/pkg/geometry"
)

// ErrDegenerate indicates a zero-area (collinear) input triangle that
// cannot be refined. Callers typically skip such triangles.
var ErrDegenerate = errors.New("degenerate triangle")

// Safety cap on refinement passes. Edge lengths strictly decrease each
// pass, so this is never reached for sane maxEdgeLen values.
const maxPasses = 64

// basis is a local 2D orthonormal frame in the triangle's plane:
// origin at V0, u along the first edge, v perpendicular in-plane.
type basis struct {
	origin core.Vec3
	u, v   core.Vec3
}

func (b basis) project(p core.Vec3) delaunay.Point {
	d := p.Subtract(b.origin)
	return delaunay.Point{X: d.Dot(b.u), Y: d.Dot(b.v)}
}

func (b basis) unproject(p delaunay.Point) core.Vec3 {
	return b.origin.Add(b.u.Multiply(p.X)).Add(b.v.Multiply(p.Y))
}

// Refine subdivides the given triangle so that every edge of every output
// triangle is at most maxEdgeLen long. The output triangles tile the
// input exactly (no gaps or overlaps) and preserve its winding, so normal
// direction and total area carry over. Material properties are per-patch
// concerns of the caller; refine is purely geometric.
//
// Returns ErrDegenerate for zero-area input. A maxEdgeLen <= 0 is a
// contract violation and fails immediately.
func Refine(v0, v1, v2 core.Vec3, maxEdgeLen float64) ([]*geometry.Triangle, error) {
	if maxEdgeLen <= 0 {
		return nil, fmt.Errorf("maxEdgeLen must be positive, got %g", maxEdgeLen)
	}

	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)
	cross := edge1.Cross(edge2)

	// Reject collinear input before Delaunay sees it
	if cross.Length() <= 1e-12*edge1.Length()*edge2.Length() {
		return nil, ErrDegenerate
	}

	b := basis{
		origin: v0,
		u:      edge1.Normalize(),
	}
	normal := cross.Normalize()
	b.v = normal.Cross(b.u)

	points := []delaunay.Point{b.project(v0), b.project(v1), b.project(v2)}
	triangles := [][3]int{{0, 1, 2}}

	// Quantization grid for deduplicating inserted points; shared edges
	// of adjacent triangles produce the same midpoints.
	longest := math.Max(edge1.Length(), math.Max(edge2.Length(), v2.Subtract(v1).Length()))
	quantum := longest / 1e9
	seen := map[[2]int64]bool{}
	for _, p := range points {
		seen[quantize(p, quantum)] = true
	}

	for pass := 0; pass < maxPasses; pass++ {
		if !insertMidpoints(&points, triangles, maxEdgeLen, seen, quantum) {
			break // every edge satisfies the bound
		}

		tri, err := delaunay.Triangulate(points)
		if err != nil {
			// Delaunay cannot proceed (numerically collinear point set):
			// fall back to the original triangle
			return []*geometry.Triangle{geometry.NewTriangle(v0, v1, v2)}, nil
		}
		triangles = groupTriangles(tri)
	}

	out := make([]*geometry.Triangle, 0, len(triangles))
	for _, t := range triangles {
		p0, p1, p2 := points[t[0]], points[t[1]], points[t[2]]
		// Keep the input's winding so the normal direction survives:
		// our basis is right-handed in the plane, so CCW in 2D maps to
		// the original normal in 3D
		if signedArea(p0, p1, p2) < 0 {
			p1, p2 = p2, p1
		}
		tri3 := geometry.NewTriangle(b.unproject(p0), b.unproject(p1), b.unproject(p2))
		if tri3.Area() > 0 {
			out = append(out, tri3)
		}
	}
	return out, nil
}

// insertMidpoints scans every unique edge of the current triangulation
// and inserts evenly spaced interior points on edges longer than
// maxEdgeLen. Reports whether any point was added.
func insertMidpoints(points *[]delaunay.Point, triangles [][3]int, maxEdgeLen float64, seen map[[2]int64]bool, quantum float64) bool {
	// Small slack keeps float noise from splitting edges that already
	// sit exactly at the bound
	limit := maxEdgeLen * (1 + 1e-9)

	visited := map[[2]int]bool{}
	added := false

	for _, t := range triangles {
		edges := [3][2]int{{t[0], t[1]}, {t[1], t[2]}, {t[2], t[0]}}
		for _, e := range edges {
			a, b := e[0], e[1]
			if a > b {
				a, b = b, a
			}
			if visited[[2]int{a, b}] {
				continue
			}
			visited[[2]int{a, b}] = true

			pa, pb := (*points)[a], (*points)[b]
			length := math.Hypot(pb.X-pa.X, pb.Y-pa.Y)
			if length <= limit {
				continue
			}

			// Split into n segments of equal length <= maxEdgeLen
			n := int(math.Ceil(length / maxEdgeLen))
			for k := 1; k < n; k++ {
				f := float64(k) / float64(n)
				p := delaunay.Point{
					X: pa.X + (pb.X-pa.X)*f,
					Y: pa.Y + (pb.Y-pa.Y)*f,
				}
				key := quantize(p, quantum)
				if seen[key] {
					continue
				}
				seen[key] = true
				*points = append(*points, p)
				added = true
			}
		}
	}
	return added
}

func quantize(p delaunay.Point, quantum float64) [2]int64 {
	return [2]int64{int64(math.Round(p.X / quantum)), int64(math.Round(p.Y / quantum))}
}

// groupTriangles converts the triangulation's flat index list into index triples
func groupTriangles(t *delaunay.Triangulation) [][3]int {
	out := make([][3]int, 0, len(t.Triangles)/3)
	for i := 0; i+2 < len(t.Triangles); i += 3 {
		out = append(out, [3]int{t.Triangles[i], t.Triangles[i+1], t.Triangles[i+2]})
	}
	return out
}

// signedArea returns twice the signed area of the 2D triangle (positive for CCW)
func signedArea(a, b, c delaunay.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}
