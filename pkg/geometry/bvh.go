package geometry

import (
	"math"
	"sort"

	"github.com/df07/go-radiosity/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Triangles   []*Triangle // Leaf payload (nil for internal nodes)
}

// BVH is a Bounding Volume Hierarchy over triangle primitives for fast
// ray-triangle intersection. The occlusion query must index the full
// triangle geometry; a point index over centroids cannot answer it.
type BVH struct {
	Root   *BVHNode
	Bounds core.AABB
}

// Leaf threshold: if we have this many or fewer triangles, store them in a leaf node
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of triangles
func NewBVH(triangles []*Triangle) *BVH {
	if len(triangles) == 0 {
		return &BVH{Root: nil}
	}

	// Copy the slice so the build's in-place sorting never reorders the
	// caller's patch list (patch index = patch id must stay stable)
	sorted := make([]*Triangle, len(triangles))
	copy(sorted, triangles)

	root := buildBVH(sorted, 0)
	return &BVH{Root: root, Bounds: root.BoundingBox}
}

// buildBVH recursively builds the BVH using median split along the longest axis
func buildBVH(triangles []*Triangle, depth int) *BVHNode {
	// Calculate bounding box for all triangles
	boundingBox := triangles[0].BoundingBox()
	for i := 1; i < len(triangles); i++ {
		boundingBox = boundingBox.Union(triangles[i].BoundingBox())
	}

	// Base case: few triangles - create leaf node with linear search
	if len(triangles) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Triangles:   triangles,
		}
	}

	// Median split along the longest axis. Much faster to build than SAH
	// and good enough for the mostly uniform patches refinement produces.
	axis := boundingBox.LongestAxis()
	sortTrianglesByAxis(triangles, axis)

	mid := len(triangles) / 2
	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(triangles[:mid], depth+1),
		Right:       buildBVH(triangles[mid:], depth+1),
	}
}

// sortTrianglesByAxis sorts triangles by centroid along the specified axis
func sortTrianglesByAxis(triangles []*Triangle, axis int) {
	sort.Slice(triangles, func(i, j int) bool {
		ci := triangles[i].Centroid()
		cj := triangles[j].Centroid()

		switch axis {
		case 0:
			return ci.X < cj.X
		case 1:
			return ci.Y < cj.Y
		case 2:
			return ci.Z < cj.Z
		default:
			return false
		}
	})
}

// Hit returns the ray parameter of the closest triangle intersection
// within [tMin, tMax], or false if nothing is hit.
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64) (float64, bool) {
	if bvh.Root == nil {
		return 0, false
	}
	closest := hitNode(bvh.Root, ray, tMin, tMax)
	if math.IsInf(closest, 1) {
		return 0, false
	}
	return closest, true
}

// hitNode recursively tests ray intersection with BVH nodes, returning
// the closest hit parameter or +Inf when there is none.
func hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64) float64 {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return math.Inf(1)
	}

	// Leaf node: linear search through the triangles
	if node.Triangles != nil {
		closest := math.Inf(1)
		for _, tri := range node.Triangles {
			if t, ok := tri.Hit(ray, tMin, tMax); ok && t < closest {
				closest = t
				tMax = t
			}
		}
		return closest
	}

	// Internal node: test both children, tightening tMax as we go
	closest := hitNode(node.Left, ray, tMin, tMax)
	if closest < tMax {
		tMax = closest
	}
	if right := hitNode(node.Right, ray, tMin, tMax); right < closest {
		closest = right
	}
	return closest
}
