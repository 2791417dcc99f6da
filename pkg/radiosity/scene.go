package radiosity

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-radiosity/pkg/core"
	"github.com/df07/go-radiosity/pkg/geometry"
	"github.com/df07/go-radiosity/pkg/refine"
)

// Relative scale of the derived epsilon: 1e-5 x bounding box diagonal
const epsilonScale = 1e-5

// Scene holds the flattened, refined patch list with precomputed
// geometry, plus a BVH over the patch triangles for occlusion queries.
// The patch index is the patch id and stays stable for the lifetime of
// a solve. Geometry is immutable once the scene is built.
type Scene struct {
	Patches []Patch

	bvh     *geometry.BVH
	bounds  core.AABB
	epsilon float64
}

// BuildScene refines the input triangles into patches and prepares the
// spatial index. Degenerate triangles are excluded with a warning rather
// than failing the batch; exceeding cfg.MaxPatches aborts with
// ErrPatchBudget. Reflectance >= 1 on any channel draws a divergence
// warning (or is clamped when cfg.ClampReflectance is set).
func BuildScene(triangles []InputTriangle, cfg Config, logger core.Logger) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NewDefaultLogger()
	}

	scene := &Scene{}
	for i, in := range triangles {
		reflectance := in.Reflectance
		if reflectance.MaxComponent() >= 1 {
			if cfg.ClampReflectance {
				reflectance = reflectance.Clamp(0, 1-1e-6)
			} else {
				logger.Printf("Warning: triangle %d has reflectance >= 1 (%v); solver may diverge\n", i, in.Reflectance)
			}
		}

		subTriangles, err := refine.Refine(in.V0, in.V1, in.V2, cfg.MaxEdgeLength)
		if err != nil {
			if errors.Is(err, refine.ErrDegenerate) {
				logger.Printf("Warning: excluding degenerate triangle %d (zero area)\n", i)
				continue
			}
			return nil, fmt.Errorf("refining triangle %d: %w", i, err)
		}

		for _, tri := range subTriangles {
			if tri.Area() <= 0 {
				continue
			}
			scene.Patches = append(scene.Patches, Patch{
				Triangle:    tri,
				Reflectance: reflectance,
				Emission:    in.Emission,
				Radiosity:   in.Emission, // Solver's starting point
			})
			if len(scene.Patches) > cfg.MaxPatches {
				return nil, fmt.Errorf("%w: refinement produced more than %d patches (MaxEdgeLength %g too small for this scene?)",
					ErrPatchBudget, cfg.MaxPatches, cfg.MaxEdgeLength)
			}
		}
	}

	if len(scene.Patches) == 0 {
		return nil, fmt.Errorf("%w: no usable patches in scene", ErrInvalidGeometry)
	}

	tris := make([]*geometry.Triangle, len(scene.Patches))
	for i := range scene.Patches {
		tris[i] = scene.Patches[i].Triangle
	}
	scene.bvh = geometry.NewBVH(tris)
	scene.bounds = scene.bvh.Bounds

	scene.epsilon = cfg.Epsilon
	if scene.epsilon == 0 {
		scene.epsilon = epsilonScale * scene.bounds.Diagonal()
	}

	return scene, nil
}

// PatchCount returns the number of patches in the scene
func (s *Scene) PatchCount() int {
	return len(s.Patches)
}

// Centroid returns the centroid of patch i
func (s *Scene) Centroid(i int) core.Vec3 {
	return s.Patches[i].Centroid()
}

// Normal returns the unit normal of patch i
func (s *Scene) Normal(i int) core.Vec3 {
	return s.Patches[i].Normal()
}

// Area returns the area of patch i
func (s *Scene) Area(i int) float64 {
	return s.Patches[i].Area()
}

// Epsilon returns the scene's numerical tolerance (configured or
// derived from the bounding box diagonal)
func (s *Scene) Epsilon() float64 {
	return s.epsilon
}

// BoundingBox returns the bounds of all patch geometry
func (s *Scene) BoundingBox() core.AABB {
	return s.bounds
}

// CastRay returns the distance from origin to the closest patch
// intersected by the ray, or false if nothing is hit. The traversal
// starts epsilon along the direction so a ray cast from a patch's own
// surface does not immediately report that patch; the returned distance
// is still measured from the unbiased origin.
func (s *Scene) CastRay(origin, direction core.Vec3) (float64, bool) {
	ray := core.NewRay(origin.Add(direction.Multiply(s.epsilon)), direction)
	dist, ok := s.bvh.Hit(ray, 0, math.Inf(1))
	if !ok {
		return 0, false
	}
	return dist + s.epsilon, true
}

// castRayLinear is the O(N) reference for CastRay, used by tests as the
// correctness oracle for the BVH path.
func (s *Scene) castRayLinear(origin, direction core.Vec3) (float64, bool) {
	ray := core.NewRay(origin.Add(direction.Multiply(s.epsilon)), direction)
	closest := math.Inf(1)
	for i := range s.Patches {
		if t, ok := s.Patches[i].Triangle.Hit(ray, 0, closest); ok {
			closest = t
		}
	}
	if math.IsInf(closest, 1) {
		return 0, false
	}
	return closest + s.epsilon, true
}

// GeometryHash returns a content hash of the patch geometry, suitable
// as a coupling cache key. Hashing the vertex data directly avoids the
// aliasing a filename-plus-count key would allow.
func (s *Scene) GeometryHash() string {
	h := sha256.New()
	var buf [8]byte
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s.Patches)))
	h.Write(buf[:])
	for i := range s.Patches {
		for _, v := range [3]core.Vec3{s.Patches[i].Triangle.V0, s.Patches[i].Triangle.V1, s.Patches[i].Triangle.V2} {
			writeFloat(v.X)
			writeFloat(v.Y)
			writeFloat(v.Z)
		}
	}
	writeFloat(s.epsilon)
	return hex.EncodeToString(h.Sum(nil))
}
