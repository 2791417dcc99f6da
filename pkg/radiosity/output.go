package radiosity

import (
	"math"

	"github.com/df07/go-radiosity/pkg/core"
)

// VertexColor pairs a welded vertex position with the average radiosity
// of the patches sharing it, for smooth (Gouraud-style) shading by the
// rendering side.
type VertexColor struct {
	Position  core.Vec3
	Radiosity core.Vec3
}

// VertexRadiosity averages per-patch radiosity over shared vertices.
// Vertices are welded on a grid of epsilon resolution so refinement
// points that should coincide do, despite float noise. Patches must
// carry solved radiosity (run Solve first).
func VertexRadiosity(scene *Scene) []VertexColor {
	quantum := scene.Epsilon()
	if quantum <= 0 {
		quantum = 1e-9
	}

	type accum struct {
		position core.Vec3
		sum      core.Vec3
		count    int
	}

	welded := make(map[[3]int64]*accum)
	order := make([][3]int64, 0, len(scene.Patches)*3)

	for i := range scene.Patches {
		p := &scene.Patches[i]
		for _, v := range [3]core.Vec3{p.Triangle.V0, p.Triangle.V1, p.Triangle.V2} {
			key := [3]int64{
				int64(math.Round(v.X / quantum)),
				int64(math.Round(v.Y / quantum)),
				int64(math.Round(v.Z / quantum)),
			}
			a, ok := welded[key]
			if !ok {
				a = &accum{position: v}
				welded[key] = a
				order = append(order, key)
			}
			a.sum = a.sum.Add(p.Radiosity)
			a.count++
		}
	}

	// First-seen order keeps the output deterministic
	out := make([]VertexColor, 0, len(order))
	for _, key := range order {
		a := welded[key]
		out = append(out, VertexColor{
			Position:  a.position,
			Radiosity: a.sum.Multiply(1 / float64(a.count)),
		})
	}
	return out
}
