// Package scene provides built-in test scenes expressed as flat input
// triangle lists for the radiosity core.
package scene

import (
	"github.com/df07/go-radiosity/pkg/core"
	"github.com/df07/go-radiosity/pkg/radiosity"
)

// Quad converts a parallelogram (corner plus edge vectors u and v) into
// two input triangles. Winding follows u x v, so pick u and v so that
// u x v points the way the surface should face.
func Quad(corner, u, v, reflectance, emission core.Vec3) []radiosity.InputTriangle {
	c0 := corner
	c1 := corner.Add(u)
	c2 := corner.Add(u).Add(v)
	c3 := corner.Add(v)
	return []radiosity.InputTriangle{
		{V0: c0, V1: c1, V2: c2, Reflectance: reflectance, Emission: emission},
		{V0: c0, V1: c2, V2: c3, Reflectance: reflectance, Emission: emission},
	}
}

// NewCornellScene creates the classic Cornell box as a flat triangle
// list: white floor/ceiling/back wall, red left wall, green right wall,
// and an emissive panel just under the ceiling. All normals face the
// box interior. Dimensions are the standard 555-unit box.
func NewCornellScene() []radiosity.InputTriangle {
	boxSize := 555.0
	noEmission := core.NewVec3(0, 0, 0)

	white := core.NewVec3(0.73, 0.73, 0.73)
	red := core.NewVec3(0.65, 0.05, 0.05)
	green := core.NewVec3(0.12, 0.45, 0.15)

	var tris []radiosity.InputTriangle

	// Floor (white), facing up
	tris = append(tris, Quad(
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, boxSize),
		core.NewVec3(boxSize, 0, 0),
		white, noEmission,
	)...)

	// Ceiling (white), facing down
	tris = append(tris, Quad(
		core.NewVec3(0, boxSize, 0),
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, 0, boxSize),
		white, noEmission,
	)...)

	// Back wall (white), facing -Z toward the opening
	tris = append(tris, Quad(
		core.NewVec3(0, 0, boxSize),
		core.NewVec3(0, boxSize, 0),
		core.NewVec3(boxSize, 0, 0),
		white, noEmission,
	)...)

	// Left wall (red), facing +X
	tris = append(tris, Quad(
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, boxSize, 0),
		core.NewVec3(0, 0, boxSize),
		red, noEmission,
	)...)

	// Right wall (green), facing -X
	tris = append(tris, Quad(
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, 0, boxSize),
		core.NewVec3(0, boxSize, 0),
		green, noEmission,
	)...)

	// Ceiling light: a non-reflective emissive panel slightly below the
	// ceiling, facing down
	lightSize := 130.0
	lightOffset := (boxSize - lightSize) / 2.0
	tris = append(tris, Quad(
		core.NewVec3(lightOffset, boxSize-1, lightOffset),
		core.NewVec3(lightSize, 0, 0),
		core.NewVec3(0, 0, lightSize),
		core.NewVec3(0, 0, 0),
		core.NewVec3(15.0, 15.0, 15.0),
	)...)

	return tris
}
