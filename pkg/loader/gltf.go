package loader

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/df07/go-radiosity/pkg/core"
	"github.com/df07/go-radiosity/pkg/radiosity"
)

// LoadGLTF reads a glTF/GLB file into input triangles. The material
// mapping is intentionally crude: baseColorFactor becomes diffuse
// reflectance and emissiveFactor becomes emission. Non-triangle
// primitives are skipped.
func LoadGLTF(path string) ([]radiosity.InputTriangle, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	var tris []radiosity.InputTriangle
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			// Mode 0 is what an absent mode field decodes to; glTF's
			// default primitive mode is triangles
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				continue
			}

			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: read positions: %w", m.Name, err)
			}

			var indices []uint32
			if prim.Indices != nil {
				indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
				if err != nil {
					return nil, fmt.Errorf("mesh %q: read indices: %w", m.Name, err)
				}
			} else {
				// Unindexed: sequential triangles
				indices = make([]uint32, len(positions))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}

			reflectance, emission := materialColors(doc, prim.Material)

			for i := 0; i+2 < len(indices); i += 3 {
				i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
				if int(i0) >= len(positions) || int(i1) >= len(positions) || int(i2) >= len(positions) {
					return nil, fmt.Errorf("mesh %q: index out of range", m.Name)
				}
				tris = append(tris, radiosity.InputTriangle{
					V0:          toVec3f(positions[i0]),
					V1:          toVec3f(positions[i1]),
					V2:          toVec3f(positions[i2]),
					Reflectance: reflectance,
					Emission:    emission,
				})
			}
		}
	}

	if len(tris) == 0 {
		return nil, fmt.Errorf("gltf %q contains no triangles", path)
	}
	return tris, nil
}

// materialColors maps a glTF material to reflectance and emission,
// falling back to the default gray for unset or absent materials
func materialColors(doc *gltf.Document, matIdx *int) (core.Vec3, core.Vec3) {
	reflectance := radiosity.DefaultReflectance
	emission := core.NewVec3(0, 0, 0)

	if matIdx == nil || *matIdx >= len(doc.Materials) {
		return reflectance, emission
	}
	mat := doc.Materials[*matIdx]
	if mat == nil {
		return reflectance, emission
	}

	if pbr := mat.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
		f := *pbr.BaseColorFactor
		reflectance = core.NewVec3(f[0], f[1], f[2]) // Alpha ignored
	}
	emission = core.NewVec3(mat.EmissiveFactor[0], mat.EmissiveFactor[1], mat.EmissiveFactor[2])

	return reflectance, emission
}

func toVec3f(p [3]float32) core.Vec3 {
	return core.NewVec3(float64(p[0]), float64(p[1]), float64(p[2]))
}
