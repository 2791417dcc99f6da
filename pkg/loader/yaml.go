// Package loader contains the thin input wrappers that turn scene files
// into the flat triangle list the radiosity core consumes. File parsing
// is deliberately boring here; all the interesting work happens after.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-radiosity/pkg/core"
	"github.com/df07/go-radiosity/pkg/radiosity"
	"github.com/df07/go-radiosity/pkg/scene"
)

// yamlScene is the on-disk YAML scene layout:
//
//	triangles:
//	  - vertices: [[0,0,0], [1,0,0], [0,1,0]]
//	    reflectance: [0.8, 0.8, 0.8]
//	    emission: [0, 0, 0]
//	quads:
//	  - corner: [0, 0, 0]
//	    u: [1, 0, 0]
//	    v: [0, 1, 0]
//	    reflectance: [0.5, 0.5, 0.5]
//
// Omitted reflectance defaults to mid-gray, omitted emission to zero.
type yamlScene struct {
	Triangles []yamlTriangle `yaml:"triangles"`
	Quads     []yamlQuad     `yaml:"quads"`
}

type yamlTriangle struct {
	Vertices    [][]float64 `yaml:"vertices"`
	Reflectance []float64   `yaml:"reflectance"`
	Emission    []float64   `yaml:"emission"`
}

type yamlQuad struct {
	Corner      []float64 `yaml:"corner"`
	U           []float64 `yaml:"u"`
	V           []float64 `yaml:"v"`
	Reflectance []float64 `yaml:"reflectance"`
	Emission    []float64 `yaml:"emission"`
}

// LoadYAML reads a YAML scene file into input triangles
func LoadYAML(path string) ([]radiosity.InputTriangle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML parses YAML scene data into input triangles
func ParseYAML(data []byte) ([]radiosity.InputTriangle, error) {
	var doc yamlScene
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scene yaml: %w", err)
	}

	var tris []radiosity.InputTriangle

	for i, t := range doc.Triangles {
		if len(t.Vertices) != 3 {
			return nil, fmt.Errorf("triangle %d: expected 3 vertices, got %d", i, len(t.Vertices))
		}
		var verts [3]core.Vec3
		for k, v := range t.Vertices {
			vec, err := toVec3(v)
			if err != nil {
				return nil, fmt.Errorf("triangle %d vertex %d: %w", i, k, err)
			}
			verts[k] = vec
		}
		reflectance, emission, err := materialVectors(t.Reflectance, t.Emission)
		if err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, err)
		}
		tris = append(tris, radiosity.InputTriangle{
			V0: verts[0], V1: verts[1], V2: verts[2],
			Reflectance: reflectance,
			Emission:    emission,
		})
	}

	for i, q := range doc.Quads {
		corner, err := toVec3(q.Corner)
		if err != nil {
			return nil, fmt.Errorf("quad %d corner: %w", i, err)
		}
		u, err := toVec3(q.U)
		if err != nil {
			return nil, fmt.Errorf("quad %d u: %w", i, err)
		}
		v, err := toVec3(q.V)
		if err != nil {
			return nil, fmt.Errorf("quad %d v: %w", i, err)
		}
		reflectance, emission, err := materialVectors(q.Reflectance, q.Emission)
		if err != nil {
			return nil, fmt.Errorf("quad %d: %w", i, err)
		}
		tris = append(tris, scene.Quad(corner, u, v, reflectance, emission)...)
	}

	if len(tris) == 0 {
		return nil, fmt.Errorf("scene contains no triangles or quads")
	}
	return tris, nil
}

func toVec3(v []float64) (core.Vec3, error) {
	if len(v) != 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(v))
	}
	return core.NewVec3(v[0], v[1], v[2]), nil
}

func materialVectors(reflectance, emission []float64) (core.Vec3, core.Vec3, error) {
	r := radiosity.DefaultReflectance
	if reflectance != nil {
		vec, err := toVec3(reflectance)
		if err != nil {
			return core.Vec3{}, core.Vec3{}, fmt.Errorf("reflectance: %w", err)
		}
		r = vec
	}
	e := core.NewVec3(0, 0, 0)
	if emission != nil {
		vec, err := toVec3(emission)
		if err != nil {
			return core.Vec3{}, core.Vec3{}, fmt.Errorf("emission: %w", err)
		}
		e = vec
	}
	return r, e, nil
}
