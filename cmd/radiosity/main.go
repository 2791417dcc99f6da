package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-radiosity/pkg/core"
	"github.com/df07/go-radiosity/pkg/loader"
	"github.com/df07/go-radiosity/pkg/radiosity"
	"github.com/df07/go-radiosity/pkg/scene"
)

func main() {
	// Parse command line flags
	scenePath := flag.String("scene", "cornell", "Scene: 'cornell' or path to a .yaml/.gltf/.glb file")
	maxEdge := flag.Float64("max-edge", 50.0, "Maximum patch edge length after refinement")
	iterations := flag.Int("iterations", 50, "Solver iteration budget")
	threshold := flag.Float64("threshold", 1e-6, "Convergence threshold (0 disables early exit)")
	workers := flag.Int("workers", 0, "Parallel workers for form factors (0 = CPU count)")
	output := flag.String("o", "radiosity.json", "Output JSON path")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Radiosity Solver")
		fmt.Println("Usage: radiosity [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Computes per-patch diffuse radiosity for the given scene and")
		fmt.Println("writes patch and vertex radiosity values as JSON.")
		return
	}

	if err := run(*scenePath, *maxEdge, *iterations, *threshold, *workers, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(scenePath string, maxEdge float64, iterations int, threshold float64, workers int, output string) error {
	logger := core.NewDefaultLogger()

	triangles, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	logger.Printf("Loaded %d input triangles from %s\n", len(triangles), scenePath)

	cfg := radiosity.DefaultConfig()
	cfg.MaxEdgeLength = maxEdge
	cfg.Iterations = iterations
	cfg.ConvergenceThreshold = threshold
	cfg.NumWorkers = workers

	start := time.Now()
	s, err := radiosity.BuildScene(triangles, cfg, logger)
	if err != nil {
		return err
	}
	logger.Printf("Refined into %d patches in %v\n", s.PatchCount(), time.Since(start).Round(time.Millisecond))

	start = time.Now()
	engine := radiosity.NewFormFactorEngine(s, cfg, logger)
	engine.Cache = radiosity.NewMemoryCache()
	coupling, err := engine.ComputeCoupling(context.Background())
	if err != nil {
		return err
	}
	logger.Printf("Coupling matrix: %d non-zeros (%.2f%% dense) in %v\n",
		coupling.NonZeros(),
		100*float64(coupling.NonZeros())/float64(s.PatchCount()*s.PatchCount()),
		time.Since(start).Round(time.Millisecond))

	start = time.Now()
	solution, err := radiosity.Solve(context.Background(), coupling, s, cfg, logger)
	if err != nil {
		return err
	}
	logger.Printf("Solved in %v\n", time.Since(start).Round(time.Millisecond))

	return writeOutput(output, s, solution)
}

func loadScene(scenePath string) ([]radiosity.InputTriangle, error) {
	if scenePath == "cornell" {
		return scene.NewCornellScene(), nil
	}
	switch strings.ToLower(filepath.Ext(scenePath)) {
	case ".yaml", ".yml":
		return loader.LoadYAML(scenePath)
	case ".gltf", ".glb":
		return loader.LoadGLTF(scenePath)
	default:
		return nil, fmt.Errorf("unknown scene %q (expected 'cornell' or a .yaml/.gltf/.glb file)", scenePath)
	}
}

// outputDoc is the JSON handed to the rendering/coloring side
type outputDoc struct {
	PatchCount int         `json:"patchCount"`
	Iterations int         `json:"iterations"`
	Residual   float64     `json:"residual"`
	Converged  bool        `json:"converged"`
	Patches    []patchOut  `json:"patches"`
	Vertices   []vertexOut `json:"vertices"`
}

type patchOut struct {
	Centroid  [3]float64 `json:"centroid"`
	Normal    [3]float64 `json:"normal"`
	Area      float64    `json:"area"`
	Radiosity [3]float64 `json:"radiosity"`
}

type vertexOut struct {
	Position  [3]float64 `json:"position"`
	Radiosity [3]float64 `json:"radiosity"`
}

func writeOutput(path string, s *radiosity.Scene, solution *radiosity.Solution) error {
	doc := outputDoc{
		PatchCount: s.PatchCount(),
		Iterations: solution.Iterations,
		Residual:   solution.Residual,
		Converged:  solution.Converged,
	}
	for i := range s.Patches {
		p := &s.Patches[i]
		doc.Patches = append(doc.Patches, patchOut{
			Centroid:  toArray(p.Centroid()),
			Normal:    toArray(p.Normal()),
			Area:      p.Area(),
			Radiosity: toArray(p.Radiosity),
		})
	}
	for _, vc := range radiosity.VertexRadiosity(s) {
		doc.Vertices = append(doc.Vertices, vertexOut{
			Position:  toArray(vc.Position),
			Radiosity: toArray(vc.Radiosity),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Wrote %s (%d patches, %d vertices)\n", path, len(doc.Patches), len(doc.Vertices))
	return nil
}

func toArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
