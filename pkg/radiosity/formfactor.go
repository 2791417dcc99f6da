package radiosity

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-radiosity/pkg/core"
)

// CouplingMatrix is the sparse N x N form-factor matrix F. Entry (i, j)
// is the fraction of energy leaving patch i that arrives directly at
// patch j: zero on the diagonal and wherever the pair is back-facing or
// occluded, which zeroes most entries in typical scenes. Stored in
// compressed-row form, produced once and read-only afterwards.
type CouplingMatrix struct {
	n      int
	rowPtr []int
	cols   []int
	vals   []float64
}

// N returns the matrix dimension (the patch count)
func (m *CouplingMatrix) N() int {
	return m.n
}

// NonZeros returns the number of stored entries
func (m *CouplingMatrix) NonZeros() int {
	return len(m.vals)
}

// At returns F[i][j]. Linear in the row's non-zeros; intended for tests
// and inspection, not for the solver's inner loop.
func (m *CouplingMatrix) At(i, j int) float64 {
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		if m.cols[k] == j {
			return m.vals[k]
		}
	}
	return 0
}

// Row calls fn for each non-zero entry (j, F[i][j]) of row i
func (m *CouplingMatrix) Row(i int, fn func(j int, f float64)) {
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		fn(m.cols[k], m.vals[k])
	}
}

// MulVec computes dst = F * x, the sparse matrix-vector product at the
// heart of every solver iteration.
func (m *CouplingMatrix) MulVec(x, dst []float64) {
	for i := 0; i < m.n; i++ {
		sum := 0.0
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sum += m.vals[k] * x[m.cols[k]]
		}
		dst[i] = sum
	}
}

// FormFactorEngine computes the coupling matrix for a scene. Rows are
// independent given the immutable scene, so they are computed in
// parallel with each worker writing only its own rows.
type FormFactorEngine struct {
	scene   *Scene
	workers int
	logger  core.Logger

	// Cache, when set, is consulted before computing and updated after.
	// It is advisory: a miss or an invalidated entry only costs runtime.
	Cache Cache
}

// NewFormFactorEngine creates an engine for the given scene
func NewFormFactorEngine(scene *Scene, cfg Config, logger core.Logger) *FormFactorEngine {
	workers := cfg.NumWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = core.NewDefaultLogger()
	}
	return &FormFactorEngine{
		scene:   scene,
		workers: workers,
		logger:  logger,
	}
}

// ComputeCoupling computes the full coupling matrix. For every ordered
// patch pair it evaluates the point-to-patch form factor
//
//	F[i][j] = cos(theta_i) * cos(theta_j) * area(j) / (pi * r^2)
//
// clamped to [0,1], with back-facing pairs rejected at the scene epsilon
// and occlusion decided by a single centroid-to-centroid ray. The
// point-to-patch collapse is exact only for small, distant patches; for
// large nearby patches it is a known approximation of this method.
//
// The context is checked between rows, so a long pass can be cancelled
// cooperatively; the result is deterministic regardless of worker count.
func (e *FormFactorEngine) ComputeCoupling(ctx context.Context) (*CouplingMatrix, error) {
	var key string
	if e.Cache != nil {
		key = e.scene.GeometryHash()
		if m, ok := e.Cache.Get(key); ok {
			e.logger.Printf("Coupling matrix: cache hit (%d patches, %d non-zeros)\n", m.N(), m.NonZeros())
			return m, nil
		}
	}

	n := e.scene.PatchCount()
	rowCols := make([][]int, n)
	rowVals := make([][]float64, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := 0; i < n; i++ {
		if err := gctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rowCols[i], rowVals[i] = e.computeRow(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err // Cancelled before any row was scheduled
	}

	// Assemble compressed-row storage; row order keeps the result
	// independent of worker scheduling
	m := &CouplingMatrix{n: n, rowPtr: make([]int, n+1)}
	nnz := 0
	for i := 0; i < n; i++ {
		nnz += len(rowCols[i])
	}
	m.cols = make([]int, 0, nnz)
	m.vals = make([]float64, 0, nnz)
	for i := 0; i < n; i++ {
		m.rowPtr[i] = len(m.cols)
		m.cols = append(m.cols, rowCols[i]...)
		m.vals = append(m.vals, rowVals[i]...)
	}
	m.rowPtr[n] = len(m.cols)

	if e.Cache != nil {
		e.Cache.Put(key, m)
	}
	return m, nil
}

// computeRow evaluates all couplings from patch i
func (e *FormFactorEngine) computeRow(i int) ([]int, []float64) {
	s := e.scene
	eps := s.Epsilon()
	ci := s.Centroid(i)
	ni := s.Normal(i)

	var cols []int
	var vals []float64

	for j := 0; j < s.PatchCount(); j++ {
		if j == i {
			continue
		}

		d := s.Centroid(j).Subtract(ci)
		r2 := d.LengthSquared()
		if r2 == 0 {
			continue // Coincident centroids, no meaningful direction
		}
		r := math.Sqrt(r2)
		dir := d.Multiply(1 / r)

		// Back-face rejection: both patches must face each other
		cosI := dir.Dot(ni)
		if cosI <= eps {
			continue
		}
		cosJ := -dir.Dot(s.Normal(j))
		if cosJ <= eps {
			continue
		}

		// Visibility: a hit strictly closer than patch j occludes it.
		// CastRay starts past patch i's own surface and reports the
		// distance from its centroid, so patch j shows up at ~r and the
		// r-eps threshold keeps float noise in the hit distance from
		// counting j as its own occluder.
		if dist, hit := s.CastRay(ci, dir); hit && dist < r-eps {
			continue
		}

		f := cosI * cosJ * s.Area(j) / (math.Pi * r2)
		if f > 1 {
			f = 1
		}
		cols = append(cols, j)
		vals = append(vals, f)
	}
	return cols, vals
}
