package eigen

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/mdobak/go-xerrors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

// SolverOptions tunes the truncated SVD. The zero value is not usable, start
// from DefaultSolverOptions.
type SolverOptions struct {
	// Oversample is the number of extra directions carried in each block
	// beyond k.
	Oversample int
	// Blocks is the depth of the Krylov basis built before each Rayleigh-Ritz
	// solve, the starting block included. 1 is plain subspace iteration.
	Blocks int
	// MaxIter caps the number of restarts.
	MaxIter int
	// Tolerance bounds the Ritz residual ||A·v - θ·v|| relative to the largest θ.
	Tolerance float64
	Seed      int64
}

func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Oversample: 10,
		Blocks:     4,
		MaxIter:    300,
		Tolerance:  1e-8,
		Seed:       1,
	}
}

// Truncated holds the k dominant singular triplets of a matrix, left vectors only.
type Truncated struct {
	U      *mat.Dense
	Values []float64
	// Iterations counts Rayleigh-Ritz solves, one per restart.
	Iterations int
	Converged  bool
}

// TruncatedSVD computes the k largest singular values of x and their left
// singular vectors without factorising x itself.
//
// It runs a restarted block Krylov method on the smaller Gram operator (xᵀx
// when x is tall, xxᵀ otherwise). Each cycle grows the basis
// [Q, AQ, A²Q, ...] to Blocks blocks of l = k+Oversample columns, extracts
// Ritz pairs from it and restarts from the l best. The operator is only ever
// applied through x, so one cycle costs O(d·n·l·Blocks). When the basis
// reaches min(d, n) columns the result is exact after a single cycle.
// Columns of U are orthonormal and sorted by descending singular value.
func TruncatedSVD(x mat.Matrix, k int, opts SolverOptions) (*Truncated, error) {
	d, n := x.Dims()
	m := min(d, n)
	if k < 1 || k > m {
		return nil, xerrors.New(fmt.Errorf("%w: k=%d for a %dx%d matrix", model.ErrInsufficientData, k, d, n))
	}
	if opts.MaxIter <= 0 || opts.Tolerance <= 0 || opts.Oversample < 0 || opts.Blocks < 1 {
		return nil, xerrors.New(fmt.Errorf("%w: solver options %+v", model.ErrInvalidArgument, opts))
	}

	// right: iterate on xᵀx (n×n) and map back through x
	right := n <= d
	apply := func(q mat.Matrix) *mat.Dense {
		var tmp, dst mat.Dense
		if right {
			tmp.Mul(x, q)
			dst.Mul(x.T(), &tmp)
		} else {
			tmp.Mul(x.T(), q)
			dst.Mul(x, &tmp)
		}
		return &dst
	}

	l := min(k+opts.Oversample, m)
	rnd := rand.New(rand.NewSource(opts.Seed))
	start := mat.NewDense(m, l, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < l; j++ {
			start.Set(i, j, rnd.NormFloat64())
		}
	}
	orthonormalize(start)

	var (
		theta     []float64
		ritz      *mat.Dense
		converged bool
		iter      int
	)
	for iter = 1; iter <= opts.MaxIter; iter++ {
		basis, image := krylov(apply, start, opts.Blocks, m)

		values, y := rayleighRitz(basis, image)
		var v, av mat.Dense
		v.Mul(basis, y)
		av.Mul(image, y)
		theta, ritz = values, &v

		// a basis spanning the whole space is exact
		if _, b := basis.Dims(); b == m || residualsConverged(&av, &v, values, k, opts.Tolerance) {
			converged = true
			break
		}
		start = mat.DenseCopyOf(v.Slice(0, m, 0, l))
	}
	if iter > opts.MaxIter {
		iter = opts.MaxIter
	}

	values := make([]float64, k)
	for i := 0; i < k; i++ {
		values[i] = math.Sqrt(math.Max(theta[i], 0))
	}

	var u *mat.Dense
	if right {
		u = mat.NewDense(d, k, nil)
		var col mat.VecDense
		for i := 0; i < k; i++ {
			if values[i] <= zeroSingular(values) {
				continue
			}
			col.MulVec(x, ritz.ColView(i))
			col.ScaleVec(1/values[i], &col)
			u.SetCol(i, col.RawVector().Data)
		}
	} else {
		u = mat.DenseCopyOf(ritz.Slice(0, d, 0, k))
	}
	// removes drift and fills directions with no variance
	orthonormalize(u)

	return &Truncated{U: u, Values: values, Iterations: iter, Converged: converged}, nil
}

func zeroSingular(values []float64) float64 {
	return 1e-12 * math.Max(values[0], 1)
}

// krylov grows the orthonormal block start into an orthonormal basis of
// [start, A·start, A²·start, ...] with at most blocks blocks and m columns.
// It returns the basis and A applied to it.
func krylov(apply func(mat.Matrix) *mat.Dense, start *mat.Dense, blocks, m int) (basis, image *mat.Dense) {
	basis, image = start, apply(start)
	last := image
	for j := 1; j < blocks; j++ {
		_, c := basis.Dims()
		if c == m {
			break
		}
		_, w := last.Dims()
		w = min(w, m-c)

		var grown mat.Dense
		grown.Augment(basis, last.Slice(0, m, 0, w))
		orthonormalize(&grown)
		next := mat.DenseCopyOf(grown.Slice(0, m, c, c+w))
		last = apply(next)

		var b, im mat.Dense
		b.Augment(basis, next)
		im.Augment(image, last)
		basis, image = &b, &im
	}
	return basis, image
}

// rayleighRitz returns the eigenvalues of qᵀ·w in descending order and the
// matching eigenvectors as columns.
func rayleighRitz(q, w *mat.Dense) ([]float64, *mat.Dense) {
	_, l := q.Dims()
	var h mat.Dense
	h.Mul(q.T(), w)

	sym := mat.NewSymDense(l, nil)
	for i := 0; i < l; i++ {
		for j := i; j < l; j++ {
			sym.SetSym(i, j, (h.At(i, j)+h.At(j, i))/2)
		}
	}

	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		// symmetric tridiagonal QR practically never fails; fall back to the
		// current basis so iteration can continue
		values := make([]float64, l)
		for i := range values {
			values[i] = sym.At(i, i)
		}
		return sortDescending(values, identity(l))
	}
	values := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	return sortDescending(values, &vecs)
}

func identity(n int) *mat.Dense {
	res := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		res.Set(i, i, 1)
	}
	return res
}

// sortDescending orders values from largest to smallest and permutes the
// columns of vecs to match. Solvers may return components in any order.
func sortDescending(values []float64, vecs *mat.Dense) ([]float64, *mat.Dense) {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] > values[idx[b]]
	})

	r, _ := vecs.Dims()
	sortedValues := make([]float64, len(values))
	sortedVecs := mat.NewDense(r, len(values), nil)
	for to, from := range idx {
		sortedValues[to] = values[from]
		sortedVecs.SetCol(to, mat.Col(nil, from, vecs))
	}
	return sortedValues, sortedVecs
}

// residualsConverged reports whether the first k Ritz pairs satisfy
// ||A·v - θ·v|| <= tol·θ₀.
func residualsConverged(av, v *mat.Dense, theta []float64, k int, tol float64) bool {
	bound := tol * math.Max(math.Abs(theta[0]), math.SmallestNonzeroFloat64)
	r, _ := v.Dims()
	res := make([]float64, r)
	for i := 0; i < k; i++ {
		floats.AddScaledTo(res, mat.Col(nil, i, av), -theta[i], mat.Col(nil, i, v))
		if floats.Norm(res, 2) > bound {
			return false
		}
	}
	return true
}

// orthonormalize replaces the columns of a, which must have at least as many
// rows as columns, with the thin Q of its Householder QR factorisation. Q is
// orthonormal even when a is rank deficient. Signs follow the diagonal of R,
// so columns already orthonormal to the ones before them come back unchanged.
func orthonormalize(a *mat.Dense) {
	_, c := a.Dims()
	raw := a.RawMatrix()
	tau := make([]float64, c)
	work := []float64{0}
	lapack64.Geqrf(raw, tau, work, -1)
	work = make([]float64, int(work[0]))
	lapack64.Geqrf(raw, tau, work, len(work))

	flip := make([]bool, c)
	for j := range flip {
		flip[j] = raw.Data[j*raw.Stride+j] < 0
	}

	work = []float64{0}
	lapack64.Orgqr(raw, tau, work, -1)
	work = make([]float64, int(work[0]))
	lapack64.Orgqr(raw, tau, work, len(work))

	for j, f := range flip {
		if !f {
			continue
		}
		for i := 0; i < raw.Rows; i++ {
			raw.Data[i*raw.Stride+j] = -raw.Data[i*raw.Stride+j]
		}
	}
}
