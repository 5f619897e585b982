// Package eigen builds a PCA embedding ("eigenimages") of a grayscale image
// corpus and projects images into it.
package eigen

import (
	"fmt"
	"math"

	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/aibrahim185/Algeo02-23012/picture"
	"github.com/mdobak/go-xerrors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Model is a fitted embedding. It is never modified after Fit returns.
type Model struct {
	Mean model.ImageVector
	// Basis is d×k, one principal direction per column.
	Basis *mat.Dense
	// Values are the singular values of the scaled, centred corpus, descending.
	Values     []float64
	Iterations int
	Converged  bool
}

// Mean returns the per dimension mean of vectors.
func Mean(vectors []model.ImageVector) (model.ImageVector, error) {
	if len(vectors) == 0 {
		return nil, xerrors.New(fmt.Errorf("%w: no vectors", model.ErrInsufficientData))
	}
	d := len(vectors[0])
	if d == 0 {
		return nil, xerrors.New(fmt.Errorf("%w: vectors are empty", model.ErrInvalidArgument))
	}

	data := mat.NewDense(len(vectors), d, nil)
	for idx, v := range vectors {
		if len(v) != d {
			return nil, xerrors.New(fmt.Errorf("%w: vector %d has length %d, expected %d",
				model.ErrInvalidArgument, idx, len(v), d))
		}
		data.SetRow(idx, v)
	}
	mean := make(model.ImageVector, d)
	col := make([]float64, len(vectors))
	for j := range mean {
		mean[j] = stat.Mean(mat.Col(col, j, data), nil)
	}
	return mean, nil
}

// Fit computes the mean and the k dominant principal directions of vectors.
func Fit(vectors []model.ImageVector, k int) (*Model, error) {
	return FitWithOptions(vectors, k, DefaultSolverOptions())
}

// FitWithOptions is Fit with explicit solver settings.
//
// The corpus is centred and scaled into X = (corpus - mean)ᵀ/√N, a d×N
// matrix whose XXᵀ is the empirical covariance. The d×d covariance itself is
// never formed; the left singular vectors of X are the principal directions.
func FitWithOptions(vectors []model.ImageVector, k int, opts SolverOptions) (*Model, error) {
	n := len(vectors)
	if n < 2 {
		return nil, xerrors.New(fmt.Errorf("%w: need at least 2 images, got %d", model.ErrInsufficientData, n))
	}
	mean, err := Mean(vectors)
	if err != nil {
		return nil, err
	}
	d := len(mean)
	if k < 1 || k >= min(d, n) {
		return nil, xerrors.New(fmt.Errorf("%w: components must satisfy 1 <= k < %d, got %d",
			model.ErrInsufficientData, min(d, n), k))
	}

	scale := 1 / math.Sqrt(float64(n))
	x := mat.NewDense(d, n, nil)
	col := make([]float64, d)
	for j, v := range vectors {
		floats.SubTo(col, v, mean)
		floats.Scale(scale, col)
		x.SetCol(j, col)
	}

	svd, err := TruncatedSVD(x, k, opts)
	if err != nil {
		return nil, err
	}

	return &Model{
		Mean:       mean,
		Basis:      svd.U,
		Values:     svd.Values,
		Iterations: svd.Iterations,
		Converged:  svd.Converged,
	}, nil
}

// Components is k, the embedding dimension.
func (m *Model) Components() int {
	if m == nil || m.Basis == nil {
		return 0
	}
	_, k := m.Basis.Dims()
	return k
}

// Center subtracts the model mean from v.
func (m *Model) Center(v model.ImageVector) (model.ImageVector, error) {
	if m == nil || m.Basis == nil {
		return nil, model.ErrNotFitted
	}
	if len(v) != len(m.Mean) {
		return nil, xerrors.New(fmt.Errorf("%w: vector has length %d, model expects %d",
			model.ErrInvalidArgument, len(v), len(m.Mean)))
	}
	return floats.SubTo(make(model.ImageVector, len(v)), v, m.Mean), nil
}

// Project maps an already centred vector onto the basis.
func (m *Model) Project(centered model.ImageVector) (model.EmbeddingVector, error) {
	if m == nil || m.Basis == nil {
		return nil, model.ErrNotFitted
	}
	d, k := m.Basis.Dims()
	if len(centered) != d {
		return nil, xerrors.New(fmt.Errorf("%w: vector has length %d, model expects %d",
			model.ErrInvalidArgument, len(centered), d))
	}
	var z mat.VecDense
	z.MulVec(m.Basis.T(), mat.NewVecDense(d, centered))
	res := make(model.EmbeddingVector, k)
	copy(res, z.RawVector().Data)
	return res, nil
}

// Embed centres v and projects it.
func (m *Model) Embed(v model.ImageVector) (model.EmbeddingVector, error) {
	centered, err := m.Center(v)
	if err != nil {
		return nil, err
	}
	return m.Project(centered)
}

// PreprocessQuery featurizes an encoded image at the corpus resolution and
// centres it with the model mean.
func (m *Model) PreprocessQuery(data []byte, width, height int, filter picture.Filter) (model.ImageVector, error) {
	if m == nil || m.Basis == nil {
		return nil, model.ErrNotFitted
	}
	if width <= 0 || height <= 0 || width > len(m.Mean) || height > len(m.Mean) || width*height != len(m.Mean) {
		return nil, xerrors.New(fmt.Errorf("%w: %dx%d does not match the fitted dimension %d",
			model.ErrInvalidArgument, width, height, len(m.Mean)))
	}
	vec, err := picture.Featurize(data, width, height, filter)
	if err != nil {
		return nil, err
	}
	return m.Center(vec)
}
