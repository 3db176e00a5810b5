package featureselect

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Standardize scales each column to zero mean and unit population
// variance. Constant columns keep scale 1.
func Standardize(x *mat.Dense) (scaled *mat.Dense, mean, scale []float64) {
	r, c := x.Dims()
	scaled = mat.NewDense(r, c, nil)
	mean = make([]float64, c)
	scale = make([]float64, c)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, x)
		m, v := stat.PopMeanVariance(col, nil)
		sd := math.Sqrt(v)
		if sd == 0 {
			sd = 1
		}
		mean[j], scale[j] = m, sd
		floats.AddConst(-m, col)
		floats.Scale(1/sd, col)
		scaled.SetCol(j, col)
	}
	return scaled, mean, scale
}

// PCAResult is a full principal component decomposition. Loadings has one
// row per original feature and one column per component.
type PCAResult struct {
	Loadings      *mat.Dense
	Variances     []float64
	VarianceRatio []float64
	Cumulative    []float64
}

// PCA decomposes standardized data.
func PCA(x *mat.Dense) (*PCAResult, error) {
	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, errors.New("principal component decomposition failed")
	}
	var loadings mat.Dense
	pc.VectorsTo(&loadings)
	vars := pc.VarsTo(nil)

	total := floats.Sum(vars)
	ratio := make([]float64, len(vars))
	if total > 0 {
		floats.ScaleTo(ratio, 1/total, vars)
	}
	cum := make([]float64, len(ratio))
	floats.CumSum(cum, ratio)
	return &PCAResult{Loadings: &loadings, Variances: vars, VarianceRatio: ratio, Cumulative: cum}, nil
}

// OptimalComponents returns the smallest number of leading components
// whose cumulative explained-variance ratio reaches threshold.
func OptimalComponents(ratios []float64, threshold float64) int {
	var cum float64
	for i, r := range ratios {
		cum += r
		if cum >= threshold {
			return i + 1
		}
	}
	// Rounding can leave the total just below 1.
	return len(ratios)
}

// Importance scores each original feature by the sum of its absolute
// loadings over the first k components.
func (p *PCAResult) Importance(k int) []float64 {
	rows, cols := p.Loadings.Dims()
	if k > cols {
		k = cols
	}
	scores := make([]float64, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < k; j++ {
			scores[i] += math.Abs(p.Loadings.At(i, j))
		}
	}
	return scores
}
