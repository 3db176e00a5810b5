package featureselect

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MIBins is the number of equal-width bins used to discretise a feature
// for mutual information.
const MIBins = 10

func classIndex(y []float64) ([]float64, map[float64][]int) {
	groups := make(map[float64][]int)
	for i, v := range y {
		groups[v] = append(groups[v], i)
	}
	classes := make([]float64, 0, len(groups))
	for c := range groups {
		classes = append(classes, c)
	}
	sort.Float64s(classes)
	return classes, groups
}

// FScores returns the one-way ANOVA F statistic of every column against
// the class labels.
func FScores(x *mat.Dense, y []float64) []float64 {
	n, c := x.Dims()
	classes, groups := classIndex(y)
	k := len(classes)
	scores := make([]float64, c)
	if k < 2 || n <= k {
		return scores
	}
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, x)
		grand := stat.Mean(col, nil)
		var ssb, ssw float64
		for _, cls := range classes {
			idx := groups[cls]
			vals := make([]float64, len(idx))
			for i, r := range idx {
				vals[i] = col[r]
			}
			m := stat.Mean(vals, nil)
			ssb += float64(len(vals)) * (m - grand) * (m - grand)
			for _, v := range vals {
				ssw += (v - m) * (v - m)
			}
		}
		switch {
		case ssw == 0 && ssb == 0:
			scores[j] = 0
		case ssw == 0:
			scores[j] = math.MaxFloat64
		default:
			scores[j] = (ssb / float64(k-1)) / (ssw / float64(n-k))
		}
	}
	return scores
}

// MutualInfo returns the mutual information, in nats, between every
// discretised column and the class labels.
func MutualInfo(x *mat.Dense, y []float64) []float64 {
	n, c := x.Dims()
	classes, _ := classIndex(y)
	classPos := make(map[float64]int, len(classes))
	for i, cls := range classes {
		classPos[cls] = i
	}
	scores := make([]float64, c)
	if n == 0 {
		return scores
	}
	for j := 0; j < c; j++ {
		bins := discretise(mat.Col(nil, j, x), MIBins)
		joint := make([][]float64, MIBins)
		for b := range joint {
			joint[b] = make([]float64, len(classes))
		}
		for i, b := range bins {
			joint[b][classPos[y[i]]]++
		}
		px := make([]float64, MIBins)
		py := make([]float64, len(classes))
		for b := range joint {
			for k, cnt := range joint[b] {
				px[b] += cnt
				py[k] += cnt
			}
		}
		var mi float64
		total := float64(n)
		for b := range joint {
			for k, cnt := range joint[b] {
				if cnt == 0 {
					continue
				}
				pxy := cnt / total
				mi += pxy * math.Log(pxy/((px[b]/total)*(py[k]/total)))
			}
		}
		scores[j] = math.Max(mi, 0)
	}
	return scores
}

func discretise(values []float64, bins int) []int {
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make([]int, len(values))
	if hi == lo {
		return out
	}
	width := (hi - lo) / float64(bins)
	for i, v := range values {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		out[i] = b
	}
	return out
}
