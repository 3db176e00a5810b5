package featureselect

import (
	"fmt"
	"sort"
)

type Method string

const (
	MethodPCA        Method = "pca"
	MethodUnivariate Method = "univariate"
	MethodMutualInfo Method = "mutual_info"
)

const (
	DefaultThreshold = 0.95
	DefaultNFeatures = 15
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodPCA, MethodUnivariate, MethodMutualInfo:
		return m, nil
	default:
		return "", fmt.Errorf("unknown selection method %q (want pca, univariate or mutual_info)", s)
	}
}

type Config struct {
	Method    Method
	Threshold float64
	NFeatures int
}

func (c Config) withDefaults() Config {
	if c.Method == "" {
		c.Method = MethodPCA
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		c.Threshold = DefaultThreshold
	}
	if c.NFeatures <= 0 {
		c.NFeatures = DefaultNFeatures
	}
	return c
}

// Ranked is one feature with its selection score.
type Ranked struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"importance"`
}

// Rank orders features by descending score. Ties keep column order.
func Rank(features []string, scores []float64) []Ranked {
	out := make([]Ranked, len(features))
	for i, f := range features {
		out[i] = Ranked{Feature: f, Score: scores[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Selection is the outcome of a feature selection run. The PCA fields are
// only set for MethodPCA.
type Selection struct {
	Method             Method    `json:"method"`
	Selected           []string  `json:"selected_features"`
	Ranking            []Ranked  `json:"feature_importance"`
	NComponents        int       `json:"n_components,omitempty"`
	Threshold          float64   `json:"threshold,omitempty"`
	VarianceRatio      []float64 `json:"explained_variance_ratio,omitempty"`
	CumulativeVariance []float64 `json:"cumulative_variance,omitempty"`
}

// Select ranks the dataset features with the configured method and keeps
// the top NFeatures.
func Select(ds *Dataset, cfg Config) (*Selection, error) {
	cfg = cfg.withDefaults()
	sel := &Selection{Method: cfg.Method}

	var scores []float64
	switch cfg.Method {
	case MethodPCA:
		scaled, _, _ := Standardize(ds.X)
		p, err := PCA(scaled)
		if err != nil {
			return nil, err
		}
		k := OptimalComponents(p.VarianceRatio, cfg.Threshold)
		scores = p.Importance(k)
		sel.NComponents = k
		sel.Threshold = cfg.Threshold
		sel.VarianceRatio = p.VarianceRatio
		sel.CumulativeVariance = p.Cumulative
	case MethodUnivariate:
		scores = FScores(ds.X, ds.Y)
	case MethodMutualInfo:
		scores = MutualInfo(ds.X, ds.Y)
	default:
		return nil, fmt.Errorf("unknown selection method %q", cfg.Method)
	}

	sel.Ranking = Rank(ds.Features, scores)
	n := cfg.NFeatures
	if n > len(sel.Ranking) {
		n = len(sel.Ranking)
	}
	sel.Selected = make([]string, n)
	for i := 0; i < n; i++ {
		sel.Selected[i] = sel.Ranking[i].Feature
	}
	return sel, nil
}
