package prediction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Classifier returns class probabilities for one scaled sample. The
// probabilities are ordered like Classes.
type Classifier interface {
	PredictProba(x []float64) ([]float64, error)
	Classes() []int
}

// Scaler standardises a sample with a persisted per-feature mean and scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *Scaler) Validate(n int) error {
	if len(s.Mean) != n || len(s.Scale) != n {
		return fmt.Errorf("scaler has %d means and %d scales, want %d", len(s.Mean), len(s.Scale), n)
	}
	for i, sc := range s.Scale {
		if sc == 0 || math.IsNaN(sc) {
			return fmt.Errorf("scaler scale[%d] is %v", i, sc)
		}
	}
	return nil
}

func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	floats.SubTo(out, x, s.Mean)
	floats.Div(out, s.Scale)
	return out, nil
}

// LogisticRegression is a binary classifier over standardised features.
type LogisticRegression struct {
	Kind         string    `json:"type"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	ClassLabels  []int     `json:"classes"`
}

const KindLogisticRegression = "logistic_regression"

func (m *LogisticRegression) Validate(n int) error {
	if m.Kind != KindLogisticRegression {
		return fmt.Errorf("unsupported classifier type %q", m.Kind)
	}
	if len(m.Coefficients) != n {
		return fmt.Errorf("classifier has %d coefficients, want %d", len(m.Coefficients), n)
	}
	if len(m.ClassLabels) != 2 {
		return fmt.Errorf("classifier must have 2 classes, has %d", len(m.ClassLabels))
	}
	return nil
}

func (m *LogisticRegression) Classes() []int { return m.ClassLabels }

func (m *LogisticRegression) PredictProba(x []float64) ([]float64, error) {
	if len(x) != len(m.Coefficients) {
		return nil, fmt.Errorf("classifier expects %d features, got %d", len(m.Coefficients), len(x))
	}
	p := Sigmoid(floats.Dot(m.Coefficients, x) + m.Intercept)
	if math.IsNaN(p) {
		return nil, fmt.Errorf("classifier produced NaN")
	}
	return []float64{1 - p, p}, nil
}

func Sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
