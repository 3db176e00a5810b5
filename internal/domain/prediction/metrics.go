package prediction

import (
	"encoding/json"
	"errors"
	"io/fs"
)

// ModelMetrics is the client view of the offline evaluation summary.
// Performance values are percentages.
type ModelMetrics struct {
	ModelName        string          `json:"model_name"`
	FeatureSelection string          `json:"feature_selection"`
	NFeatures        int             `json:"n_features"`
	SelectedFeatures []string        `json:"selected_features,omitempty"`
	Performance      Performance     `json:"performance"`
	PCAAnalysis      json.RawMessage `json:"pca_analysis,omitempty"`
	ModelVersion     string          `json:"model_version"`
	Mode             string          `json:"mode"`
}

func fallbackMetrics(version string) *ModelMetrics {
	return &ModelMetrics{
		ModelName:        "Gradient Boosting",
		FeatureSelection: "PCA-optimized",
		NFeatures:        15,
		Performance: Performance{
			Accuracy:  92.47,
			Precision: 94.03,
			Recall:    98.03,
			F1Score:   95.99,
			AUC:       81.81,
		},
		ModelVersion: version,
	}
}

// LoadModelMetrics reads model_summary.json from dir and converts the
// performance fractions to percentages. A missing summary yields the
// published reference metrics.
func LoadModelMetrics(dir, version string) (*ModelMetrics, error) {
	s, err := LoadModelSummary(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return fallbackMetrics(version), nil
	}
	if err != nil {
		return nil, err
	}
	return &ModelMetrics{
		ModelName:        s.BestModel,
		FeatureSelection: s.BestFeatureSet,
		NFeatures:        s.NFeatures,
		SelectedFeatures: s.SelectedFeatures,
		Performance: Performance{
			Accuracy:  round2(s.Performance.Accuracy * 100),
			Precision: round2(s.Performance.Precision * 100),
			Recall:    round2(s.Performance.Recall * 100),
			F1Score:   round2(s.Performance.F1Score * 100),
			AUC:       round2(s.Performance.AUC * 100),
		},
		PCAAnalysis:  s.PCAAnalysis,
		ModelVersion: version,
	}, nil
}
