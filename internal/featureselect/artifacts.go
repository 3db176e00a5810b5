package featureselect

import (
	"encoding/json"

	"github.com/ckd/ckd/internal/domain/prediction"
)

const modelName = "Logistic Regression"

// Report is a full offline run: the selection and the model trained on
// the selected features.
type Report struct {
	Selection  *Selection
	Classifier *prediction.LogisticRegression
	Scaler     *prediction.Scaler
	Summary    *prediction.ModelSummary
}

type pcaAnalysis struct {
	NComponents        int       `json:"n_components_95"`
	TotalFeatures      int       `json:"total_features"`
	Threshold          float64   `json:"threshold"`
	VarianceRatio      []float64 `json:"explained_variance_ratio"`
	CumulativeVariance []float64 `json:"cumulative_variance"`
}

// Run selects features, trains a classifier on them and evaluates it on
// the held-out rows.
func Run(ds *Dataset, cfg Config, tc TrainConfig) (*Report, error) {
	sel, err := Select(ds, cfg)
	if err != nil {
		return nil, err
	}
	sub, err := ds.Subset(sel.Selected)
	if err != nil {
		return nil, err
	}
	train, test, err := Split(sub, tc.TestEvery)
	if err != nil {
		return nil, err
	}

	scaledTrain, mean, scale := Standardize(train.X)
	scaler := &prediction.Scaler{Mean: mean, Scale: scale}
	clf, err := TrainLogistic(scaledTrain, train.Y, tc)
	if err != nil {
		return nil, err
	}
	scaledTest, err := applyScaler(scaler, test.X)
	if err != nil {
		return nil, err
	}
	perf, err := Evaluate(clf, scaledTest, test.Y)
	if err != nil {
		return nil, err
	}

	summary := &prediction.ModelSummary{
		BestModel:        modelName,
		BestFeatureSet:   string(sel.Method),
		NFeatures:        len(sel.Selected),
		SelectedFeatures: sel.Selected,
		Performance:      perf,
	}
	if sel.Method == MethodPCA {
		raw, err := json.Marshal(pcaAnalysis{
			NComponents:        sel.NComponents,
			TotalFeatures:      len(ds.Features),
			Threshold:          sel.Threshold,
			VarianceRatio:      sel.VarianceRatio,
			CumulativeVariance: sel.CumulativeVariance,
		})
		if err != nil {
			return nil, err
		}
		summary.PCAAnalysis = raw
	}
	return &Report{Selection: sel, Classifier: clf, Scaler: scaler, Summary: summary}, nil
}

// WriteArtifacts writes the model artifact and summary into dir.
func (r *Report) WriteArtifacts(dir string) error {
	return prediction.SaveArtifacts(dir, r.Classifier, r.Scaler, r.Selection.Selected, r.Summary)
}
