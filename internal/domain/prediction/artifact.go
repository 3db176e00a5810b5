package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	ModelFile    = "best_ckd_model.json"
	ScalerFile   = "feature_scaler.json"
	FeaturesFile = "selected_features.json"
	SummaryFile  = "model_summary.json"
)

var ErrArtifactsMissing = errors.New("model artifacts not found")

// Performance holds hold-out metrics as fractions in [0,1].
type Performance struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	AUC       float64 `json:"auc"`
}

// ModelSummary is the offline evaluation summary written next to the
// artifacts.
type ModelSummary struct {
	BestModel        string          `json:"best_model"`
	BestFeatureSet   string          `json:"best_feature_set"`
	NFeatures        int             `json:"n_features"`
	SelectedFeatures []string        `json:"selected_features"`
	Performance      Performance     `json:"performance"`
	PCAAnalysis      json.RawMessage `json:"pca_analysis,omitempty"`
}

func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// LoadArtifact reads the classifier, scaler and feature list from dir.
// All three files must be present.
func LoadArtifact(dir string) (*Artifact, error) {
	for _, name := range []string{ModelFile, ScalerFile, FeaturesFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrArtifactsMissing, name)
		}
	}

	var features []string
	if err := readJSON(filepath.Join(dir, FeaturesFile), &features); err != nil {
		return nil, err
	}
	var scaler Scaler
	if err := readJSON(filepath.Join(dir, ScalerFile), &scaler); err != nil {
		return nil, err
	}
	var clf LogisticRegression
	if err := readJSON(filepath.Join(dir, ModelFile), &clf); err != nil {
		return nil, err
	}
	if err := clf.Validate(len(features)); err != nil {
		return nil, err
	}
	if err := scaler.Validate(len(features)); err != nil {
		return nil, err
	}
	return &Artifact{Classifier: &clf, Scaler: &scaler, Features: features}, nil
}

// LoadRiskModel loads the trained artifact from dir. Any failure is logged
// and yields a rule-based model for the lifetime of the process. Feature
// names the extractor cannot produce are logged, and fail the load when
// strict is set.
func LoadRiskModel(dir string, strict bool, log zerolog.Logger) *RiskModel {
	a, err := LoadArtifact(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("trained model unavailable, using rule-based fallback")
		return NewFallbackModel()
	}

	if unknown := UnknownFeatures(a.Features); len(unknown) > 0 {
		if strict {
			log.Error().Strs("features", unknown).Msg("model expects features the extractor cannot produce, using rule-based fallback")
			return NewFallbackModel()
		}
		log.Warn().Strs("features", unknown).Msg("model expects features the extractor cannot produce, they will be 0")
	}

	m, err := NewTrainedModel(a)
	if err != nil {
		log.Warn().Err(err).Msg("invalid model artifact, using rule-based fallback")
		return NewFallbackModel()
	}
	log.Info().Int("features", len(a.Features)).Str("selected", strings.Join(a.Features, ",")).
		Msg("loaded trained CKD model")
	return m
}

// SaveArtifacts writes the artifact files and, when summary is not nil,
// the model summary into dir.
func SaveArtifacts(dir string, clf *LogisticRegression, scaler *Scaler, features []string, summary *ModelSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := []struct {
		name string
		v    interface{}
	}{
		{ModelFile, clf},
		{ScalerFile, scaler},
		{FeaturesFile, features},
	}
	if summary != nil {
		files = append(files, struct {
			name string
			v    interface{}
		}{SummaryFile, summary})
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(dir, f.name), f.v); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

// LoadModelSummary reads model_summary.json from dir.
func LoadModelSummary(dir string) (*ModelSummary, error) {
	var s ModelSummary
	if err := readJSON(filepath.Join(dir, SummaryFile), &s); err != nil {
		return nil, err
	}
	return &s, nil
}
