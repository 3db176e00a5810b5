package prediction

import (
	"fmt"
	"math"
	"time"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type Mode int

const (
	ModeFallback Mode = iota
	ModeTrained
)

func (m Mode) String() string {
	if m == ModeTrained {
		return "trained"
	}
	return "rule-based"
}

const (
	LabelPositive = "CKD Positive"
	LabelNegative = "CKD Negative"
)

// FallbackFeatures is the feature order used when no trained artifact is
// loaded.
var FallbackFeatures = []string{FeatureAge, FeatureGFR, FeatureSerumCreatinine, FeatureSystolicBP, FeatureProteinInUrine}

// Artifact is the trained classifier, its scaler and the ordered feature
// names it consumes.
type Artifact struct {
	Classifier Classifier
	Scaler     *Scaler
	Features   []string
}

// Assessment is the risk model output for one snapshot.
type Assessment struct {
	Label      string
	Positive   bool
	Confidence float64
	RiskLevel  RiskLevel
	Stage      int
}

// RiskModel scores snapshots either with a trained artifact or with eGFR
// rules. The mode is fixed at construction and the artifact is never
// mutated afterwards.
type RiskModel struct {
	mode     Mode
	artifact *Artifact
}

func NewFallbackModel() *RiskModel {
	return &RiskModel{mode: ModeFallback}
}

func NewTrainedModel(a *Artifact) (*RiskModel, error) {
	if a == nil || a.Classifier == nil || a.Scaler == nil || len(a.Features) == 0 {
		return nil, fmt.Errorf("incomplete model artifact")
	}
	if err := a.Scaler.Validate(len(a.Features)); err != nil {
		return nil, err
	}
	return &RiskModel{mode: ModeTrained, artifact: a}, nil
}

func (m *RiskModel) Mode() Mode { return m.mode }

func (m *RiskModel) FeatureNames() []string {
	if m.mode == ModeTrained {
		return m.artifact.Features
	}
	return FallbackFeatures
}

// Assess scores the snapshot. It fails with ErrMissingData when there is
// no kidney-metric record.
func (m *RiskModel) Assess(s *Snapshot, now time.Time) (Assessment, error) {
	vec, err := ExtractFeatures(s, m.FeatureNames(), now)
	if err != nil {
		return Assessment{}, err
	}
	if m.mode == ModeFallback {
		return fallbackAssessment(s.Kidney.EGFR), nil
	}

	scaled, err := m.artifact.Scaler.Transform(vec.Values)
	if err != nil {
		return Assessment{}, err
	}
	proba, err := m.artifact.Classifier.PredictProba(scaled)
	if err != nil {
		return Assessment{}, err
	}
	classes := m.artifact.Classifier.Classes()
	if len(proba) == 0 || len(proba) != len(classes) {
		return Assessment{}, fmt.Errorf("classifier returned %d probabilities for %d classes", len(proba), len(classes))
	}
	best := 0
	for i := range proba {
		if proba[i] > proba[best] {
			best = i
		}
	}
	confidence := round2(proba[best] * 100)

	if classes[best] == 1 {
		return Assessment{
			Label:      LabelPositive,
			Positive:   true,
			Confidence: confidence,
			RiskLevel:  RiskFromConfidence(confidence),
			Stage:      StageFromEGFR(s.Kidney.EGFR),
		}, nil
	}
	return Assessment{
		Label:      LabelNegative,
		Confidence: confidence,
		RiskLevel:  RiskLow,
		Stage:      1,
	}, nil
}

func fallbackAssessment(egfr float64) Assessment {
	a := Assessment{Positive: true, Stage: StageFromEGFR(egfr)}
	switch {
	case egfr < 30:
		a.Label, a.RiskLevel, a.Confidence = "CKD Stage 4-5", RiskCritical, 90
	case egfr < 60:
		a.Label, a.RiskLevel, a.Confidence = "CKD Stage 3", RiskHigh, 85
	case egfr < 90:
		a.Label, a.RiskLevel, a.Confidence = "CKD Stage 2", RiskMedium, 75
	default:
		a = Assessment{Label: "Normal Kidney Function", RiskLevel: RiskLow, Confidence: 80, Stage: 1}
	}
	return a
}

// RiskFromConfidence buckets a positive prediction's confidence.
func RiskFromConfidence(confidence float64) RiskLevel {
	switch {
	case confidence >= 90:
		return RiskCritical
	case confidence >= 80:
		return RiskHigh
	case confidence >= 70:
		return RiskMedium
	default:
		return RiskLow
	}
}

func StageFromEGFR(egfr float64) int {
	switch {
	case egfr >= 90:
		return 1
	case egfr >= 60:
		return 2
	case egfr >= 30:
		return 3
	case egfr >= 15:
		return 4
	default:
		return 5
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
