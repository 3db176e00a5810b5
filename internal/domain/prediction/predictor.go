package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrPatientNotFound = errors.New("patient not found")

// SnapshotSource assembles the clinical snapshot of a patient. It returns
// ErrPatientNotFound for unknown patients and a snapshot with a nil Kidney
// reading when the patient has no kidney metrics.
type SnapshotSource interface {
	Snapshot(ctx context.Context, patientID uuid.UUID) (*Snapshot, error)
}

// PredictionError wraps any failure of a prediction call.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return "prediction failed: " + e.Err.Error()
}

func (e *PredictionError) Unwrap() error { return e.Err }

type InputMetrics struct {
	Age             int     `json:"age"`
	BloodPressure   string  `json:"bloodPressure"`
	SerumCreatinine float64 `json:"serumCreatinine"`
	BloodUrea       float64 `json:"bloodUrea"`
	Hemoglobin      float64 `json:"hemoglobin"`
	EGFR            float64 `json:"eGFR"`
}

// Result is the outcome of one prediction. The caller owns persistence.
type Result struct {
	Result          string       `json:"result"`
	Confidence      float64      `json:"confidence"`
	Stage           int          `json:"stage"`
	RiskLevel       RiskLevel    `json:"risk_level"`
	InputMetrics    InputMetrics `json:"input_metrics"`
	Recommendations []string     `json:"recommendations"`
	ModelVersion    string       `json:"model_version"`
}

type Predictor struct {
	source  SnapshotSource
	model   *RiskModel
	version string
	now     func() time.Time
	log     zerolog.Logger
}

func NewPredictor(source SnapshotSource, model *RiskModel, version string, log zerolog.Logger) *Predictor {
	return &Predictor{
		source:  source,
		model:   model,
		version: version,
		now:     time.Now,
		log:     log.With().Str("component", "predictor").Logger(),
	}
}

func (p *Predictor) Model() *RiskModel { return p.model }

func (p *Predictor) Version() string { return p.version }

// Predict scores a patient. It has no side effects. Every failure is a
// *PredictionError.
func (p *Predictor) Predict(ctx context.Context, patientID uuid.UUID) (*Result, error) {
	snap, err := p.source.Snapshot(ctx, patientID)
	if err != nil {
		return nil, &PredictionError{Err: err}
	}
	now := p.now()

	a, err := p.model.Assess(snap, now)
	if err != nil {
		return nil, &PredictionError{Err: err}
	}

	res := &Result{
		Result:          a.Label,
		Confidence:      round2(a.Confidence),
		Stage:           a.Stage,
		RiskLevel:       a.RiskLevel,
		InputMetrics:    summarize(snap, now),
		Recommendations: Recommend(snap.Kidney),
		ModelVersion:    p.version,
	}
	p.log.Debug().
		Str("patient_id", patientID.String()).
		Str("mode", p.model.Mode().String()).
		Str("result", res.Result).
		Str("risk_level", string(res.RiskLevel)).
		Float64("confidence", res.Confidence).
		Msg("prediction computed")
	return res, nil
}

func summarize(s *Snapshot, now time.Time) InputMetrics {
	systolic, diastolic := s.BloodPressure()
	m := InputMetrics{
		Age:             s.Age(now),
		BloodPressure:   fmt.Sprintf("%d/%d", systolic, diastolic),
		SerumCreatinine: s.Kidney.Creatinine,
		EGFR:            s.Kidney.EGFR,
	}
	if v, ok := s.RecentLab(labBUN); ok {
		m.BloodUrea = v
	}
	if v, ok := s.RecentLab(labHemoglobin); ok {
		m.Hemoglobin = v
	}
	return m
}
