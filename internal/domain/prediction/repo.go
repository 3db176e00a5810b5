package prediction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("no prediction found for this patient")

// Record is a persisted prediction, one row of ml_predictions.
type Record struct {
	ID               uuid.UUID    `json:"id"`
	PatientID        uuid.UUID    `json:"patient_id"`
	PredictionResult string       `json:"prediction_result"`
	Confidence       float64      `json:"confidence"`
	PredictedStage   *int         `json:"predicted_stage"`
	RiskLevel        RiskLevel    `json:"risk_level"`
	InputData        InputMetrics `json:"input_data"`
	Recommendations  []string     `json:"recommendations"`
	ModelVersion     string       `json:"model_version"`
	CreatedAt        time.Time    `json:"created_at"`
}

func NewRecord(patientID uuid.UUID, r *Result) *Record {
	stage := r.Stage
	return &Record{
		PatientID:        patientID,
		PredictionResult: r.Result,
		Confidence:       r.Confidence,
		PredictedStage:   &stage,
		RiskLevel:        r.RiskLevel,
		InputData:        r.InputMetrics,
		Recommendations:  r.Recommendations,
		ModelVersion:     r.ModelVersion,
	}
}

type Repository interface {
	Create(ctx context.Context, r *Record) error
	// Latest returns ErrNotFound when the patient has no predictions.
	Latest(ctx context.Context, patientID uuid.UUID) (*Record, error)
	// History returns all predictions, newest first.
	History(ctx context.Context, patientID uuid.UUID) ([]*Record, error)
}

type PatientLookup interface {
	Exists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

// Cache holds the latest prediction per patient. Get returns nil without
// error on a miss.
type Cache interface {
	Get(ctx context.Context, patientID uuid.UUID) (*Record, error)
	Set(ctx context.Context, r *Record) error
	Invalidate(ctx context.Context, patientID uuid.UUID) error
}
