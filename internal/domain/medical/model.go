package medical

import (
	"time"

	"github.com/google/uuid"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

type LabCategory string

const (
	CategoryKidney LabCategory = "kidney"
	CategoryBlood  LabCategory = "blood"
	CategoryUrine  LabCategory = "urine"
	CategoryOther  LabCategory = "other"
)

// KidneyMetrics maps to the kidney_metrics table. Proteinuria and blood
// pressure are optional on a reading.
type KidneyMetrics struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	Timestamp       time.Time `json:"timestamp"`
	EGFR            float64   `json:"egfr"`
	Creatinine      float64   `json:"creatinine"`
	Proteinuria     *float64  `json:"proteinuria,omitempty"`
	SystolicBP      *int      `json:"systolic_bp,omitempty"`
	DiastolicBP     *int      `json:"diastolic_bp,omitempty"`
	Stage           int       `json:"stage"`
	Trend           Trend     `json:"trend"`
	RateOfChange    float64   `json:"rate_of_change"`
	PredictedStage  *int      `json:"predicted_stage,omitempty"`
	TimeToNextStage *int      `json:"time_to_next_stage,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// LabResult maps to the lab_results table.
type LabResult struct {
	ID             uuid.UUID   `json:"id"`
	PatientID      uuid.UUID   `json:"patient_id"`
	TestName       string      `json:"test_name"`
	Value          float64     `json:"value"`
	Unit           string      `json:"unit"`
	ReferenceRange *string     `json:"reference_range,omitempty"`
	TestDate       time.Time   `json:"test_date"`
	IsAbnormal     bool        `json:"is_abnormal"`
	Category       LabCategory `json:"category"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Medication maps to the medications table.
type Medication struct {
	ID        uuid.UUID  `json:"id"`
	PatientID uuid.UUID  `json:"patient_id"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	Frequency string     `json:"frequency"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsActive  bool       `json:"is_active"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// VitalSigns maps to the vital_signs table.
type VitalSigns struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	Timestamp   time.Time `json:"timestamp"`
	SystolicBP  int       `json:"systolic_bp"`
	DiastolicBP int       `json:"diastolic_bp"`
	HeartRate   *int      `json:"heart_rate,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Weight      *float64  `json:"weight,omitempty"`
	Height      *float64  `json:"height,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StageForEGFR maps an eGFR value onto the five KDIGO GFR categories.
func StageForEGFR(egfr float64) int {
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
