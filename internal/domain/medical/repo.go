package medical

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrPatientNotFound = errors.New("patient not found")
)

type KidneyMetricsRepository interface {
	Create(ctx context.Context, m *KidneyMetrics) error
	// Latest returns ErrNotFound when the patient has no readings.
	Latest(ctx context.Context, patientID uuid.UUID) (*KidneyMetrics, error)
	History(ctx context.Context, patientID uuid.UUID, limit int) ([]*KidneyMetrics, error)
	// PatientIDs returns up to limit distinct patients that have readings,
	// ordered by patient id.
	PatientIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type LabResultRepository interface {
	Create(ctx context.Context, l *LabResult) error
	// Recent returns up to limit results, most recent test date first.
	Recent(ctx context.Context, patientID uuid.UUID, limit int) ([]*LabResult, error)
}

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*Medication, error)
}

type VitalSignsRepository interface {
	Create(ctx context.Context, v *VitalSigns) error
	// Latest returns ErrNotFound when the patient has no readings.
	Latest(ctx context.Context, patientID uuid.UUID) (*VitalSigns, error)
	Recent(ctx context.Context, patientID uuid.UUID, limit int) ([]*VitalSigns, error)
}

type PatientLookup interface {
	Exists(ctx context.Context, patientID uuid.UUID) (bool, error)
}
