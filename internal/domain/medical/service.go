package medical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid marks input validation failures.
var ErrInvalid = errors.New("invalid medical data")

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

type Service struct {
	patients    PatientLookup
	kidney      KidneyMetricsRepository
	labs        LabResultRepository
	medications MedicationRepository
	vitals      VitalSignsRepository
	now         func() time.Time
}

func NewService(patients PatientLookup, kidney KidneyMetricsRepository, labs LabResultRepository,
	medications MedicationRepository, vitals VitalSignsRepository) *Service {
	return &Service{
		patients:    patients,
		kidney:      kidney,
		labs:        labs,
		medications: medications,
		vitals:      vitals,
		now:         time.Now,
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (s *Service) requirePatient(ctx context.Context, patientID uuid.UUID) error {
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPatientNotFound
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// -- Kidney metrics --

// RecordKidneyMetrics validates and stores a reading. A missing stage is
// derived from eGFR, a missing trend defaults to stable.
func (s *Service) RecordKidneyMetrics(ctx context.Context, m *KidneyMetrics) error {
	if m.EGFR <= 0 {
		return invalid("egfr must be positive")
	}
	if m.Creatinine <= 0 {
		return invalid("creatinine must be positive")
	}
	if m.Proteinuria != nil && *m.Proteinuria < 0 {
		return invalid("proteinuria must not be negative")
	}
	if m.Stage == 0 {
		m.Stage = StageForEGFR(m.EGFR)
	}
	if m.Stage < 1 || m.Stage > 5 {
		return invalid("stage must be between 1 and 5")
	}
	if m.PredictedStage != nil && (*m.PredictedStage < 1 || *m.PredictedStage > 5) {
		return invalid("predicted_stage must be between 1 and 5")
	}
	switch m.Trend {
	case "":
		m.Trend = TrendStable
	case TrendImproving, TrendStable, TrendDeclining:
	default:
		return invalid("trend must be improving, stable or declining")
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}
	if err := s.requirePatient(ctx, m.PatientID); err != nil {
		return err
	}
	return s.kidney.Create(ctx, m)
}

// LatestKidneyMetrics returns nil without error when the patient has no readings.
func (s *Service) LatestKidneyMetrics(ctx context.Context, patientID uuid.UUID) (*KidneyMetrics, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	m, err := s.kidney.Latest(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return m, err
}

func (s *Service) KidneyMetricsHistory(ctx context.Context, patientID uuid.UUID, limit int) ([]*KidneyMetrics, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.kidney.History(ctx, patientID, clampLimit(limit))
}

// PatientsWithKidneyMetrics lists up to limit patients that have at least
// one kidney reading.
func (s *Service) PatientsWithKidneyMetrics(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		return nil, invalid("limit must be positive")
	}
	return s.kidney.PatientIDs(ctx, limit)
}

// -- Lab results --

func (s *Service) RecordLabResult(ctx context.Context, l *LabResult) error {
	l.TestName = strings.TrimSpace(l.TestName)
	if l.TestName == "" {
		return invalid("test_name is required")
	}
	if l.Unit == "" {
		return invalid("unit is required")
	}
	switch l.Category {
	case "":
		l.Category = CategoryOther
	case CategoryKidney, CategoryBlood, CategoryUrine, CategoryOther:
	default:
		return invalid("category must be kidney, blood, urine or other")
	}
	if l.TestDate.IsZero() {
		l.TestDate = s.now()
	}
	if err := s.requirePatient(ctx, l.PatientID); err != nil {
		return err
	}
	return s.labs.Create(ctx, l)
}

func (s *Service) ListLabResults(ctx context.Context, patientID uuid.UUID, limit int) ([]*LabResult, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.labs.Recent(ctx, patientID, clampLimit(limit))
}

// -- Medications --

func validateMedication(m *Medication) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" || m.Dosage == "" || m.Frequency == "" {
		return invalid("name, dosage and frequency are required")
	}
	if m.StartDate.IsZero() {
		return invalid("start_date is required")
	}
	if m.EndDate != nil && m.EndDate.Before(m.StartDate) {
		return invalid("end_date is before start_date")
	}
	return nil
}

func (s *Service) PrescribeMedication(ctx context.Context, m *Medication) error {
	if err := validateMedication(m); err != nil {
		return err
	}
	if err := s.requirePatient(ctx, m.PatientID); err != nil {
		return err
	}
	return s.medications.Create(ctx, m)
}

// UpdateMedication replaces the mutable fields of an existing medication.
// The owning patient cannot change.
func (s *Service) UpdateMedication(ctx context.Context, m *Medication) error {
	existing, err := s.medications.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if err := validateMedication(m); err != nil {
		return err
	}
	m.PatientID = existing.PatientID
	m.CreatedAt = existing.CreatedAt
	return s.medications.Update(ctx, m)
}

func (s *Service) ListMedications(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*Medication, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.medications.ListByPatient(ctx, patientID, activeOnly)
}

// -- Vital signs --

func (s *Service) RecordVitalSigns(ctx context.Context, v *VitalSigns) error {
	if v.SystolicBP <= 0 || v.DiastolicBP <= 0 {
		return invalid("systolic_bp and diastolic_bp are required")
	}
	if v.DiastolicBP >= v.SystolicBP {
		return invalid("diastolic_bp must be lower than systolic_bp")
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = s.now()
	}
	if err := s.requirePatient(ctx, v.PatientID); err != nil {
		return err
	}
	return s.vitals.Create(ctx, v)
}

func (s *Service) ListVitalSigns(ctx context.Context, patientID uuid.UUID, limit int) ([]*VitalSigns, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.vitals.Recent(ctx, patientID, clampLimit(limit))
}

// -- Prediction inputs --

// LatestVitalSigns returns nil without error when the patient has no readings.
func (s *Service) LatestVitalSigns(ctx context.Context, patientID uuid.UUID) (*VitalSigns, error) {
	v, err := s.vitals.Latest(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// RecentLabResults returns up to limit lab results, most recent first,
// without checking the patient exists.
func (s *Service) RecentLabResults(ctx context.Context, patientID uuid.UUID, limit int) ([]*LabResult, error) {
	return s.labs.Recent(ctx, patientID, limit)
}
