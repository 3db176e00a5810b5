// Package sandbox loads sample patients for demo and development
// environments. Patients are created from rows of the CKD dataset together
// with their kidney metrics, lab results, vital signs and alerts.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ckd/ckd/internal/domain/alert"
	"github.com/ckd/ckd/internal/domain/medical"
	"github.com/ckd/ckd/internal/domain/patient"
	"github.com/ckd/ckd/internal/featureselect"
)

// DefaultCount is the number of dataset rows loaded when none is given.
const DefaultCount = 10

// criticalGFR is the eGFR below which a sample patient gets a critical alert.
const criticalGFR = 30

// RequiredColumns must be present in the dataset.
var RequiredColumns = []string{"Age", "GFR", "SerumCreatinine", "SystolicBP", "DiastolicBP"}

// SeedConfig controls how many rows are loaded and the random source used
// for values the dataset does not carry (heart rate, weight).
type SeedConfig struct {
	Count int
	Seed  int64
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{Count: DefaultCount}
}

// SeedResult summarizes a load.
type SeedResult struct {
	Patients      []uuid.UUID   `json:"patients"`
	KidneyMetrics int           `json:"kidney_metrics"`
	LabResults    int           `json:"lab_results"`
	VitalSigns    int           `json:"vital_signs"`
	Alerts        int           `json:"alerts"`
	Duration      time.Duration `json:"duration"`
}

type PatientStore interface {
	CreatePatient(ctx context.Context, p *patient.Patient) error
}

type ClinicalStore interface {
	RecordKidneyMetrics(ctx context.Context, m *medical.KidneyMetrics) error
	RecordLabResult(ctx context.Context, l *medical.LabResult) error
	RecordVitalSigns(ctx context.Context, v *medical.VitalSigns) error
}

type AlertStore interface {
	Create(ctx context.Context, a *alert.Alert) error
}

// Seeder writes sample data through the domain services so every record
// passes the same validation as API input.
type Seeder struct {
	patients PatientStore
	clinical ClinicalStore
	alerts   AlertStore
	config   SeedConfig
	rng      *rand.Rand
	now      func() time.Time
	log      zerolog.Logger
}

// NewSeeder creates a Seeder. If config.Seed is 0 a time-based seed is chosen.
func NewSeeder(patients PatientStore, clinical ClinicalStore, alerts AlertStore, config SeedConfig, log zerolog.Logger) *Seeder {
	if config.Count <= 0 {
		config.Count = DefaultCount
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		patients: patients,
		clinical: clinical,
		alerts:   alerts,
		config:   config,
		rng:      rand.New(rand.NewSource(seed)),
		now:      time.Now,
		log:      log.With().Str("component", "seeder").Logger(),
	}
}

// Seed loads the first config.Count rows of ds.
func (s *Seeder) Seed(ctx context.Context, ds *featureselect.Dataset) (*SeedResult, error) {
	for _, col := range RequiredColumns {
		if _, ok := ds.Column(col); !ok {
			return nil, fmt.Errorf("dataset is missing column %q", col)
		}
	}

	start := time.Now()
	result := &SeedResult{}
	n := s.config.Count
	if n > ds.Rows() {
		n = ds.Rows()
	}
	for i := 0; i < n; i++ {
		id, err := s.seedRow(ctx, i, ds.Row(i), result)
		if err != nil {
			return result, fmt.Errorf("row %d: %w", i+1, err)
		}
		result.Patients = append(result.Patients, id)
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (s *Seeder) seedRow(ctx context.Context, i int, row map[string]float64, result *SeedResult) (uuid.UUID, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	p := SamplePatient(i, row, today)
	if err := s.patients.CreatePatient(ctx, p); err != nil {
		return uuid.Nil, fmt.Errorf("create patient: %w", err)
	}

	km := SampleKidneyMetrics(p.ID, row, now)
	if err := s.clinical.RecordKidneyMetrics(ctx, km); err != nil {
		return p.ID, fmt.Errorf("record kidney metrics: %w", err)
	}
	result.KidneyMetrics++

	for _, l := range SampleLabResults(p.ID, row, now) {
		if err := s.clinical.RecordLabResult(ctx, l); err != nil {
			return p.ID, fmt.Errorf("record lab result %s: %w", l.TestName, err)
		}
		result.LabResults++
	}

	heartRate := 60 + s.rng.Intn(41)
	weight := 50 + s.rng.Float64()*50
	vs := &medical.VitalSigns{
		PatientID:   p.ID,
		Timestamp:   now,
		SystolicBP:  int(row["SystolicBP"]),
		DiastolicBP: int(row["DiastolicBP"]),
		HeartRate:   &heartRate,
		Weight:      &weight,
	}
	if err := s.clinical.RecordVitalSigns(ctx, vs); err != nil {
		return p.ID, fmt.Errorf("record vital signs: %w", err)
	}
	result.VitalSigns++

	if a := SampleAlert(p.ID, row); a != nil {
		if err := s.alerts.Create(ctx, a); err != nil {
			return p.ID, fmt.Errorf("create alert: %w", err)
		}
		result.Alerts++
	}

	s.log.Info().Str("patient_id", p.ID.String()).
		Str("name", p.FirstName+" "+p.LastName).Msg("created sample patient")
	return p.ID, nil
}

// SamplePatient builds the patient for dataset row i (zero based). Age is
// converted to a date of birth at 365 days per year.
func SamplePatient(i int, row map[string]float64, today time.Time) *patient.Patient {
	email := fmt.Sprintf("patient%d@example.com", i+1)
	gender := "female"
	if row["Gender"] == 1 {
		gender = "male"
	}
	var h patient.MedicalHistory
	if row[featureselect.TargetColumn] == 1 {
		h.Conditions = []string{"Chronic Kidney Disease"}
	}
	if row["FamilyHistoryHypertension"] == 1 {
		h.FamilyHistory = []string{"Hypertension"}
	}
	return &patient.Patient{
		FirstName:      fmt.Sprintf("Patient%d", i+1),
		LastName:       "Sample",
		DateOfBirth:    today.AddDate(0, 0, -int(row["Age"])*365),
		Gender:         gender,
		Email:          &email,
		MedicalHistory: h,
	}
}

// SampleKidneyMetrics stages by GFR/20 clamped to 1..5, not by KDIGO
// category.
func SampleKidneyMetrics(patientID uuid.UUID, row map[string]float64, now time.Time) *medical.KidneyMetrics {
	gfr := row["GFR"]
	stage := int(gfr / 20)
	if stage < 1 {
		stage = 1
	}
	if stage > 5 {
		stage = 5
	}
	trend := medical.TrendStable
	if gfr < 60 {
		trend = medical.TrendDeclining
	}
	proteinuria := row["ProteinInUrine"]
	systolic := int(row["SystolicBP"])
	diastolic := int(row["DiastolicBP"])
	return &medical.KidneyMetrics{
		PatientID:   patientID,
		Timestamp:   now,
		EGFR:        gfr,
		Creatinine:  row["SerumCreatinine"],
		Proteinuria: &proteinuria,
		SystolicBP:  &systolic,
		DiastolicBP: &diastolic,
		Stage:       stage,
		Trend:       trend,
	}
}

var sampleLabs = []struct {
	name     string
	column   string
	unit     string
	category medical.LabCategory
}{
	{"Serum Creatinine", "SerumCreatinine", "mg/dL", medical.CategoryKidney},
	{"BUN", "BUNLevels", "mg/dL", medical.CategoryKidney},
	{"Hemoglobin", "HemoglobinLevels", "g/dL", medical.CategoryBlood},
	{"Total Cholesterol", "CholesterolTotal", "mg/dL", medical.CategoryBlood},
}

func SampleLabResults(patientID uuid.UUID, row map[string]float64, now time.Time) []*medical.LabResult {
	out := make([]*medical.LabResult, 0, len(sampleLabs))
	for _, l := range sampleLabs {
		out = append(out, &medical.LabResult{
			PatientID: patientID,
			TestName:  l.name,
			Value:     row[l.column],
			Unit:      l.unit,
			TestDate:  now,
			Category:  l.category,
		})
	}
	return out
}

// SampleAlert returns a critical lab alert when GFR is below 30, else nil.
func SampleAlert(patientID uuid.UUID, row map[string]float64) *alert.Alert {
	gfr := row["GFR"]
	if gfr >= criticalGFR {
		return nil
	}
	return &alert.Alert{
		PatientID: patientID,
		Type:      alert.TypeCritical,
		Title:     "Critical eGFR Level",
		Message:   fmt.Sprintf("Patient eGFR is %.1f, indicating severe kidney dysfunction", gfr),
		Priority:  alert.PriorityCritical,
		Category:  alert.CategoryLab,
	}
}
