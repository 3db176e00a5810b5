package medical

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mocks --

type mockPatients struct {
	ids map[uuid.UUID]bool
}

func (m *mockPatients) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.ids[id], nil
}

type mockKidneyRepo struct {
	items []*KidneyMetrics
}

func (m *mockKidneyRepo) Create(_ context.Context, k *KidneyMetrics) error {
	k.ID = uuid.New()
	k.CreatedAt = time.Now()
	m.items = append(m.items, k)
	return nil
}

func (m *mockKidneyRepo) byPatient(patientID uuid.UUID) []*KidneyMetrics {
	var out []*KidneyMetrics
	for _, k := range m.items {
		if k.PatientID == patientID {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (m *mockKidneyRepo) Latest(_ context.Context, patientID uuid.UUID) (*KidneyMetrics, error) {
	items := m.byPatient(patientID)
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

func (m *mockKidneyRepo) History(_ context.Context, patientID uuid.UUID, limit int) ([]*KidneyMetrics, error) {
	items := m.byPatient(patientID)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *mockKidneyRepo) PatientIDs(_ context.Context, limit int) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, k := range m.items {
		if !seen[k.PatientID] && len(out) < limit {
			seen[k.PatientID] = true
			out = append(out, k.PatientID)
		}
	}
	return out, nil
}

type mockLabRepo struct {
	items []*LabResult
}

func (m *mockLabRepo) Create(_ context.Context, l *LabResult) error {
	l.ID = uuid.New()
	m.items = append(m.items, l)
	return nil
}

func (m *mockLabRepo) Recent(_ context.Context, patientID uuid.UUID, limit int) ([]*LabResult, error) {
	var out []*LabResult
	for _, l := range m.items {
		if l.PatientID == patientID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestDate.After(out[j].TestDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockMedicationRepo struct {
	items map[uuid.UUID]*Medication
}

func (m *mockMedicationRepo) Create(_ context.Context, med *Medication) error {
	med.ID = uuid.New()
	m.items[med.ID] = med
	return nil
}

func (m *mockMedicationRepo) GetByID(_ context.Context, id uuid.UUID) (*Medication, error) {
	med, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return med, nil
}

func (m *mockMedicationRepo) Update(_ context.Context, med *Medication) error {
	if _, ok := m.items[med.ID]; !ok {
		return ErrNotFound
	}
	m.items[med.ID] = med
	return nil
}

func (m *mockMedicationRepo) ListByPatient(_ context.Context, patientID uuid.UUID, activeOnly bool) ([]*Medication, error) {
	var out []*Medication
	for _, med := range m.items {
		if med.PatientID == patientID && (!activeOnly || med.IsActive) {
			out = append(out, med)
		}
	}
	return out, nil
}

type mockVitalsRepo struct {
	items []*VitalSigns
}

func (m *mockVitalsRepo) Create(_ context.Context, v *VitalSigns) error {
	v.ID = uuid.New()
	m.items = append(m.items, v)
	return nil
}

func (m *mockVitalsRepo) Latest(ctx context.Context, patientID uuid.UUID) (*VitalSigns, error) {
	items, _ := m.Recent(ctx, patientID, 1)
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

func (m *mockVitalsRepo) Recent(_ context.Context, patientID uuid.UUID, limit int) ([]*VitalSigns, error) {
	var out []*VitalSigns
	for _, v := range m.items {
		if v.PatientID == patientID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, uuid.UUID) {
	patientID := uuid.New()
	svc := NewService(
		&mockPatients{ids: map[uuid.UUID]bool{patientID: true}},
		&mockKidneyRepo{},
		&mockLabRepo{},
		&mockMedicationRepo{items: make(map[uuid.UUID]*Medication)},
		&mockVitalsRepo{},
	)
	svc.now = func() time.Time { return testNow }
	return svc, patientID
}

func ptrFloat(f float64) *float64 { return &f }
func ptrInt(i int) *int           { return &i }

// -- Tests --

func TestStageForEGFR(t *testing.T) {
	tests := []struct {
		egfr float64
		want int
	}{
		{120, 1}, {90, 1}, {89.9, 2}, {60, 2}, {59, 3}, {30, 3}, {29.99, 4}, {15, 4}, {14.9, 5}, {3, 5},
	}
	for _, tt := range tests {
		if got := StageForEGFR(tt.egfr); got != tt.want {
			t.Errorf("StageForEGFR(%v) = %d, want %d", tt.egfr, got, tt.want)
		}
	}
}

func TestRecordKidneyMetrics_Defaults(t *testing.T) {
	svc, pid := newTestService()
	m := &KidneyMetrics{PatientID: pid, EGFR: 42, Creatinine: 1.8}
	if err := svc.RecordKidneyMetrics(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Stage != 3 {
		t.Errorf("expected derived stage 3, got %d", m.Stage)
	}
	if m.Trend != TrendStable {
		t.Errorf("expected stable trend, got %q", m.Trend)
	}
	if !m.Timestamp.Equal(testNow) {
		t.Errorf("expected timestamp defaulted to now, got %v", m.Timestamp)
	}
}

func TestRecordKidneyMetrics_Validation(t *testing.T) {
	tests := []struct {
		name string
		m    KidneyMetrics
	}{
		{"zero egfr", KidneyMetrics{Creatinine: 1}},
		{"zero creatinine", KidneyMetrics{EGFR: 50}},
		{"negative proteinuria", KidneyMetrics{EGFR: 50, Creatinine: 1, Proteinuria: ptrFloat(-1)}},
		{"stage out of range", KidneyMetrics{EGFR: 50, Creatinine: 1, Stage: 6}},
		{"bad predicted stage", KidneyMetrics{EGFR: 50, Creatinine: 1, PredictedStage: ptrInt(0)}},
		{"bad trend", KidneyMetrics{EGFR: 50, Creatinine: 1, Trend: "sideways"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, pid := newTestService()
			m := tt.m
			m.PatientID = pid
			if err := svc.RecordKidneyMetrics(context.Background(), &m); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestRecordKidneyMetrics_UnknownPatient(t *testing.T) {
	svc, _ := newTestService()
	m := &KidneyMetrics{PatientID: uuid.New(), EGFR: 50, Creatinine: 1}
	if err := svc.RecordKidneyMetrics(context.Background(), m); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestLatestKidneyMetrics(t *testing.T) {
	svc, pid := newTestService()
	ctx := context.Background()

	m, err := svc.LatestKidneyMetrics(ctx, pid)
	if err != nil || m != nil {
		t.Fatalf("expected nil reading without error, got %v, %v", m, err)
	}

	older := &KidneyMetrics{PatientID: pid, EGFR: 70, Creatinine: 1.1, Timestamp: testNow.Add(-48 * time.Hour)}
	newer := &KidneyMetrics{PatientID: pid, EGFR: 55, Creatinine: 1.4, Timestamp: testNow.Add(-time.Hour)}
	svc.RecordKidneyMetrics(ctx, older)
	svc.RecordKidneyMetrics(ctx, newer)

	m, err = svc.LatestKidneyMetrics(ctx, pid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != newer.ID {
		t.Error("expected the most recent reading")
	}

	history, _ := svc.KidneyMetricsHistory(ctx, pid, 0)
	if len(history) != 2 || history[0].ID != newer.ID {
		t.Errorf("expected history newest first, got %d items", len(history))
	}
}

func TestPatientsWithKidneyMetrics(t *testing.T) {
	svc, pid := newTestService()
	ctx := context.Background()

	if _, err := svc.PatientsWithKidneyMetrics(ctx, 0); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for zero limit, got %v", err)
	}

	ids, err := svc.PatientsWithKidneyMetrics(ctx, 5)
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected no patients, got %v, %v", ids, err)
	}

	for i := 0; i < 2; i++ {
		svc.RecordKidneyMetrics(ctx, &KidneyMetrics{PatientID: pid, EGFR: 50, Creatinine: 1.5})
	}
	ids, _ = svc.PatientsWithKidneyMetrics(ctx, 5)
	if len(ids) != 1 || ids[0] != pid {
		t.Errorf("expected the patient once, got %v", ids)
	}
}

func TestRecordLabResult(t *testing.T) {
	svc, pid := newTestService()
	ctx := context.Background()

	l := &LabResult{PatientID: pid, TestName: " BUN ", Value: 31, Unit: "mg/dL"}
	if err := svc.RecordLabResult(ctx, l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.TestName != "BUN" {
		t.Errorf("expected trimmed test name, got %q", l.TestName)
	}
	if l.Category != CategoryOther {
		t.Errorf("expected default category other, got %q", l.Category)
	}

	bad := &LabResult{PatientID: pid, TestName: "BUN", Value: 1, Unit: "mg/dL", Category: "liver"}
	if err := svc.RecordLabResult(ctx, bad); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestMedications(t *testing.T) {
	svc, pid := newTestService()
	ctx := context.Background()

	active := &Medication{PatientID: pid, Name: "Lisinopril", Dosage: "10mg", Frequency: "daily", StartDate: testNow, IsActive: true}
	stopped := &Medication{PatientID: pid, Name: "Ibuprofen", Dosage: "200mg", Frequency: "prn", StartDate: testNow}
	if err := svc.PrescribeMedication(ctx, active); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.PrescribeMedication(ctx, stopped); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meds, _ := svc.ListMedications(ctx, pid, true)
	if len(meds) != 1 || meds[0].Name != "Lisinopril" {
		t.Errorf("expected only active medication, got %d", len(meds))
	}
	all, _ := svc.ListMedications(ctx, pid, false)
	if len(all) != 2 {
		t.Errorf("expected 2 medications, got %d", len(all))
	}

	end := testNow.Add(-time.Hour)
	bad := &Medication{PatientID: pid, Name: "X", Dosage: "1", Frequency: "1", StartDate: testNow, EndDate: &end}
	if err := svc.PrescribeMedication(ctx, bad); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestUpdateMedication_KeepsPatient(t *testing.T) {
	svc, pid := newTestService()
	ctx := context.Background()

	med := &Medication{PatientID: pid, Name: "Lisinopril", Dosage: "10mg", Frequency: "daily", StartDate: testNow, IsActive: true}
	svc.PrescribeMedication(ctx, med)

	update := &Medication{ID: med.ID, PatientID: uuid.New(), Name: "Lisinopril", Dosage: "20mg", Frequency: "daily", StartDate: testNow}
	if err := svc.UpdateMedication(ctx, update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.PatientID != pid {
		t.Error("expected patient id to be preserved")
	}
	if update.IsActive {
		t.Error("expected medication to be deactivated")
	}

	missing := &Medication{ID: uuid.New(), Name: "X", Dosage: "1", Frequency: "1", StartDate: testNow}
	if err := svc.UpdateMedication(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordVitalSigns(t *testing.T) {
	svc, pid := newTestService()
	ctx := context.Background()

	if err := svc.RecordVitalSigns(ctx, &VitalSigns{PatientID: pid, SystolicBP: 80, DiastolicBP: 120}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for inverted pressure, got %v", err)
	}
	v := &VitalSigns{PatientID: pid, SystolicBP: 135, DiastolicBP: 85}
	if err := svc.RecordVitalSigns(ctx, v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	latest, err := svc.LatestVitalSigns(ctx, pid)
	if err != nil || latest == nil || latest.ID != v.ID {
		t.Errorf("expected latest vitals, got %v, %v", latest, err)
	}
	none, err := svc.LatestVitalSigns(ctx, uuid.New())
	if err != nil || none != nil {
		t.Errorf("expected nil vitals, got %v, %v", none, err)
	}
}
