package prediction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func baseSnapshot() *Snapshot {
	return &Snapshot{
		DateOfBirth: time.Date(1960, 12, 31, 0, 0, 0, 0, time.UTC),
		Kidney: &KidneyReading{
			EGFR:       45,
			Creatinine: 1.6,
			Stage:      3,
		},
	}
}

func TestExtractFeatures_MissingKidney(t *testing.T) {
	_, err := ExtractFeatures(&Snapshot{}, KnownFeatures(), testNow)
	assert.ErrorIs(t, err, ErrMissingData)

	_, err = ExtractFeatures(nil, KnownFeatures(), testNow)
	assert.ErrorIs(t, err, ErrMissingData)
}

func TestExtractFeatures_Defaults(t *testing.T) {
	v, err := ExtractFeatures(baseSnapshot(), KnownFeatures(), testNow)
	require.NoError(t, err)

	// Calendar-year age: 63 on the test date, reported as 2024-1960.
	assert.Equal(t, []float64{64, 45, 1.6, 120, 80, 0, 25, 12, 20}, v.Values)
	assert.Equal(t, KnownFeatures(), v.Names)
}

func TestExtractFeatures_OrderAndLength(t *testing.T) {
	names := []string{"ProteinInUrine", "Unknown", "GFR", "Age", "HypertensionFlag"}
	s := baseSnapshot()
	s.Kidney.Proteinuria = floatPtr(0.7)

	v, err := ExtractFeatures(s, names, testNow)
	require.NoError(t, err)
	require.Equal(t, len(names), v.Len())
	assert.Equal(t, names, v.Names)
	assert.Equal(t, []float64{0.7, 0, 45, 64, 0}, v.Values)

	empty, err := ExtractFeatures(s, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestSnapshot_BloodPressure(t *testing.T) {
	s := baseSnapshot()
	sys, dia := s.BloodPressure()
	assert.Equal(t, 120, sys)
	assert.Equal(t, 80, dia)

	s.Kidney.SystolicBP = intPtr(150)
	s.Kidney.DiastolicBP = intPtr(95)
	sys, dia = s.BloodPressure()
	assert.Equal(t, 150, sys)
	assert.Equal(t, 95, dia)

	s.Vitals = &VitalsReading{SystolicBP: 132, DiastolicBP: 84}
	sys, dia = s.BloodPressure()
	assert.Equal(t, 132, sys)
	assert.Equal(t, 84, dia)
}

func TestExtractFeatures_LabOverrides(t *testing.T) {
	s := baseSnapshot()
	s.Labs = []LabReading{
		{TestName: "Hemoglobin", Value: 10.4, TestDate: testNow.Add(-time.Hour)},
		{TestName: "Serum Creatinine", Value: 1.6, TestDate: testNow.Add(-2 * time.Hour)},
		{TestName: "Hemoglobin", Value: 11.9, TestDate: testNow.Add(-48 * time.Hour)},
		{TestName: "bun", Value: 40, TestDate: testNow.Add(-72 * time.Hour)},
	}

	v, err := ExtractFeatures(s, []string{FeatureHemoglobinLevels, FeatureBUNLevels}, testNow)
	require.NoError(t, err)
	// Most recent hemoglobin wins, test names match exactly.
	assert.Equal(t, []float64{10.4, 20}, v.Values)
}

func TestExtractFeatures_LabWindow(t *testing.T) {
	s := baseSnapshot()
	for i := 0; i < RecentLabWindow; i++ {
		s.Labs = append(s.Labs, LabReading{TestName: "Total Cholesterol", Value: 180})
	}
	s.Labs = append(s.Labs, LabReading{TestName: "BUN", Value: 55})

	v, err := ExtractFeatures(s, []string{FeatureBUNLevels}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []float64{20}, v.Values)
}

func TestUnknownFeatures(t *testing.T) {
	assert.Empty(t, UnknownFeatures(KnownFeatures()))
	assert.Equal(t, []string{"Gender", "Smoking"}, UnknownFeatures([]string{"GFR", "Gender", "Age", "Smoking"}))
}
