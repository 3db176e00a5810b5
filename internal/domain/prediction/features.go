package prediction

import (
	"errors"
	"time"
)

// RecentLabWindow is how many of the most recent lab results are
// consulted when building features.
const RecentLabWindow = 10

// ErrMissingData is returned when the patient has no kidney-metric record.
var ErrMissingData = errors.New("no kidney metrics found for patient")

// Feature names the extractor can produce.
const (
	FeatureAge              = "Age"
	FeatureGFR              = "GFR"
	FeatureSerumCreatinine  = "SerumCreatinine"
	FeatureSystolicBP       = "SystolicBP"
	FeatureDiastolicBP      = "DiastolicBP"
	FeatureProteinInUrine   = "ProteinInUrine"
	FeatureBMI              = "BMI"
	FeatureHemoglobinLevels = "HemoglobinLevels"
	FeatureBUNLevels        = "BUNLevels"
)

const (
	defaultSystolicBP  = 120
	defaultDiastolicBP = 80
	defaultBMI         = 25.0
	defaultHemoglobin  = 12.0
	defaultBUN         = 20.0

	labHemoglobin = "Hemoglobin"
	labBUN        = "BUN"
)

// KnownFeatures lists every feature name the extractor maps to a value.
func KnownFeatures() []string {
	return []string{
		FeatureAge, FeatureGFR, FeatureSerumCreatinine, FeatureSystolicBP, FeatureDiastolicBP,
		FeatureProteinInUrine, FeatureBMI, FeatureHemoglobinLevels, FeatureBUNLevels,
	}
}

// KidneyReading is the latest kidney-metric record of a patient.
type KidneyReading struct {
	EGFR        float64
	Creatinine  float64
	Proteinuria *float64
	SystolicBP  *int
	DiastolicBP *int
	Stage       int
}

type VitalsReading struct {
	SystolicBP  int
	DiastolicBP int
}

type LabReading struct {
	TestName string
	Value    float64
	TestDate time.Time
}

// Snapshot is the read-only view of a patient assembled for one
// prediction. Labs are ordered most recent first.
type Snapshot struct {
	DateOfBirth time.Time
	Kidney      *KidneyReading
	Vitals      *VitalsReading
	Labs        []LabReading
}

// Age is the calendar-year difference between now and the date of birth.
// Birth month and day are not taken into account.
func (s *Snapshot) Age(now time.Time) int {
	return now.Year() - s.DateOfBirth.Year()
}

// BloodPressure resolves systolic and diastolic pressure from the vitals
// record, then the kidney record, then 120/80.
func (s *Snapshot) BloodPressure() (systolic, diastolic int) {
	if s.Vitals != nil {
		return s.Vitals.SystolicBP, s.Vitals.DiastolicBP
	}
	systolic, diastolic = defaultSystolicBP, defaultDiastolicBP
	if s.Kidney != nil {
		if s.Kidney.SystolicBP != nil && *s.Kidney.SystolicBP != 0 {
			systolic = *s.Kidney.SystolicBP
		}
		if s.Kidney.DiastolicBP != nil && *s.Kidney.DiastolicBP != 0 {
			diastolic = *s.Kidney.DiastolicBP
		}
	}
	return systolic, diastolic
}

// RecentLab returns the most recent value of the named test within the
// recent lab window.
func (s *Snapshot) RecentLab(name string) (float64, bool) {
	labs := s.Labs
	if len(labs) > RecentLabWindow {
		labs = labs[:RecentLabWindow]
	}
	for _, l := range labs {
		if l.TestName == name {
			return l.Value, true
		}
	}
	return 0, false
}

// FeatureVector holds values in the order of Names.
type FeatureVector struct {
	Names  []string
	Values []float64
}

func (v FeatureVector) Len() int { return len(v.Values) }

func featureMap(s *Snapshot, now time.Time) map[string]float64 {
	k := s.Kidney
	systolic, diastolic := s.BloodPressure()

	var protein float64
	if k.Proteinuria != nil {
		protein = *k.Proteinuria
	}

	m := map[string]float64{
		FeatureAge:              float64(s.Age(now)),
		FeatureGFR:              k.EGFR,
		FeatureSerumCreatinine:  k.Creatinine,
		FeatureSystolicBP:       float64(systolic),
		FeatureDiastolicBP:      float64(diastolic),
		FeatureProteinInUrine:   protein,
		FeatureBMI:              defaultBMI,
		FeatureHemoglobinLevels: defaultHemoglobin,
		FeatureBUNLevels:        defaultBUN,
	}
	if v, ok := s.RecentLab(labHemoglobin); ok {
		m[FeatureHemoglobinLevels] = v
	}
	if v, ok := s.RecentLab(labBUN); ok {
		m[FeatureBUNLevels] = v
	}
	return m
}

// ExtractFeatures projects the snapshot onto names. Names the extractor
// does not know are filled with 0.
func ExtractFeatures(s *Snapshot, names []string, now time.Time) (FeatureVector, error) {
	if s == nil || s.Kidney == nil {
		return FeatureVector{}, ErrMissingData
	}
	m := featureMap(s, now)
	v := FeatureVector{
		Names:  append([]string(nil), names...),
		Values: make([]float64, len(names)),
	}
	for i, name := range names {
		v.Values[i] = m[name]
	}
	return v, nil
}

// UnknownFeatures returns the names the extractor can never produce.
func UnknownFeatures(names []string) []string {
	known := make(map[string]bool)
	for _, n := range KnownFeatures() {
		known[n] = true
	}
	var unknown []string
	for _, n := range names {
		if !known[n] {
			unknown = append(unknown, n)
		}
	}
	return unknown
}
