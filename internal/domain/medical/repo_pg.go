package medical

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ckd/ckd/internal/platform/db"
)

const fkViolation = "23503"

// mapInsertErr turns a patient_id foreign-key violation into ErrPatientNotFound.
func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
		return ErrPatientNotFound
	}
	return err
}

// -- Patient lookup --

type patientLookupPG struct {
	pool *pgxpool.Pool
}

func NewPatientLookup(pool *pgxpool.Pool) PatientLookup {
	return &patientLookupPG{pool: pool}
}

func (r *patientLookupPG) Exists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, patientID).Scan(&ok)
	return ok, err
}

// -- Kidney metrics --

type kidneyMetricsRepoPG struct {
	pool *pgxpool.Pool
}

func NewKidneyMetricsRepo(pool *pgxpool.Pool) KidneyMetricsRepository {
	return &kidneyMetricsRepoPG{pool: pool}
}

const kidneyCols = `id, patient_id, timestamp, egfr, creatinine, proteinuria, systolic_bp, diastolic_bp,
	stage, trend, rate_of_change, predicted_stage, time_to_next_stage, created_at`

func (r *kidneyMetricsRepoPG) Create(ctx context.Context, m *KidneyMetrics) error {
	m.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO kidney_metrics (
			id, patient_id, timestamp, egfr, creatinine, proteinuria, systolic_bp, diastolic_bp,
			stage, trend, rate_of_change, predicted_stage, time_to_next_stage
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at`,
		m.ID, m.PatientID, m.Timestamp, m.EGFR, m.Creatinine, m.Proteinuria, m.SystolicBP, m.DiastolicBP,
		m.Stage, m.Trend, m.RateOfChange, m.PredictedStage, m.TimeToNextStage,
	).Scan(&m.CreatedAt)
	return mapInsertErr(err)
}

func (r *kidneyMetricsRepoPG) Latest(ctx context.Context, patientID uuid.UUID) (*KidneyMetrics, error) {
	m, err := scanKidneyMetrics(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+kidneyCols+` FROM kidney_metrics
		WHERE patient_id = $1 ORDER BY timestamp DESC LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *kidneyMetricsRepoPG) History(ctx context.Context, patientID uuid.UUID, limit int) ([]*KidneyMetrics, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+kidneyCols+` FROM kidney_metrics
		WHERE patient_id = $1 ORDER BY timestamp DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*KidneyMetrics{}
	for rows.Next() {
		m, err := scanKidneyMetrics(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *kidneyMetricsRepoPG) PatientIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT DISTINCT patient_id FROM kidney_metrics
		ORDER BY patient_id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanKidneyMetrics(row pgx.Row) (*KidneyMetrics, error) {
	var m KidneyMetrics
	err := row.Scan(&m.ID, &m.PatientID, &m.Timestamp, &m.EGFR, &m.Creatinine, &m.Proteinuria,
		&m.SystolicBP, &m.DiastolicBP, &m.Stage, &m.Trend, &m.RateOfChange,
		&m.PredictedStage, &m.TimeToNextStage, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// -- Lab results --

type labResultRepoPG struct {
	pool *pgxpool.Pool
}

func NewLabResultRepo(pool *pgxpool.Pool) LabResultRepository {
	return &labResultRepoPG{pool: pool}
}

const labCols = `id, patient_id, test_name, value, unit, reference_range, test_date, is_abnormal, category, created_at`

func (r *labResultRepoPG) Create(ctx context.Context, l *LabResult) error {
	l.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO lab_results (id, patient_id, test_name, value, unit, reference_range, test_date, is_abnormal, category)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		l.ID, l.PatientID, l.TestName, l.Value, l.Unit, l.ReferenceRange, l.TestDate, l.IsAbnormal, l.Category,
	).Scan(&l.CreatedAt)
	return mapInsertErr(err)
}

func (r *labResultRepoPG) Recent(ctx context.Context, patientID uuid.UUID, limit int) ([]*LabResult, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+labCols+` FROM lab_results
		WHERE patient_id = $1 ORDER BY test_date DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*LabResult{}
	for rows.Next() {
		var l LabResult
		if err := rows.Scan(&l.ID, &l.PatientID, &l.TestName, &l.Value, &l.Unit, &l.ReferenceRange,
			&l.TestDate, &l.IsAbnormal, &l.Category, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// -- Medications --

type medicationRepoPG struct {
	pool *pgxpool.Pool
}

func NewMedicationRepo(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

const medicationCols = `id, patient_id, name, dosage, frequency, start_date, end_date, is_active, notes, created_at, updated_at`

func (r *medicationRepoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medications (id, patient_id, name, dosage, frequency, start_date, end_date, is_active, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		m.ID, m.PatientID, m.Name, m.Dosage, m.Frequency, m.StartDate, m.EndDate, m.IsActive, m.Notes,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	return mapInsertErr(err)
}

func (r *medicationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	m, err := scanMedication(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+medicationCols+` FROM medications WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *medicationRepoPG) Update(ctx context.Context, m *Medication) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE medications SET name=$2, dosage=$3, frequency=$4, start_date=$5, end_date=$6,
			is_active=$7, notes=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		m.ID, m.Name, m.Dosage, m.Frequency, m.StartDate, m.EndDate, m.IsActive, m.Notes,
	).Scan(&m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *medicationRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*Medication, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+medicationCols+` FROM medications
		WHERE patient_id = $1 AND ($2 = FALSE OR is_active) ORDER BY start_date DESC`, patientID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*Medication{}
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Frequency, &m.StartDate, &m.EndDate,
		&m.IsActive, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// -- Vital signs --

type vitalSignsRepoPG struct {
	pool *pgxpool.Pool
}

func NewVitalSignsRepo(pool *pgxpool.Pool) VitalSignsRepository {
	return &vitalSignsRepoPG{pool: pool}
}

const vitalCols = `id, patient_id, timestamp, systolic_bp, diastolic_bp, heart_rate, temperature, weight, height, created_at`

func (r *vitalSignsRepoPG) Create(ctx context.Context, v *VitalSigns) error {
	v.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO vital_signs (id, patient_id, timestamp, systolic_bp, diastolic_bp, heart_rate, temperature, weight, height)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		v.ID, v.PatientID, v.Timestamp, v.SystolicBP, v.DiastolicBP, v.HeartRate, v.Temperature, v.Weight, v.Height,
	).Scan(&v.CreatedAt)
	return mapInsertErr(err)
}

func (r *vitalSignsRepoPG) Latest(ctx context.Context, patientID uuid.UUID) (*VitalSigns, error) {
	v, err := scanVitals(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+vitalCols+` FROM vital_signs
		WHERE patient_id = $1 ORDER BY timestamp DESC LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *vitalSignsRepoPG) Recent(ctx context.Context, patientID uuid.UUID, limit int) ([]*VitalSigns, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+vitalCols+` FROM vital_signs
		WHERE patient_id = $1 ORDER BY timestamp DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*VitalSigns{}
	for rows.Next() {
		v, err := scanVitals(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVitals(row pgx.Row) (*VitalSigns, error) {
	var v VitalSigns
	err := row.Scan(&v.ID, &v.PatientID, &v.Timestamp, &v.SystolicBP, &v.DiastolicBP, &v.HeartRate,
		&v.Temperature, &v.Weight, &v.Height, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
