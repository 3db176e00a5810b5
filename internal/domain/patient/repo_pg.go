package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ckd/ckd/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `id, first_name, last_name, date_of_birth, gender, ethnicity, email, phone,
	street, city, state, zip_code, country, conditions, allergies, family_history,
	created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	normalizeHistory(&p.MedicalHistory)
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (
			id, first_name, last_name, date_of_birth, gender, ethnicity, email, phone,
			street, city, state, zip_code, country, conditions, allergies, family_history
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Ethnicity, p.Email, p.Phone,
		p.Street, p.City, p.State, p.ZipCode, p.Country,
		p.MedicalHistory.Conditions, p.MedicalHistory.Allergies, p.MedicalHistory.FamilyHistory,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	normalizeHistory(&p.MedicalHistory)
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients SET
			first_name=$2, last_name=$3, date_of_birth=$4, gender=$5, ethnicity=$6, email=$7, phone=$8,
			street=$9, city=$10, state=$11, zip_code=$12, country=$13,
			conditions=$14, allergies=$15, family_history=$16, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Ethnicity, p.Email, p.Phone,
		p.Street, p.City, p.State, p.ZipCode, p.Country,
		p.MedicalHistory.Conditions, p.MedicalHistory.Allergies, p.MedicalHistory.FamilyHistory,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn.Query(ctx, `SELECT `+patientCols+` FROM patients
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	patients, err := collectPatients(rows)
	return patients, total, err
}

func (r *repoPG) Search(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	conn := db.Conn(ctx, r.pool)
	const where = ` WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1`
	pattern := "%" + q + "%"

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn.Query(ctx, `SELECT `+patientCols+` FROM patients`+where+`
		ORDER BY last_name, first_name LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	patients, err := collectPatients(rows)
	return patients, total, err
}

func normalizeHistory(h *MedicalHistory) {
	if h.Conditions == nil {
		h.Conditions = []string{}
	}
	if h.Allergies == nil {
		h.Allergies = []string{}
	}
	if h.FamilyHistory == nil {
		h.FamilyHistory = []string{}
	}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.Ethnicity, &p.Email, &p.Phone,
		&p.Street, &p.City, &p.State, &p.ZipCode, &p.Country,
		&p.MedicalHistory.Conditions, &p.MedicalHistory.Allergies, &p.MedicalHistory.FamilyHistory,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	defer rows.Close()
	patients := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
