package prediction

import (
	"context"
	"encoding/json"
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

const recordCols = `id, patient_id, prediction_result, confidence, predicted_stage, risk_level,
	input_data, recommendations, model_version, created_at`

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	input, err := json.Marshal(rec.InputData)
	if err != nil {
		return fmt.Errorf("marshal input data: %w", err)
	}
	if rec.Recommendations == nil {
		rec.Recommendations = []string{}
	}
	recs, err := json.Marshal(rec.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	err = db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO ml_predictions (
			id, patient_id, prediction_result, confidence, predicted_stage, risk_level,
			input_data, recommendations, model_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		rec.ID, rec.PatientID, rec.PredictionResult, rec.Confidence, rec.PredictedStage, rec.RiskLevel,
		input, recs, rec.ModelVersion,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

func (r *repoPG) Latest(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	rec, err := scanRecord(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+recordCols+` FROM ml_predictions
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *repoPG) History(ctx context.Context, patientID uuid.UUID) ([]*Record, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+recordCols+` FROM ml_predictions
		WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var input, recs []byte
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.PredictionResult, &rec.Confidence, &rec.PredictedStage,
		&rec.RiskLevel, &input, &recs, &rec.ModelVersion, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(input, &rec.InputData); err != nil {
		return nil, fmt.Errorf("decode input data: %w", err)
	}
	if err := json.Unmarshal(recs, &rec.Recommendations); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return &rec, nil
}
