package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ckd/ckd/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const alertCols = `id, patient_id, type, title, message, priority, category,
	acknowledged, acknowledged_by, acknowledged_at, created_at`

func (r *repoPG) Create(ctx context.Context, a *Alert) error {
	a.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO alerts (id, patient_id, type, title, message, priority, category)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING acknowledged, created_at`,
		a.ID, a.PatientID, a.Type, a.Title, a.Message, a.Priority, a.Category,
	).Scan(&a.Acknowledged, &a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrPatientNotFound
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	a, err := scanAlert(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+alertCols+` FROM alerts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, f Filter) ([]*Alert, int, error) {
	where := []string{"patient_id = $1"}
	args := []interface{}{patientID}
	idx := 2
	if f.Acknowledged != nil {
		where = append(where, fmt.Sprintf("acknowledged = $%d", idx))
		args = append(args, *f.Acknowledged)
		idx++
	}
	if f.Priority != "" {
		where = append(where, fmt.Sprintf("priority = $%d", idx))
		args = append(args, f.Priority)
		idx++
	}
	if f.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", idx))
		args = append(args, f.Type)
		idx++
	}
	clause := strings.Join(where, " AND ")

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		alertCols, clause, idx, idx+1)
	args = append(args, f.Limit, f.Offset)
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []*Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repoPG) Acknowledge(ctx context.Context, id uuid.UUID, by string, at time.Time) (*Alert, error) {
	a, err := scanAlert(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE alerts SET acknowledged = TRUE, acknowledged_by = $2, acknowledged_at = $3
		WHERE id = $1
		RETURNING `+alertCols, id, by, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.PatientID, &a.Type, &a.Title, &a.Message, &a.Priority, &a.Category,
		&a.Acknowledged, &a.AcknowledgedBy, &a.AcknowledgedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
