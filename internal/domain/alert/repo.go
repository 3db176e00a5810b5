package alert

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("alert not found")
	ErrPatientNotFound = errors.New("patient not found")
)

type Repository interface {
	Create(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	// ListByPatient returns alerts newest first along with the unpaged total.
	ListByPatient(ctx context.Context, patientID uuid.UUID, f Filter) ([]*Alert, int, error)
	Acknowledge(ctx context.Context, id uuid.UUID, by string, at time.Time) (*Alert, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PatientLookup interface {
	Exists(ctx context.Context, patientID uuid.UUID) (bool, error)
}
