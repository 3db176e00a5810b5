package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalid = errors.New("invalid alert")

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type Service struct {
	repo     Repository
	patients PatientLookup
	now      func() time.Time
}

func NewService(repo Repository, patients PatientLookup) *Service {
	return &Service{repo: repo, patients: patients, now: time.Now}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func validate(a *Alert) error {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return invalid("title is required")
	}
	if strings.TrimSpace(a.Message) == "" {
		return invalid("message is required")
	}
	switch a.Type {
	case TypeCritical, TypeWarning, TypeInfo:
	default:
		return invalid("type must be critical, warning or info")
	}
	switch a.Priority {
	case "":
		a.Priority = PriorityMedium
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
	default:
		return invalid("priority must be low, medium, high or critical")
	}
	switch a.Category {
	case "":
		a.Category = CategorySystem
	case CategoryLab, CategoryVital, CategoryMedication, CategoryAppointment, CategorySystem:
	default:
		return invalid("unknown category %q", a.Category)
	}
	return nil
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

func (s *Service) Create(ctx context.Context, a *Alert) error {
	if err := validate(a); err != nil {
		return err
	}
	if err := s.requirePatient(ctx, a.PatientID); err != nil {
		return err
	}
	return s.repo.Create(ctx, a)
}

// Raise creates an alert on behalf of the system, e.g. from a risk analysis.
func (s *Service) Raise(ctx context.Context, patientID uuid.UUID, typ Type, priority Priority, category Category, title, message string) (*Alert, error) {
	a := &Alert{
		PatientID: patientID,
		Type:      typ,
		Priority:  priority,
		Category:  category,
		Title:     title,
		Message:   message,
	}
	if err := s.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, f Filter) ([]*Alert, int, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByPatient(ctx, patientID, f)
}

// Acknowledge marks an alert as seen by userID. Acknowledging twice keeps
// the first acknowledgement.
func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID, userID string) (*Alert, error) {
	if userID == "" {
		return nil, invalid("acknowledging user is required")
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Acknowledged {
		return existing, nil
	}
	return s.repo.Acknowledge(ctx, id, userID, s.now().UTC())
}

// Dismiss removes the alert.
func (s *Service) Dismiss(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
