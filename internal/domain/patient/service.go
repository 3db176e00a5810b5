package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid marks input validation failures.
var ErrInvalid = errors.New("invalid patient")

var validGenders = map[string]bool{"male": true, "female": true, "other": true}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) validate(p *Patient) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("%w: first_name and last_name are required", ErrInvalid)
	}
	if p.DateOfBirth.IsZero() {
		return fmt.Errorf("%w: date_of_birth is required", ErrInvalid)
	}
	if p.DateOfBirth.After(s.now()) {
		return fmt.Errorf("%w: date_of_birth is in the future", ErrInvalid)
	}
	p.Gender = strings.ToLower(p.Gender)
	if !validGenders[p.Gender] {
		return fmt.Errorf("%w: gender must be male, female or other", ErrInvalid)
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SearchPatients(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, 0, fmt.Errorf("%w: query parameter \"q\" is required", ErrInvalid)
	}
	return s.repo.Search(ctx, q, limit, offset)
}

// GetMedicalHistory returns the history block of a patient.
func (s *Service) GetMedicalHistory(ctx context.Context, id uuid.UUID) (*MedicalHistory, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &p.MedicalHistory, nil
}

// UpdateMedicalHistory replaces the history block of a patient.
func (s *Service) UpdateMedicalHistory(ctx context.Context, id uuid.UUID, h MedicalHistory) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.MedicalHistory = h
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
