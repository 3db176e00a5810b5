package patient

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		result = append(result, p)
	}
	return result, len(result), nil
}

func (m *mockRepo) Search(_ context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	q = strings.ToLower(q)
	var result []*Patient
	for _, p := range m.patients {
		email := ""
		if p.Email != nil {
			email = *p.Email
		}
		if strings.Contains(strings.ToLower(p.FirstName), q) ||
			strings.Contains(strings.ToLower(p.LastName), q) ||
			strings.Contains(strings.ToLower(email), q) {
			result = append(result, p)
		}
	}
	return result, len(result), nil
}

func newTestService() *Service {
	svc := NewService(newMockRepo())
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }
	return svc
}

func validPatient() *Patient {
	return &Patient{
		FirstName:   "Ada",
		LastName:    "Okafor",
		DateOfBirth: time.Date(1960, 3, 2, 0, 0, 0, 0, time.UTC),
		Gender:      "Female",
	}
}

func TestService_CreatePatient(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
	if p.Gender != "female" {
		t.Errorf("expected gender normalised to female, got %q", p.Gender)
	}
}

func TestService_CreatePatient_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Patient)
	}{
		{"missing first name", func(p *Patient) { p.FirstName = " " }},
		{"missing last name", func(p *Patient) { p.LastName = "" }},
		{"missing birth date", func(p *Patient) { p.DateOfBirth = time.Time{} }},
		{"future birth date", func(p *Patient) { p.DateOfBirth = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }},
		{"bad gender", func(p *Patient) { p.Gender = "unknown" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService()
			p := validPatient()
			tt.mutate(p)
			err := svc.CreatePatient(context.Background(), p)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestService_UpdatePatient_NotFound(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	p.ID = uuid.New()
	if err := svc.UpdatePatient(context.Background(), p); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_SearchPatients(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := validPatient()
	email := "grace@example.com"
	b := &Patient{FirstName: "Grace", LastName: "Hopper", DateOfBirth: a.DateOfBirth, Gender: "female", Email: &email}
	svc.CreatePatient(ctx, a)
	svc.CreatePatient(ctx, b)

	found, total, err := svc.SearchPatients(ctx, "EXAMPLE", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || found[0].ID != b.ID {
		t.Errorf("expected only Grace, got %d results", total)
	}

	if _, _, err := svc.SearchPatients(ctx, "  ", 20, 0); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for empty query, got %v", err)
	}
}

func TestService_MedicalHistory(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p := validPatient()
	svc.CreatePatient(ctx, p)

	updated, err := svc.UpdateMedicalHistory(ctx, p.ID, MedicalHistory{
		Conditions:    []string{"Chronic Kidney Disease"},
		FamilyHistory: []string{"Hypertension"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.MedicalHistory.Conditions) != 1 {
		t.Errorf("expected 1 condition, got %v", updated.MedicalHistory.Conditions)
	}

	mh, err := svc.GetMedicalHistory(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mh.FamilyHistory[0] != "Hypertension" {
		t.Errorf("unexpected family history %v", mh.FamilyHistory)
	}

	if _, err := svc.GetMedicalHistory(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
