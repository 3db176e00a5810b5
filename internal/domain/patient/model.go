package patient

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// MedicalHistory is stored inline on the patients row.
type MedicalHistory struct {
	Conditions    []string `json:"conditions"`
	Allergies     []string `json:"allergies"`
	FamilyHistory []string `json:"family_history"`
}

// Patient maps to the patients table.
type Patient struct {
	ID             uuid.UUID      `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	DateOfBirth    time.Time      `json:"date_of_birth"`
	Gender         string         `json:"gender"`
	Ethnicity      *string        `json:"ethnicity,omitempty"`
	Email          *string        `json:"email,omitempty"`
	Phone          *string        `json:"phone,omitempty"`
	Street         *string        `json:"street,omitempty"`
	City           *string        `json:"city,omitempty"`
	State          *string        `json:"state,omitempty"`
	ZipCode        *string        `json:"zip_code,omitempty"`
	Country        *string        `json:"country,omitempty"`
	MedicalHistory MedicalHistory `json:"medical_history"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// AgeOn returns the patient's age in whole years on the given day, counting
// a year only once the birthday has passed.
func (p *Patient) AgeOn(now time.Time) int {
	age := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		age--
	}
	return age
}

// MarshalJSON renders date_of_birth as a calendar date and adds the current age.
func (p Patient) MarshalJSON() ([]byte, error) {
	type alias Patient
	return json.Marshal(struct {
		alias
		DateOfBirth string `json:"date_of_birth"`
		Age         int    `json:"age"`
	}{
		alias:       alias(p),
		DateOfBirth: p.DateOfBirth.Format(dateLayout),
		Age:         p.AgeOn(time.Now()),
	})
}

// UnmarshalJSON accepts date_of_birth as YYYY-MM-DD or RFC 3339.
func (p *Patient) UnmarshalJSON(data []byte) error {
	type alias Patient
	aux := struct {
		*alias
		DateOfBirth string `json:"date_of_birth"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.DateOfBirth == "" {
		return nil
	}
	dob, err := ParseDate(aux.DateOfBirth)
	if err != nil {
		return err
	}
	p.DateOfBirth = dob
	return nil
}

func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
