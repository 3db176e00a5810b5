package alert

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeCritical Type = "critical"
	TypeWarning  Type = "warning"
	TypeInfo     Type = "info"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type Category string

const (
	CategoryLab         Category = "lab"
	CategoryVital       Category = "vital"
	CategoryMedication  Category = "medication"
	CategoryAppointment Category = "appointment"
	CategorySystem      Category = "system"
)

// Alert maps to the alerts table.
type Alert struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	Type           Type       `json:"type"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Priority       Priority   `json:"priority"`
	Category       Category   `json:"category"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy *string    `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Filter narrows a patient's alert list. Nil fields match everything.
type Filter struct {
	Acknowledged *bool
	Priority     Priority
	Type         Type
	Limit        int
	Offset       int
}
