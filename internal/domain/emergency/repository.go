package emergency

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create appends one access log entry; the timestamp is server-assigned.
	Create(ctx context.Context, entry *AccessLog) error

	// ListByPatient returns a patient's entries, most recent first, capped at limit.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*AccessLog, error)
}

// RosterRepository lists patients whose computed priority clears the
// high-importance threshold, using the calculate_patient_priority SQL function.
type RosterRepository interface {
	ListHighPriorityPatients(ctx context.Context, minPriority PriorityLevel) ([]*RosterEntry, error)
}

// RosterEntry is one row of the emergency patient roster.
type RosterEntry struct {
	PatientID              uuid.UUID `gorm:"column:patient_id" json:"patient_id"`
	VHID                   string    `gorm:"column:vh_id" json:"vh_id"`
	Name                   string    `gorm:"column:name" json:"name"`
	BloodGroup             string    `gorm:"column:blood_group" json:"blood_group"`
	ChronicConditions      []string  `gorm:"column:chronic_conditions;serializer:json" json:"chronic_conditions"`
	Allergies              []string  `gorm:"column:allergies;serializer:json" json:"allergies"`
	CurrentMedications     string    `gorm:"column:current_medications" json:"current_medications"`
	EmergencyContactName   string    `gorm:"column:emergency_contact_name" json:"emergency_contact_name"`
	EmergencyContactNumber string    `gorm:"column:emergency_contact_number" json:"emergency_contact_number"`

	PriorityLevel PriorityLevel `gorm:"column:priority_level" json:"priority_level"`
}
