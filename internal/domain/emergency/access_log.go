package emergency

import (
	"time"

	"github.com/google/uuid"
)

// AccessLog is one emergency access event. Append-only: entries are never
// updated or deleted, and the accessing doctor's display attributes are
// denormalized at write time so later profile edits do not rewrite history.
type AccessLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AccessedAt time.Time `gorm:"column:accessed_at;autoCreateTime;index"`

	PatientID   uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	PatientVHID string    `gorm:"column:patient_vh_id;type:varchar(30);not null"`

	DoctorID             uuid.UUID `gorm:"column:doctor_id;type:uuid;not null"`
	DoctorName           string    `gorm:"column:doctor_name;type:varchar(200);not null"`
	DoctorSpecialization string    `gorm:"column:doctor_specialization;type:varchar(100)"`
	DoctorHospital       string    `gorm:"column:doctor_hospital;type:varchar(200)"`

	PriorityLevel PriorityLevel `gorm:"column:priority_level;not null"`
}

func (AccessLog) TableName() string {
	return "audit.emergency_access_logs"
}

// NotificationPageSize caps the patient-facing notification feed.
const NotificationPageSize = 20
