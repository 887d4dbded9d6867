package patient

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

type BloodGroup string

const (
	BloodGroupAPos    BloodGroup = "A+"
	BloodGroupANeg    BloodGroup = "A-"
	BloodGroupBPos    BloodGroup = "B+"
	BloodGroupBNeg    BloodGroup = "B-"
	BloodGroupABPos   BloodGroup = "AB+"
	BloodGroupABNeg   BloodGroup = "AB-"
	BloodGroupOPos    BloodGroup = "O+"
	BloodGroupONeg    BloodGroup = "O-"
	BloodGroupUnknown BloodGroup = "unknown"
)

type EmergencyContact struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

type Insurance struct {
	Provider string `json:"provider"`
	PolicyNo string `json:"policy_no"`
}

// Patient is the clinical record owned by exactly one authenticated account.
// VHID is the public, shareable identifier; immutable once assigned.
type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	AccountID uuid.UUID `gorm:"column:account_id;type:uuid;not null;uniqueIndex"`
	VHID      string    `gorm:"column:vh_id;type:varchar(30);not null;uniqueIndex"`

	Name        string     `gorm:"column:name;type:varchar(200);not null"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth"`
	Gender      Gender     `gorm:"column:gender;type:varchar(20);not null"`
	BloodGroup  BloodGroup `gorm:"column:blood_group;type:varchar(7)"`

	ContactNumber string `gorm:"column:contact_number;type:varchar(20)"`
	Email         string `gorm:"column:email;type:varchar(255)"`
	Address       string `gorm:"column:address;type:text"`

	Allergies          []string `gorm:"column:allergies;serializer:json;type:jsonb"`
	ChronicConditions  []string `gorm:"column:chronic_conditions;serializer:json;type:jsonb"`
	CurrentMedications string   `gorm:"column:current_medications;type:text"`

	EmergencyContact *EmergencyContact `gorm:"column:emergency_contact;serializer:json;type:jsonb"`
	Insurance        *Insurance        `gorm:"column:insurance;serializer:json;type:jsonb"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

// NewVHID derives the public identifier assigned at registration.
func NewVHID(now time.Time) string {
	return fmt.Sprintf("VH-%d", now.UnixMilli())
}

// Age returns whole calendar years as of now, or nil when the date of
// birth is unknown.
func (p *Patient) Age(now time.Time) *int {
	if p.DateOfBirth == nil {
		return nil
	}
	dob := *p.DateOfBirth
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() ||
		(now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return &years
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.Name)
}

type RegisterPatientCommand struct {
	AccountID          uuid.UUID
	Name               string
	Email              string
	DateOfBirth        *time.Time
	Gender             Gender
	BloodGroup         BloodGroup
	ContactNumber      string
	Address            string
	Allergies          []string
	ChronicConditions  []string
	CurrentMedications string
	EmergencyContact   *EmergencyContact
	Insurance          *Insurance
}

// UpdateContactsCommand holds the patient-editable contact fields.
// Concurrent updates are last-write-wins; there is no conflict detection.
type UpdateContactsCommand struct {
	ContactNumber    *string
	Email            *string
	Address          *string
	EmergencyContact *EmergencyContact
	Insurance        *Insurance
}

type UpdateMedicationsCommand struct {
	CurrentMedications *string
	Allergies          []string
	ChronicConditions  []string
}
