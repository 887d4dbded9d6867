package doctor

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	AccountID uuid.UUID `gorm:"column:account_id;type:uuid;not null;uniqueIndex"`

	Name           string `gorm:"column:name;type:varchar(200);not null"`
	Specialization string `gorm:"column:specialization;type:varchar(100)"`
	Hospital       string `gorm:"column:hospital;type:varchar(200)"`
	RegistrationNo string `gorm:"column:registration_no;type:varchar(50);uniqueIndex"`
	ContactNumber  string `gorm:"column:contact_number;type:varchar(20)"`
	Email          string `gorm:"column:email;type:varchar(255)"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

// Snapshot captures the display attributes copied into audit entries at
// write time, so later profile edits do not alter history.
type Snapshot struct {
	ID             uuid.UUID
	Name           string
	Specialization string
	Hospital       string
}

func (d *Doctor) Snapshot() Snapshot {
	return Snapshot{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
		Hospital:       d.Hospital,
	}
}

type RegisterDoctorCommand struct {
	AccountID      uuid.UUID
	Name           string
	Specialization string
	Hospital       string
	RegistrationNo string
	ContactNumber  string
	Email          string
}
