package healthrecord

import (
	"time"

	"github.com/google/uuid"
)

type ReportType string

const (
	TypeBloodTest    ReportType = "blood-test"
	TypeXRay         ReportType = "x-ray"
	TypeMRI          ReportType = "mri"
	TypeCTScan       ReportType = "ct-scan"
	TypeUltrasound   ReportType = "ultrasound"
	TypeECG          ReportType = "ecg"
	TypePrescription ReportType = "prescription"
	TypeConsultation ReportType = "consultation"
	TypeDischarge    ReportType = "discharge"
	TypeOther        ReportType = "other"
)

func (t ReportType) IsValid() bool {
	switch t {
	case TypeBloodTest, TypeXRay, TypeMRI, TypeCTScan, TypeUltrasound,
		TypeECG, TypePrescription, TypeConsultation, TypeDischarge, TypeOther:
		return true
	}
	return false
}

const (
	MinImportance = 1
	MaxImportance = 5

	// DefaultImportance is assigned when the uploader supplies no level or an
	// unparseable one.
	DefaultImportance = 3
)

// FileRef points at the stored report file in the blob store.
type FileRef struct {
	URL       string `json:"url"`
	Key       string `json:"-"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// HealthRecord is created once at upload time and read many times.
// ImportanceLevel is caller-assigned and persisted unchanged; it is distinct
// from the per-patient priority computed from clinical attributes.
type HealthRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	ReportType    ReportType `gorm:"column:report_type;type:varchar(30);not null;index"`
	Title         string     `gorm:"column:title;type:varchar(255);not null"`
	Description   string     `gorm:"column:description;type:text"`
	ClinicalNotes string     `gorm:"column:clinical_notes;type:text"`

	File          *FileRef `gorm:"column:file;serializer:json;type:jsonb"`
	ExtractedText string   `gorm:"column:extracted_text;type:text"`

	ImportanceLevel int       `gorm:"column:importance_level;not null;default:3;index"`
	TestDate        time.Time `gorm:"column:test_date;type:date;not null"`
}

func (HealthRecord) TableName() string {
	return "clinical.health_records"
}

// NormalizeImportance clamps a caller-supplied level into the valid band,
// falling back to the default for out-of-range or unset values.
func NormalizeImportance(level int) int {
	if level < MinImportance || level > MaxImportance {
		return DefaultImportance
	}
	return level
}

type UploadReportCommand struct {
	PatientVHID string
	DoctorID    uuid.UUID
	ReportType  ReportType
	Title       string
	Notes       string

	FileName    string
	FileContent []byte
	ContentType string

	// ImportanceRaw is the level as supplied by the caller; zero or
	// out-of-range values fall back to DefaultImportance.
	ImportanceRaw int
	TestDate      *time.Time
}

type ListRecordsQuery struct {
	PatientID uuid.UUID
	Type      *ReportType
	// MinImportance filters to records at or above the given level when set.
	MinImportance *int
}
