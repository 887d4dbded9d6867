package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vhealth/vhealth-api/internal/domain/emergency"
)

type EmergencyRepository struct {
	db *gorm.DB
}

func NewEmergencyRepository(db *gorm.DB) *EmergencyRepository {
	return &EmergencyRepository{db: db}
}

func (r *EmergencyRepository) Create(ctx context.Context, entry *emergency.AccessLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("inserting access log: %w", err)
	}
	return nil
}

func (r *EmergencyRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*emergency.AccessLog, error) {
	var entries []*emergency.AccessLog
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("accessed_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing access logs: %w", err)
	}
	return entries, nil
}

// ListHighPriorityPatients runs the roster query. Priority is computed
// inside the database by calculate_patient_priority so the ordering and the
// band always reflect current clinical data; nothing is read from a stored
// priority column.
func (r *EmergencyRepository) ListHighPriorityPatients(ctx context.Context, minPriority emergency.PriorityLevel) ([]*emergency.RosterEntry, error) {
	const query = `
SELECT
	p.id AS patient_id,
	p.vh_id,
	p.name,
	COALESCE(p.blood_group, '') AS blood_group,
	p.chronic_conditions,
	p.allergies,
	COALESCE(p.current_medications, '') AS current_medications,
	COALESCE(p.emergency_contact->>'name', '') AS emergency_contact_name,
	COALESCE(p.emergency_contact->>'number', '') AS emergency_contact_number,
	calculate_patient_priority(p.chronic_conditions, p.allergies, p.current_medications) AS priority_level
FROM clinical.patients p
WHERE p.deleted_at IS NULL
  AND calculate_patient_priority(p.chronic_conditions, p.allergies, p.current_medications) >= ?
ORDER BY priority_level DESC, p.name ASC`

	var entries []*emergency.RosterEntry
	if err := r.db.WithContext(ctx).Raw(query, int(minPriority)).Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing high priority patients: %w", err)
	}
	return entries, nil
}
