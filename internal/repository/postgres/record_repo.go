package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vhealth/vhealth-api/internal/domain/healthrecord"
)

type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Create(ctx context.Context, rec *healthrecord.HealthRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("inserting health record: %w", err)
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*healthrecord.HealthRecord, error) {
	var rec healthrecord.HealthRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, healthrecord.ErrRecordNotFound
		}
		return nil, fmt.Errorf("fetching health record: %w", err)
	}
	return &rec, nil
}

func (r *RecordRepository) ListByPatient(ctx context.Context, q *healthrecord.ListRecordsQuery) ([]*healthrecord.HealthRecord, error) {
	tx := r.db.WithContext(ctx).
		Where("patient_id = ?", q.PatientID).
		Order("created_at DESC")

	if q.Type != nil {
		tx = tx.Where("report_type = ?", *q.Type)
	}
	if q.MinImportance != nil {
		tx = tx.Where("importance_level >= ?", *q.MinImportance)
	}

	var records []*healthrecord.HealthRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing health records: %w", err)
	}
	return records, nil
}
