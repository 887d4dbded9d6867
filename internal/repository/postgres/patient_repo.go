package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vhealth/vhealth-api/internal/domain/patient"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return patient.ErrPatientAlreadyExists
		}
		return fmt.Errorf("inserting patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("fetching patient by id: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) GetByVHID(ctx context.Context, vhID string) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).First(&p, "vh_id = ?", vhID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("fetching patient by vh_id: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).First(&p, "account_id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("fetching patient by account: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) UpdateContacts(ctx context.Context, id uuid.UUID, cmd *patient.UpdateContactsCommand) (*patient.Patient, error) {
	updates := map[string]any{}
	if cmd.ContactNumber != nil {
		updates["contact_number"] = *cmd.ContactNumber
	}
	if cmd.Email != nil {
		updates["email"] = *cmd.Email
	}
	if cmd.Address != nil {
		updates["address"] = *cmd.Address
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			res := tx.Model(&patient.Patient{}).Where("id = ?", id).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return patient.ErrPatientNotFound
			}
		}
		// Serialized columns go through the model so the JSON serializer runs.
		if cmd.EmergencyContact != nil {
			if err := tx.Model(&patient.Patient{ID: id}).Update("emergency_contact", cmd.EmergencyContact).Error; err != nil {
				return err
			}
		}
		if cmd.Insurance != nil {
			if err := tx.Model(&patient.Patient{ID: id}).Update("insurance", cmd.Insurance).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating patient contacts: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *PatientRepository) UpdateMedications(ctx context.Context, id uuid.UUID, cmd *patient.UpdateMedicationsCommand) (*patient.Patient, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cmd.CurrentMedications != nil {
			res := tx.Model(&patient.Patient{}).Where("id = ?", id).Update("current_medications", *cmd.CurrentMedications)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return patient.ErrPatientNotFound
			}
		}
		if cmd.Allergies != nil {
			if err := tx.Model(&patient.Patient{ID: id}).Update("allergies", cmd.Allergies).Error; err != nil {
				return err
			}
		}
		if cmd.ChronicConditions != nil {
			if err := tx.Model(&patient.Patient{ID: id}).Update("chronic_conditions", cmd.ChronicConditions).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating patient medications: %w", err)
	}

	return r.GetByID(ctx, id)
}
