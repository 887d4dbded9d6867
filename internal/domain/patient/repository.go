package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient. Returns ErrPatientAlreadyExists when the
	// owning account already has a patient record.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetByVHID retrieves a patient by public identifier (exact, case-sensitive match).
	GetByVHID(ctx context.Context, vhID string) (*Patient, error)

	// GetByAccountID retrieves the patient owned by an authenticated account.
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Patient, error)

	// UpdateContacts applies partial updates to contact and insurance fields.
	UpdateContacts(ctx context.Context, id uuid.UUID, cmd *UpdateContactsCommand) (*Patient, error)

	// UpdateMedications applies partial updates to the clinical self-reported fields.
	UpdateMedications(ctx context.Context, id uuid.UUID, cmd *UpdateMedicationsCommand) (*Patient, error)
}
