package healthrecord

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *HealthRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*HealthRecord, error)

	// ListByPatient returns a patient's records matching the query, newest first.
	ListByPatient(ctx context.Context, q *ListRecordsQuery) ([]*HealthRecord, error)
}
