package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/domain"
	"github.com/vhealth/vhealth-api/internal/domain/patient"
	"github.com/vhealth/vhealth-api/pkg/metrics"
)

type PatientService struct {
	repo patient.Repository
	coll *metrics.Collector
	log  *zap.Logger
	now  func() time.Time
}

func NewPatientService(repo patient.Repository, coll *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{repo: repo, coll: coll, log: log, now: time.Now}
}

// Register creates the patient record owned by the authenticated account and
// assigns its public VHealth identifier.
func (s *PatientService) Register(ctx context.Context, cmd *patient.RegisterPatientCommand) (*patient.Patient, error) {
	if err := validateRegisterCommand(cmd, s.now()); err != nil {
		return nil, err
	}

	p := &patient.Patient{
		AccountID:          cmd.AccountID,
		VHID:               patient.NewVHID(s.now()),
		Name:               strings.TrimSpace(cmd.Name),
		Email:              strings.ToLower(strings.TrimSpace(cmd.Email)),
		DateOfBirth:        cmd.DateOfBirth,
		Gender:             cmd.Gender,
		BloodGroup:         cmd.BloodGroup,
		ContactNumber:      strings.TrimSpace(cmd.ContactNumber),
		Address:            cmd.Address,
		Allergies:          trimAll(cmd.Allergies),
		ChronicConditions:  trimAll(cmd.ChronicConditions),
		CurrentMedications: cmd.CurrentMedications,
		EmergencyContact:   cmd.EmergencyContact,
		Insurance:          cmd.Insurance,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.coll.PatientsRegisteredTotal.Inc()
	s.log.Info("patient registered",
		zap.String("patient_id", p.ID.String()),
		zap.String("vh_id", p.VHID),
	)

	return p, nil
}

// GetOwnProfile resolves the patient record for the calling principal.
// Patients can only ever read their own record.
func (s *PatientService) GetOwnProfile(ctx context.Context, claims *domain.Claims) (*patient.Patient, error) {
	if claims.Role != domain.RolePatient {
		return nil, ErrForbidden
	}
	return s.repo.GetByAccountID(ctx, claims.UserID)
}

func (s *PatientService) UpdateContacts(ctx context.Context, claims *domain.Claims, cmd *patient.UpdateContactsCommand) (*patient.Patient, error) {
	p, err := s.GetOwnProfile(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateContacts(ctx, p.ID, cmd)
}

func (s *PatientService) UpdateMedications(ctx context.Context, claims *domain.Claims, cmd *patient.UpdateMedicationsCommand) (*patient.Patient, error) {
	p, err := s.GetOwnProfile(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateMedications(ctx, p.ID, cmd)
}

// GetByID is the doctor-facing lookup used by upload and review flows.
func (s *PatientService) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func validateRegisterCommand(cmd *patient.RegisterPatientCommand, now time.Time) error {
	var errs []string

	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if cmd.AccountID == uuid.Nil {
		errs = append(errs, "account_id is required")
	}
	if cmd.DateOfBirth != nil && cmd.DateOfBirth.After(now) {
		errs = append(errs, "date_of_birth cannot be in the future")
	}
	if !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
