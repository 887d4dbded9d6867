package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/domain"
	"github.com/vhealth/vhealth-api/internal/domain/doctor"
)

type DoctorService struct {
	repo doctor.Repository
	log  *zap.Logger
}

func NewDoctorService(repo doctor.Repository, log *zap.Logger) *DoctorService {
	return &DoctorService{repo: repo, log: log}
}

func (s *DoctorService) Register(ctx context.Context, cmd *doctor.RegisterDoctorCommand) (*doctor.Doctor, error) {
	var errs []string
	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(cmd.RegistrationNo) == "" {
		errs = append(errs, "registration_no is required")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	d := &doctor.Doctor{
		AccountID:      cmd.AccountID,
		Name:           strings.TrimSpace(cmd.Name),
		Specialization: strings.TrimSpace(cmd.Specialization),
		Hospital:       strings.TrimSpace(cmd.Hospital),
		RegistrationNo: strings.TrimSpace(cmd.RegistrationNo),
		ContactNumber:  strings.TrimSpace(cmd.ContactNumber),
		Email:          strings.ToLower(strings.TrimSpace(cmd.Email)),
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.log.Info("doctor registered",
		zap.String("doctor_id", d.ID.String()),
		zap.String("hospital", d.Hospital),
	)

	return d, nil
}

// GetOwnProfile resolves the doctor profile for the calling principal.
// Every doctor-facing entry point re-verifies this link instead of trusting
// identifiers supplied in the request body.
func (s *DoctorService) GetOwnProfile(ctx context.Context, claims *domain.Claims) (*doctor.Doctor, error) {
	if claims.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	return s.repo.GetByAccountID(ctx, claims.UserID)
}
