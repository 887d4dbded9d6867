package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vhealth/vhealth-api/internal/domain"
	"github.com/vhealth/vhealth-api/internal/domain/patient"
)

func newPatientService(repo *stubPatientRepo) *PatientService {
	return NewPatientService(repo, testCollector(), testLogger())
}

func TestRegisterAssignsVHID(t *testing.T) {
	repo := newStubPatientRepo()
	svc := newPatientService(repo)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	p, err := svc.Register(context.Background(), &patient.RegisterPatientCommand{
		AccountID: uuid.New(),
		Name:      "  Ravi Kumar  ",
		Gender:    patient.GenderMale,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	want := fmt.Sprintf("VH-%d", now.UnixMilli())
	if p.VHID != want {
		t.Errorf("vh_id = %q, want %q", p.VHID, want)
	}
	if p.Name != "Ravi Kumar" {
		t.Errorf("name not trimmed: %q", p.Name)
	}
}

func TestRegisterTrimsClinicalLists(t *testing.T) {
	svc := newPatientService(newStubPatientRepo())

	p, err := svc.Register(context.Background(), &patient.RegisterPatientCommand{
		AccountID:         uuid.New(),
		Name:              "Ana Silva",
		Gender:            patient.GenderFemale,
		Allergies:         []string{" penicillin ", "", "  "},
		ChronicConditions: []string{"asthma", " "},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(p.Allergies) != 1 || p.Allergies[0] != "penicillin" {
		t.Errorf("allergies = %v", p.Allergies)
	}
	if len(p.ChronicConditions) != 1 || p.ChronicConditions[0] != "asthma" {
		t.Errorf("chronic conditions = %v", p.ChronicConditions)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newPatientService(newStubPatientRepo())
	future := time.Now().Add(48 * time.Hour)

	cases := []struct {
		name string
		cmd  *patient.RegisterPatientCommand
	}{
		{"missing name", &patient.RegisterPatientCommand{AccountID: uuid.New(), Gender: patient.GenderOther}},
		{"missing account", &patient.RegisterPatientCommand{Name: "X", Gender: patient.GenderOther}},
		{"future dob", &patient.RegisterPatientCommand{AccountID: uuid.New(), Name: "X", Gender: patient.GenderOther, DateOfBirth: &future}},
		{"bad gender", &patient.RegisterPatientCommand{AccountID: uuid.New(), Name: "X", Gender: "robot"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.cmd)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
		})
	}
}

func TestGetOwnProfileRequiresPatientRole(t *testing.T) {
	p := testPatient("VH-1700000000030")
	svc := newPatientService(newStubPatientRepo(p))

	_, err := svc.GetOwnProfile(context.Background(), &domain.Claims{
		UserID: p.AccountID,
		Role:   domain.RoleDoctor,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	got, err := svc.GetOwnProfile(context.Background(), &domain.Claims{
		UserID: p.AccountID,
		Role:   domain.RolePatient,
	})
	if err != nil {
		t.Fatalf("GetOwnProfile: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("got patient %s, want %s", got.ID, p.ID)
	}
}

func TestUpdateMedicationsOwnRecordOnly(t *testing.T) {
	p := testPatient("VH-1700000000031")
	svc := newPatientService(newStubPatientRepo(p))
	meds := "metformin 500mg"

	got, err := svc.UpdateMedications(context.Background(), &domain.Claims{
		UserID: p.AccountID,
		Role:   domain.RolePatient,
	}, &patient.UpdateMedicationsCommand{CurrentMedications: &meds})
	if err != nil {
		t.Fatalf("UpdateMedications: %v", err)
	}
	if got.CurrentMedications != meds {
		t.Errorf("medications = %q, want %q", got.CurrentMedications, meds)
	}
}
