package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vhealth/vhealth-api/internal/domain/doctor"
	"github.com/vhealth/vhealth-api/internal/domain/emergency"
)

func TestAuditServicePersistsEntries(t *testing.T) {
	repo := &stubAccessLogRepo{}
	svc := NewAuditService(repo, testCollector(), testLogger())

	snap := doctor.Snapshot{
		ID:             uuid.New(),
		Name:           "Dr. Meera Shah",
		Specialization: "Emergency Medicine",
		Hospital:       "St. Mary's",
	}
	patientID := uuid.New()

	svc.RecordAccess(patientID, "VH-1700000000010", snap, emergency.PriorityHigh)
	svc.RecordAccess(patientID, "VH-1700000000010", snap, emergency.PriorityHigh)
	svc.Shutdown()

	if len(repo.entries) != 2 {
		t.Fatalf("got %d persisted entries, want 2", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.PatientID != patientID {
		t.Errorf("entry patient = %s, want %s", entry.PatientID, patientID)
	}
	if entry.DoctorName != snap.Name || entry.DoctorHospital != snap.Hospital {
		t.Errorf("doctor snapshot not denormalized: %+v", entry)
	}
	if entry.PriorityLevel != emergency.PriorityHigh {
		t.Errorf("entry priority = %d, want %d", entry.PriorityLevel, emergency.PriorityHigh)
	}
}

func TestAuditServiceSwallowsWriteFailures(t *testing.T) {
	repo := &stubAccessLogRepo{createErr: errTimeout{}}
	svc := NewAuditService(repo, testCollector(), testLogger())

	// Must not panic or block the caller even though every write fails.
	svc.RecordAccess(uuid.New(), "VH-1700000000011", doctor.Snapshot{Name: "Dr. X"}, emergency.PriorityStandard)

	done := make(chan struct{})
	go func() {
		svc.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}

	if len(repo.entries) != 0 {
		t.Fatalf("expected no persisted entries, got %d", len(repo.entries))
	}
}

type errTimeout struct{}

func (errTimeout) Error() string { return "write timed out" }
