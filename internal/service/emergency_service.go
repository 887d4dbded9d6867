package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/domain/doctor"
	"github.com/vhealth/vhealth-api/internal/domain/emergency"
	"github.com/vhealth/vhealth-api/internal/domain/healthrecord"
	"github.com/vhealth/vhealth-api/internal/domain/patient"
	"github.com/vhealth/vhealth-api/pkg/metrics"
)

// AccessAuditor records emergency access events. Implementations must not
// let a failure reach the caller: returning medical data to the requesting
// doctor takes precedence over the audit trail (which is alerted on
// separately).
type AccessAuditor interface {
	RecordAccess(patientID uuid.UUID, patientVHID string, snap doctor.Snapshot, priority emergency.PriorityLevel)
}

// EmergencyView is the response to a doctor-initiated emergency access:
// the patient profile plus their high-importance records.
type EmergencyView struct {
	Patient       *patient.Patient             `json:"patient"`
	AgeYears      *int                         `json:"age_years,omitempty"`
	PriorityLevel emergency.PriorityLevel      `json:"priority_level"`
	Records       []*healthrecord.HealthRecord `json:"records"`
}

type EmergencyService struct {
	patients patient.Repository
	records  healthrecord.Repository
	logs     emergency.Repository
	roster   emergency.RosterRepository
	auditor  AccessAuditor
	coll     *metrics.Collector
	log      *zap.Logger
	now      func() time.Time
}

func NewEmergencyService(
	patients patient.Repository,
	records healthrecord.Repository,
	logs emergency.Repository,
	roster emergency.RosterRepository,
	auditor AccessAuditor,
	coll *metrics.Collector,
	log *zap.Logger,
) *EmergencyService {
	return &EmergencyService{
		patients: patients,
		records:  records,
		logs:     logs,
		roster:   roster,
		auditor:  auditor,
		coll:     coll,
		log:      log,
		now:      time.Now,
	}
}

// FetchEmergencyView looks a patient up by public identifier and returns
// their profile with records at or above the high-importance threshold,
// ordered by importance then recency. Every successful retrieval is audited
// exactly once, even when no record clears the threshold; a failed lookup is
// never audited and never falls back to another patient's data.
func (s *EmergencyService) FetchEmergencyView(ctx context.Context, patientVHID string, accessing *doctor.Doctor) (*EmergencyView, error) {
	if patientVHID == "" {
		return nil, &ValidationError{Fields: []string{"patient_vh_id is required"}}
	}

	p, err := s.patients.GetByVHID(ctx, patientVHID)
	if err != nil {
		return nil, err
	}

	minImp := emergency.HighImportanceThreshold
	records, err := s.records.ListByPatient(ctx, &healthrecord.ListRecordsQuery{
		PatientID:     p.ID,
		MinImportance: &minImp,
	})
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ImportanceLevel != records[j].ImportanceLevel {
			return records[i].ImportanceLevel > records[j].ImportanceLevel
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	// Recomputed on every access; never read from a stored column.
	priority := emergency.ComputePriority(p.ChronicConditions, p.Allergies, p.CurrentMedications)

	s.auditor.RecordAccess(p.ID, p.VHID, accessing.Snapshot(), priority)
	s.coll.EmergencyAccessTotal.Inc()

	s.log.Info("emergency access served",
		zap.String("patient_vh_id", p.VHID),
		zap.String("doctor_id", accessing.ID.String()),
		zap.Int("priority", int(priority)),
		zap.Int("records", len(records)),
	)

	return &EmergencyView{
		Patient:       p,
		AgeYears:      p.Age(s.now()),
		PriorityLevel: priority,
		Records:       records,
	}, nil
}

// ListAccessNotifications returns a patient's emergency access history,
// most recent first, capped at the notification page size. It never fails
// hard: any read error degrades to an empty feed.
func (s *EmergencyService) ListAccessNotifications(ctx context.Context, patientID uuid.UUID) []*emergency.AccessLog {
	entries, err := s.logs.ListByPatient(ctx, patientID, emergency.NotificationPageSize)
	if err != nil {
		s.log.Error("failed to list access notifications, degrading to empty feed",
			zap.String("patient_id", patientID.String()),
			zap.Error(err),
		)
		return []*emergency.AccessLog{}
	}
	if entries == nil {
		entries = []*emergency.AccessLog{}
	}
	return entries
}

// ListHighPriorityPatients returns the emergency roster: patients whose
// computed priority clears the threshold, most urgent first.
func (s *EmergencyService) ListHighPriorityPatients(ctx context.Context) ([]*emergency.RosterEntry, error) {
	entries, err := s.roster.ListHighPriorityPatients(ctx, emergency.HighImportanceThreshold)
	if err != nil {
		return nil, fmt.Errorf("listing high priority patients: %w", err)
	}
	return entries, nil
}
