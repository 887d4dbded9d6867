package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/domain/doctor"
	"github.com/vhealth/vhealth-api/internal/domain/emergency"
	"github.com/vhealth/vhealth-api/pkg/metrics"
)

// AuditService persists emergency access log entries asynchronously. A
// logging outage must never block a doctor's emergency access, so failures
// are swallowed here and surfaced only through logs and counters.
type AuditService struct {
	repo    emergency.Repository
	log     *zap.Logger
	coll    *metrics.Collector
	entries chan *emergency.AccessLog
	done    chan struct{}
}

const auditBufferSize = 10_000

func NewAuditService(repo emergency.Repository, coll *metrics.Collector, log *zap.Logger) *AuditService {
	svc := &AuditService{
		repo:    repo,
		log:     log,
		coll:    coll,
		entries: make(chan *emergency.AccessLog, auditBufferSize),
		done:    make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// RecordAccess enqueues one immutable entry for the given access. The
// doctor's display attributes are copied in at write time so later profile
// edits do not alter history. If the buffer is full the entry is dropped and
// the drop counter fires.
func (s *AuditService) RecordAccess(patientID uuid.UUID, patientVHID string, snap doctor.Snapshot, priority emergency.PriorityLevel) {
	entry := &emergency.AccessLog{
		PatientID:            patientID,
		PatientVHID:          patientVHID,
		DoctorID:             snap.ID,
		DoctorName:           snap.Name,
		DoctorSpecialization: snap.Specialization,
		DoctorHospital:       snap.Hospital,
		PriorityLevel:        priority,
	}

	select {
	case s.entries <- entry:
	default:
		s.coll.AuditBufferDropped.Inc()
		s.log.Warn("audit log buffer full, dropping entry",
			zap.String("patient_vh_id", patientVHID),
			zap.String("doctor", snap.Name),
		)
	}
}

func (s *AuditService) Shutdown() {
	close(s.entries)
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("audit service shutdown timed out; some entries may be lost")
	}
}

func (s *AuditService) worker() {
	defer close(s.done)
	for entry := range s.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Create(ctx, entry); err != nil {
			s.coll.AuditWriteFailures.Inc()
			s.log.Error("failed to persist emergency access log", zap.Error(err))
		} else {
			s.coll.AuditEntriesTotal.Inc()
		}
		cancel()
	}
}
