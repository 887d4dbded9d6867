package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/domain"
	"github.com/vhealth/vhealth-api/internal/domain/doctor"
	"github.com/vhealth/vhealth-api/internal/domain/emergency"
	"github.com/vhealth/vhealth-api/internal/domain/healthrecord"
	"github.com/vhealth/vhealth-api/internal/domain/patient"
	"github.com/vhealth/vhealth-api/pkg/metrics"
)

func testCollector() *metrics.Collector {
	return metrics.NewCollectorWith(prometheus.NewRegistry(), "test")
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// ---- patient repository ----

type stubPatientRepo struct {
	byVHID    map[string]*patient.Patient
	byAccount map[uuid.UUID]*patient.Patient
	created   []*patient.Patient
	createErr error
}

func newStubPatientRepo(patients ...*patient.Patient) *stubPatientRepo {
	r := &stubPatientRepo{
		byVHID:    make(map[string]*patient.Patient),
		byAccount: make(map[uuid.UUID]*patient.Patient),
	}
	for _, p := range patients {
		r.byVHID[p.VHID] = p
		r.byAccount[p.AccountID] = p
	}
	return r
}

func (r *stubPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.byAccount[p.AccountID]; ok {
		return patient.ErrPatientAlreadyExists
	}
	p.ID = uuid.New()
	r.byVHID[p.VHID] = p
	r.byAccount[p.AccountID] = p
	r.created = append(r.created, p)
	return nil
}

func (r *stubPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	for _, p := range r.byVHID {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (r *stubPatientRepo) GetByVHID(_ context.Context, vhID string) (*patient.Patient, error) {
	p, ok := r.byVHID[vhID]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (r *stubPatientRepo) GetByAccountID(_ context.Context, accountID uuid.UUID) (*patient.Patient, error) {
	p, ok := r.byAccount[accountID]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (r *stubPatientRepo) UpdateContacts(ctx context.Context, id uuid.UUID, cmd *patient.UpdateContactsCommand) (*patient.Patient, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.ContactNumber != nil {
		p.ContactNumber = *cmd.ContactNumber
	}
	if cmd.Email != nil {
		p.Email = *cmd.Email
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.EmergencyContact != nil {
		p.EmergencyContact = cmd.EmergencyContact
	}
	if cmd.Insurance != nil {
		p.Insurance = cmd.Insurance
	}
	return p, nil
}

func (r *stubPatientRepo) UpdateMedications(ctx context.Context, id uuid.UUID, cmd *patient.UpdateMedicationsCommand) (*patient.Patient, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.CurrentMedications != nil {
		p.CurrentMedications = *cmd.CurrentMedications
	}
	if cmd.Allergies != nil {
		p.Allergies = cmd.Allergies
	}
	if cmd.ChronicConditions != nil {
		p.ChronicConditions = cmd.ChronicConditions
	}
	return p, nil
}

// ---- health record repository ----

type stubRecordRepo struct {
	records   []*healthrecord.HealthRecord
	createErr error
	listErr   error
}

func (r *stubRecordRepo) Create(_ context.Context, rec *healthrecord.HealthRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *stubRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*healthrecord.HealthRecord, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, healthrecord.ErrRecordNotFound
}

func (r *stubRecordRepo) ListByPatient(_ context.Context, q *healthrecord.ListRecordsQuery) ([]*healthrecord.HealthRecord, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*healthrecord.HealthRecord
	for _, rec := range r.records {
		if rec.PatientID != q.PatientID {
			continue
		}
		if q.Type != nil && rec.ReportType != *q.Type {
			continue
		}
		if q.MinImportance != nil && rec.ImportanceLevel < *q.MinImportance {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ---- emergency access log repository ----

type stubAccessLogRepo struct {
	entries   []*emergency.AccessLog
	createErr error
	listErr   error
}

func (r *stubAccessLogRepo) Create(_ context.Context, entry *emergency.AccessLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubAccessLogRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit int) ([]*emergency.AccessLog, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*emergency.AccessLog
	for _, e := range r.entries {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AccessedAt.After(out[j].AccessedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubRosterRepo struct {
	entries []*emergency.RosterEntry
	err     error
}

func (r *stubRosterRepo) ListHighPriorityPatients(_ context.Context, minPriority emergency.PriorityLevel) ([]*emergency.RosterEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*emergency.RosterEntry
	for _, e := range r.entries {
		if e.PriorityLevel >= minPriority {
			out = append(out, e)
		}
	}
	return out, nil
}

// ---- auditor ----

type auditCall struct {
	patientID   uuid.UUID
	patientVHID string
	snap        doctor.Snapshot
	priority    emergency.PriorityLevel
}

// recordingAuditor captures audit calls synchronously so assertions do not
// need to drain the async pipeline.
type recordingAuditor struct {
	calls []auditCall
}

func (a *recordingAuditor) RecordAccess(patientID uuid.UUID, patientVHID string, snap doctor.Snapshot, priority emergency.PriorityLevel) {
	a.calls = append(a.calls, auditCall{
		patientID:   patientID,
		patientVHID: patientVHID,
		snap:        snap,
		priority:    priority,
	})
}

// ---- users ----

type stubUserRepo struct {
	byEmail map[string]*domain.User
	byID    map[uuid.UUID]*domain.User

	loginAttempts []bool
	passwordSet   string
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[uuid.UUID]*domain.User),
	}
	for _, u := range users {
		r.byEmail[u.Email] = u
		r.byID[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, exists := r.byEmail[u.Email]; exists {
		return ErrEmailAlreadyExists
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.byEmail[u.Email] = u
	r.byID[u.ID] = u
	return nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (r *stubUserRepo) UpdateLoginAttempt(_ context.Context, _ uuid.UUID, success bool) error {
	r.loginAttempts = append(r.loginAttempts, success)
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, _ uuid.UUID, hash string) error {
	r.passwordSet = hash
	return nil
}

func (r *stubUserRepo) LinkProfile(_ context.Context, id uuid.UUID, doctorID, patientID *uuid.UUID) error {
	u, ok := r.byID[id]
	if !ok {
		return ErrInvalidCredentials
	}
	if doctorID != nil {
		u.DoctorID = doctorID
	}
	if patientID != nil {
		u.PatientID = patientID
	}
	return nil
}
