package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/domain/healthrecord"
	"github.com/vhealth/vhealth-api/internal/domain/patient"
	"github.com/vhealth/vhealth-api/pkg/blobstore"
	"github.com/vhealth/vhealth-api/pkg/metrics"
	"github.com/vhealth/vhealth-api/pkg/pdftext"
)

type RecordService struct {
	records   healthrecord.Repository
	patients  patient.Repository
	blobs     blobstore.Store
	extractor *pdftext.Extractor
	coll      *metrics.Collector
	log       *zap.Logger
	now       func() time.Time
}

func NewRecordService(
	records healthrecord.Repository,
	patients patient.Repository,
	blobs blobstore.Store,
	extractor *pdftext.Extractor,
	coll *metrics.Collector,
	log *zap.Logger,
) *RecordService {
	return &RecordService{
		records:   records,
		patients:  patients,
		blobs:     blobs,
		extractor: extractor,
		coll:      coll,
		log:       log,
		now:       time.Now,
	}
}

// UploadReport runs the one-shot upload pipeline: validate, store the file,
// extract text best-effort, persist the record. A storage failure aborts
// before the record exists; an extraction failure never does, the record is
// created with the placeholder text instead.
func (s *RecordService) UploadReport(ctx context.Context, cmd *healthrecord.UploadReportCommand) (*healthrecord.HealthRecord, error) {
	if err := validateUploadCommand(cmd); err != nil {
		return nil, err
	}

	p, err := s.patients.GetByVHID(ctx, cmd.PatientVHID)
	if err != nil {
		return nil, err
	}

	record := &healthrecord.HealthRecord{
		PatientID:       p.ID,
		DoctorID:        cmd.DoctorID,
		ReportType:      cmd.ReportType,
		Title:           cmd.Title,
		Description:     cmd.Notes,
		ClinicalNotes:   cmd.Notes,
		ImportanceLevel: healthrecord.NormalizeImportance(cmd.ImportanceRaw),
	}

	if record.Title == "" {
		record.Title = string(cmd.ReportType)
	}

	if cmd.TestDate != nil {
		record.TestDate = *cmd.TestDate
	} else {
		record.TestDate = s.now().UTC().Truncate(24 * time.Hour)
	}

	if len(cmd.FileContent) > 0 {
		// Key is namespaced by the patient's internal id and a timestamp so
		// repeated uploads of same-named files never collide.
		key := fmt.Sprintf("%s/%d-%s", p.ID, s.now().UnixMilli(), cmd.FileName)

		if err := s.blobs.Put(ctx, key, cmd.ContentType, cmd.FileContent); err != nil {
			s.log.Error("report file upload failed",
				zap.String("patient_vh_id", cmd.PatientVHID),
				zap.String("key", key),
				zap.Error(err),
			)
			return nil, &StorageError{Op: "file upload", Err: err}
		}

		record.File = &healthrecord.FileRef{
			URL:       s.blobs.PublicURL(key),
			Key:       key,
			Name:      cmd.FileName,
			SizeBytes: int64(len(cmd.FileContent)),
		}

		res := s.extractor.ExtractBestEffort(cmd.FileName, cmd.FileContent)
		record.ExtractedText = res.Text
		if res.Degraded {
			s.coll.ExtractionFallbackTotal.Inc()
			s.log.Warn("text extraction degraded to placeholder",
				zap.String("file", cmd.FileName),
				zap.String("patient_vh_id", cmd.PatientVHID),
			)
		}
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, &StorageError{Op: "record insert", Err: err}
	}

	s.coll.RecordsUploadedTotal.WithLabelValues(string(cmd.ReportType)).Inc()
	s.log.Info("health record created",
		zap.String("record_id", record.ID.String()),
		zap.String("patient_vh_id", cmd.PatientVHID),
		zap.String("report_type", string(cmd.ReportType)),
		zap.Int("importance", record.ImportanceLevel),
	)

	return record, nil
}

// FetchReportFile returns a record and the raw bytes of its stored file.
func (s *RecordService) FetchReportFile(ctx context.Context, id uuid.UUID) (*healthrecord.HealthRecord, []byte, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec.File == nil || rec.File.Key == "" {
		return nil, nil, healthrecord.ErrRecordNotFound
	}

	data, err := s.blobs.Get(ctx, rec.File.Key)
	if err != nil {
		return nil, nil, &StorageError{Op: "file download", Err: err}
	}
	return rec, data, nil
}

// ListPatientRecords returns a patient's own records, newest first.
func (s *RecordService) ListPatientRecords(ctx context.Context, q *healthrecord.ListRecordsQuery) ([]*healthrecord.HealthRecord, error) {
	return s.records.ListByPatient(ctx, q)
}

func validateUploadCommand(cmd *healthrecord.UploadReportCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.PatientVHID) == "" {
		errs = append(errs, "patient_vh_id is required")
	}
	if cmd.ReportType == "" {
		errs = append(errs, "report_type is required")
	} else if !cmd.ReportType.IsValid() {
		errs = append(errs, "report_type is invalid")
	}
	if len(cmd.FileContent) > 0 && strings.TrimSpace(cmd.FileName) == "" {
		errs = append(errs, "file_name is required when a file is supplied")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
