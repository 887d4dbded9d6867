package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vhealth/vhealth-api/internal/domain/healthrecord"
	"github.com/vhealth/vhealth-api/pkg/blobstore"
	"github.com/vhealth/vhealth-api/pkg/pdftext"
)

func newRecordService(records *stubRecordRepo, patients *stubPatientRepo, blobs blobstore.Store) *RecordService {
	return NewRecordService(records, patients, blobs, pdftext.New(3000), testCollector(), testLogger())
}

func TestUploadReportImportancePreserved(t *testing.T) {
	p := testPatient("VH-1700000000020")
	for want := healthrecord.MinImportance; want <= healthrecord.MaxImportance; want++ {
		records := &stubRecordRepo{}
		svc := newRecordService(records, newStubPatientRepo(p), blobstore.NewMemoryStore())

		rec, err := svc.UploadReport(context.Background(), &healthrecord.UploadReportCommand{
			PatientVHID:   p.VHID,
			DoctorID:      uuid.New(),
			ReportType:    healthrecord.TypeBloodTest,
			Title:         "CBC",
			ImportanceRaw: want,
		})
		if err != nil {
			t.Fatalf("importance %d: %v", want, err)
		}
		if rec.ImportanceLevel != want {
			t.Errorf("importance %d stored as %d", want, rec.ImportanceLevel)
		}
	}
}

func TestUploadReportImportanceDefaults(t *testing.T) {
	p := testPatient("VH-1700000000021")
	for _, raw := range []int{0, -1, 7, 42} {
		svc := newRecordService(&stubRecordRepo{}, newStubPatientRepo(p), blobstore.NewMemoryStore())

		rec, err := svc.UploadReport(context.Background(), &healthrecord.UploadReportCommand{
			PatientVHID:   p.VHID,
			DoctorID:      uuid.New(),
			ReportType:    healthrecord.TypeXRay,
			ImportanceRaw: raw,
		})
		if err != nil {
			t.Fatalf("raw %d: %v", raw, err)
		}
		if rec.ImportanceLevel != healthrecord.DefaultImportance {
			t.Errorf("raw %d stored as %d, want default %d", raw, rec.ImportanceLevel, healthrecord.DefaultImportance)
		}
	}
}

func TestUploadReportCorruptPDFStillCreatesRecord(t *testing.T) {
	p := testPatient("VH-1700000000022")
	records := &stubRecordRepo{}
	blobs := blobstore.NewMemoryStore()
	svc := newRecordService(records, newStubPatientRepo(p), blobs)

	content := []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0x03, 0x04, 0x05}
	rec, err := svc.UploadReport(context.Background(), &healthrecord.UploadReportCommand{
		PatientVHID: p.VHID,
		DoctorID:    uuid.New(),
		ReportType:  healthrecord.TypeBloodTest,
		Title:       "scan",
		FileName:    "scan.pdf",
		FileContent: content,
		ContentType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("UploadReport: %v", err)
	}

	want := pdftext.FallbackParseFailed("scan.pdf")
	if rec.ExtractedText != want {
		t.Errorf("extracted text = %q, want %q", rec.ExtractedText, want)
	}
	if rec.File == nil || rec.File.Name != "scan.pdf" {
		t.Fatalf("file ref not set: %+v", rec.File)
	}
	if rec.File.SizeBytes != int64(len(content)) {
		t.Errorf("file size = %d, want %d", rec.File.SizeBytes, len(content))
	}
	if blobs.Len() != 1 {
		t.Errorf("blob store holds %d objects, want 1", blobs.Len())
	}
	if len(records.records) != 1 {
		t.Errorf("record repo holds %d records, want 1", len(records.records))
	}
}

func TestUploadReportStorageFailureAborts(t *testing.T) {
	p := testPatient("VH-1700000000023")
	records := &stubRecordRepo{}
	blobs := blobstore.NewMemoryStore()
	blobs.FailPut = errors.New("bucket unavailable")
	svc := newRecordService(records, newStubPatientRepo(p), blobs)

	_, err := svc.UploadReport(context.Background(), &healthrecord.UploadReportCommand{
		PatientVHID: p.VHID,
		DoctorID:    uuid.New(),
		ReportType:  healthrecord.TypeMRI,
		FileName:    "brain.pdf",
		FileContent: []byte("%PDF-1.4 stub"),
	})

	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *StorageError", err)
	}
	// The file never landed, so no record may exist either.
	if len(records.records) != 0 {
		t.Fatalf("record created despite storage failure")
	}
}

func TestUploadReportValidationBeforeSideEffects(t *testing.T) {
	p := testPatient("VH-1700000000024")
	records := &stubRecordRepo{}
	blobs := blobstore.NewMemoryStore()
	svc := newRecordService(records, newStubPatientRepo(p), blobs)

	cases := []*healthrecord.UploadReportCommand{
		{PatientVHID: "", ReportType: healthrecord.TypeBloodTest},
		{PatientVHID: p.VHID, ReportType: ""},
		{PatientVHID: p.VHID, ReportType: "hologram"},
		{PatientVHID: p.VHID, ReportType: healthrecord.TypeECG, FileContent: []byte("x"), FileName: "  "},
	}
	for i, cmd := range cases {
		_, err := svc.UploadReport(context.Background(), cmd)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("case %d: err = %v, want *ValidationError", i, err)
		}
	}
	if blobs.Len() != 0 || len(records.records) != 0 {
		t.Fatal("validation failure caused side effects")
	}
}

func TestUploadReportDefaultsTitleAndTestDate(t *testing.T) {
	p := testPatient("VH-1700000000025")
	svc := newRecordService(&stubRecordRepo{}, newStubPatientRepo(p), blobstore.NewMemoryStore())
	now := time.Date(2026, 5, 10, 15, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	rec, err := svc.UploadReport(context.Background(), &healthrecord.UploadReportCommand{
		PatientVHID: p.VHID,
		DoctorID:    uuid.New(),
		ReportType:  healthrecord.TypeConsultation,
	})
	if err != nil {
		t.Fatalf("UploadReport: %v", err)
	}
	if rec.Title != string(healthrecord.TypeConsultation) {
		t.Errorf("title = %q, want report type name", rec.Title)
	}
	wantDate := now.Truncate(24 * time.Hour)
	if !rec.TestDate.Equal(wantDate) {
		t.Errorf("test date = %v, want %v", rec.TestDate, wantDate)
	}
}

func TestUploadReportWithoutFile(t *testing.T) {
	p := testPatient("VH-1700000000026")
	blobs := blobstore.NewMemoryStore()
	svc := newRecordService(&stubRecordRepo{}, newStubPatientRepo(p), blobs)

	rec, err := svc.UploadReport(context.Background(), &healthrecord.UploadReportCommand{
		PatientVHID: p.VHID,
		DoctorID:    uuid.New(),
		ReportType:  healthrecord.TypePrescription,
		Title:       "Amoxicillin course",
		Notes:       "500mg three times daily",
	})
	if err != nil {
		t.Fatalf("UploadReport: %v", err)
	}
	if rec.File != nil {
		t.Errorf("file ref set without upload: %+v", rec.File)
	}
	if rec.ExtractedText != "" {
		t.Errorf("extracted text set without file: %q", rec.ExtractedText)
	}
	if blobs.Len() != 0 {
		t.Errorf("blob stored without file upload")
	}
}
