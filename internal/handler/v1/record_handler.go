package v1

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/domain"
	"github.com/vhealth/vhealth-api/internal/domain/healthrecord"
	"github.com/vhealth/vhealth-api/internal/service"
	"github.com/vhealth/vhealth-api/pkg/blobstore"
	"github.com/vhealth/vhealth-api/pkg/pdftext"
)

type RecordHandler struct {
	records   *service.RecordService
	doctors   *service.DoctorService
	extractor *pdftext.Extractor
	log       *zap.Logger
}

func NewRecordHandler(records *service.RecordService, doctors *service.DoctorService, extractor *pdftext.Extractor, log *zap.Logger) *RecordHandler {
	return &RecordHandler{records: records, doctors: doctors, extractor: extractor, log: log}
}

// Upload accepts a multipart report upload from a doctor. The file part is
// optional; records can carry notes alone.
func (h *RecordHandler) Upload(c *gin.Context) {
	claims, ok := principal(c)
	if !ok {
		return
	}

	d, err := h.doctors.GetOwnProfile(c.Request.Context(), claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	cmd := &healthrecord.UploadReportCommand{
		PatientVHID: c.PostForm("patient_vh_id"),
		DoctorID:    d.ID,
		ReportType:  healthrecord.ReportType(c.PostForm("report_type")),
		Title:       c.PostForm("title"),
		Notes:       c.PostForm("notes"),
	}

	if raw := c.PostForm("importance_level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "importance_level must be an integer")
			return
		}
		cmd.ImportanceRaw = level
	}

	if raw := c.PostForm("test_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "test_date must be in YYYY-MM-DD format")
			return
		}
		cmd.TestDate = &parsed
	}

	if header, err := c.FormFile("file"); err == nil {
		if header.Size > blobstore.MaxFileSize {
			respondError(c, http.StatusRequestEntityTooLarge, "file exceeds the maximum upload size")
			return
		}
		f, err := header.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "unable to read uploaded file")
			return
		}
		defer f.Close()

		content, err := io.ReadAll(io.LimitReader(f, blobstore.MaxFileSize+1))
		if err != nil {
			respondError(c, http.StatusBadRequest, "unable to read uploaded file")
			return
		}
		if int64(len(content)) > blobstore.MaxFileSize {
			respondError(c, http.StatusRequestEntityTooLarge, "file exceeds the maximum upload size")
			return
		}

		cmd.FileName = header.Filename
		cmd.FileContent = content
		cmd.ContentType = header.Header.Get("Content-Type")
	}

	record, err := h.records.UploadReport(c.Request.Context(), cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, record)
}

// Download streams the stored report file. Doctors can fetch any record;
// patients only their own.
func (h *RecordHandler) Download(c *gin.Context) {
	claims, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	rec, data, err := h.records.FetchReportFile(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if claims.Role == domain.RolePatient {
		if claims.PatientID == nil || *claims.PatientID != rec.PatientID {
			respondError(c, http.StatusForbidden, "access denied")
			return
		}
	}

	c.Header("Content-Disposition", `attachment; filename="`+rec.File.Name+`"`)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

type extractTextResponse struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded"`
}

// ExtractText runs the standalone extraction on an uploaded document,
// salvaging printable runs when full parsing fails. Nothing is persisted.
func (h *RecordHandler) ExtractText(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file is required")
		return
	}
	if header.Size > blobstore.MaxFileSize {
		respondError(c, http.StatusRequestEntityTooLarge, "file exceeds the maximum upload size")
		return
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unable to read uploaded file")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, blobstore.MaxFileSize+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "unable to read uploaded file")
		return
	}

	res := h.extractor.ExtractLoose(header.Filename, content)
	respondOK(c, extractTextResponse{Text: res.Text, Degraded: res.Degraded})
}
