package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/domain"
	"github.com/vhealth/vhealth-api/internal/domain/healthrecord"
	"github.com/vhealth/vhealth-api/internal/domain/patient"
	"github.com/vhealth/vhealth-api/internal/service"
)

type PatientHandler struct {
	patients  *service.PatientService
	records   *service.RecordService
	emergency *service.EmergencyService
	auth      *service.AuthService
	log       *zap.Logger
}

func NewPatientHandler(
	patients *service.PatientService,
	records *service.RecordService,
	emergency *service.EmergencyService,
	auth *service.AuthService,
	log *zap.Logger,
) *PatientHandler {
	return &PatientHandler{
		patients:  patients,
		records:   records,
		emergency: emergency,
		auth:      auth,
		log:       log,
	}
}

type registerPatientRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`

	Name               string                    `json:"name" binding:"required"`
	DateOfBirth        *string                   `json:"date_of_birth"`
	Gender             patient.Gender            `json:"gender" binding:"required"`
	BloodGroup         patient.BloodGroup        `json:"blood_group"`
	ContactNumber      string                    `json:"contact_number"`
	Address            string                    `json:"address"`
	Allergies          []string                  `json:"allergies"`
	ChronicConditions  []string                  `json:"chronic_conditions"`
	CurrentMedications string                    `json:"current_medications"`
	EmergencyContact   *patient.EmergencyContact `json:"emergency_contact"`
	Insurance          *patient.Insurance        `json:"insurance"`
}

// Register creates the login account and the patient record in one call and
// returns the assigned VHealth id.
func (h *PatientHandler) Register(c *gin.Context) {
	var req registerPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	var dob *time.Time
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			respondError(c, http.StatusBadRequest, "date_of_birth must be in YYYY-MM-DD format")
			return
		}
		dob = &parsed
	}

	ctx := c.Request.Context()

	account, err := h.auth.CreateAccount(ctx, req.Email, req.Password, domain.RolePatient)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	p, err := h.patients.Register(ctx, &patient.RegisterPatientCommand{
		AccountID:          account.ID,
		Name:               req.Name,
		Email:              req.Email,
		DateOfBirth:        dob,
		Gender:             req.Gender,
		BloodGroup:         req.BloodGroup,
		ContactNumber:      req.ContactNumber,
		Address:            req.Address,
		Allergies:          req.Allergies,
		ChronicConditions:  req.ChronicConditions,
		CurrentMedications: req.CurrentMedications,
		EmergencyContact:   req.EmergencyContact,
		Insurance:          req.Insurance,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.auth.LinkPatientProfile(ctx, account.ID, p.ID); err != nil {
		// The account works without the link; log and move on.
		h.log.Error("failed to link patient profile", zap.Error(err))
	}

	respondCreated(c, p)
}

func (h *PatientHandler) GetProfile(c *gin.Context) {
	claims, ok := principal(c)
	if !ok {
		return
	}

	p, err := h.patients.GetOwnProfile(c.Request.Context(), claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

type updateContactsRequest struct {
	ContactNumber    *string                   `json:"contact_number"`
	Email            *string                   `json:"email"`
	Address          *string                   `json:"address"`
	EmergencyContact *patient.EmergencyContact `json:"emergency_contact"`
	Insurance        *patient.Insurance        `json:"insurance"`
}

func (h *PatientHandler) UpdateContacts(c *gin.Context) {
	claims, ok := principal(c)
	if !ok {
		return
	}

	var req updateContactsRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.patients.UpdateContacts(c.Request.Context(), claims, &patient.UpdateContactsCommand{
		ContactNumber:    req.ContactNumber,
		Email:            req.Email,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		Insurance:        req.Insurance,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

type updateMedicationsRequest struct {
	CurrentMedications *string  `json:"current_medications"`
	Allergies          []string `json:"allergies"`
	ChronicConditions  []string `json:"chronic_conditions"`
}

func (h *PatientHandler) UpdateMedications(c *gin.Context) {
	claims, ok := principal(c)
	if !ok {
		return
	}

	var req updateMedicationsRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.patients.UpdateMedications(c.Request.Context(), claims, &patient.UpdateMedicationsCommand{
		CurrentMedications: req.CurrentMedications,
		Allergies:          req.Allergies,
		ChronicConditions:  req.ChronicConditions,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

// ListRecords returns the caller's own health records, newest first.
func (h *PatientHandler) ListRecords(c *gin.Context) {
	claims, ok := principal(c)
	if !ok {
		return
	}

	p, err := h.patients.GetOwnProfile(c.Request.Context(), claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	q := &healthrecord.ListRecordsQuery{PatientID: p.ID}
	if raw := c.Query("type"); raw != "" {
		rt := healthrecord.ReportType(raw)
		if !rt.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid report type filter")
			return
		}
		q.Type = &rt
	}
	if min := parseQueryInt(c, "min_importance", 0); min > 0 {
		q.MinImportance = &min
	}

	records, err := h.records.ListPatientRecords(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, records)
}

// ListNotifications returns who accessed the caller's records in an
// emergency, most recent first.
func (h *PatientHandler) ListNotifications(c *gin.Context) {
	claims, ok := principal(c)
	if !ok {
		return
	}

	p, err := h.patients.GetOwnProfile(c.Request.Context(), claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	entries := h.emergency.ListAccessNotifications(c.Request.Context(), p.ID)
	respondOK(c, entries)
}
