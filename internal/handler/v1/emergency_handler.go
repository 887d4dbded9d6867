package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/service"
)

type EmergencyHandler struct {
	emergency *service.EmergencyService
	doctors   *service.DoctorService
	log       *zap.Logger
}

func NewEmergencyHandler(emergency *service.EmergencyService, doctors *service.DoctorService, log *zap.Logger) *EmergencyHandler {
	return &EmergencyHandler{emergency: emergency, doctors: doctors, log: log}
}

type emergencyAccessRequest struct {
	PatientVHID string `json:"patient_vh_id" binding:"required"`
}

// Access serves a doctor's emergency lookup of a patient by VHealth id.
func (h *EmergencyHandler) Access(c *gin.Context) {
	claims, ok := principal(c)
	if !ok {
		return
	}

	d, err := h.doctors.GetOwnProfile(c.Request.Context(), claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var req emergencyAccessRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.emergency.FetchEmergencyView(c.Request.Context(), req.PatientVHID, d)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, view)
}

// ListPatients returns the high priority roster for the emergency dashboard.
func (h *EmergencyHandler) ListPatients(c *gin.Context) {
	claims, ok := principal(c)
	if !ok {
		return
	}

	if _, err := h.doctors.GetOwnProfile(c.Request.Context(), claims); err != nil {
		respondServiceError(c, err)
		return
	}

	entries, err := h.emergency.ListHighPriorityPatients(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, entries)
}
