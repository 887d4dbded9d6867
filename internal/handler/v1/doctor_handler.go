package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/domain"
	"github.com/vhealth/vhealth-api/internal/domain/doctor"
	"github.com/vhealth/vhealth-api/internal/service"
)

type DoctorHandler struct {
	doctors *service.DoctorService
	auth    *service.AuthService
	log     *zap.Logger
}

func NewDoctorHandler(doctors *service.DoctorService, auth *service.AuthService, log *zap.Logger) *DoctorHandler {
	return &DoctorHandler{doctors: doctors, auth: auth, log: log}
}

type registerDoctorRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`

	Name           string `json:"name" binding:"required"`
	Specialization string `json:"specialization"`
	Hospital       string `json:"hospital"`
	RegistrationNo string `json:"registration_no" binding:"required"`
	ContactNumber  string `json:"contact_number"`
}

func (h *DoctorHandler) Register(c *gin.Context) {
	var req registerDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	account, err := h.auth.CreateAccount(ctx, req.Email, req.Password, domain.RoleDoctor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	d, err := h.doctors.Register(ctx, &doctor.RegisterDoctorCommand{
		AccountID:      account.ID,
		Name:           req.Name,
		Specialization: req.Specialization,
		Hospital:       req.Hospital,
		RegistrationNo: req.RegistrationNo,
		ContactNumber:  req.ContactNumber,
		Email:          req.Email,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.auth.LinkDoctorProfile(ctx, account.ID, d.ID); err != nil {
		h.log.Error("failed to link doctor profile", zap.Error(err))
	}

	respondCreated(c, d)
}

func (h *DoctorHandler) GetProfile(c *gin.Context) {
	claims, ok := principal(c)
	if !ok {
		return
	}

	d, err := h.doctors.GetOwnProfile(c.Request.Context(), claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, d)
}
