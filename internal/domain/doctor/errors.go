package doctor

import "errors"

var (
	ErrDoctorNotFound      = errors.New("doctor profile not found")
	ErrDoctorAlreadyExists = errors.New("a doctor profile already exists for this account")
)
