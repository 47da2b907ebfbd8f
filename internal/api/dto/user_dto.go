package dto

import (
	"github.com/spec-kit/donor-registry/internal/domain"
	"github.com/spec-kit/donor-registry/internal/service"
)

// RegisterRequest payload for new users. Field names follow the
// registration form.
type RegisterRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	BloodGroup      string `json:"bloodGroup"`
	City            string `json:"city"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AcceptTerms     bool   `json:"acceptTerms"`
}

// ToInput converts the payload into service input.
func (r RegisterRequest) ToInput() service.RegistrationInput {
	return service.RegistrationInput{
		FullName:        r.FullName,
		Email:           r.Email,
		Phone:           r.Phone,
		BloodGroup:      r.BloodGroup,
		City:            r.City,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
		AcceptTerms:     r.AcceptTerms,
	}
}

// UserResponse is a user record as returned over HTTP. It never carries
// password material.
type UserResponse struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	BloodGroup string `json:"bloodGroup"`
	Location   string `json:"location"`
}

// NewUserResponse maps a domain record.
func NewUserResponse(rec domain.UserRecord) UserResponse {
	return UserResponse{
		FullName:   rec.FullName,
		Email:      rec.Email,
		Phone:      rec.Phone,
		BloodGroup: string(rec.BloodGroup),
		Location:   rec.Location,
	}
}

// NewUserResponses maps a list of records.
func NewUserResponses(records []domain.UserRecord) []UserResponse {
	out := make([]UserResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, NewUserResponse(rec))
	}
	return out
}
