package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/donor-registry/internal/domain"
)

const (
	minPhoneDigits    = 10
	maxPhoneDigits    = 15
	minPasswordLength = 8
	// bcrypt rejects longer input
	maxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegistrationInput carries raw form values.
type RegistrationInput struct {
	FullName        string
	Email           string
	Phone           string
	BloodGroup      string
	City            string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

// FieldErrors maps a form field to its first validation message.
type FieldErrors map[string]string

func (f FieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f FieldErrors) details() map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Validate checks every rule and returns the normalized record, with the
// password still in plain text, or the collected field errors.
func (in RegistrationInput) Validate() (domain.UserRecord, FieldErrors) {
	errs := FieldErrors{}

	name := strings.TrimSpace(in.FullName)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)
	city := strings.TrimSpace(in.City)

	required := map[string]string{
		"fullName":   name,
		"email":      email,
		"phone":      phone,
		"bloodGroup": strings.TrimSpace(in.BloodGroup),
		"city":       city,
		"password":   in.Password,
	}
	for field, v := range required {
		if v == "" {
			errs.add(field, "required")
		}
	}

	for field, v := range map[string]string{"fullName": name, "email": email, "phone": phone, "city": city, "password": in.Password} {
		if strings.ContainsAny(v, "\r\n") {
			errs.add(field, "must be a single line")
		}
	}

	if email != "" && !emailPattern.MatchString(email) {
		errs.add("email", "invalid email address")
	}

	if phone != "" {
		if n := countDigits(phone); n < minPhoneDigits || n > maxPhoneDigits {
			errs.add("phone", "phone number must have 10 to 15 digits")
		}
	}

	group, err := domain.ParseBloodGroup(in.BloodGroup)
	if in.BloodGroup != "" && err != nil {
		errs.add("bloodGroup", "unknown blood group")
	}

	if in.Password != "" && utf8.RuneCountInString(in.Password) < minPasswordLength {
		errs.add("password", "password must be at least 8 characters")
	}
	if len(in.Password) > maxPasswordBytes {
		errs.add("password", "password must be at most 72 bytes")
	}
	if in.Password != in.ConfirmPassword {
		errs.add("confirmPassword", "passwords do not match")
	}

	if !in.AcceptTerms {
		errs.add("acceptTerms", "terms must be accepted")
	}

	if len(errs) > 0 {
		return domain.UserRecord{}, errs
	}
	return domain.UserRecord{
		FullName:   name,
		Email:      email,
		Phone:      phone,
		BloodGroup: group,
		Location:   city,
		Password:   in.Password,
	}, nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
