// Package onboarding validates the organization sign-up form and decides
// where a freshly verified user lands.
package onboarding

import (
	"errors"
	"regexp"
	"strings"

	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
)

var (
	phonePattern       = regexp.MustCompile(`^\d{10}$`)
	emailPattern       = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	countryCodePattern = regexp.MustCompile(`^\+\d{1,3}$`)
)

// FieldErrors maps form field names to a user-facing message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "onboarding: invalid form"
	}
	// Stable order so the first message shown is predictable.
	for _, field := range []string{"name", "email", "country_code", "phone", "pincode"} {
		if msg, ok := e[field]; ok {
			return msg
		}
	}
	for _, msg := range e {
		return msg
	}
	return ""
}

// ErrInvalidForm is matched by errors.Is for any FieldErrors value.
var ErrInvalidForm = errors.New("onboarding: invalid form")

func (e FieldErrors) Is(target error) bool { return target == ErrInvalidForm }

// OrganizationForm is the sign-up form as the browser submits it. Phone is the
// local ten-digit number; the country code is kept separately.
type OrganizationForm struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Pincode     string `json:"pincode,omitempty"`
}

// Normalize trims every field and fills an empty country code.
func (f OrganizationForm) Normalize(defaultCountryCode string) OrganizationForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.CountryCode = strings.TrimSpace(f.CountryCode)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.City = strings.TrimSpace(f.City)
	f.State = strings.TrimSpace(f.State)
	f.Pincode = strings.TrimSpace(f.Pincode)
	if f.CountryCode == "" {
		f.CountryCode = strings.TrimSpace(defaultCountryCode)
	}
	return f
}

// Validate returns FieldErrors when the form cannot be submitted.
func (f OrganizationForm) Validate() error {
	errs := FieldErrors{}
	if f.Name == "" {
		errs["name"] = "Organization name is required"
	}
	switch {
	case f.Email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(f.Email):
		errs["email"] = "Enter a valid email address"
	}
	if !countryCodePattern.MatchString(f.CountryCode) {
		errs["country_code"] = "Enter a valid country code"
	}
	switch {
	case f.Phone == "":
		errs["phone"] = "Phone number is required"
	case !phonePattern.MatchString(f.Phone):
		errs["phone"] = "Phone number must be 10 digits"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Payload builds the upstream create request. The phone carries the country
// code prefix, e.g. "+91" + "9876543210".
func (f OrganizationForm) Payload() clinikpe.OrganizationInput {
	return clinikpe.OrganizationInput{
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.CountryCode + f.Phone,
		Address: f.Address,
		City:    f.City,
		State:   f.State,
		Pincode: f.Pincode,
		Status:  clinikpe.StatusActive,
	}
}

// LoginPhone validates the phone typed on a login form and returns it in the
// same prefixed form used at sign-up. A number that already carries a "+"
// prefix is passed through when it is otherwise well formed.
func LoginPhone(countryCode, phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		digits := strings.TrimPrefix(phone, "+")
		if len(digits) > 10 && isDigits(digits) {
			return phone, nil
		}
		return "", FieldErrors{"phone": "Enter a valid phone number"}
	}
	countryCode = strings.TrimSpace(countryCode)
	if !countryCodePattern.MatchString(countryCode) {
		return "", FieldErrors{"country_code": "Enter a valid country code"}
	}
	if !phonePattern.MatchString(phone) {
		return "", FieldErrors{"phone": "Phone number must be 10 digits"}
	}
	return countryCode + phone, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ValidEmail reports whether s looks like an e-mail address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}
