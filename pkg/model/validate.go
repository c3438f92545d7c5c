package model

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// Loose enough for international codes: 3-10 letters, digits, spaces, dashes.
var postalCodeRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\- ]{2,9}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("postalcode", func(fl validator.FieldLevel) bool {
		return postalCodeRe.MatchString(fl.Field().String())
	})
	return v
}

// Validate runs struct-tag validation against any model value.
func Validate(s any) error {
	return validate.Struct(s)
}

// NormalizeCategory applies the department-name normalization rule:
// trim then lowercase.
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseDepartmentCategory normalizes and validates a category name.
func ParseDepartmentCategory(name string) (DepartmentCategory, bool) {
	normalized := DepartmentCategory(NormalizeCategory(name))
	for _, c := range DepartmentCategories {
		if c == normalized {
			return c, true
		}
	}
	return "", false
}

// ParseHospitalType normalizes and validates a hospital type.
func ParseHospitalType(s string) (HospitalType, bool) {
	t := HospitalType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case HospitalPrivate, HospitalGovernment, HospitalClinic, HospitalSpecialty:
		return t, true
	}
	return "", false
}

// ParseAppointmentStatus validates a lifecycle state.
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	st := AppointmentStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case AppointmentPending, AppointmentScheduled, AppointmentCompleted, AppointmentCanceled:
		return st, true
	}
	return "", false
}
