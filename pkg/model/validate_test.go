package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepartmentCategory(t *testing.T) {
	testCases := []struct {
		in   string
		want DepartmentCategory
		ok   bool
	}{
		{in: "cardiology", want: Cardiology, ok: true},
		{in: "Cardiology", want: Cardiology, ok: true},
		{in: "  SURGERY  ", want: Surgery, ok: true},
		{in: "neurology", want: Neurology, ok: true},
		{in: "astrology", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range testCases {
		got, ok := ParseDepartmentCategory(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got)
		}
	}
}

func TestParseHospitalType(t *testing.T) {
	got, ok := ParseHospitalType(" Private ")
	require.True(t, ok)
	assert.Equal(t, HospitalPrivate, got)

	_, ok = ParseHospitalType("field hospital")
	assert.False(t, ok)
}

func TestParseAppointmentStatus(t *testing.T) {
	for _, s := range []string{"pending", "Scheduled", "COMPLETED", " canceled "} {
		_, ok := ParseAppointmentStatus(s)
		assert.True(t, ok, "status %q", s)
	}
	_, ok := ParseAppointmentStatus("rescheduled")
	assert.False(t, ok)
}

func TestValidate_PostalCode(t *testing.T) {
	base := Address{
		Street: "1 Main St", City: "Testville", State: "TS", Country: "USA",
	}

	for _, code := range []string{"12345", "H-1111", "SW1A 1AA", "08540"} {
		a := base
		a.PostalCode = code
		assert.NoError(t, Validate(a), "postal code %q", code)
	}
	for _, code := range []string{"", "1", "12", "-1234", "abcdefghijk", "12#45"} {
		a := base
		a.PostalCode = code
		assert.Error(t, Validate(a), "postal code %q", code)
	}
}

func TestValidate_Contact(t *testing.T) {
	ok := Contact{Phone: "5550001111", Email: "info@hospital.test"}
	assert.NoError(t, Validate(ok))

	withSite := ok
	withSite.Website = "https://hospital.test"
	assert.NoError(t, Validate(withSite))

	for _, bad := range []Contact{
		{Phone: "555", Email: "info@hospital.test"},
		{Phone: "555000111a", Email: "info@hospital.test"},
		{Phone: "5550001111", Email: "not-an-email"},
		{Phone: "5550001111", Email: "info@hospital.test", Website: "not a url"},
	} {
		assert.Error(t, Validate(bad))
	}
}

func TestValidate_Doctor(t *testing.T) {
	doc := Doctor{
		UserID:         "u1",
		MedicalLicense: "LIC-1",
		AddressID:      "a1",
		Availability: []Availability{
			{Day: Monday, StartTime: "09:00", EndTime: "17:00"},
		},
	}
	assert.NoError(t, Validate(doc))

	noSlots := doc
	noSlots.Availability = nil
	assert.Error(t, Validate(noSlots))

	badDay := doc
	badDay.Availability = []Availability{{Day: "someday", StartTime: "09:00", EndTime: "17:00"}}
	assert.Error(t, Validate(badDay))

	negYears := doc
	negYears.ExperienceYears = -1
	assert.Error(t, Validate(negYears))
}

func TestValidate_PatientEmergencyContact(t *testing.T) {
	p := Patient{
		UserID:         "u1",
		MedicalHistory: "none",
		Allergies:      "none",
		EmergencyContact: EmergencyContact{
			Name: "Next Of Kin", Relation: "spouse", Phone: "5559998888",
		},
	}
	assert.NoError(t, Validate(p))

	badPhone := p
	badPhone.EmergencyContact.Phone = "123"
	assert.Error(t, Validate(badPhone))

	missing := p
	missing.EmergencyContact = EmergencyContact{}
	assert.Error(t, Validate(missing))
}
