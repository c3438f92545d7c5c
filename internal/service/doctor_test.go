package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caregraph/caregraph/pkg/model"
)

func TestDoctorRegister_CreatesProfileAndAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := registerTestDoctor(t, f.doctors, "u-doc1")
	assert.Equal(t, "u-doc1", doc.UserID)
	assert.Empty(t, doc.HospitalAffiliation)

	addr, err := f.store.GetAddress(ctx, doc.AddressID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, addr.DoctorID)
}

func TestDoctorRegister_SecondProfileConflicts(t *testing.T) {
	f := newFixture(t)

	registerTestDoctor(t, f.doctors, "u-doc1")
	_, err := f.doctors.Register(context.Background(), doctorActor("u-doc1"), RegisterDoctorInput{
		Specialization: "surgery",
		MedicalLicense: "LIC-2",
		Availability:   validAvailability(),
		Address:        validAddressInput(),
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestDoctorRegister_PatientRoleRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.doctors.Register(context.Background(), patientActor("u-pat1"), RegisterDoctorInput{
		Specialization: "cardiology",
		MedicalLicense: "LIC-X",
		Availability:   validAvailability(),
		Address:        validAddressInput(),
	})
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestDoctorRegister_UnknownSpecializationRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.doctors.Register(context.Background(), doctorActor("u-doc1"), RegisterDoctorInput{
		Specialization: "phrenology",
		MedicalLicense: "LIC-X",
		Availability:   validAvailability(),
		Address:        validAddressInput(),
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestDoctorRegister_JoinsHospitalWithoutAffiliation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hospital, _, _, _, _ := buildHospitalGraph(t, f)

	// A fresh doctor joining a hospital gets into its doctor set, but the
	// affiliation cache is only written once a department lists them.
	require.NoError(t, f.store.PutUser(ctx, newTestUser("u-doc3", model.RoleDoctor)))
	doc3, err := f.doctors.Register(ctx, doctorActor("u-doc3"), RegisterDoctorInput{
		Specialization: "neurology",
		MedicalLicense: "LIC-u-doc3",
		Availability:   validAvailability(),
		Address:        validAddressInput(),
		HospitalID:     hospital.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, doc3.HospitalAffiliation)

	h, err := f.store.GetHospital(ctx, hospital.ID)
	require.NoError(t, err)
	assert.Contains(t, h.DoctorIDs, doc3.ID)
}

func TestDoctorUpdate_OwnerAndAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := registerTestDoctor(t, f.doctors, "u-doc1")

	years := 12
	updated, err := f.doctors.Update(ctx, doctorActor("u-doc1"), doc.ID, UpdateDoctorInput{
		ExperienceYears: &years,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.ExperienceYears)

	_, err = f.doctors.Update(ctx, doctorActor("u-doc2"), doc.ID, UpdateDoctorInput{
		MedicalLicense: "STOLEN",
	})
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)

	updated, err = f.doctors.Update(ctx, adminActor, doc.ID, UpdateDoctorInput{
		Specialization: "surgery",
	})
	require.NoError(t, err)
	assert.Equal(t, "surgery", string(updated.Specialization))
}

func TestDoctorSetRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := registerTestDoctor(t, f.doctors, "u-doc1")

	updated, err := f.doctors.SetRating(ctx, adminActor, doc.ID, 4.5)
	require.NoError(t, err)
	assert.Equal(t, 4.5, updated.Rating)

	// Bounds are inclusive 1..5.
	for _, bad := range []float64{0, 0.9, 5.1, -1} {
		_, err := f.doctors.SetRating(ctx, adminActor, doc.ID, bad)
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr, "rating %v", bad)
	}

	// Doctors cannot rate, not even themselves.
	_, err = f.doctors.SetRating(ctx, doctorActor("u-doc1"), doc.ID, 5)
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestDoctorDelete_DetachesEveryReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hospital, doc1, doc2, patient, appt := buildHospitalGraph(t, f)

	warn, err := f.doctors.Delete(ctx, adminActor, doc1.ID)
	require.NoError(t, err)
	assert.Nil(t, warn)

	_, err = f.store.GetDoctor(ctx, doc1.ID)
	require.Error(t, err)
	_, err = f.store.GetAddress(ctx, doc1.AddressID)
	require.Error(t, err)

	// The appointment with doc1 is gone and the patient side was pulled.
	_, err = f.store.GetAppointment(ctx, appt.ID)
	require.Error(t, err)
	p, err := f.store.GetPatient(ctx, patient.ID)
	require.NoError(t, err)
	assert.NotContains(t, p.AppointmentIDs, appt.ID)

	// The department loses its head without promoting anyone.
	depts, err := f.store.ListDepartmentsByHospital(ctx, hospital.ID)
	require.NoError(t, err)
	require.Len(t, depts, 1)
	assert.Empty(t, depts[0].HeadDoctorID)
	assert.NotContains(t, depts[0].DoctorIDs, doc1.ID)
	assert.Contains(t, depts[0].DoctorIDs, doc2.ID)

	h, err := f.store.GetHospital(ctx, hospital.ID)
	require.NoError(t, err)
	assert.NotContains(t, h.DoctorIDs, doc1.ID)
	assert.Contains(t, h.DoctorIDs, doc2.ID)
}

func TestDoctorDelete_OwnerMayDeleteOwnProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := registerTestDoctor(t, f.doctors, "u-doc1")

	_, err := f.doctors.Delete(ctx, doctorActor("u-doc2"), doc.ID)
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)

	_, err = f.doctors.Delete(ctx, doctorActor("u-doc1"), doc.ID)
	require.NoError(t, err)
	_, err = f.store.GetDoctor(ctx, doc.ID)
	require.Error(t, err)
}

func TestDoctorGetMyProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := registerTestDoctor(t, f.doctors, "u-doc1")

	view, err := f.doctors.GetMyProfile(ctx, doctorActor("u-doc1"))
	require.NoError(t, err)
	assert.Equal(t, doc.ID, view.Doctor.ID)
	assert.Equal(t, "Greg House", view.FullName)
	require.NotNil(t, view.Address)

	_, err = f.doctors.GetMyProfile(ctx, doctorActor("u-doc2"))
	assert.True(t, IsNotFound(err))
}
