package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/store"
	"github.com/caregraph/caregraph/pkg/model"
)

// Shared fixtures for the coordinator tests. Everything runs against the
// in-memory store.

var (
	adminActor = Actor{UserID: "u-admin", Role: model.RoleAdmin}
)

func testLogger() *zap.Logger { return zap.NewNop() }

func newTestStore(t *testing.T) *store.Memory {
	t.Helper()
	st := store.NewMemory()
	ctx := context.Background()

	users := []model.User{
		{ID: "u-admin", FullName: "Ada Admin", Email: "ada@caregraph.test", Phone: "1000000000", Role: model.RoleAdmin},
		{ID: "u-doc1", FullName: "Greg House", Email: "house@caregraph.test", Phone: "1000000001", Role: model.RoleDoctor},
		{ID: "u-doc2", FullName: "James Wilson", Email: "wilson@caregraph.test", Phone: "1000000002", Role: model.RoleDoctor},
		{ID: "u-pat1", FullName: "Rebecca Adler", Email: "adler@caregraph.test", Phone: "1000000003", Role: model.RolePatient},
		{ID: "u-pat2", FullName: "John Henry", Email: "henry@caregraph.test", Phone: "1000000004", Role: model.RolePatient},
	}
	for i := range users {
		require.NoError(t, st.PutUser(ctx, &users[i]))
	}
	return st
}

func newTestUser(id string, role model.Role) *model.User {
	return &model.User{
		ID:       id,
		FullName: "Test " + id,
		Email:    id + "@caregraph.test",
		Phone:    "1999999999",
		Role:     role,
	}
}

func doctorActor(userID string) Actor  { return Actor{UserID: userID, Role: model.RoleDoctor} }
func patientActor(userID string) Actor { return Actor{UserID: userID, Role: model.RolePatient} }

func validAddressInput() *AddressInput {
	return &AddressInput{
		Street:     "1 Main St",
		City:       "Princeton",
		State:      "NJ",
		Country:    "USA",
		PostalCode: "08540",
	}
}

func validAvailability() []model.Availability {
	return []model.Availability{
		{Day: model.Monday, StartTime: "09:00", EndTime: "17:00"},
	}
}

func validContact() model.Contact {
	return model.Contact{Phone: "5550001111", Email: "info@hospital.test"}
}

func registerTestDoctor(t *testing.T, svc *DoctorService, userID string) *model.Doctor {
	t.Helper()
	doc, err := svc.Register(context.Background(), doctorActor(userID), RegisterDoctorInput{
		Specialization:  "cardiology",
		MedicalLicense:  "LIC-" + userID,
		ExperienceYears: 5,
		Availability:    validAvailability(),
		Address:         validAddressInput(),
	})
	require.NoError(t, err)
	return doc
}

func registerTestPatient(t *testing.T, svc *PatientService, userID string) *model.Patient {
	t.Helper()
	p, err := svc.Register(context.Background(), patientActor(userID), RegisterPatientInput{
		MedicalHistory: "none",
		Allergies:      "none",
		EmergencyContact: model.EmergencyContact{
			Name: "Next Of Kin", Relation: "spouse", Phone: "5559998888",
		},
		Address: validAddressInput(),
	})
	require.NoError(t, err)
	return p
}

// fixture is the fully wired service set over one shared store.
type fixture struct {
	store        *store.Memory
	hospitals    *HospitalService
	doctors      *DoctorService
	patients     *PatientService
	appointments *AppointmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newTestStore(t)
	logger := testLogger()
	timeout := 5 * time.Second
	return &fixture{
		store:        st,
		hospitals:    NewHospitalService(st, timeout, logger),
		doctors:      NewDoctorService(st, timeout, logger),
		patients:     NewPatientService(st, timeout, logger),
		appointments: NewAppointmentService(st, timeout, logger),
	}
}

// buildHospitalGraph registers two doctors and a patient, creates a hospital
// with one cardiology department headed by doc1, and books one appointment.
func buildHospitalGraph(t *testing.T, f *fixture) (hospital *model.Hospital, doc1, doc2 *model.Doctor, patient *model.Patient, appt *model.Appointment) {
	t.Helper()
	ctx := context.Background()

	doc1 = registerTestDoctor(t, f.doctors, "u-doc1")
	doc2 = registerTestDoctor(t, f.doctors, "u-doc2")
	patient = registerTestPatient(t, f.patients, "u-pat1")

	var err error
	hospital, err = f.hospitals.Create(ctx, adminActor, CreateHospitalInput{
		Name:    "Princeton General",
		Type:    "private",
		Contact: validContact(),
		Address: &AddressInput{
			Street: "2 Hospital Way", City: "Princeton", State: "NJ",
			Country: "USA", PostalCode: "08541",
			Location: &model.GeoPoint{Lon: -74.66, Lat: 40.35},
		},
		Departments: []DepartmentInput{
			{Name: "Cardiology", HeadDoctorID: doc1.ID, DoctorIDs: []string{doc2.ID}},
		},
	})
	require.NoError(t, err)

	appt, err = f.appointments.Create(ctx, patientActor("u-pat1"), CreateAppointmentInput{
		DoctorID:        doc1.ID,
		HospitalID:      hospital.ID,
		AppointmentDate: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	return hospital, doc1, doc2, patient, appt
}
