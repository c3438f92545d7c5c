// Package store defines the entity-store contract: typed accessors over the
// healthcare collections with single-entity mutations only. Cascading across
// entities is never done here; that is the coordinator's job.
package store

import (
	"context"
	"errors"

	"github.com/caregraph/caregraph/pkg/model"
)

// ErrNotFound is returned when an id does not resolve to an entity.
var ErrNotFound = errors.New("entity not found")

// Store is the contract every backend implements. Mutations touch exactly one
// entity. Atomic runs fn against a transactional view of the store,
// serialized per rootKey: two Atomic calls with the same rootKey never
// interleave, and if fn returns an error every mutation made through its
// view is rolled back.
type Store interface {
	Atomic(ctx context.Context, rootKey string, fn func(tx Store) error) error

	GetAddress(ctx context.Context, id string) (*model.Address, error)
	PutAddress(ctx context.Context, a *model.Address) error
	DeleteAddress(ctx context.Context, id string) error
	// NearbyHospitalAddresses returns addresses with a location and a
	// hospital back-reference within radiusMeters of p, closest first.
	// The boundary is inclusive; ties keep insertion order.
	NearbyHospitalAddresses(ctx context.Context, p model.GeoPoint, radiusMeters float64) ([]model.Address, error)

	GetHospital(ctx context.Context, id string) (*model.Hospital, error)
	GetHospitalByName(ctx context.Context, name string) (*model.Hospital, error)
	ListHospitals(ctx context.Context) ([]model.Hospital, error)
	HospitalsWithDoctor(ctx context.Context, doctorID string) ([]model.Hospital, error)
	HospitalsWithPatient(ctx context.Context, patientID string) ([]model.Hospital, error)
	PutHospital(ctx context.Context, h *model.Hospital) error
	DeleteHospital(ctx context.Context, id string) error

	GetDepartment(ctx context.Context, id string) (*model.Department, error)
	ListDepartmentsByHospital(ctx context.Context, hospitalID string) ([]model.Department, error)
	DepartmentsWithDoctor(ctx context.Context, doctorID string) ([]model.Department, error)
	// FindDepartments returns departments of the given hospitals whose name
	// is in names.
	FindDepartments(ctx context.Context, hospitalIDs []string, names []model.DepartmentCategory) ([]model.Department, error)
	PutDepartment(ctx context.Context, d *model.Department) error
	DeleteDepartment(ctx context.Context, id string) error

	GetDoctor(ctx context.Context, id string) (*model.Doctor, error)
	GetDoctorByUserID(ctx context.Context, userID string) (*model.Doctor, error)
	ListDoctors(ctx context.Context) ([]model.Doctor, error)
	DoctorsWithPatient(ctx context.Context, patientID string) ([]model.Doctor, error)
	PutDoctor(ctx context.Context, d *model.Doctor) error
	DeleteDoctor(ctx context.Context, id string) error

	GetPatient(ctx context.Context, id string) (*model.Patient, error)
	GetPatientByUserID(ctx context.Context, userID string) (*model.Patient, error)
	ListPatients(ctx context.Context) ([]model.Patient, error)
	PutPatient(ctx context.Context, p *model.Patient) error
	DeletePatient(ctx context.Context, id string) error

	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	AppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error)
	AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error)
	AppointmentsByHospital(ctx context.Context, hospitalID string) ([]model.Appointment, error)
	PutAppointment(ctx context.Context, a *model.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error

	GetPrediction(ctx context.Context, id string) (*model.AiPrediction, error)
	ListPredictions(ctx context.Context) ([]model.AiPrediction, error)
	PutPrediction(ctx context.Context, p *model.AiPrediction) error
	DeletePrediction(ctx context.Context, id string) error

	GetUser(ctx context.Context, id string) (*model.User, error)
	PutUser(ctx context.Context, u *model.User) error
}
