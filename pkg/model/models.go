package model

import "time"

// Role identifies what a user is allowed to do
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// HospitalType classifies a facility
type HospitalType string

const (
	HospitalPrivate    HospitalType = "private"
	HospitalGovernment HospitalType = "government"
	HospitalClinic     HospitalType = "clinic"
	HospitalSpecialty  HospitalType = "specialty"
)

// DepartmentCategory is the fixed set of medical specialties. It is used both
// as a department name and as a doctor's specialization tag.
type DepartmentCategory string

const (
	Cardiology       DepartmentCategory = "cardiology"
	Dermatology      DepartmentCategory = "dermatology"
	Endocrinology    DepartmentCategory = "endocrinology"
	Gastroenterology DepartmentCategory = "gastroenterology"
	Neurology        DepartmentCategory = "neurology"
	Oncology         DepartmentCategory = "oncology"
	Pediatrics       DepartmentCategory = "pediatrics"
	Psychiatry       DepartmentCategory = "psychiatry"
	Radiology        DepartmentCategory = "radiology"
	Surgery          DepartmentCategory = "surgery"
)

// DepartmentCategories lists every valid category.
var DepartmentCategories = []DepartmentCategory{
	Cardiology, Dermatology, Endocrinology, Gastroenterology, Neurology,
	Oncology, Pediatrics, Psychiatry, Radiology, Surgery,
}

// AppointmentStatus is the appointment lifecycle state.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCanceled  AppointmentStatus = "canceled"
)

// Weekday is a lowercase day name used in doctor availability.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// GeoPoint is a WGS84 coordinate pair, longitude first.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Address is a postal address. At most one of the owning references
// (DoctorID, PatientID, HospitalID) is set; an address with a location and a
// HospitalID participates in nearest-facility search.
type Address struct {
	ID           string    `json:"id"`
	Street       string    `json:"street" validate:"required"`
	City         string    `json:"city" validate:"required"`
	State        string    `json:"state" validate:"required"`
	Country      string    `json:"country" validate:"required"`
	PostalCode   string    `json:"postal_code" validate:"required,postalcode"`
	Location     *GeoPoint `json:"location,omitempty"`
	DoctorID     string    `json:"doctor_id,omitempty"`
	PatientID    string    `json:"patient_id,omitempty"`
	HospitalID   string    `json:"hospital_id,omitempty"`
	DepartmentID string    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Contact is a hospital's contact block.
type Contact struct {
	Phone   string `json:"phone" validate:"required,len=10,numeric"`
	Email   string `json:"email" validate:"required,email"`
	Website string `json:"website,omitempty" validate:"omitempty,url"`
}

// Hospital is an aggregate root. DoctorIDs is maintained as the union of all
// doctor ids across its departments; PatientIDs tracks patients with at least
// one appointment here.
type Hospital struct {
	ID            string       `json:"id"`
	Name          string       `json:"name" validate:"required"`
	Type          HospitalType `json:"type" validate:"required,oneof=private government clinic specialty"`
	Contact       Contact      `json:"contact"`
	AddressID     string       `json:"address_id,omitempty"`
	DoctorIDs     []string     `json:"doctor_ids"`
	DepartmentIDs []string     `json:"department_ids"`
	PatientIDs    []string     `json:"patient_ids"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Department belongs to exactly one hospital. HeadDoctorID is always a member
// of DoctorIDs; names are unique per hospital after normalization.
type Department struct {
	ID           string             `json:"id"`
	Name         DepartmentCategory `json:"name"`
	HeadDoctorID string             `json:"head_doctor_id,omitempty"`
	DoctorIDs    []string           `json:"doctor_ids"`
	HospitalID   string             `json:"hospital_id"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Availability is one recurring slot of a doctor's weekly schedule.
type Availability struct {
	Day       Weekday `json:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
}

// Doctor is a doctor profile. HospitalAffiliation is a denormalized cache of
// the affiliated hospital's name, maintained only by the coordinator.
type Doctor struct {
	ID                  string             `json:"id"`
	UserID              string             `json:"user_id" validate:"required"`
	Specialization      DepartmentCategory `json:"specialization"`
	MedicalLicense      string             `json:"medical_license" validate:"required"`
	ExperienceYears     int                `json:"experience_years" validate:"gte=0"`
	HospitalAffiliation string             `json:"hospital_affiliation,omitempty"`
	Availability        []Availability     `json:"availability" validate:"required,min=1,dive"`
	AddressID           string             `json:"address_id" validate:"required"`
	Rating              float64            `json:"rating,omitempty"`
	PatientIDs          []string           `json:"patient_ids"`
	AppointmentIDs      []string           `json:"appointment_ids"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// EmergencyContact is a patient's emergency contact.
type EmergencyContact struct {
	Name     string `json:"name" validate:"required"`
	Relation string `json:"relation" validate:"required"`
	Phone    string `json:"phone" validate:"required,len=10,numeric"`
}

// Patient is a patient profile, one per user.
type Patient struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id" validate:"required"`
	MedicalHistory     string           `json:"medical_history" validate:"required"`
	Allergies          string           `json:"allergies" validate:"required"`
	PredictionIDs      []string         `json:"prediction_ids"`
	EmergencyContact   EmergencyContact `json:"emergency_contact"`
	AddressID          string           `json:"address_id,omitempty"`
	HospitalID         string           `json:"hospital_id,omitempty"`
	CurrentMedications []string         `json:"current_medications"`
	AppointmentIDs     []string         `json:"appointment_ids"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Appointment links a patient, a doctor and a hospital. The doctor's
// affiliation must match the hospital's name at creation time.
type Appointment struct {
	ID              string            `json:"id"`
	PatientID       string            `json:"patient_id"`
	DoctorID        string            `json:"doctor_id"`
	HospitalID      string            `json:"hospital_id"`
	UserID          string            `json:"user_id"`
	AppointmentDate time.Time         `json:"appointment_date"`
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// AiPrediction is an append-only record of one disease prediction, attached
// to exactly one patient.
type AiPrediction struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	PredictedDisease string    `json:"predicted_disease"`
	Description      string    `json:"description"`
	Precautions      []string  `json:"precautions"`
	Medications      []string  `json:"medications"`
	Workout          []string  `json:"workout"`
	Diets            []string  `json:"diets"`
	CreatedAt        time.Time `json:"created_at"`
}

// User carries the identity fields the graph needs for population; credential
// handling lives outside this service.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name" validate:"required,min=2"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone" validate:"required,len=10,numeric"`
	Role      Role      `json:"role" validate:"required,oneof=admin doctor patient"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
