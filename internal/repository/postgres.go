// Package repository is the Postgres backend of the entity store. Atomic
// scopes map to transactions serialized per aggregate root with advisory
// locks.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/security"
	"github.com/caregraph/caregraph/internal/store"
	"github.com/caregraph/caregraph/pkg/model"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Postgres implements store.Store over a pgx connection pool.
type Postgres struct {
	db     querier
	pool   *pgxpool.Pool
	enc    *security.Encryptor
	logger *zap.Logger
}

var _ store.Store = (*Postgres)(nil)

// NewPostgres creates a Postgres store.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{db: pool, pool: pool, logger: logger}
}

// WithEncryptor enables at-rest encryption of patient medical history and
// allergy text.
func (p *Postgres) WithEncryptor(enc *security.Encryptor) *Postgres {
	p.enc = enc
	return p
}

// Atomic runs fn in one transaction holding an advisory lock on rootKey, so
// cascades on the same aggregate root serialize across all connections. The
// transaction rolls back if fn errors. Nested scopes are not supported.
func (p *Postgres) Atomic(ctx context.Context, rootKey string, fn func(tx store.Store) error) error {
	if p.pool == nil {
		return fmt.Errorf("nested atomic scopes are not supported")
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rootKey); err != nil {
		return fmt.Errorf("failed to lock root %s: %w", rootKey, err)
	}
	if err := fn(&Postgres{db: tx, enc: p.enc, logger: p.logger}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// Address

const addressColumns = `id, street, city, state, country, postal_code, lon, lat,
	doctor_id, patient_id, hospital_id, department_id, created_at, updated_at`

func scanAddress(row scanner) (*model.Address, error) {
	var a model.Address
	var lon, lat *float64
	err := row.Scan(
		&a.ID, &a.Street, &a.City, &a.State, &a.Country, &a.PostalCode,
		&lon, &lat,
		&a.DoctorID, &a.PatientID, &a.HospitalID, &a.DepartmentID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lon != nil && lat != nil {
		a.Location = &model.GeoPoint{Lon: *lon, Lat: *lat}
	}
	return &a, nil
}

func (p *Postgres) GetAddress(ctx context.Context, id string) (*model.Address, error) {
	row := p.db.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id)
	a, err := scanAddress(row)
	if err != nil {
		return nil, notFoundOr(err, "address")
	}
	return a, nil
}

func (p *Postgres) PutAddress(ctx context.Context, a *model.Address) error {
	var lon, lat *float64
	if a.Location != nil {
		lon, lat = &a.Location.Lon, &a.Location.Lat
	}
	_, err := p.db.Exec(ctx, `
		INSERT INTO addresses (id, street, city, state, country, postal_code, lon, lat,
			doctor_id, patient_id, hospital_id, department_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			street = EXCLUDED.street, city = EXCLUDED.city, state = EXCLUDED.state,
			country = EXCLUDED.country, postal_code = EXCLUDED.postal_code,
			lon = EXCLUDED.lon, lat = EXCLUDED.lat,
			doctor_id = EXCLUDED.doctor_id, patient_id = EXCLUDED.patient_id,
			hospital_id = EXCLUDED.hospital_id, department_id = EXCLUDED.department_id,
			updated_at = EXCLUDED.updated_at
	`, a.ID, a.Street, a.City, a.State, a.Country, a.PostalCode, lon, lat,
		a.DoctorID, a.PatientID, a.HospitalID, a.DepartmentID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		p.logger.Error("failed to put address", zap.Error(err), zap.String("address_id", a.ID))
		return fmt.Errorf("failed to put address: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteAddress(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// NearbyHospitalAddresses runs the haversine great-circle distance in SQL.
// The boundary is inclusive; ties break on insertion order.
func (p *Postgres) NearbyHospitalAddresses(ctx context.Context, origin model.GeoPoint, radiusMeters float64) ([]model.Address, error) {
	rows, err := p.db.Query(ctx, `
		WITH candidates AS (
			SELECT `+addressColumns+`, seq,
				2 * 6371000 * asin(least(1, sqrt(
					power(sin(radians(lat - $2) / 2), 2) +
					cos(radians($2)) * cos(radians(lat)) *
					power(sin(radians(lon - $1) / 2), 2)
				))) AS distance_m
			FROM addresses
			WHERE hospital_id <> '' AND lon IS NOT NULL AND lat IS NOT NULL
		)
		SELECT `+addressColumns+`
		FROM candidates
		WHERE distance_m <= $3
		ORDER BY distance_m ASC, seq ASC
	`, origin.Lon, origin.Lat, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby addresses: %w", err)
	}
	defer rows.Close()

	var out []model.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			p.logger.Error("failed to scan address", zap.Error(err))
			continue
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}
	return out, nil
}

// Hospital

const hospitalColumns = `id, name, type, phone, email, website, address_id,
	doctor_ids, department_ids, patient_ids, created_at, updated_at`

func scanHospital(row scanner) (*model.Hospital, error) {
	var h model.Hospital
	err := row.Scan(
		&h.ID, &h.Name, &h.Type, &h.Contact.Phone, &h.Contact.Email, &h.Contact.Website,
		&h.AddressID, &h.DoctorIDs, &h.DepartmentIDs, &h.PatientIDs,
		&h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (p *Postgres) GetHospital(ctx context.Context, id string) (*model.Hospital, error) {
	row := p.db.QueryRow(ctx, `SELECT `+hospitalColumns+` FROM hospitals WHERE id = $1`, id)
	h, err := scanHospital(row)
	if err != nil {
		return nil, notFoundOr(err, "hospital")
	}
	return h, nil
}

func (p *Postgres) GetHospitalByName(ctx context.Context, name string) (*model.Hospital, error) {
	row := p.db.QueryRow(ctx, `SELECT `+hospitalColumns+` FROM hospitals WHERE LOWER(name) = LOWER($1)`, name)
	h, err := scanHospital(row)
	if err != nil {
		return nil, notFoundOr(err, "hospital")
	}
	return h, nil
}

func (p *Postgres) hospitalsWhere(ctx context.Context, where string, args ...any) ([]model.Hospital, error) {
	rows, err := p.db.Query(ctx, `SELECT `+hospitalColumns+` FROM hospitals `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hospitals: %w", err)
	}
	defer rows.Close()

	var out []model.Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			p.logger.Error("failed to scan hospital", zap.Error(err))
			continue
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hospitals: %w", err)
	}
	return out, nil
}

func (p *Postgres) ListHospitals(ctx context.Context) ([]model.Hospital, error) {
	return p.hospitalsWhere(ctx, ``)
}

func (p *Postgres) HospitalsWithDoctor(ctx context.Context, doctorID string) ([]model.Hospital, error) {
	return p.hospitalsWhere(ctx, `WHERE $1 = ANY(doctor_ids)`, doctorID)
}

func (p *Postgres) HospitalsWithPatient(ctx context.Context, patientID string) ([]model.Hospital, error) {
	return p.hospitalsWhere(ctx, `WHERE $1 = ANY(patient_ids)`, patientID)
}

func (p *Postgres) PutHospital(ctx context.Context, h *model.Hospital) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO hospitals (id, name, type, phone, email, website, address_id,
			doctor_ids, department_ids, patient_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, type = EXCLUDED.type,
			phone = EXCLUDED.phone, email = EXCLUDED.email, website = EXCLUDED.website,
			address_id = EXCLUDED.address_id,
			doctor_ids = EXCLUDED.doctor_ids, department_ids = EXCLUDED.department_ids,
			patient_ids = EXCLUDED.patient_ids,
			updated_at = EXCLUDED.updated_at
	`, h.ID, h.Name, h.Type, h.Contact.Phone, h.Contact.Email, h.Contact.Website,
		h.AddressID, h.DoctorIDs, h.DepartmentIDs, h.PatientIDs, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		p.logger.Error("failed to put hospital", zap.Error(err), zap.String("hospital_id", h.ID))
		return fmt.Errorf("failed to put hospital: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteHospital(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM hospitals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete hospital: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Department

const departmentColumns = `id, name, head_doctor_id, doctor_ids, hospital_id, created_at, updated_at`

func scanDepartment(row scanner) (*model.Department, error) {
	var d model.Department
	err := row.Scan(&d.ID, &d.Name, &d.HeadDoctorID, &d.DoctorIDs, &d.HospitalID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (p *Postgres) GetDepartment(ctx context.Context, id string) (*model.Department, error) {
	row := p.db.QueryRow(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id)
	d, err := scanDepartment(row)
	if err != nil {
		return nil, notFoundOr(err, "department")
	}
	return d, nil
}

func (p *Postgres) departmentsWhere(ctx context.Context, where string, args ...any) ([]model.Department, error) {
	rows, err := p.db.Query(ctx, `SELECT `+departmentColumns+` FROM departments `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var out []model.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			p.logger.Error("failed to scan department", zap.Error(err))
			continue
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating departments: %w", err)
	}
	return out, nil
}

func (p *Postgres) ListDepartmentsByHospital(ctx context.Context, hospitalID string) ([]model.Department, error) {
	return p.departmentsWhere(ctx, `WHERE hospital_id = $1`, hospitalID)
}

func (p *Postgres) DepartmentsWithDoctor(ctx context.Context, doctorID string) ([]model.Department, error) {
	return p.departmentsWhere(ctx, `WHERE $1 = ANY(doctor_ids) OR head_doctor_id = $1`, doctorID)
}

func (p *Postgres) FindDepartments(ctx context.Context, hospitalIDs []string, names []model.DepartmentCategory) ([]model.Department, error) {
	nameStrs := make([]string, len(names))
	for i, n := range names {
		nameStrs[i] = string(n)
	}
	return p.departmentsWhere(ctx, `WHERE hospital_id = ANY($1) AND name = ANY($2)`, hospitalIDs, nameStrs)
}

func (p *Postgres) PutDepartment(ctx context.Context, d *model.Department) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO departments (id, name, head_doctor_id, doctor_ids, hospital_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, head_doctor_id = EXCLUDED.head_doctor_id,
			doctor_ids = EXCLUDED.doctor_ids, hospital_id = EXCLUDED.hospital_id,
			updated_at = EXCLUDED.updated_at
	`, d.ID, d.Name, d.HeadDoctorID, d.DoctorIDs, d.HospitalID, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		p.logger.Error("failed to put department", zap.Error(err), zap.String("department_id", d.ID))
		return fmt.Errorf("failed to put department: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteDepartment(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Doctor

const doctorColumns = `id, user_id, specialization, medical_license, experience_years,
	hospital_affiliation, availability, address_id, rating, patient_ids, appointment_ids,
	created_at, updated_at`

func scanDoctor(row scanner) (*model.Doctor, error) {
	var d model.Doctor
	var availability []byte
	err := row.Scan(
		&d.ID, &d.UserID, &d.Specialization, &d.MedicalLicense, &d.ExperienceYears,
		&d.HospitalAffiliation, &availability, &d.AddressID, &d.Rating,
		&d.PatientIDs, &d.AppointmentIDs, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(availability, &d.Availability); err != nil {
		return nil, fmt.Errorf("failed to decode availability: %w", err)
	}
	return &d, nil
}

func (p *Postgres) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	row := p.db.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	d, err := scanDoctor(row)
	if err != nil {
		return nil, notFoundOr(err, "doctor")
	}
	return d, nil
}

func (p *Postgres) GetDoctorByUserID(ctx context.Context, userID string) (*model.Doctor, error) {
	row := p.db.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE user_id = $1`, userID)
	d, err := scanDoctor(row)
	if err != nil {
		return nil, notFoundOr(err, "doctor")
	}
	return d, nil
}

func (p *Postgres) doctorsWhere(ctx context.Context, where string, args ...any) ([]model.Doctor, error) {
	rows, err := p.db.Query(ctx, `SELECT `+doctorColumns+` FROM doctors `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()

	var out []model.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			p.logger.Error("failed to scan doctor", zap.Error(err))
			continue
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating doctors: %w", err)
	}
	return out, nil
}

func (p *Postgres) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	return p.doctorsWhere(ctx, ``)
}

func (p *Postgres) DoctorsWithPatient(ctx context.Context, patientID string) ([]model.Doctor, error) {
	return p.doctorsWhere(ctx, `WHERE $1 = ANY(patient_ids)`, patientID)
}

func (p *Postgres) PutDoctor(ctx context.Context, d *model.Doctor) error {
	availability, err := json.Marshal(d.Availability)
	if err != nil {
		return fmt.Errorf("failed to encode availability: %w", err)
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO doctors (id, user_id, specialization, medical_license, experience_years,
			hospital_affiliation, availability, address_id, rating, patient_ids, appointment_ids,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id, specialization = EXCLUDED.specialization,
			medical_license = EXCLUDED.medical_license, experience_years = EXCLUDED.experience_years,
			hospital_affiliation = EXCLUDED.hospital_affiliation,
			availability = EXCLUDED.availability, address_id = EXCLUDED.address_id,
			rating = EXCLUDED.rating, patient_ids = EXCLUDED.patient_ids,
			appointment_ids = EXCLUDED.appointment_ids,
			updated_at = EXCLUDED.updated_at
	`, d.ID, d.UserID, d.Specialization, d.MedicalLicense, d.ExperienceYears,
		d.HospitalAffiliation, availability, d.AddressID, d.Rating, d.PatientIDs,
		d.AppointmentIDs, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		p.logger.Error("failed to put doctor", zap.Error(err), zap.String("doctor_id", d.ID))
		return fmt.Errorf("failed to put doctor: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteDoctor(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Patient

const patientColumns = `id, user_id, medical_history, allergies, prediction_ids,
	emergency_name, emergency_relation, emergency_phone, address_id, hospital_id,
	current_medications, appointment_ids, created_at, updated_at`

func (p *Postgres) scanPatient(row scanner) (*model.Patient, error) {
	var pt model.Patient
	err := row.Scan(
		&pt.ID, &pt.UserID, &pt.MedicalHistory, &pt.Allergies, &pt.PredictionIDs,
		&pt.EmergencyContact.Name, &pt.EmergencyContact.Relation, &pt.EmergencyContact.Phone,
		&pt.AddressID, &pt.HospitalID, &pt.CurrentMedications, &pt.AppointmentIDs,
		&pt.CreatedAt, &pt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.enc != nil {
		if pt.MedicalHistory, err = p.enc.Decrypt(pt.MedicalHistory); err != nil {
			return nil, fmt.Errorf("failed to decrypt medical history: %w", err)
		}
		if pt.Allergies, err = p.enc.Decrypt(pt.Allergies); err != nil {
			return nil, fmt.Errorf("failed to decrypt allergies: %w", err)
		}
	}
	return &pt, nil
}

func (p *Postgres) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	row := p.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	pt, err := p.scanPatient(row)
	if err != nil {
		return nil, notFoundOr(err, "patient")
	}
	return pt, nil
}

func (p *Postgres) GetPatientByUserID(ctx context.Context, userID string) (*model.Patient, error) {
	row := p.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE user_id = $1`, userID)
	pt, err := p.scanPatient(row)
	if err != nil {
		return nil, notFoundOr(err, "patient")
	}
	return pt, nil
}

func (p *Postgres) ListPatients(ctx context.Context) ([]model.Patient, error) {
	rows, err := p.db.Query(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	var out []model.Patient
	for rows.Next() {
		pt, err := p.scanPatient(rows)
		if err != nil {
			p.logger.Error("failed to scan patient", zap.Error(err))
			continue
		}
		out = append(out, *pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}
	return out, nil
}

func (p *Postgres) PutPatient(ctx context.Context, pt *model.Patient) error {
	history, allergies := pt.MedicalHistory, pt.Allergies
	if p.enc != nil {
		var err error
		if history, err = p.enc.Encrypt(history); err != nil {
			return fmt.Errorf("failed to encrypt medical history: %w", err)
		}
		if allergies, err = p.enc.Encrypt(allergies); err != nil {
			return fmt.Errorf("failed to encrypt allergies: %w", err)
		}
	}
	_, err := p.db.Exec(ctx, `
		INSERT INTO patients (id, user_id, medical_history, allergies, prediction_ids,
			emergency_name, emergency_relation, emergency_phone, address_id, hospital_id,
			current_medications, appointment_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id, medical_history = EXCLUDED.medical_history,
			allergies = EXCLUDED.allergies, prediction_ids = EXCLUDED.prediction_ids,
			emergency_name = EXCLUDED.emergency_name,
			emergency_relation = EXCLUDED.emergency_relation,
			emergency_phone = EXCLUDED.emergency_phone,
			address_id = EXCLUDED.address_id, hospital_id = EXCLUDED.hospital_id,
			current_medications = EXCLUDED.current_medications,
			appointment_ids = EXCLUDED.appointment_ids,
			updated_at = EXCLUDED.updated_at
	`, pt.ID, pt.UserID, history, allergies, pt.PredictionIDs,
		pt.EmergencyContact.Name, pt.EmergencyContact.Relation, pt.EmergencyContact.Phone,
		pt.AddressID, pt.HospitalID, pt.CurrentMedications, pt.AppointmentIDs,
		pt.CreatedAt, pt.UpdatedAt)
	if err != nil {
		p.logger.Error("failed to put patient", zap.Error(err), zap.String("patient_id", pt.ID))
		return fmt.Errorf("failed to put patient: %w", err)
	}
	return nil
}

func (p *Postgres) DeletePatient(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Appointment

const appointmentColumns = `id, patient_id, doctor_id, hospital_id, user_id,
	appointment_date, status, notes, created_at, updated_at`

func scanAppointment(row scanner) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.HospitalID, &a.UserID,
		&a.AppointmentDate, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (p *Postgres) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	row := p.db.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		return nil, notFoundOr(err, "appointment")
	}
	return a, nil
}

func (p *Postgres) appointmentsWhere(ctx context.Context, where string, args ...any) ([]model.Appointment, error) {
	rows, err := p.db.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			p.logger.Error("failed to scan appointment", zap.Error(err))
			continue
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}
	return out, nil
}

func (p *Postgres) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	return p.appointmentsWhere(ctx, ``)
}

func (p *Postgres) AppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return p.appointmentsWhere(ctx, `WHERE patient_id = $1`, patientID)
}

func (p *Postgres) AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	return p.appointmentsWhere(ctx, `WHERE doctor_id = $1`, doctorID)
}

func (p *Postgres) AppointmentsByHospital(ctx context.Context, hospitalID string) ([]model.Appointment, error) {
	return p.appointmentsWhere(ctx, `WHERE hospital_id = $1`, hospitalID)
}

func (p *Postgres) PutAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, hospital_id, user_id,
			appointment_date, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id, doctor_id = EXCLUDED.doctor_id,
			hospital_id = EXCLUDED.hospital_id, user_id = EXCLUDED.user_id,
			appointment_date = EXCLUDED.appointment_date, status = EXCLUDED.status,
			notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
	`, a.ID, a.PatientID, a.DoctorID, a.HospitalID, a.UserID,
		a.AppointmentDate, a.Status, a.Notes, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		p.logger.Error("failed to put appointment", zap.Error(err), zap.String("appointment_id", a.ID))
		return fmt.Errorf("failed to put appointment: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Prediction

const predictionColumns = `id, user_id, predicted_disease, description,
	precautions, medications, workout, diets, created_at`

func scanPrediction(row scanner) (*model.AiPrediction, error) {
	var pr model.AiPrediction
	err := row.Scan(
		&pr.ID, &pr.UserID, &pr.PredictedDisease, &pr.Description,
		&pr.Precautions, &pr.Medications, &pr.Workout, &pr.Diets, &pr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (p *Postgres) GetPrediction(ctx context.Context, id string) (*model.AiPrediction, error) {
	row := p.db.QueryRow(ctx, `SELECT `+predictionColumns+` FROM predictions WHERE id = $1`, id)
	pr, err := scanPrediction(row)
	if err != nil {
		return nil, notFoundOr(err, "prediction")
	}
	return pr, nil
}

func (p *Postgres) ListPredictions(ctx context.Context) ([]model.AiPrediction, error) {
	rows, err := p.db.Query(ctx, `SELECT `+predictionColumns+` FROM predictions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []model.AiPrediction
	for rows.Next() {
		pr, err := scanPrediction(rows)
		if err != nil {
			p.logger.Error("failed to scan prediction", zap.Error(err))
			continue
		}
		out = append(out, *pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}
	return out, nil
}

func (p *Postgres) PutPrediction(ctx context.Context, pr *model.AiPrediction) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO predictions (id, user_id, predicted_disease, description,
			precautions, medications, workout, diets, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id, predicted_disease = EXCLUDED.predicted_disease,
			description = EXCLUDED.description, precautions = EXCLUDED.precautions,
			medications = EXCLUDED.medications, workout = EXCLUDED.workout,
			diets = EXCLUDED.diets
	`, pr.ID, pr.UserID, pr.PredictedDisease, pr.Description,
		pr.Precautions, pr.Medications, pr.Workout, pr.Diets, pr.CreatedAt)
	if err != nil {
		p.logger.Error("failed to put prediction", zap.Error(err), zap.String("prediction_id", pr.ID))
		return fmt.Errorf("failed to put prediction: %w", err)
	}
	return nil
}

func (p *Postgres) DeletePrediction(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM predictions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prediction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// User

func (p *Postgres) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := p.db.QueryRow(ctx, `
		SELECT id, full_name, email, phone, role, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &u, nil
}

func (p *Postgres) PutUser(ctx context.Context, u *model.User) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO users (id, full_name, email, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name, email = EXCLUDED.email,
			phone = EXCLUDED.phone, role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
	`, u.ID, u.FullName, u.Email, u.Phone, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		p.logger.Error("failed to put user", zap.Error(err), zap.String("user_id", u.ID))
		return fmt.Errorf("failed to put user: %w", err)
	}
	return nil
}
