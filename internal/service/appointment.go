package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caregraph/caregraph/internal/store"
	"github.com/caregraph/caregraph/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateAppointmentInput is the payload for booking an appointment.
type CreateAppointmentInput struct {
	DoctorID        string    `json:"doctor_id"`
	HospitalID      string    `json:"hospital_id"`
	AppointmentDate time.Time `json:"appointment_date"`
	Notes           string    `json:"notes,omitempty"`
}

// AppointmentService owns the appointment lifecycle.
type AppointmentService struct {
	store  store.Store
	exec   *executor
	logger *zap.Logger
}

// NewAppointmentService creates an AppointmentService.
func NewAppointmentService(st store.Store, cascadeTimeout time.Duration, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{
		store:  st,
		exec:   newExecutor(st, cascadeTimeout, logger),
		logger: logger,
	}
}

// statusTransitions is the appointment state machine. Completed and canceled
// are terminal.
var statusTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentPending:   {model.AppointmentScheduled, model.AppointmentCanceled},
	model.AppointmentScheduled: {model.AppointmentCompleted, model.AppointmentCanceled},
}

func canTransition(from, to model.AppointmentStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Create books an appointment for the acting patient. The doctor must be
// affiliated with the named hospital. New appointments start pending and are
// linked into the patient, doctor, and hospital sets in one cascade.
func (s *AppointmentService) Create(ctx context.Context, actor Actor, input CreateAppointmentInput) (*model.Appointment, error) {
	if err := authorize(actor, ActionAppointmentCreate, ""); err != nil {
		return nil, err
	}
	if input.AppointmentDate.IsZero() {
		return nil, validationf("appointment date is required")
	}

	apptID := uuid.New().String()
	now := time.Now()

	var created *model.Appointment
	_, err := s.exec.run(ctx, "hospital:"+input.HospitalID, func(tx store.Store) (*cascadePlan, error) {
		patient, err := tx.GetPatientByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, asNotFound(err, "patient record", "")
		}
		doctor, err := tx.GetDoctor(ctx, input.DoctorID)
		if err != nil {
			return nil, asNotFound(err, "doctor", input.DoctorID)
		}
		hospital, err := tx.GetHospital(ctx, input.HospitalID)
		if err != nil {
			return nil, asNotFound(err, "hospital", input.HospitalID)
		}
		if doctor.HospitalAffiliation != hospital.Name {
			return nil, validationf("doctor %s is not affiliated with hospital %s", doctor.ID, hospital.Name)
		}

		appt := &model.Appointment{
			ID:              apptID,
			PatientID:       patient.ID,
			DoctorID:        doctor.ID,
			HospitalID:      hospital.ID,
			UserID:          actor.UserID,
			AppointmentDate: input.AppointmentDate,
			Status:          model.AppointmentPending,
			Notes:           input.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := model.Validate(appt); err != nil {
			return nil, validationf("invalid appointment: %v", err)
		}

		patient.AppointmentIDs = model.AddID(patient.AppointmentIDs, apptID)
		patient.UpdatedAt = now
		doctor.AppointmentIDs = model.AddID(doctor.AppointmentIDs, apptID)
		doctor.PatientIDs = model.AddID(doctor.PatientIDs, patient.ID)
		doctor.UpdatedAt = now
		hospital.PatientIDs = model.AddID(hospital.PatientIDs, patient.ID)
		hospital.UpdatedAt = now

		plan := &cascadePlan{}
		plan.add("appointment", apptID, "create", func(ctx context.Context, tx store.Store) error {
			return tx.PutAppointment(ctx, appt)
		})
		plan.add("patient", patient.ID, "push-appointment", func(ctx context.Context, tx store.Store) error {
			return tx.PutPatient(ctx, patient)
		})
		plan.add("doctor", doctor.ID, "push-appointment", func(ctx context.Context, tx store.Store) error {
			return tx.PutDoctor(ctx, doctor)
		})
		plan.add("hospital", hospital.ID, "push-patient", func(ctx context.Context, tx store.Store) error {
			return tx.PutHospital(ctx, hospital)
		})
		created = appt
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment created",
		zap.String("appointment_id", apptID),
		zap.String("patient_id", created.PatientID),
		zap.String("doctor_id", created.DoctorID),
		zap.String("hospital_id", created.HospitalID),
	)
	return created, nil
}

// Get returns one appointment. Admins and the booking user may read it.
func (s *AppointmentService) Get(ctx context.Context, actor Actor, id string) (*model.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "appointment", id)
	}
	if actor.Role != model.RoleAdmin && actor.Role != model.RoleDoctor && appt.UserID != actor.UserID {
		return nil, &AuthorizationError{Msg: "not authorized to view this appointment"}
	}
	return appt, nil
}

// UpdateStatus advances the appointment through its state machine. Doctors
// and admins only; invalid transitions are rejected.
func (s *AppointmentService) UpdateStatus(ctx context.Context, actor Actor, id string, status string) (*model.Appointment, error) {
	if err := authorize(actor, ActionAppointmentStatus, ""); err != nil {
		return nil, err
	}
	next, ok := model.ParseAppointmentStatus(status)
	if !ok {
		return nil, validationf("unknown appointment status %q", status)
	}

	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "appointment", id)
	}
	if !canTransition(appt.Status, next) {
		return nil, conflictf("cannot move appointment from %s to %s", appt.Status, next)
	}
	appt.Status = next
	appt.UpdatedAt = time.Now()
	if err := s.store.PutAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("store appointment: %w", err)
	}

	s.logger.Info("appointment status changed",
		zap.String("appointment_id", id),
		zap.String("status", string(next)),
	)
	return appt, nil
}

// Delete removes an appointment and pulls its id from the patient and doctor
// sets. Admins and the booking user may delete.
func (s *AppointmentService) Delete(ctx context.Context, actor Actor, id string) (*PartialCascadeError, error) {
	warn, err := s.exec.run(ctx, "appointment:"+id, func(tx store.Store) (*cascadePlan, error) {
		appt, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return nil, asNotFound(err, "appointment", id)
		}
		if err := authorize(actor, ActionAppointmentDelete, appt.UserID); err != nil {
			return nil, err
		}

		plan := &cascadePlan{}
		plan.addDeleteSide("patient", appt.PatientID, "pull-appointment", func(ctx context.Context, tx store.Store) error {
			p, err := tx.GetPatient(ctx, appt.PatientID)
			if err != nil {
				return err
			}
			p.AppointmentIDs = model.RemoveID(p.AppointmentIDs, id)
			return tx.PutPatient(ctx, p)
		})
		plan.addDeleteSide("doctor", appt.DoctorID, "pull-appointment", func(ctx context.Context, tx store.Store) error {
			d, err := tx.GetDoctor(ctx, appt.DoctorID)
			if err != nil {
				return err
			}
			d.AppointmentIDs = model.RemoveID(d.AppointmentIDs, id)
			return tx.PutDoctor(ctx, d)
		})
		plan.add("appointment", id, "delete", func(ctx context.Context, tx store.Store) error {
			return tx.DeleteAppointment(ctx, id)
		})
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment deleted", zap.String("appointment_id", id))
	return warn, nil
}

// ListAll returns every appointment. Admin only.
func (s *AppointmentService) ListAll(ctx context.Context, actor Actor) ([]model.Appointment, error) {
	if err := authorize(actor, ActionAppointmentList, ""); err != nil {
		return nil, err
	}
	return s.store.ListAppointments(ctx)
}

// ListMine returns the acting user's appointments: bookings for patients,
// assigned visits for doctors.
func (s *AppointmentService) ListMine(ctx context.Context, actor Actor) ([]model.Appointment, error) {
	switch actor.Role {
	case model.RoleDoctor:
		doc, err := s.store.GetDoctorByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, asNotFound(err, "doctor profile", "")
		}
		return s.store.AppointmentsByDoctor(ctx, doc.ID)
	default:
		patient, err := s.store.GetPatientByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, asNotFound(err, "patient record", "")
		}
		return s.store.AppointmentsByPatient(ctx, patient.ID)
	}
}
