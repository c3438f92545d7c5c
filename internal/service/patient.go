package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caregraph/caregraph/internal/store"
	"github.com/caregraph/caregraph/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterPatientInput is the payload for patient registration.
type RegisterPatientInput struct {
	MedicalHistory     string                 `json:"medical_history"`
	Allergies          string                 `json:"allergies"`
	CurrentMedications []string               `json:"current_medications"`
	EmergencyContact   model.EmergencyContact `json:"emergency_contact"`
	HospitalID         string                 `json:"hospital_id,omitempty"`
	Address            *AddressInput          `json:"address,omitempty"`
}

// UpdatePatientInput carries the mutable patient fields; nil fields are left
// unchanged.
type UpdatePatientInput struct {
	MedicalHistory     string                  `json:"medical_history,omitempty"`
	Allergies          string                  `json:"allergies,omitempty"`
	CurrentMedications []string                `json:"current_medications,omitempty"`
	EmergencyContact   *model.EmergencyContact `json:"emergency_contact,omitempty"`
	Address            *AddressInput           `json:"address,omitempty"`
}

// PatientView is a patient record with identity and address populated.
type PatientView struct {
	Patient  model.Patient  `json:"patient"`
	FullName string         `json:"full_name"`
	Email    string         `json:"email"`
	Address  *model.Address `json:"address,omitempty"`
}

// PatientService owns the patient aggregate.
type PatientService struct {
	store  store.Store
	exec   *executor
	logger *zap.Logger
}

// NewPatientService creates a PatientService.
func NewPatientService(st store.Store, cascadeTimeout time.Duration, logger *zap.Logger) *PatientService {
	return &PatientService{
		store:  st,
		exec:   newExecutor(st, cascadeTimeout, logger),
		logger: logger,
	}
}

// Register creates a patient record for the acting user.
func (s *PatientService) Register(ctx context.Context, actor Actor, input RegisterPatientInput) (*model.Patient, error) {
	if err := authorize(actor, ActionPatientRegister, ""); err != nil {
		return nil, err
	}

	patientID := uuid.New().String()
	now := time.Now()

	rootKey := "patient:" + patientID
	if input.HospitalID != "" {
		rootKey = "hospital:" + input.HospitalID
	}

	var created *model.Patient
	_, err := s.exec.run(ctx, rootKey, func(tx store.Store) (*cascadePlan, error) {
		if _, err := tx.GetPatientByUserID(ctx, actor.UserID); err == nil {
			return nil, conflictf("patient record already exists for user %s", actor.UserID)
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check patient registration: %w", err)
		}

		if input.HospitalID != "" {
			if _, err := tx.GetHospital(ctx, input.HospitalID); err != nil {
				return nil, asNotFound(err, "hospital", input.HospitalID)
			}
		}

		patient := &model.Patient{
			ID:                 patientID,
			UserID:             actor.UserID,
			MedicalHistory:     input.MedicalHistory,
			Allergies:          input.Allergies,
			CurrentMedications: input.CurrentMedications,
			EmergencyContact:   input.EmergencyContact,
			HospitalID:         input.HospitalID,
			PredictionIDs:      []string{},
			AppointmentIDs:     []string{},
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		plan := &cascadePlan{}

		if input.Address != nil {
			addr := addressFromInput(input.Address)
			addr.PatientID = patientID
			addr.CreatedAt, addr.UpdatedAt = now, now
			if err := model.Validate(addr); err != nil {
				return nil, validationf("invalid address: %v", err)
			}
			patient.AddressID = addr.ID
			plan.add("address", addr.ID, "create", func(ctx context.Context, tx store.Store) error {
				return tx.PutAddress(ctx, addr)
			})
		}

		if err := model.Validate(patient); err != nil {
			return nil, validationf("invalid patient record: %v", err)
		}

		plan.add("patient", patientID, "create", func(ctx context.Context, tx store.Store) error {
			return tx.PutPatient(ctx, patient)
		})
		created = patient
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("patient registered",
		zap.String("patient_id", patientID),
		zap.String("user_id", actor.UserID),
	)
	return created, nil
}

// Get returns one patient with identity and address populated. Admins and the
// owning user may read the record.
func (s *PatientService) Get(ctx context.Context, actor Actor, id string) (*PatientView, error) {
	patient, err := s.store.GetPatient(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "patient", id)
	}
	if err := authorize(actor, ActionPatientView, patient.UserID); err != nil {
		return nil, err
	}
	return s.view(ctx, patient)
}

// GetMyRecord returns the acting user's patient record.
func (s *PatientService) GetMyRecord(ctx context.Context, actor Actor) (*PatientView, error) {
	patient, err := s.store.GetPatientByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, asNotFound(err, "patient record", "")
	}
	return s.view(ctx, patient)
}

// List returns all patients. Admin only.
func (s *PatientService) List(ctx context.Context, actor Actor) ([]PatientView, error) {
	if err := authorize(actor, ActionPatientList, ""); err != nil {
		return nil, err
	}
	patients, err := s.store.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	views := make([]PatientView, 0, len(patients))
	for _, p := range patients {
		patient := p
		v, err := s.view(ctx, &patient)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *PatientService) view(ctx context.Context, patient *model.Patient) (*PatientView, error) {
	view := &PatientView{Patient: *patient}
	if user, err := s.store.GetUser(ctx, patient.UserID); err == nil {
		view.FullName = user.FullName
		view.Email = user.Email
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load user %s: %w", patient.UserID, err)
	}
	if patient.AddressID != "" {
		if addr, err := s.store.GetAddress(ctx, patient.AddressID); err == nil {
			view.Address = addr
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load address %s: %w", patient.AddressID, err)
		}
	}
	return view, nil
}

// Update mutates record fields. Only the owning user or an admin may update.
func (s *PatientService) Update(ctx context.Context, actor Actor, id string, input UpdatePatientInput) (*model.Patient, error) {
	now := time.Now()
	var updated *model.Patient

	_, err := s.exec.run(ctx, "patient:"+id, func(tx store.Store) (*cascadePlan, error) {
		patient, err := tx.GetPatient(ctx, id)
		if err != nil {
			return nil, asNotFound(err, "patient", id)
		}
		if err := authorize(actor, ActionPatientUpdate, patient.UserID); err != nil {
			return nil, err
		}

		if input.MedicalHistory != "" {
			patient.MedicalHistory = input.MedicalHistory
		}
		if input.Allergies != "" {
			patient.Allergies = input.Allergies
		}
		if input.CurrentMedications != nil {
			patient.CurrentMedications = input.CurrentMedications
		}
		if input.EmergencyContact != nil {
			patient.EmergencyContact = *input.EmergencyContact
		}

		plan := &cascadePlan{}

		if input.Address != nil {
			if patient.AddressID != "" {
				existing, err := tx.GetAddress(ctx, patient.AddressID)
				if err != nil {
					return nil, asNotFound(err, "address", patient.AddressID)
				}
				existing.Street = input.Address.Street
				existing.City = input.Address.City
				existing.State = input.Address.State
				existing.Country = input.Address.Country
				existing.PostalCode = input.Address.PostalCode
				existing.Location = input.Address.Location
				existing.UpdatedAt = now
				if err := model.Validate(existing); err != nil {
					return nil, validationf("invalid address: %v", err)
				}
				addr := existing
				plan.add("address", addr.ID, "update", func(ctx context.Context, tx store.Store) error {
					return tx.PutAddress(ctx, addr)
				})
			} else {
				addr := addressFromInput(input.Address)
				addr.PatientID = patient.ID
				addr.CreatedAt, addr.UpdatedAt = now, now
				if err := model.Validate(addr); err != nil {
					return nil, validationf("invalid address: %v", err)
				}
				patient.AddressID = addr.ID
				plan.add("address", addr.ID, "create", func(ctx context.Context, tx store.Store) error {
					return tx.PutAddress(ctx, addr)
				})
			}
		}

		if err := model.Validate(patient); err != nil {
			return nil, validationf("invalid patient record: %v", err)
		}

		patient.UpdatedAt = now
		plan.add("patient", patient.ID, "update", func(ctx context.Context, tx store.Store) error {
			return tx.PutPatient(ctx, patient)
		})
		updated = patient
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("patient updated", zap.String("patient_id", id))
	return updated, nil
}

// Delete removes a patient and every reference to it: address, appointments
// (with doctor-side pulls), predictions, doctor patient sets, hospital
// patient sets.
func (s *PatientService) Delete(ctx context.Context, actor Actor, id string) (*PartialCascadeError, error) {
	warn, err := s.exec.run(ctx, "patient:"+id, func(tx store.Store) (*cascadePlan, error) {
		patient, err := tx.GetPatient(ctx, id)
		if err != nil {
			return nil, asNotFound(err, "patient", id)
		}
		if err := authorize(actor, ActionPatientDelete, patient.UserID); err != nil {
			return nil, err
		}

		plan := &cascadePlan{}

		if patient.AddressID != "" {
			addrID := patient.AddressID
			plan.addDeleteSide("address", addrID, "delete", func(ctx context.Context, tx store.Store) error {
				return tx.DeleteAddress(ctx, addrID)
			})
		}

		appts, err := tx.AppointmentsByPatient(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list appointments: %w", err)
		}
		for _, a := range appts {
			appt := a
			plan.addDeleteSide("doctor", appt.DoctorID, "pull-appointment", func(ctx context.Context, tx store.Store) error {
				d, err := tx.GetDoctor(ctx, appt.DoctorID)
				if err != nil {
					return err
				}
				d.AppointmentIDs = model.RemoveID(d.AppointmentIDs, appt.ID)
				return tx.PutDoctor(ctx, d)
			})
			plan.addDeleteSide("appointment", appt.ID, "delete", func(ctx context.Context, tx store.Store) error {
				return tx.DeleteAppointment(ctx, appt.ID)
			})
		}

		for _, pid := range patient.PredictionIDs {
			predID := pid
			plan.addDeleteSide("prediction", predID, "delete", func(ctx context.Context, tx store.Store) error {
				return tx.DeletePrediction(ctx, predID)
			})
		}

		doctors, err := tx.DoctorsWithPatient(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list doctors: %w", err)
		}
		for _, d := range doctors {
			docID := d.ID
			plan.addDeleteSide("doctor", docID, "pull-patient", func(ctx context.Context, tx store.Store) error {
				doc, err := tx.GetDoctor(ctx, docID)
				if err != nil {
					return err
				}
				doc.PatientIDs = model.RemoveID(doc.PatientIDs, id)
				return tx.PutDoctor(ctx, doc)
			})
		}

		hospitals, err := tx.HospitalsWithPatient(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list hospitals: %w", err)
		}
		for _, h := range hospitals {
			hospID := h.ID
			plan.addDeleteSide("hospital", hospID, "pull-patient", func(ctx context.Context, tx store.Store) error {
				hosp, err := tx.GetHospital(ctx, hospID)
				if err != nil {
					return err
				}
				hosp.PatientIDs = model.RemoveID(hosp.PatientIDs, id)
				return tx.PutHospital(ctx, hosp)
			})
		}

		plan.add("patient", id, "delete", func(ctx context.Context, tx store.Store) error {
			return tx.DeletePatient(ctx, id)
		})
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("patient deleted", zap.String("patient_id", id))
	return warn, nil
}
