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

// RegisterDoctorInput is the payload for doctor registration.
type RegisterDoctorInput struct {
	Specialization  string               `json:"specialization"`
	MedicalLicense  string               `json:"medical_license"`
	ExperienceYears int                  `json:"experience_years"`
	HospitalID      string               `json:"hospital_id,omitempty"`
	Availability    []model.Availability `json:"availability"`
	Address         *AddressInput        `json:"address"`
}

// UpdateDoctorInput carries the mutable doctor profile fields; nil/zero
// fields are left unchanged.
type UpdateDoctorInput struct {
	Specialization  string               `json:"specialization,omitempty"`
	MedicalLicense  string               `json:"medical_license,omitempty"`
	ExperienceYears *int                 `json:"experience_years,omitempty"`
	Availability    []model.Availability `json:"availability,omitempty"`
	Address         *AddressInput        `json:"address,omitempty"`
}

// DoctorView is a doctor profile with identity and address populated.
type DoctorView struct {
	Doctor   model.Doctor   `json:"doctor"`
	FullName string         `json:"full_name"`
	Email    string         `json:"email"`
	Address  *model.Address `json:"address,omitempty"`
}

// DoctorService owns the doctor aggregate.
type DoctorService struct {
	store  store.Store
	exec   *executor
	logger *zap.Logger
}

// NewDoctorService creates a DoctorService.
func NewDoctorService(st store.Store, cascadeTimeout time.Duration, logger *zap.Logger) *DoctorService {
	return &DoctorService{
		store:  st,
		exec:   newExecutor(st, cascadeTimeout, logger),
		logger: logger,
	}
}

// Register creates a doctor profile for the acting user, optionally attaching
// it to a hospital. The doctor joins the hospital's doctor set; the
// affiliation cache is only written when a department of that hospital
// already lists the doctor (as head or member).
func (s *DoctorService) Register(ctx context.Context, actor Actor, input RegisterDoctorInput) (*model.Doctor, error) {
	if err := authorize(actor, ActionDoctorRegister, ""); err != nil {
		return nil, err
	}
	spec, ok := model.ParseDepartmentCategory(input.Specialization)
	if !ok {
		return nil, validationf("unsupported specialization %q", input.Specialization)
	}
	if input.Address == nil {
		return nil, validationf("doctor address is required")
	}

	doctorID := uuid.New().String()
	now := time.Now()

	rootKey := "doctor:" + doctorID
	if input.HospitalID != "" {
		rootKey = "hospital:" + input.HospitalID
	}

	var created *model.Doctor
	_, err := s.exec.run(ctx, rootKey, func(tx store.Store) (*cascadePlan, error) {
		if _, err := tx.GetDoctorByUserID(ctx, actor.UserID); err == nil {
			return nil, conflictf("doctor profile already exists for user %s", actor.UserID)
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check doctor registration: %w", err)
		}

		var hospital *model.Hospital
		if input.HospitalID != "" {
			var err error
			hospital, err = tx.GetHospital(ctx, input.HospitalID)
			if err != nil {
				return nil, asNotFound(err, "hospital", input.HospitalID)
			}
		}

		addr := addressFromInput(input.Address)
		addr.DoctorID = doctorID
		addr.CreatedAt, addr.UpdatedAt = now, now
		if err := model.Validate(addr); err != nil {
			return nil, validationf("invalid address: %v", err)
		}

		doctor := &model.Doctor{
			ID:              doctorID,
			UserID:          actor.UserID,
			Specialization:  spec,
			MedicalLicense:  input.MedicalLicense,
			ExperienceYears: input.ExperienceYears,
			Availability:    input.Availability,
			AddressID:       addr.ID,
			PatientIDs:      []string{},
			AppointmentIDs:  []string{},
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := model.Validate(doctor); err != nil {
			return nil, validationf("invalid doctor profile: %v", err)
		}

		plan := &cascadePlan{}
		plan.add("address", addr.ID, "create", func(ctx context.Context, tx store.Store) error {
			return tx.PutAddress(ctx, addr)
		})

		if hospital != nil {
			depts, err := tx.ListDepartmentsByHospital(ctx, hospital.ID)
			if err != nil {
				return nil, fmt.Errorf("list departments: %w", err)
			}
			for _, d := range depts {
				if d.HeadDoctorID == doctorID || model.ContainsID(d.DoctorIDs, doctorID) {
					doctor.HospitalAffiliation = hospital.Name
					break
				}
			}
			hospital.DoctorIDs = model.AddID(hospital.DoctorIDs, doctorID)
			hospital.UpdatedAt = now
			h := hospital
			plan.add("hospital", h.ID, "add-doctor", func(ctx context.Context, tx store.Store) error {
				return tx.PutHospital(ctx, h)
			})
		}

		plan.add("doctor", doctorID, "create", func(ctx context.Context, tx store.Store) error {
			return tx.PutDoctor(ctx, doctor)
		})
		created = doctor
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("doctor registered",
		zap.String("doctor_id", doctorID),
		zap.String("user_id", actor.UserID),
		zap.String("specialization", string(spec)),
	)
	return created, nil
}

// Get returns one doctor with identity and address populated.
func (s *DoctorService) Get(ctx context.Context, id string) (*DoctorView, error) {
	doc, err := s.store.GetDoctor(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "doctor", id)
	}
	return s.view(ctx, doc)
}

// GetMyProfile returns the acting user's doctor profile.
func (s *DoctorService) GetMyProfile(ctx context.Context, actor Actor) (*DoctorView, error) {
	doc, err := s.store.GetDoctorByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, asNotFound(err, "doctor profile", "")
	}
	return s.view(ctx, doc)
}

// List returns all doctors with populated views.
func (s *DoctorService) List(ctx context.Context) ([]DoctorView, error) {
	doctors, err := s.store.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	views := make([]DoctorView, 0, len(doctors))
	for _, d := range doctors {
		doc := d
		v, err := s.view(ctx, &doc)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *DoctorService) view(ctx context.Context, doc *model.Doctor) (*DoctorView, error) {
	view := &DoctorView{Doctor: *doc}
	if user, err := s.store.GetUser(ctx, doc.UserID); err == nil {
		view.FullName = user.FullName
		view.Email = user.Email
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load user %s: %w", doc.UserID, err)
	}
	if doc.AddressID != "" {
		if addr, err := s.store.GetAddress(ctx, doc.AddressID); err == nil {
			view.Address = addr
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load address %s: %w", doc.AddressID, err)
		}
	}
	return view, nil
}

// Update mutates profile fields. Only the owning user or an admin may update.
func (s *DoctorService) Update(ctx context.Context, actor Actor, id string, input UpdateDoctorInput) (*model.Doctor, error) {
	now := time.Now()
	var updated *model.Doctor

	_, err := s.exec.run(ctx, "doctor:"+id, func(tx store.Store) (*cascadePlan, error) {
		doctor, err := tx.GetDoctor(ctx, id)
		if err != nil {
			return nil, asNotFound(err, "doctor", id)
		}
		if err := authorize(actor, ActionDoctorUpdate, doctor.UserID); err != nil {
			return nil, err
		}

		if input.Specialization != "" {
			spec, ok := model.ParseDepartmentCategory(input.Specialization)
			if !ok {
				return nil, validationf("unsupported specialization %q", input.Specialization)
			}
			doctor.Specialization = spec
		}
		if input.MedicalLicense != "" {
			doctor.MedicalLicense = input.MedicalLicense
		}
		if input.ExperienceYears != nil {
			doctor.ExperienceYears = *input.ExperienceYears
		}
		if input.Availability != nil {
			doctor.Availability = input.Availability
		}
		if err := model.Validate(doctor); err != nil {
			return nil, validationf("invalid doctor profile: %v", err)
		}

		plan := &cascadePlan{}

		if input.Address != nil {
			if doctor.AddressID != "" {
				existing, err := tx.GetAddress(ctx, doctor.AddressID)
				if err != nil {
					return nil, asNotFound(err, "address", doctor.AddressID)
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
				addr.DoctorID = doctor.ID
				addr.CreatedAt, addr.UpdatedAt = now, now
				if err := model.Validate(addr); err != nil {
					return nil, validationf("invalid address: %v", err)
				}
				doctor.AddressID = addr.ID
				plan.add("address", addr.ID, "create", func(ctx context.Context, tx store.Store) error {
					return tx.PutAddress(ctx, addr)
				})
			}
		}

		doctor.UpdatedAt = now
		plan.add("doctor", doctor.ID, "update", func(ctx context.Context, tx store.Store) error {
			return tx.PutDoctor(ctx, doctor)
		})
		updated = doctor
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("doctor updated", zap.String("doctor_id", id))
	return updated, nil
}

// SetRating sets a doctor's rating. Admin only; 1 through 5.
func (s *DoctorService) SetRating(ctx context.Context, actor Actor, id string, rating float64) (*model.Doctor, error) {
	if err := authorize(actor, ActionDoctorRate, ""); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, validationf("rating must be between 1 and 5, got %v", rating)
	}

	doctor, err := s.store.GetDoctor(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "doctor", id)
	}
	doctor.Rating = rating
	doctor.UpdatedAt = time.Now()
	if err := s.store.PutDoctor(ctx, doctor); err != nil {
		return nil, fmt.Errorf("store doctor rating: %w", err)
	}

	s.logger.Info("doctor rated", zap.String("doctor_id", id), zap.Float64("rating", rating))
	return doctor, nil
}

// Delete removes a doctor and detaches every reference to it: address,
// appointments (with patient-side pulls), department memberships and
// headships, hospital doctor sets.
func (s *DoctorService) Delete(ctx context.Context, actor Actor, id string) (*PartialCascadeError, error) {
	warn, err := s.exec.run(ctx, "doctor:"+id, func(tx store.Store) (*cascadePlan, error) {
		doctor, err := tx.GetDoctor(ctx, id)
		if err != nil {
			return nil, asNotFound(err, "doctor", id)
		}
		if err := authorize(actor, ActionDoctorDelete, doctor.UserID); err != nil {
			return nil, err
		}

		plan := &cascadePlan{}

		if doctor.AddressID != "" {
			addrID := doctor.AddressID
			plan.addDeleteSide("address", addrID, "delete", func(ctx context.Context, tx store.Store) error {
				return tx.DeleteAddress(ctx, addrID)
			})
		}

		appts, err := tx.AppointmentsByDoctor(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list appointments: %w", err)
		}
		for _, a := range appts {
			appt := a
			plan.addDeleteSide("patient", appt.PatientID, "pull-appointment", func(ctx context.Context, tx store.Store) error {
				p, err := tx.GetPatient(ctx, appt.PatientID)
				if err != nil {
					return err
				}
				p.AppointmentIDs = model.RemoveID(p.AppointmentIDs, appt.ID)
				return tx.PutPatient(ctx, p)
			})
			plan.addDeleteSide("appointment", appt.ID, "delete", func(ctx context.Context, tx store.Store) error {
				return tx.DeleteAppointment(ctx, appt.ID)
			})
		}

		depts, err := tx.DepartmentsWithDoctor(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list departments: %w", err)
		}
		for _, d := range depts {
			deptID := d.ID
			plan.addDeleteSide("department", deptID, "pull-doctor", func(ctx context.Context, tx store.Store) error {
				dept, err := tx.GetDepartment(ctx, deptID)
				if err != nil {
					return err
				}
				dept.DoctorIDs = model.RemoveID(dept.DoctorIDs, id)
				// No auto-promotion: a deleted head leaves the seat empty
				// until reassigned.
				if dept.HeadDoctorID == id {
					dept.HeadDoctorID = ""
				}
				return tx.PutDepartment(ctx, dept)
			})
		}

		hospitals, err := tx.HospitalsWithDoctor(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list hospitals: %w", err)
		}
		for _, h := range hospitals {
			hospID := h.ID
			plan.addDeleteSide("hospital", hospID, "pull-doctor", func(ctx context.Context, tx store.Store) error {
				hosp, err := tx.GetHospital(ctx, hospID)
				if err != nil {
					return err
				}
				hosp.DoctorIDs = model.RemoveID(hosp.DoctorIDs, id)
				return tx.PutHospital(ctx, hosp)
			})
		}

		plan.add("doctor", id, "delete", func(ctx context.Context, tx store.Store) error {
			return tx.DeleteDoctor(ctx, id)
		})
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("doctor deleted", zap.String("doctor_id", id))
	return warn, nil
}
