package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caregraph/caregraph/internal/store"
	"github.com/caregraph/caregraph/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddressInput is the address payload accepted by registration operations.
type AddressInput struct {
	Street     string          `json:"street"`
	City       string          `json:"city"`
	State      string          `json:"state"`
	Country    string          `json:"country"`
	PostalCode string          `json:"postal_code"`
	Location   *model.GeoPoint `json:"location,omitempty"`
}

// DepartmentInput is one department in a hospital create/update payload.
type DepartmentInput struct {
	Name         string   `json:"name"`
	HeadDoctorID string   `json:"head_doctor_id"`
	DoctorIDs    []string `json:"doctor_ids"`
}

// CreateHospitalInput is the payload for hospital creation.
type CreateHospitalInput struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Contact     model.Contact     `json:"contact"`
	Address     *AddressInput     `json:"address,omitempty"`
	Departments []DepartmentInput `json:"departments"`
}

// UpdateHospitalInput carries the mutable hospital fields; nil fields are
// left unchanged. A non-nil Departments replaces the whole department set.
type UpdateHospitalInput struct {
	Contact     *model.Contact    `json:"contact,omitempty"`
	Address     *AddressInput     `json:"address,omitempty"`
	Departments []DepartmentInput `json:"departments,omitempty"`
}

// HospitalService owns the hospital aggregate: creation stitches departments
// and doctor affiliations, deletion cascades across the whole graph.
type HospitalService struct {
	store  store.Store
	exec   *executor
	logger *zap.Logger
}

// NewHospitalService creates a HospitalService.
func NewHospitalService(st store.Store, cascadeTimeout time.Duration, logger *zap.Logger) *HospitalService {
	return &HospitalService{
		store:  st,
		exec:   newExecutor(st, cascadeTimeout, logger),
		logger: logger,
	}
}

// normalizedDept is a department payload after name normalization and
// uniqueness checks, with set semantics applied to its doctor list.
type normalizedDept struct {
	name      model.DepartmentCategory
	head      string
	doctorIDs []string
}

// normalizeDepartments enforces the department invariants on a payload:
// valid category names, unique normalized names, one headship per doctor,
// head always included in the doctor set.
func normalizeDepartments(inputs []DepartmentInput) ([]normalizedDept, error) {
	seenNames := make(map[model.DepartmentCategory]bool)
	seenHeads := make(map[string]bool)
	out := make([]normalizedDept, 0, len(inputs))
	for _, in := range inputs {
		name, ok := model.ParseDepartmentCategory(in.Name)
		if !ok {
			return nil, validationf("unsupported department name %q", in.Name)
		}
		if seenNames[name] {
			return nil, conflictf("duplicate department name %q within hospital", name)
		}
		seenNames[name] = true
		if in.HeadDoctorID == "" {
			return nil, validationf("department %q requires a head doctor", name)
		}
		if seenHeads[in.HeadDoctorID] {
			return nil, conflictf("doctor %s cannot head more than one department", in.HeadDoctorID)
		}
		seenHeads[in.HeadDoctorID] = true
		out = append(out, normalizedDept{
			name:      name,
			head:      in.HeadDoctorID,
			doctorIDs: model.UnionIDs([]string{in.HeadDoctorID}, in.DoctorIDs),
		})
	}
	return out, nil
}

func addressFromInput(in *AddressInput) *model.Address {
	return &model.Address{
		ID:         uuid.New().String(),
		Street:     in.Street,
		City:       in.City,
		State:      in.State,
		Country:    in.Country,
		PostalCode: in.PostalCode,
		Location:   in.Location,
	}
}

// Create creates a hospital together with its departments, wiring doctor
// affiliations and the hospital doctor set in a single cascade.
func (s *HospitalService) Create(ctx context.Context, actor Actor, input CreateHospitalInput) (*model.Hospital, error) {
	if err := authorize(actor, ActionHospitalCreate, ""); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, validationf("hospital name is required")
	}
	hType, ok := model.ParseHospitalType(input.Type)
	if !ok {
		return nil, validationf("unsupported hospital type %q", input.Type)
	}
	if err := model.Validate(input.Contact); err != nil {
		return nil, validationf("invalid contact: %v", err)
	}
	depts, err := normalizeDepartments(input.Departments)
	if err != nil {
		return nil, err
	}

	hospitalID := uuid.New().String()
	now := time.Now()
	var created *model.Hospital

	// Creation is keyed by normalized name, not by the fresh id, so two
	// concurrent creates of the same name serialize and the second one sees
	// the first one's row in the uniqueness check.
	_, err = s.exec.run(ctx, "hospital-name:"+strings.ToLower(input.Name), func(tx store.Store) (*cascadePlan, error) {
		if _, err := tx.GetHospitalByName(ctx, input.Name); err == nil {
			return nil, conflictf("hospital with name %q already exists", input.Name)
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check hospital name: %w", err)
		}

		// All referenced doctors must exist before any mutation is planned.
		doctors := make(map[string]*model.Doctor)
		for _, d := range depts {
			for _, id := range d.doctorIDs {
				if _, ok := doctors[id]; ok {
					continue
				}
				doc, err := tx.GetDoctor(ctx, id)
				if err != nil {
					return nil, asNotFound(err, "doctor", id)
				}
				doctors[id] = doc
			}
		}

		hospital := &model.Hospital{
			ID:            hospitalID,
			Name:          input.Name,
			Type:          hType,
			Contact:       input.Contact,
			DoctorIDs:     []string{},
			DepartmentIDs: []string{},
			PatientIDs:    []string{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		plan := &cascadePlan{}

		if input.Address != nil {
			addr := addressFromInput(input.Address)
			addr.HospitalID = hospitalID
			addr.CreatedAt, addr.UpdatedAt = now, now
			if err := model.Validate(addr); err != nil {
				return nil, validationf("invalid address: %v", err)
			}
			hospital.AddressID = addr.ID
			plan.add("address", addr.ID, "create", func(ctx context.Context, tx store.Store) error {
				return tx.PutAddress(ctx, addr)
			})
		}

		var doctorUnion []string
		for _, d := range depts {
			dept := &model.Department{
				ID:           uuid.New().String(),
				Name:         d.name,
				HeadDoctorID: d.head,
				DoctorIDs:    d.doctorIDs,
				HospitalID:   hospitalID,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			hospital.DepartmentIDs = append(hospital.DepartmentIDs, dept.ID)
			doctorUnion = model.UnionIDs(doctorUnion, d.doctorIDs)
			plan.add("department", dept.ID, "create", func(ctx context.Context, tx store.Store) error {
				return tx.PutDepartment(ctx, dept)
			})
		}
		hospital.DoctorIDs = doctorUnion

		for _, id := range doctorUnion {
			doc := doctors[id]
			doc.HospitalAffiliation = hospital.Name
			doc.UpdatedAt = now
			d := doc
			plan.add("doctor", id, "set-affiliation", func(ctx context.Context, tx store.Store) error {
				return tx.PutDoctor(ctx, d)
			})
		}

		plan.add("hospital", hospitalID, "create", func(ctx context.Context, tx store.Store) error {
			return tx.PutHospital(ctx, hospital)
		})
		created = hospital
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("hospital created",
		zap.String("hospital_id", hospitalID),
		zap.String("name", created.Name),
		zap.Int("departments", len(created.DepartmentIDs)),
	)
	return created, nil
}

// Get returns one hospital with its address and departments populated.
func (s *HospitalService) Get(ctx context.Context, id string) (*HospitalView, error) {
	h, err := s.store.GetHospital(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "hospital", id)
	}
	view, err := hospitalView(ctx, s.store, *h)
	if err != nil {
		return nil, fmt.Errorf("populate hospital %s: %w", id, err)
	}
	return &view, nil
}

// List returns all hospitals with populated views.
func (s *HospitalService) List(ctx context.Context) ([]HospitalView, error) {
	hospitals, err := s.store.ListHospitals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	views := make([]HospitalView, 0, len(hospitals))
	for _, h := range hospitals {
		v, err := hospitalView(ctx, s.store, h)
		if err != nil {
			return nil, fmt.Errorf("populate hospital %s: %w", h.ID, err)
		}
		views = append(views, v)
	}
	return views, nil
}

// Update mutates contact and address, and replaces the department set when
// one is supplied, recomputing doctor affiliations and the hospital doctor
// union.
func (s *HospitalService) Update(ctx context.Context, actor Actor, id string, input UpdateHospitalInput) (*model.Hospital, error) {
	if err := authorize(actor, ActionHospitalUpdate, ""); err != nil {
		return nil, err
	}
	var depts []normalizedDept
	if input.Departments != nil {
		var err error
		depts, err = normalizeDepartments(input.Departments)
		if err != nil {
			return nil, err
		}
	}
	if input.Contact != nil {
		if err := model.Validate(*input.Contact); err != nil {
			return nil, validationf("invalid contact: %v", err)
		}
	}

	now := time.Now()
	var updated *model.Hospital

	_, err := s.exec.run(ctx, "hospital:"+id, func(tx store.Store) (*cascadePlan, error) {
		hospital, err := tx.GetHospital(ctx, id)
		if err != nil {
			return nil, asNotFound(err, "hospital", id)
		}

		plan := &cascadePlan{}
		if input.Contact != nil {
			hospital.Contact = *input.Contact
		}

		if input.Address != nil {
			if hospital.AddressID != "" {
				existing, err := tx.GetAddress(ctx, hospital.AddressID)
				if err != nil {
					return nil, asNotFound(err, "address", hospital.AddressID)
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
				addr.HospitalID = hospital.ID
				addr.CreatedAt, addr.UpdatedAt = now, now
				if err := model.Validate(addr); err != nil {
					return nil, validationf("invalid address: %v", err)
				}
				hospital.AddressID = addr.ID
				plan.add("address", addr.ID, "create", func(ctx context.Context, tx store.Store) error {
					return tx.PutAddress(ctx, addr)
				})
			}
		}

		if input.Departments != nil {
			doctors := make(map[string]*model.Doctor)
			for _, d := range depts {
				for _, docID := range d.doctorIDs {
					if _, ok := doctors[docID]; ok {
						continue
					}
					doc, err := tx.GetDoctor(ctx, docID)
					if err != nil {
						return nil, asNotFound(err, "doctor", docID)
					}
					doctors[docID] = doc
				}
			}

			existing, err := tx.ListDepartmentsByHospital(ctx, hospital.ID)
			if err != nil {
				return nil, fmt.Errorf("list departments: %w", err)
			}
			for _, old := range existing {
				oldID := old.ID
				plan.addDeleteSide("department", oldID, "delete", func(ctx context.Context, tx store.Store) error {
					return tx.DeleteDepartment(ctx, oldID)
				})
			}

			oldUnion := hospital.DoctorIDs
			hospital.DepartmentIDs = []string{}
			var doctorUnion []string
			for _, d := range depts {
				dept := &model.Department{
					ID:           uuid.New().String(),
					Name:         d.name,
					HeadDoctorID: d.head,
					DoctorIDs:    d.doctorIDs,
					HospitalID:   hospital.ID,
					CreatedAt:    now,
					UpdatedAt:    now,
				}
				hospital.DepartmentIDs = append(hospital.DepartmentIDs, dept.ID)
				doctorUnion = model.UnionIDs(doctorUnion, d.doctorIDs)
				newDept := dept
				plan.add("department", dept.ID, "create", func(ctx context.Context, tx store.Store) error {
					return tx.PutDepartment(ctx, newDept)
				})
			}
			hospital.DoctorIDs = doctorUnion

			for _, docID := range doctorUnion {
				doc := doctors[docID]
				doc.HospitalAffiliation = hospital.Name
				doc.UpdatedAt = now
				d := doc
				plan.add("doctor", docID, "set-affiliation", func(ctx context.Context, tx store.Store) error {
					return tx.PutDoctor(ctx, d)
				})
			}

			// Doctors dropped from the union lose their cached affiliation.
			for _, docID := range oldUnion {
				if model.ContainsID(doctorUnion, docID) {
					continue
				}
				removedID := docID
				hospitalName := hospital.Name
				plan.addDeleteSide("doctor", removedID, "unset-affiliation", func(ctx context.Context, tx store.Store) error {
					d, err := tx.GetDoctor(ctx, removedID)
					if err != nil {
						return err
					}
					if d.HospitalAffiliation == hospitalName {
						d.HospitalAffiliation = ""
						d.UpdatedAt = now
						return tx.PutDoctor(ctx, d)
					}
					return nil
				})
			}
		}

		hospital.UpdatedAt = now
		plan.add("hospital", hospital.ID, "update", func(ctx context.Context, tx store.Store) error {
			return tx.PutHospital(ctx, hospital)
		})
		updated = hospital
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("hospital updated", zap.String("hospital_id", id))
	return updated, nil
}

// Delete removes a hospital and everything hanging off it: departments,
// appointments (with both-side reference pulls), doctor affiliations, patient
// hospital links and the hospital's address.
func (s *HospitalService) Delete(ctx context.Context, actor Actor, id string) (*PartialCascadeError, error) {
	if err := authorize(actor, ActionHospitalDelete, ""); err != nil {
		return nil, err
	}

	warn, err := s.exec.run(ctx, "hospital:"+id, func(tx store.Store) (*cascadePlan, error) {
		hospital, err := tx.GetHospital(ctx, id)
		if err != nil {
			return nil, asNotFound(err, "hospital", id)
		}

		plan := &cascadePlan{}

		depts, err := tx.ListDepartmentsByHospital(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list departments: %w", err)
		}
		for _, d := range depts {
			deptID := d.ID
			plan.addDeleteSide("department", deptID, "delete", func(ctx context.Context, tx store.Store) error {
				return tx.DeleteDepartment(ctx, deptID)
			})
		}

		appts, err := tx.AppointmentsByHospital(ctx, id)
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

		for _, docID := range hospital.DoctorIDs {
			doctorID := docID
			hospitalName := hospital.Name
			plan.addDeleteSide("doctor", doctorID, "unset-affiliation", func(ctx context.Context, tx store.Store) error {
				d, err := tx.GetDoctor(ctx, doctorID)
				if err != nil {
					return err
				}
				if d.HospitalAffiliation == hospitalName {
					d.HospitalAffiliation = ""
					return tx.PutDoctor(ctx, d)
				}
				return nil
			})
		}

		for _, patID := range hospital.PatientIDs {
			patientID := patID
			plan.addDeleteSide("patient", patientID, "unset-hospital", func(ctx context.Context, tx store.Store) error {
				p, err := tx.GetPatient(ctx, patientID)
				if err != nil {
					return err
				}
				if p.HospitalID == id {
					p.HospitalID = ""
					return tx.PutPatient(ctx, p)
				}
				return nil
			})
		}

		if hospital.AddressID != "" {
			addrID := hospital.AddressID
			plan.addDeleteSide("address", addrID, "delete", func(ctx context.Context, tx store.Store) error {
				return tx.DeleteAddress(ctx, addrID)
			})
		}

		plan.add("hospital", id, "delete", func(ctx context.Context, tx store.Store) error {
			return tx.DeleteHospital(ctx, id)
		})
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("hospital deleted", zap.String("hospital_id", id))
	return warn, nil
}
