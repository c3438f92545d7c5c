package service

import (
	"context"
	"errors"

	"github.com/caregraph/caregraph/internal/store"
	"github.com/caregraph/caregraph/pkg/model"
)

// DoctorSummary is the minimal doctor projection attached to populated views:
// identity plus specialization, never the full profile.
type DoctorSummary struct {
	ID             string                   `json:"id"`
	FullName       string                   `json:"full_name"`
	Email          string                   `json:"email"`
	Specialization model.DepartmentCategory `json:"specialization"`
}

// DepartmentView is a department with its doctor projections populated.
type DepartmentView struct {
	Department model.Department `json:"department"`
	HeadDoctor *DoctorSummary   `json:"head_doctor,omitempty"`
	Doctors    []DoctorSummary  `json:"doctors"`
}

// HospitalView is a hospital with address and departments populated.
type HospitalView struct {
	Hospital    model.Hospital  `json:"hospital"`
	Address     *model.Address  `json:"address,omitempty"`
	Departments []DepartmentView `json:"departments"`
}

// doctorSummary loads the projection for one doctor. A missing user record
// leaves the identity fields blank rather than failing the whole view.
func doctorSummary(ctx context.Context, st store.Store, doctorID string) (*DoctorSummary, error) {
	doc, err := st.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	s := &DoctorSummary{ID: doc.ID, Specialization: doc.Specialization}
	user, err := st.GetUser(ctx, doc.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s, nil
		}
		return nil, err
	}
	s.FullName = user.FullName
	s.Email = user.Email
	return s, nil
}

// departmentView populates head and member doctor projections. Dangling
// doctor ids (mid-cascade reads) are dropped from the view.
func departmentView(ctx context.Context, st store.Store, dept model.Department) (DepartmentView, error) {
	view := DepartmentView{Department: dept, Doctors: []DoctorSummary{}}
	if dept.HeadDoctorID != "" {
		head, err := doctorSummary(ctx, st, dept.HeadDoctorID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return view, err
		}
		view.HeadDoctor = head
	}
	for _, id := range dept.DoctorIDs {
		s, err := doctorSummary(ctx, st, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return view, err
		}
		view.Doctors = append(view.Doctors, *s)
	}
	return view, nil
}

// hospitalView populates address and departments for one hospital.
func hospitalView(ctx context.Context, st store.Store, h model.Hospital) (HospitalView, error) {
	view := HospitalView{Hospital: h, Departments: []DepartmentView{}}
	if h.AddressID != "" {
		addr, err := st.GetAddress(ctx, h.AddressID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return view, err
		}
		view.Address = addr
	}
	depts, err := st.ListDepartmentsByHospital(ctx, h.ID)
	if err != nil {
		return view, err
	}
	for _, d := range depts {
		dv, err := departmentView(ctx, st, d)
		if err != nil {
			return view, err
		}
		view.Departments = append(view.Departments, dv)
	}
	return view, nil
}
