package model

import "slices"

// Clone helpers produce independent copies so store implementations can hand
// out entities without sharing backing slices with callers.

func (a Address) Clone() Address {
	if a.Location != nil {
		loc := *a.Location
		a.Location = &loc
	}
	return a
}

func (h Hospital) Clone() Hospital {
	h.DoctorIDs = slices.Clone(h.DoctorIDs)
	h.DepartmentIDs = slices.Clone(h.DepartmentIDs)
	h.PatientIDs = slices.Clone(h.PatientIDs)
	return h
}

func (d Department) Clone() Department {
	d.DoctorIDs = slices.Clone(d.DoctorIDs)
	return d
}

func (d Doctor) Clone() Doctor {
	d.Availability = slices.Clone(d.Availability)
	d.PatientIDs = slices.Clone(d.PatientIDs)
	d.AppointmentIDs = slices.Clone(d.AppointmentIDs)
	return d
}

func (p Patient) Clone() Patient {
	p.PredictionIDs = slices.Clone(p.PredictionIDs)
	p.CurrentMedications = slices.Clone(p.CurrentMedications)
	p.AppointmentIDs = slices.Clone(p.AppointmentIDs)
	return p
}

func (a Appointment) Clone() Appointment { return a }

func (p AiPrediction) Clone() AiPrediction {
	p.Precautions = slices.Clone(p.Precautions)
	p.Medications = slices.Clone(p.Medications)
	p.Workout = slices.Clone(p.Workout)
	p.Diets = slices.Clone(p.Diets)
	return p
}

func (u User) Clone() User { return u }
