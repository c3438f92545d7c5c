package service

import (
	"github.com/caregraph/caregraph/pkg/model"
)

// Actor is the authenticated principal every coordinator entry point
// receives. Token verification happens upstream; the coordinator only
// evaluates permissions.
type Actor struct {
	UserID string
	Role   model.Role
}

// Action names one (operation, entity-kind) pair in the capability table.
type Action string

const (
	ActionHospitalCreate Action = "hospital.create"
	ActionHospitalUpdate Action = "hospital.update"
	ActionHospitalDelete Action = "hospital.delete"

	ActionDoctorRegister Action = "doctor.register"
	ActionDoctorUpdate   Action = "doctor.update"
	ActionDoctorRate     Action = "doctor.rate"
	ActionDoctorDelete   Action = "doctor.delete"

	ActionPatientRegister Action = "patient.register"
	ActionPatientView     Action = "patient.view"
	ActionPatientUpdate   Action = "patient.update"
	ActionPatientDelete   Action = "patient.delete"
	ActionPatientList     Action = "patient.list"

	ActionAppointmentCreate Action = "appointment.create"
	ActionAppointmentStatus Action = "appointment.status"
	ActionAppointmentDelete Action = "appointment.delete"
	ActionAppointmentList   Action = "appointment.list"

	ActionPredictionCreate Action = "prediction.create"
	ActionPredictionView   Action = "prediction.view"
	ActionPredictionDelete Action = "prediction.delete"
	ActionPredictionList   Action = "prediction.list"
)

// capability describes who may perform an action: any of the listed roles,
// or the owner of the target entity when owner is set.
type capability struct {
	roles []model.Role
	owner bool
}

var capabilities = map[Action]capability{
	ActionHospitalCreate: {roles: []model.Role{model.RoleAdmin}},
	ActionHospitalUpdate: {roles: []model.Role{model.RoleAdmin}},
	ActionHospitalDelete: {roles: []model.Role{model.RoleAdmin}},

	ActionDoctorRegister: {roles: []model.Role{model.RoleDoctor}},
	ActionDoctorUpdate:   {roles: []model.Role{model.RoleAdmin}, owner: true},
	ActionDoctorRate:     {roles: []model.Role{model.RoleAdmin}},
	ActionDoctorDelete:   {roles: []model.Role{model.RoleAdmin}, owner: true},

	ActionPatientRegister: {roles: []model.Role{model.RolePatient}},
	ActionPatientView:     {roles: []model.Role{model.RoleAdmin}, owner: true},
	ActionPatientUpdate:   {roles: []model.Role{model.RoleAdmin}, owner: true},
	ActionPatientDelete:   {roles: []model.Role{model.RoleAdmin}, owner: true},
	ActionPatientList:     {roles: []model.Role{model.RoleAdmin}},

	ActionAppointmentCreate: {roles: []model.Role{model.RolePatient}},
	ActionAppointmentStatus: {roles: []model.Role{model.RoleAdmin, model.RoleDoctor}},
	ActionAppointmentDelete: {roles: []model.Role{model.RoleAdmin}, owner: true},
	ActionAppointmentList:   {roles: []model.Role{model.RoleAdmin}},

	ActionPredictionCreate: {roles: []model.Role{model.RolePatient}},
	ActionPredictionView:   {roles: []model.Role{model.RoleAdmin}, owner: true},
	ActionPredictionDelete: {roles: []model.Role{model.RoleAdmin}, owner: true},
	ActionPredictionList:   {roles: []model.Role{model.RoleAdmin}},
}

// authorize checks the capability table. ownerUserID is the user id owning
// the target entity; pass "" for actions with no ownership predicate. The
// check is independent of entity existence so unauthorized actors learn
// nothing about the graph.
func authorize(actor Actor, action Action, ownerUserID string) error {
	cap, ok := capabilities[action]
	if !ok {
		return &AuthorizationError{Msg: "action not permitted: " + string(action)}
	}
	for _, r := range cap.roles {
		if actor.Role == r {
			return nil
		}
	}
	if cap.owner && ownerUserID != "" && actor.UserID == ownerUserID {
		return nil
	}
	return &AuthorizationError{Msg: "not authorized for " + string(action)}
}
