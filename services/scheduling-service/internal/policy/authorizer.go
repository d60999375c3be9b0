package policy

import (
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
)

// Authorizer decides whether a staff member may act on an appointment.
// Patients are handled by the lifecycle itself, as are health
// professionals for rescheduling.
type Authorizer interface {
	CanReschedule(actor model.User, appt model.Appointment) bool
	CanCancel(actor model.User, appt model.Appointment) bool
}

type roleAuthorizer struct {
	reschedule map[model.Role]bool
	cancel     map[model.Role]bool
}

func roleSet(roles []model.Role) map[model.Role]bool {
	set := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}

// NewRoleAuthorizer grants rescheduling and cancelling to the given roles.
func NewRoleAuthorizer(roles ...model.Role) Authorizer {
	return &roleAuthorizer{reschedule: roleSet(roles), cancel: roleSet(roles)}
}

// DefaultAuthorizer lets front desk and administrators reschedule and
// cancel. Health professionals may cancel their own appointments.
func DefaultAuthorizer() Authorizer {
	staff := []model.Role{model.RoleReceptionist, model.RoleClinicAdmin, model.RoleSystemAdmin}
	return &roleAuthorizer{
		reschedule: roleSet(staff),
		cancel:     roleSet(staff),
	}
}

func (a *roleAuthorizer) CanReschedule(actor model.User, _ model.Appointment) bool {
	return actor.IsActive && a.reschedule[actor.Role]
}

func (a *roleAuthorizer) CanCancel(actor model.User, appt model.Appointment) bool {
	if !actor.IsActive {
		return false
	}
	if actor.Role == model.RoleHealthProfessional {
		return actor.ID == appt.ProfessionalID
	}
	return a.cancel[actor.Role]
}
