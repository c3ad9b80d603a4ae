package policy

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleDoctor, RoleReceptionist:
		return Role(s), true
	}
	return "", false
}

type Action string

const (
	ActionViewAny Action = "view_any"
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
)

type Entity string

const (
	EntityAppointment  Entity = "appointment"
	EntityVisit        Entity = "visit"
	EntityPrescription Entity = "prescription"
	EntityInvoice      Entity = "invoice"
	EntityPatient      Entity = "patient"
	EntityDoctor       Entity = "doctor"
)

// Actor is the authenticated caller. DoctorID is set only for doctor users
// that are linked to a doctor record.
type Actor struct {
	UserID   uuid.UUID
	Role     Role
	DoctorID *uuid.UUID
}

func (a Actor) IsAdmin() bool        { return a.Role == RoleAdmin }
func (a Actor) IsDoctor() bool       { return a.Role == RoleDoctor }
func (a Actor) IsReceptionist() bool { return a.Role == RoleReceptionist }

var all = []Role{RoleAdmin, RoleDoctor, RoleReceptionist}
var adminOnly = []Role{RoleAdmin}
var adminReceptionist = []Role{RoleAdmin, RoleReceptionist}
var adminDoctor = []Role{RoleAdmin, RoleDoctor}

// capabilities is the class-level matrix. Row-level refinements (a doctor
// only sees their own records) live in CanRecord and DoctorScope.
var capabilities = map[Entity]map[Action][]Role{
	EntityAppointment: {
		ActionViewAny: all,
		ActionView:    all,
		ActionCreate:  adminReceptionist,
		ActionUpdate:  adminReceptionist,
		ActionDelete:  adminReceptionist,
	},
	EntityVisit: {
		ActionViewAny: all,
		ActionView:    all,
		ActionCreate:  all,
		ActionUpdate:  all,
		ActionDelete:  adminOnly,
	},
	EntityPrescription: {
		ActionViewAny: all,
		ActionView:    all,
		ActionCreate:  adminDoctor,
		ActionUpdate:  adminDoctor,
		ActionDelete:  adminOnly,
	},
	EntityInvoice: {
		ActionViewAny: all,
		ActionView:    all,
		ActionCreate:  adminReceptionist,
		ActionUpdate:  adminReceptionist,
		ActionDelete:  adminOnly,
	},
	EntityPatient: {
		ActionViewAny: all,
		ActionView:    all,
		ActionCreate:  adminReceptionist,
		ActionUpdate:  adminReceptionist,
		ActionDelete:  adminOnly,
	},
	EntityDoctor: {
		ActionViewAny: all,
		ActionView:    all,
		ActionCreate:  adminOnly,
		ActionUpdate:  adminOnly,
		ActionDelete:  adminOnly,
	},
}

// Can answers the class-level capability question. Unknown roles and unknown
// entities are denied.
func Can(actor Actor, action Action, entity Entity) bool {
	actions, ok := capabilities[entity]
	if !ok {
		return false
	}
	roles, ok := actions[action]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == actor.Role {
			return true
		}
	}
	return false
}

// scopedEntities are the kinds where a doctor only operates on rows tied to
// their own doctor record.
var scopedEntities = map[Entity]bool{
	EntityAppointment:  true,
	EntityVisit:        true,
	EntityPrescription: true,
}

// CanRecord refines Can with row ownership. ownerDoctorID is the doctor the
// record belongs to (nil when the record has none). For doctor actors on
// scoped entities, view and update require ownership; prescriptions are the
// one kind a doctor may update at all, and only their own.
func CanRecord(actor Actor, action Action, entity Entity, ownerDoctorID *uuid.UUID) bool {
	if !Can(actor, action, entity) {
		return false
	}
	if !actor.IsDoctor() || !scopedEntities[entity] {
		return true
	}
	if action != ActionView && action != ActionUpdate {
		return true
	}
	if actor.DoctorID == nil || ownerDoctorID == nil {
		return false
	}
	return *actor.DoctorID == *ownerDoctorID
}

// DoctorScope returns the doctor id that list queries for the given entity
// must be filtered by, or nil when the actor sees everything.
func DoctorScope(actor Actor, entity Entity) *uuid.UUID {
	if actor.IsDoctor() && scopedEntities[entity] {
		return actor.DoctorID
	}
	return nil
}
