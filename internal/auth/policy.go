// Package auth carries the caller identity through a request and holds the
// role-to-operation authorization matrix in one auditable table.
package auth

import "github.com/avaldez96/rescue-dispatch/internal/models"

// Identity is the gateway-verified caller. Token issuance and verification
// happen upstream; this service only consumes the result.
type Identity struct {
	ID   int64
	Role models.Role
}

type Operation string

const (
	OpAlertList      Operation = "alert.list"
	OpAlertGet       Operation = "alert.get"
	OpAlertCreate    Operation = "alert.create"
	OpAlertUpdate    Operation = "alert.update"
	OpAlertSetStatus Operation = "alert.set_status"
	OpAlertDelete    Operation = "alert.delete"
	OpAlertAssign    Operation = "alert.assign"
)

// policy is the full operation x role matrix. Roles absent from a row are
// denied. Per-record ownership checks (a user reading their own alert)
// stay with the services; this table answers only "may this role invoke
// this operation at all".
var policy = map[Operation]map[models.Role]bool{
	OpAlertList: {
		models.RoleUser:       true,
		models.RoleRescuer:    true,
		models.RoleDispatcher: true,
		models.RoleAdmin:      true,
	},
	OpAlertGet: {
		models.RoleUser:       true,
		models.RoleRescuer:    true,
		models.RoleDispatcher: true,
		models.RoleAdmin:      true,
	},
	OpAlertCreate: {
		models.RoleUser:       true,
		models.RoleRescuer:    true,
		models.RoleDispatcher: true,
		models.RoleAdmin:      true,
	},
	OpAlertUpdate: {
		models.RoleDispatcher: true,
		models.RoleAdmin:      true,
	},
	OpAlertSetStatus: {
		models.RoleRescuer:    true,
		models.RoleDispatcher: true,
		models.RoleAdmin:      true,
	},
	OpAlertDelete: {
		models.RoleAdmin: true,
	},
	OpAlertAssign: {
		models.RoleDispatcher: true,
		models.RoleAdmin:      true,
	},
}

func Allowed(op Operation, role models.Role) bool {
	return policy[op][role]
}
