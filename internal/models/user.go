package models

type Role string

const (
	RoleUser       Role = "user"
	RoleRescuer    Role = "rescuer"
	RoleDispatcher Role = "dispatcher"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleRescuer, RoleDispatcher, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}
