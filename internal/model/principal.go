package model

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

type Principal struct {
	Subject string
	Role    Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
