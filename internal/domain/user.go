package domain

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type User struct {
	ID        string
	Email     string
	FullName  string
	Role      Role
	CreatedAt time.Time
}
