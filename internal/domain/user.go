package domain

import (
	"time"
)

// Role is treated as an opaque string by the domain engine; only the HTTP
// layer interprets it for route guards.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleChief     Role = "chief"
	RoleDisponent Role = "disponent"
	RoleAnalyst   Role = "analyst"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
