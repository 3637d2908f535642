package entity

import "time"

// Roles válidos para User.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleOperator   = "operator"
)

// Estados de User.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario de la consola. Solo se usa para autenticar e identificar
// al actor de cada movimiento.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string // superadmin, admin, operator
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
