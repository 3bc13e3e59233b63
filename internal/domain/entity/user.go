package entity

import "time"

// Roles válidos dentro de una organización.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// ValidRole informa si r es uno de los roles conocidos.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleBodeguero || r == RoleVendedor
}

// Estados de cuenta.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// AuthUser credenciales de acceso (tabla auth_users). Es la fuente de verdad para sync-users.
type AuthUser struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile datos visibles del usuario (tabla profiles, mismo ID que auth_users).
type Profile struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRole rol de un usuario en una organización (tabla user_roles).
type UserRole struct {
	ID        string
	UserID    string
	TenantID  string
	Role      string
	CreatedAt time.Time
}

// UserRoleWithName fila de la vista user_roles_with_name.
type UserRoleWithName struct {
	UserID    string
	TenantID  string
	Role      string
	FullName  string
	Email     string
	CreatedAt time.Time
}
