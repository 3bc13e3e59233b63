package dto

import "time"

// CreateUserRequest alta de usuario dentro de la organización (solo admin).
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,min=1,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin bodeguero vendedor"`
}

// UpdateRoleRequest cambio de rol.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin bodeguero vendedor"`
}

// TenantUserResponse fila de user_roles_with_name.
type TenantUserResponse struct {
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SyncUsersRequest body de POST /api/functions/sync-users.
type SyncUsersRequest struct {
	ForceUpdate    bool   `json:"forceUpdate"`
	ForceSyncAll   bool   `json:"forceSyncAll"`
	SpecificUserID string `json:"specificUserId" validate:"omitempty,uuid"`
}

// SyncUsersResponse resultado de la sincronización.
type SyncUsersResponse struct {
	Success         bool `json:"success"`
	Processed       int  `json:"processed"`
	ProfilesCreated int  `json:"profilesCreated"`
	ProfilesUpdated int  `json:"profilesUpdated"`
	RolesCreated    int  `json:"rolesCreated"`
	Orphaned        int  `json:"orphaned"`
}
