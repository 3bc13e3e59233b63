package dto

// SignUpRequest registro de usuario.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,min=1,max=200"`
}

// SignInRequest inicio de sesión.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse token emitido más el contexto de organización.
type SessionResponse struct {
	Token    string       `json:"token"`
	User     UserResponse `json:"user"`
	TenantID string       `json:"tenant_id,omitempty"`
	Role     string       `json:"role,omitempty"`
}

// UserResponse datos públicos del usuario.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// MeResponse usuario autenticado y su organización activa.
type MeResponse struct {
	User     UserResponse `json:"user"`
	TenantID string       `json:"tenant_id,omitempty"`
	Role     string       `json:"role,omitempty"`
}
