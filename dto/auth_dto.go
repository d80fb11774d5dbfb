package dto

type RegisterDTO struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	// Optional requested role; ignored for the bootstrap account, which is
	// always created as SUPERADMIN.
	Role string `json:"role" binding:"omitempty,oneof=USER ADMIN SUPERADMIN"`
}

type LoginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordDTO struct {
	Token    string `json:"token"` // may come from the query string instead
	Password string `json:"password" binding:"required,min=8"`
}
