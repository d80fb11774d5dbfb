package dto

// UpdateUserDTO — all fields are optional pointers; unset fields are left
// untouched.
type UpdateUserDTO struct {
	Name     *string `json:"name" binding:"omitempty,min=2"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *string `json:"role" binding:"omitempty,oneof=USER ADMIN SUPERADMIN"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}
