package dto

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse returns the issued bearer token and identity summary.
type LoginResponse struct {
	Token        string `json:"token"`
	UserID       uint   `json:"user_id"`
	Role         string `json:"role"`
	DepartmentID *uint  `json:"department_id"`
	ExpiresIn    int64  `json:"expires_in"`
}
