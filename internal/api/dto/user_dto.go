package dto

// SignupRequest payload for new users.
type SignupRequest struct {
	Email    string `json:"email" form:"email"`
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// SignupResponse is returned by PUT /signup.
type SignupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// AuthResponse standard response for login.
type AuthResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// StatusRequest payload for PATCH /feed/status.
type StatusRequest struct {
	Status string `json:"status" form:"status"`
}

// StatusResponse carries the caller's status text.
type StatusResponse struct {
	Status string `json:"status"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is written for every failed request; data holds field
// errors for validation failures.
type ErrorResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
