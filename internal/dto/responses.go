package dto

// WhoAmIResponse reports the low-trust identity of the caller
type WhoAmIResponse struct {
	Username  string `json:"username,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

// UserResponse represents a user response
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Platform  string `json:"platform"`
	CreatedAt string `json:"created_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
