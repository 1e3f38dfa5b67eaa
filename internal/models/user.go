package models

// User is the application-side record for an authenticated principal.
// Subject is the issuer `sub` claim; it is set when the row is created
// and never mutated.
type User struct {
	ID      int64   `json:"id"`
	Subject string  `json:"auth0Sub"`
	Name    string  `json:"name"`
	Email   *string `json:"email"`
}

// UserUpdateRequest carries the mutable profile fields.
type UserUpdateRequest struct {
	Name  string  `json:"name" validate:"required,max=100"`
	Email *string `json:"email" validate:"omitempty,email,max=100"`
}
