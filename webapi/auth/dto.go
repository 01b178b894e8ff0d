package auth

// LoginRequest is the body for card-and-PIN authentication.
type LoginRequest struct {
	CardNumber string `json:"cardNumber" validate:"required"`
	Pin        string `json:"pin" validate:"required"`
}
