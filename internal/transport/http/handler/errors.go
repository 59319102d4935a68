package handler

// Outward-facing messages. Login failures for a missing user and a wrong
// password share one message so responses don't reveal which emails have
// accounts.
const (
	errInternalServer     = "Internal server error"
	errInvalidCredentials = "Invalid credentials"
	errNotVerified        = "Email is not verified"
	errCodeInvalid        = "Verification code is invalid or expired"
	errTokenInvalid       = "Reset token is invalid or expired"
	errEmailTaken         = "User already exists"

	msgResetRequested = "If that email is registered, a password reset link has been sent"
)
