package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrFieldsRequired        = errors.New("Name, email and password are required")
	ErrPasswordMismatch      = errors.New("Passwords do not match")
	ErrInvalidEmail          = errors.New("Invalid email address")
	ErrInvalidName           = errors.New("Name may only contain letters, spaces, hyphens and apostrophes")
	ErrWeakPassword          = errors.New("Password should be at least 6 characters and contain a letter and a number")
	ErrEmailRequired         = errors.New("Please enter your email address first")
	ErrInvalidCredentials    = errors.New("Invalid email or password")
	ErrEmailExists           = errors.New("An account with this email already exists")
	ErrAccountNotFound       = errors.New("No account found for this email")
	ErrInvalidResetCode      = errors.New("Password reset link is invalid or has expired")
	ErrTooManyAttempts       = errors.New("Too many attempts, try again later")
	ErrNotAuthenticated      = errors.New("Not authenticated")
)
