package service

import "errors"

// Sentinel errors translated to HTTP statuses at the handler boundary.
// Message text is what the API returns; storage error shapes never leak past
// this package.
var (
	ErrEmailTaken        = errors.New("user with this email already exists")
	ErrUsernameTaken     = errors.New("user with this username already exists")
	ErrUnauthorized      = errors.New("incorrect username or password")
	ErrEmailNotConfirmed = errors.New("email address not confirmed")
	ErrCredentials       = errors.New("could not validate credentials")

	ErrUserNotFound       = errors.New("no user with this email address")
	ErrInvalidResetTicket = errors.New("invalid password reset token")
	ErrResetTicketExpired = errors.New("password reset token expired")

	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrEmailTokenInvalid = errors.New("invalid email verification token")
	ErrVerification      = errors.New("verification error")

	ErrForbidden        = errors.New("insufficient permissions")
	ErrContactNotFound  = errors.New("contact not found")
	ErrContactDuplicate = errors.New("contact with this email or phone already exists")
	ErrInvalidBirthDate = errors.New("birth_date must be formatted as YYYY-MM-DD")
)
