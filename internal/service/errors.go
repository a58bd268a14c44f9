package service

import "errors"

// Service-level errors the HTTP layer maps onto status codes. Uniqueness
// conflicts surface from the store as apperr with the conflict code.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)
