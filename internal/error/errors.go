package errors

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request format")
	ErrWithdrawalNotFound    = errors.New("withdrawal request not found")
	ErrIllegalTransition     = errors.New("illegal status transition")
	ErrOperatorNotFound      = errors.New("operator not found")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrOperatorAlreadyExists = errors.New("operator already exists")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrPasswordHashing       = errors.New("failed to hash password")
	ErrDatabaseOperation     = errors.New("database operation failed")
)
