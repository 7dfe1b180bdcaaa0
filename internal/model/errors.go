package model

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("invalid input")
	ErrNotAuthenticated = errors.New("not authenticated")
)
