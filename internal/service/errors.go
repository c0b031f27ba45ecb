package service

import "errors"

// Sentinel errors for rejected operations. Services wrap these with context
// via fmt.Errorf("...: %w", ...); handlers map them to HTTP status codes.
// A rejected operation leaves every store untouched.
var (
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrValidation         = errors.New("validation failed")
)
