package errors

import "fmt"

var (
	ErrUnauthenticated    = fmt.Errorf("unauthenticated")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidPayload     = fmt.Errorf("invalid payload")
	ErrStorage            = fmt.Errorf("storage failure")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
