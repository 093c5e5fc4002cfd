// Package identity keeps the registered accounts in memory, indexed by uid
// and by email, and handles registration and password login.
package identity

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Account struct {
	UID      int64
	Name     string
	Email    string
	PassHash string
	IsWorker bool
}

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// StorageError reports a failed write to the account store. Its message is the
// underlying driver message.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

type registration struct {
	Name     string `validate:"required"`
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationError turns validator field errors into one ErrValidation.
func validationError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return errors.Join(ErrValidation, err)
	}
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, strings.ToLower(f.Field())+" is "+f.Tag())
	}
	return &fieldError{msg: strings.Join(msgs, ", ")}
}

type fieldError struct{ msg string }

func (e *fieldError) Error() string        { return e.msg }
func (e *fieldError) Is(target error) bool { return target == ErrValidation }
