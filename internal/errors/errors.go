package errors

import (
	stderrors "errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type DuplicateUsernameError struct {
	Username string
}

func (e *DuplicateUsernameError) Error() string {
	return fmt.Sprintf("username %q is already taken", e.Username)
}

func NewDuplicateUsernameError(username string) *DuplicateUsernameError {
	return &DuplicateUsernameError{Username: username}
}

func IsDuplicateUsernameError(err error) (*DuplicateUsernameError, bool) {
	var de *DuplicateUsernameError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// StorageError reports a failure reaching or writing to the backend. Its
// message is meant for logs; callers facing end users must not echo it.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Cause)
	}
	return "storage: " + e.Op
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

func NewStorageError(op string, cause error) *StorageError {
	return &StorageError{
		Op:    op,
		Cause: cause,
	}
}

func IsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

type SubscriptionError struct {
	Topic string
	Cause error
}

func (e *SubscriptionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("subscription %q: %v", e.Topic, e.Cause)
	}
	return fmt.Sprintf("subscription %q failed", e.Topic)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Cause
}

func NewSubscriptionError(topic string, cause error) *SubscriptionError {
	return &SubscriptionError{
		Topic: topic,
		Cause: cause,
	}
}

func IsSubscriptionError(err error) (*SubscriptionError, bool) {
	var se *SubscriptionError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func IsUnauthorizedError(err error) (*UnauthorizedError, bool) {
	var ue *UnauthorizedError
	if stderrors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
