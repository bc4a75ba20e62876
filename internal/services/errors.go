package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by services. Handlers map these onto HTTP
// status codes.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrExamNotFound       = errors.New("exam not found")
	ErrResultNotFound     = errors.New("result not found")
	ErrEmailTaken         = errors.New("email or username already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")

	// ErrResultAlreadyExists guards the one-submission-per-exam rule.
	ErrResultAlreadyExists = errors.New("result already submitted for this exam")

	ErrExamWindowClosed     = errors.New("exam window is closed")
	ErrQuestionNotApproved  = errors.New("question is not approved")
	ErrResultNotValidatable = errors.New("result has not been submitted yet")
)

// ValidationError reports one business-rule violation on a named field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value interface{}) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// ValidationErrors aggregates every violation found in one request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// PermissionError reports a denied action with enough context to log.
type PermissionError struct {
	UserID   uint   `json:"user_id"`
	EntityID uint   `json:"entity_id,omitempty"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

func (e PermissionError) Error() string {
	return fmt.Sprintf("user %d may not %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID, entityID uint, resource, action, reason string) error {
	return PermissionError{
		UserID:   userID,
		EntityID: entityID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

func IsValidationError(err error) bool {
	var single ValidationError
	var many ValidationErrors
	return errors.As(err, &single) || errors.As(err, &many)
}

func IsPermissionError(err error) bool {
	var pe PermissionError
	return errors.As(err, &pe)
}
