package services

import "fmt"

// ValidationError marks a reply that could not be interpreted for the current
// question. It is recoverable: the engine answers with a retry prompt and the
// conversation stays on the same question.
type ValidationError struct {
	Message string // canonical retry text, e.g. "reply with a number from 1-5"
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError marks an unknown customer or question id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// StateError marks an illegal transition attempt, e.g. starting a survey that
// is already in progress or handling a reply with no pending question.
// No mutation occurs when one is returned.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

func newStateError(format string, args ...interface{}) *StateError {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

// DeliveryError marks a failed MessagingGateway send. The customer-record
// mutation that preceded the send is not rolled back; callers receive the
// error alongside the already-applied result.
type DeliveryError struct {
	Phone string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("sms delivery to %s failed: %v", e.Phone, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
