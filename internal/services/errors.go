package services

import "errors"

// ErrGateway classes every transport or provider failure of the payment
// gateway. Always retryable; never a statement about the payment's outcome.
var ErrGateway = errors.New("payment gateway failure")

// ErrCapacityExceeded is returned when an event has no open slots.
var ErrCapacityExceeded = errors.New("event is full")

// ErrAlreadyTicketed is returned when a successful payment already exists
// for the (event, user) pair.
var ErrAlreadyTicketed = errors.New("ticket already purchased for this event")

// ErrFreeEvent is returned when checkout is attempted on a free event.
var ErrFreeEvent = errors.New("event is free, use registration instead")

// ErrPaidEvent is returned when plain registration is attempted on a paid event.
var ErrPaidEvent = errors.New("event requires payment, use checkout instead")

// ErrInvalidCredentials is returned on a failed password check.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrReconciliationRequired flags a verified payment whose admission failed.
// Logged distinctly and persisted for operator follow-up, never swallowed.
var ErrReconciliationRequired = errors.New("payment succeeded but admission failed, reconciliation required")
