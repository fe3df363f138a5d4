// Package service holds the marina business rules: map registry, boat and
// position management, and access control. Services own transactions and
// translate repository sentinels into the API error kinds below.
package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map each kind to one HTTP status.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error is a domain failure whose Detail is safe to show to clients.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Kind }

func notFound(detail string) error { return &Error{Kind: ErrNotFound, Detail: detail} }

func conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Detail: fmt.Sprintf(format, args...)}
}

func validation(detail string) error { return &Error{Kind: ErrValidation, Detail: detail} }

func unauthorized(detail string) error { return &Error{Kind: ErrUnauthorized, Detail: detail} }

func forbidden(detail string) error { return &Error{Kind: ErrForbidden, Detail: detail} }

// Detail messages shared by several operations.
const (
	msgBoatNotFound     = "Boat not found"
	msgPositionNotFound = "Position not found"
	msgMapNotFound      = "Map not found"
	msgUserNotFound     = "User not found"
	msgPositionTaken    = "Position already assigned to another boat"
	msgNotAssigned      = "Boat is not currently assigned to any position"
	msgActiveMapName    = "Active map with this name already exists"
	msgBadCredentials   = "Could not validate credentials"
	msgInactiveUser     = "Inactive user"
	msgNoPermission     = "Not enough permissions"
	msgConcurrentUpdate = "Record was changed by a concurrent request, please retry"
)
