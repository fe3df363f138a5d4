// Package repository holds the raw SQL data access for users, refresh
// tokens, maps, boat listings and boat positions. Repositories return the
// sentinel errors below; the service layer translates them into API errors.
package repository

import "errors"

// ErrDuplicate is returned when a write violates a unique constraint
// (boat index, listing position, email). Under concurrent writers this is
// how a lost race surfaces.
var ErrDuplicate = errors.New("duplicate key")

// ErrEmailExists is the ErrDuplicate raised by users.email.
var ErrEmailExists = errors.New("email already exists")

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrMapNotFound      = errors.New("map not found")
	ErrBoatNotFound     = errors.New("boat not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrTokenInvalid     = errors.New("refresh token invalid")
)
