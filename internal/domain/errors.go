package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrRecordNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when an update lost a race against
	// a concurrent transition on the same record.
	ErrVersionConflict = errors.New("record was modified concurrently")
)

// UnknownDomainError is returned when a request names a domain outside
// the registered set.
type UnknownDomainError struct {
	Domain Domain
	Valid  []Domain
}

func (e *UnknownDomainError) Error() string {
	valid := make([]string, len(e.Valid))
	for i, d := range e.Valid {
		valid[i] = string(d)
	}
	return fmt.Sprintf("unknown domain %q (valid: %s)", e.Domain, strings.Join(valid, ", "))
}

// IllegalTransitionError is returned when a requested status change is
// not in the domain's transition table. Allowed carries the legal next
// statuses so a client can correct its request without a second round-trip.
type IllegalTransitionError struct {
	Domain  Domain
	From    Status
	To      Status
	Allowed []Status
}

func (e *IllegalTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s cannot move from %q to %q: %q is terminal", e.Domain, e.From, e.To, e.From)
	}
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("%s cannot move from %q to %q (valid: %s)", e.Domain, e.From, e.To, strings.Join(allowed, ", "))
}
