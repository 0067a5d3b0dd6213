package services

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrNotFound           ErrorKind = "NotFound"
	ErrUnauthorized       ErrorKind = "Unauthorized"
	ErrInvalidState       ErrorKind = "InvalidState"
	ErrInsufficientQuota  ErrorKind = "InsufficientQuota"
	ErrInsufficientPoints ErrorKind = "InsufficientPoints"
	ErrAlreadyExists      ErrorKind = "AlreadyExists"
	ErrUserNotVerified    ErrorKind = "UserNotVerified"
	ErrInvalidVoucher     ErrorKind = "InvalidVoucher"
	ErrVoucherNotActive   ErrorKind = "VoucherNotActive"
	ErrVoucherWrongEvent  ErrorKind = "VoucherWrongEvent"
	ErrInvalidCoupon      ErrorKind = "InvalidCoupon"
	ErrCouponNotActive    ErrorKind = "CouponNotActive"
)

// DomainError is returned for every rule violation. Entity is only set for
// NotFound.
type DomainError struct {
	Kind    ErrorKind
	Entity  string
	Message string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return string(e.Kind)
}

// Is matches any DomainError of the same kind, so errors.Is(err, ErrKind(...))
// works without comparing messages.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	if t.Entity != "" && t.Entity != e.Entity {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(entity string) *DomainError {
	return &DomainError{Kind: ErrNotFound, Entity: entity}
}

// Kind returns a bare error of the given kind, for use with errors.Is.
func Kind(kind ErrorKind) error {
	return &DomainError{Kind: kind}
}

func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
