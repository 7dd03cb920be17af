// Package apperr holds the request-scoped error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation            Kind = "validation"
	KindNotFound              Kind = "not_found"
	KindUnauthorized          Kind = "unauthorized"
	KindForbidden             Kind = "forbidden"
	KindSelfSubscription      Kind = "self_subscription"
	KindAlreadySubscribed     Kind = "already_subscribed"
	KindAlreadyFavorited      Kind = "already_favorited"
	KindAlreadyInShoppingCart Kind = "already_in_shopping_cart"
	KindEmptyResult           Kind = "empty_result"
	KindInternal              Kind = "internal"
)

type Error struct {
	Kind    Kind
	Field   string // set for validation errors
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindSelfSubscription, KindAlreadySubscribed,
		KindAlreadyFavorited, KindAlreadyInShoppingCart, KindEmptyResult:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id uint) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func SelfSubscription() *Error {
	return &Error{Kind: KindSelfSubscription, Message: "cannot subscribe to yourself"}
}

func AlreadySubscribed(author string) *Error {
	return &Error{Kind: KindAlreadySubscribed, Message: fmt.Sprintf("already subscribed to %s", author)}
}

func AlreadyFavorited(materialID uint) *Error {
	return &Error{Kind: KindAlreadyFavorited, Message: fmt.Sprintf("material %d is already in favorites", materialID)}
}

func AlreadyInShoppingCart(materialID uint) *Error {
	return &Error{Kind: KindAlreadyInShoppingCart, Message: fmt.Sprintf("material %d is already in the shopping cart", materialID)}
}

func EmptyResult(msg string) *Error {
	return &Error{Kind: KindEmptyResult, Message: msg}
}

// From extracts an *Error from err's chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := From(err)
	return ok && e.Kind == kind
}

// NotFoundOr translates gorm.ErrRecordNotFound into a NotFound error for the
// given entity, wrapping anything else.
func NotFoundOr(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e := NotFound(entity, id)
		e.Err = err
		return e
	}
	return fmt.Errorf("load %s %d: %w", entity, id, err)
}

// IsDuplicate reports whether err is a storage-level unique violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
