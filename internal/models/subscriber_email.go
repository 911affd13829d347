package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrInvalidEmail = fmt.Errorf("%w: invalid subscriber email", ErrValidation)
)

var emailValidator = validator.New()

// SubscriberEmail is an email address that passed ParseSubscriberEmail.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail checks raw against the email grammar and wraps it unchanged.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if strings.TrimSpace(raw) == "" {
		return SubscriberEmail{}, fmt.Errorf("%w: empty", ErrInvalidEmail)
	}
	if strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return SubscriberEmail{}, fmt.Errorf("%w: %q contains whitespace", ErrInvalidEmail, raw)
	}

	at := strings.LastIndex(raw, "@")
	if at <= 0 {
		return SubscriberEmail{}, fmt.Errorf("%w: %q has no local part", ErrInvalidEmail, raw)
	}
	domain := raw[at+1:]
	if !strings.Contains(domain, ".") {
		return SubscriberEmail{}, fmt.Errorf("%w: %q domain has no dot", ErrInvalidEmail, raw)
	}

	if err := emailValidator.Var(raw, "email"); err != nil {
		return SubscriberEmail{}, fmt.Errorf("%w: %q is not a valid address", ErrInvalidEmail, raw)
	}

	return SubscriberEmail{value: raw}, nil
}

func (e SubscriberEmail) String() string {
	return e.value
}
