package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type SubscribeForm struct {
	Name  string `form:"name"`
	Email string `form:"email"`
}

type NewSubscriber struct {
	Email SubscriberEmail
	Name  SubscriberName
}

// Parse validates both fields and reports every failure, not just the first.
func (f SubscribeForm) Parse() (NewSubscriber, error) {
	name, nameErr := ParseSubscriberName(f.Name)
	email, emailErr := ParseSubscriberEmail(f.Email)
	if err := errors.Join(nameErr, emailErr); err != nil {
		return NewSubscriber{}, err
	}

	return NewSubscriber{Email: email, Name: name}, nil
}

type Subscription struct {
	ID           uuid.UUID
	Email        SubscriberEmail
	Name         SubscriberName
	SubscribedAt time.Time
}
