package models

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

const maxNameGraphemes = 256

// forbiddenNameChars may never appear in a subscriber name.
const forbiddenNameChars = `/()"<>\{}`

var ErrInvalidName = fmt.Errorf("%w: invalid subscriber name", ErrValidation)

// SubscriberName is a trimmed display name that passed ParseSubscriberName.
type SubscriberName struct {
	value string
}

func ParseSubscriberName(raw string) (SubscriberName, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return SubscriberName{}, fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if n := uniseg.GraphemeClusterCount(name); n > maxNameGraphemes {
		return SubscriberName{}, fmt.Errorf("%w: %d graphemes, max %d", ErrInvalidName, n, maxNameGraphemes)
	}
	if i := strings.IndexAny(name, forbiddenNameChars); i >= 0 {
		return SubscriberName{}, fmt.Errorf("%w: forbidden character %q", ErrInvalidName, name[i])
	}

	return SubscriberName{value: name}, nil
}

func (n SubscriberName) String() string {
	return n.value
}
