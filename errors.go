package kouhai

import (
	"fmt"
)

// CreationError is returned when the buffer of a channel cannot be created.
type CreationError struct {
	Name string
	Err  error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create buffer %q: %v", e.Name, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

// FetchError is returned when history or members of a channel cannot be
// loaded.
type FetchError struct {
	ChannelID string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load channel %s: %v", e.ChannelID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError is reported when message content is rejected before
// being sent.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransportError is reported when Discord rejects a message or cannot be
// reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
