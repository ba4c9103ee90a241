package hook

import "errors"

var (
	// ErrEmptyHookID is returned when a hook's ID method returns "".
	ErrEmptyHookID = errors.New("hook: id must not be empty")

	// ErrHookAlreadyExists is returned by Manager.Add when a hook with
	// the same ID is already registered.
	ErrHookAlreadyExists = errors.New("hook: already registered")

	// ErrHookNotFound is returned by Manager.Remove when no hook with
	// the given ID is registered.
	ErrHookNotFound = errors.New("hook: not found")
)
