package contracts

import "errors"

var (
	// ErrNotInitialized is returned when a session operation runs before
	// Initialize has completed successfully.
	ErrNotInitialized = errors.New("hoppertalk: session not initialized")

	// ErrDirectoryConflict is returned when creating a user whose display
	// name already exists in the directory.
	ErrDirectoryConflict = errors.New("hoppertalk: display name already registered")

	// ErrUnknownUser is returned when a name or id does not resolve to a
	// directory entry.
	ErrUnknownUser = errors.New("hoppertalk: user not found in directory")

	// ErrSelfReference is returned when a user tries to add themselves as
	// a contact.
	ErrSelfReference = errors.New("hoppertalk: cannot add yourself as a contact")

	// ErrNotContact is returned when the target exists in the directory but
	// is not in the caller's contact set.
	ErrNotContact = errors.New("hoppertalk: user is not in your contact list")

	// ErrTransportUnavailable is returned when the broker connection or
	// channel setup fails.
	ErrTransportUnavailable = errors.New("hoppertalk: message broker unavailable")

	// ErrMalformedEnvelope is returned when a received payload does not
	// decode into a valid envelope.
	ErrMalformedEnvelope = errors.New("hoppertalk: malformed message envelope")
)
