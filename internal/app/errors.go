package app

import "errors"

var (
	// ErrUserExists covers both username and email collisions; a single
	// existence check guards registration, so callers cannot tell which
	// field collided.
	ErrUserExists = errors.New("user already exists")

	ErrUserNotFound     = errors.New("user not found")
	ErrReminderNotFound = errors.New("reminder not found")

	// ErrInvalidCredentials is returned on a credential-hash mismatch.
	// The message is safe to show to end users.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrNotCreator is returned when a non-creator attempts deletion.
	ErrNotCreator = errors.New("only the creator may delete a reminder")

	ErrRegistrationFields = errors.New("username, email, and password_hash required")
	ErrTitleRequired      = errors.New("title required")
	ErrDueDateRequired    = errors.New("due_date required")

	// ErrNoValidRecipients is returned when a non-empty recipient list
	// resolves to no existing users.
	ErrNoValidRecipients = errors.New("none of the recipient ids exist")

	// ErrNotRecipient is returned when removing a user who is not
	// currently a recipient. Removal is deliberately not idempotent.
	ErrNotRecipient = errors.New("user is not a recipient of this reminder")

	ErrIDTokenRequired = errors.New("id_token required")
	ErrInvalidIDToken  = errors.New("invalid id token")
)
