package store

import "github.com/xhatsu/reminder-me-api/pkg/domain"

// Store defines persistence operations for users, reminders, and the
// recipient association between them.
type Store interface {
	// users
	CreateUser(domain.User) (domain.User, error)
	HasUser(username, email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByID(id uint) (domain.User, bool, error)

	// reminders
	CreateReminder(domain.Reminder) (domain.Reminder, error)
	GetReminder(id uint) (domain.Reminder, bool, error)
	ListCreatedBy(userID uint) ([]domain.Reminder, error)
	ListReceivedBy(userID uint) ([]domain.Reminder, error)
	DeleteReminder(id uint) error

	// recipients
	IsRecipient(reminderID, userID uint) (bool, error)
	AddRecipient(reminderID, userID uint) error
	RemoveRecipient(reminderID, userID uint) error
}

// SessionStore issues and validates session tokens.
type SessionStore interface {
	NewSession(userID uint) (string, error)
	GetUserIDByToken(token string) (uint, bool, error)
	DeleteSession(token string) error
}
