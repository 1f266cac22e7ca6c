package domain

import "time"

type User struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Reminder struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message,omitempty"`
	DueDate    time.Time `json:"due_date"`
	CreatedBy  uint      `json:"created_by"`
	Recipients []User    `json:"recipients,omitempty"`
}

// ReminderFeed groups reminders a user authored and reminders addressed
// to them. The sets are independent: a creator who is also a recipient
// appears in both.
type ReminderFeed struct {
	Created  []Reminder `json:"created"`
	Received []Reminder `json:"received"`
}
