package store

import "time"

// GORM models used for persistence. Table names follow the original
// schema: user, reminder, reminder_recipients.
type UserModel struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "user" }

type ReminderModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Title     string `gorm:"not null"`
	Message   string
	DueDate   time.Time `gorm:"not null"`
	CreatedBy uint      `gorm:"not null;index"`
}

func (ReminderModel) TableName() string { return "reminder" }

type ReminderRecipientModel struct {
	UserID     uint `gorm:"primaryKey"`
	ReminderID uint `gorm:"primaryKey"`
}

func (ReminderRecipientModel) TableName() string { return "reminder_recipients" }
