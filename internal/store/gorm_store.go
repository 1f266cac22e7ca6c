package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xhatsu/reminder-me-api/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &ReminderModel{}, &ReminderRecipientModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateUser inserts a user and returns it with the assigned ID.
func (s *GormStore) CreateUser(u domain.User) (domain.User, error) {
	model := userToModel(u)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.User{}, err
	}
	return userFromModel(model), nil
}

// HasUser checks whether a user with the given username or email exists.
func (s *GormStore) HasUser(username, email string) (bool, error) {
	var count int64
	err := s.db.Model(&UserModel{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	return s.getUser("email = ?", email)
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	return s.getUser("username = ?", username)
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id uint) (domain.User, bool, error) {
	return s.getUser("id = ?", id)
}

func (s *GormStore) getUser(query string, arg any) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, query, arg).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// CreateReminder persists the reminder and its recipient associations
// as one transaction. Recipients on the input are assumed resolved.
func (s *GormStore) CreateReminder(r domain.Reminder) (domain.Reminder, error) {
	model := reminderToModel(r)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for _, rec := range r.Recipients {
			assoc := ReminderRecipientModel{UserID: rec.ID, ReminderID: model.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&assoc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Reminder{}, err
	}
	out := reminderFromModel(model)
	out.Recipients = r.Recipients
	return out, nil
}

// GetReminder retrieves a reminder with its recipients populated.
func (s *GormStore) GetReminder(id uint) (domain.Reminder, bool, error) {
	var model ReminderModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Reminder{}, false, nil
		}
		return domain.Reminder{}, false, err
	}
	recipients, err := s.recipientsOf(id)
	if err != nil {
		return domain.Reminder{}, false, err
	}
	out := reminderFromModel(model)
	out.Recipients = recipients
	return out, true, nil
}

// ListCreatedBy returns reminders authored by the user in store order.
func (s *GormStore) ListCreatedBy(userID uint) ([]domain.Reminder, error) {
	var models []ReminderModel
	if err := s.db.Order("id ASC").Find(&models, "created_by = ?", userID).Error; err != nil {
		return nil, err
	}
	return remindersFromModels(models), nil
}

// ListReceivedBy returns reminders the user is a recipient of.
func (s *GormStore) ListReceivedBy(userID uint) ([]domain.Reminder, error) {
	var assocs []ReminderRecipientModel
	if err := s.db.Find(&assocs, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	if len(assocs) == 0 {
		return []domain.Reminder{}, nil
	}
	ids := make([]uint, 0, len(assocs))
	for _, a := range assocs {
		ids = append(ids, a.ReminderID)
	}
	var models []ReminderModel
	if err := s.db.Order("id ASC").Find(&models, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	return remindersFromModels(models), nil
}

// DeleteReminder removes the reminder and its recipient rows atomically.
func (s *GormStore) DeleteReminder(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&ReminderRecipientModel{}, "reminder_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ReminderModel{}, "id = ?", id).Error; err != nil {
			return err
		}
		return nil
	})
}

// IsRecipient reports whether the association row exists.
func (s *GormStore) IsRecipient(reminderID, userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&ReminderRecipientModel{}).
		Where("reminder_id = ? AND user_id = ?", reminderID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddRecipient inserts the association; duplicate inserts are no-ops.
func (s *GormStore) AddRecipient(reminderID, userID uint) error {
	assoc := ReminderRecipientModel{UserID: userID, ReminderID: reminderID}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&assoc).Error
}

// RemoveRecipient deletes the association row.
func (s *GormStore) RemoveRecipient(reminderID, userID uint) error {
	return s.db.
		Where("reminder_id = ? AND user_id = ?", reminderID, userID).
		Delete(&ReminderRecipientModel{}).Error
}

func (s *GormStore) recipientsOf(reminderID uint) ([]domain.User, error) {
	var assocs []ReminderRecipientModel
	if err := s.db.Find(&assocs, "reminder_id = ?", reminderID).Error; err != nil {
		return nil, err
	}
	if len(assocs) == 0 {
		return []domain.User{}, nil
	}
	ids := make([]uint, 0, len(assocs))
	for _, a := range assocs {
		ids = append(ids, a.UserID)
	}
	var models []UserModel
	if err := s.db.Order("id ASC").Find(&models, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func reminderToModel(r domain.Reminder) ReminderModel {
	return ReminderModel{
		ID:        r.ID,
		Title:     r.Title,
		Message:   r.Message,
		DueDate:   r.DueDate,
		CreatedBy: r.CreatedBy,
	}
}

func reminderFromModel(m ReminderModel) domain.Reminder {
	return domain.Reminder{
		ID:        m.ID,
		Title:     m.Title,
		Message:   m.Message,
		DueDate:   m.DueDate,
		CreatedBy: m.CreatedBy,
	}
}

func remindersFromModels(models []ReminderModel) []domain.Reminder {
	res := make([]domain.Reminder, 0, len(models))
	for _, m := range models {
		res = append(res, reminderFromModel(m))
	}
	return res
}
