package store

import (
	"sort"
	"sync"

	"github.com/xhatsu/reminder-me-api/pkg/domain"
)

// MemoryStore keeps all state in-process. Used in tests and local
// development; assigns IDs the way the database would.
type MemoryStore struct {
	mu             sync.RWMutex
	users          map[uint]domain.User
	email          map[string]uint // email -> user ID
	uname          map[string]uint // username -> user ID
	reminders      map[uint]domain.Reminder
	reminderOrder  []uint
	recipients     map[uint]map[uint]bool // reminder ID -> set of user IDs
	nextUserID     uint
	nextReminderID uint
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uint]domain.User),
		email:      make(map[string]uint),
		uname:      make(map[string]uint),
		reminders:  make(map[uint]domain.Reminder),
		recipients: make(map[uint]map[uint]bool),
	}
}

// CreateUser stores a user under a fresh ID.
func (m *MemoryStore) CreateUser(u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUserID++
	u.ID = m.nextUserID
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	m.uname[u.Username] = u.ID
	return u, nil
}

// HasUser checks whether username or email is already taken.
func (m *MemoryStore) HasUser(username, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.uname[username]; ok {
		return true, nil
	}
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.email[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByUsername looks up a user by username.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.uname[username]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id uint) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// CreateReminder stores the reminder with its recipient set.
func (m *MemoryStore) CreateReminder(r domain.Reminder) (domain.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextReminderID++
	r.ID = m.nextReminderID
	set := make(map[uint]bool, len(r.Recipients))
	for _, rec := range r.Recipients {
		set[rec.ID] = true
	}
	m.reminders[r.ID] = r
	m.reminderOrder = append(m.reminderOrder, r.ID)
	m.recipients[r.ID] = set
	return r, nil
}

// GetReminder retrieves a reminder with recipients populated.
func (m *MemoryStore) GetReminder(id uint) (domain.Reminder, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reminders[id]
	if !ok {
		return domain.Reminder{}, false, nil
	}
	r.Recipients = m.recipientUsers(id)
	return r, true, nil
}

// ListCreatedBy returns reminders authored by the user in insertion order.
func (m *MemoryStore) ListCreatedBy(userID uint) ([]domain.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Reminder, 0)
	for _, id := range m.reminderOrder {
		if r, ok := m.reminders[id]; ok && r.CreatedBy == userID {
			r.Recipients = nil
			res = append(res, r)
		}
	}
	return res, nil
}

// ListReceivedBy returns reminders the user is a recipient of.
func (m *MemoryStore) ListReceivedBy(userID uint) ([]domain.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Reminder, 0)
	for _, id := range m.reminderOrder {
		if m.recipients[id][userID] {
			if r, ok := m.reminders[id]; ok {
				r.Recipients = nil
				res = append(res, r)
			}
		}
	}
	return res, nil
}

// DeleteReminder removes a reminder and its recipient set.
func (m *MemoryStore) DeleteReminder(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reminders, id)
	delete(m.recipients, id)
	filtered := m.reminderOrder[:0]
	for _, item := range m.reminderOrder {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.reminderOrder = filtered
	return nil
}

// IsRecipient reports membership in the recipient set.
func (m *MemoryStore) IsRecipient(reminderID, userID uint) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recipients[reminderID][userID], nil
}

// AddRecipient inserts the association; duplicates are no-ops.
func (m *MemoryStore) AddRecipient(reminderID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.recipients[reminderID]
	if !ok {
		set = make(map[uint]bool)
		m.recipients[reminderID] = set
	}
	set[userID] = true
	return nil
}

// RemoveRecipient deletes the association.
func (m *MemoryStore) RemoveRecipient(reminderID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recipients[reminderID], userID)
	return nil
}

func (m *MemoryStore) recipientUsers(reminderID uint) []domain.User {
	ids := make([]uint, 0, len(m.recipients[reminderID]))
	for id := range m.recipients[reminderID] {
		ids = append(ids, id)
	}
	// Stable order for callers; mirrors the id-ordered SQL reads.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	res := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			res = append(res, u)
		}
	}
	return res
}
