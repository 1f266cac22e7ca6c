package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xhatsu/reminder-me-api/internal/googleauth"
	"github.com/xhatsu/reminder-me-api/internal/store"
	"github.com/xhatsu/reminder-me-api/pkg/auth"
	"github.com/xhatsu/reminder-me-api/pkg/domain"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	SessionTTL  time.Duration
	JWTIssuer   string
	JWTAudience string

	Store    store.Store
	Sessions store.SessionStore
	Revoker  store.TokenRevoker
	Google   googleauth.TokenVerifier
}

// App is the data-access core: every operation re-reads current store
// state and commits or rolls back within the call. The store handle is
// passed in explicitly; there is no process-global session.
type App struct {
	store    store.Store
	sessions store.SessionStore
	google   googleauth.TokenVerifier
}

// New constructs the application with database storage and session
// management, falling back to defaults when dependencies are not injected.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		var err error
		sessionStore, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL, cfg.Revoker, store.JWTOptions{
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		})
		if err != nil {
			return nil, fmt.Errorf("init jwt session store: %w", err)
		}
	}

	return &App{
		store:    dataStore,
		sessions: sessionStore,
		google:   cfg.Google,
	}, nil
}

// Register creates a local account from a client-side hashed credential.
func (a *App) Register(username, email, passwordHash string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || passwordHash == "" {
		return domain.User{}, ErrRegistrationFields
	}
	exists, err := a.store.HasUser(username, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check user: %w", err)
	}
	if exists {
		return domain.User{}, ErrUserExists
	}
	user := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	created, err := a.store.CreateUser(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return created, nil
}

// VerifyCredentials resolves the username and compares the supplied
// hash against the stored one in constant time.
func (a *App) VerifyCredentials(username, passwordHash string) (domain.User, error) {
	user, ok, err := a.store.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	if !auth.VerifyHash(passwordHash, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(username, passwordHash string) (domain.User, string, error) {
	user, err := a.VerifyCredentials(username, passwordHash)
	if err != nil {
		return domain.User{}, "", err
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session token: %w", err)
	}
	return user, token, nil
}

// GoogleSignIn verifies a Google ID token, finds or creates the local
// account by verified email, and issues a session token.
func (a *App) GoogleSignIn(idToken string) (domain.User, string, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return domain.User{}, "", ErrIDTokenRequired
	}
	if a.google == nil {
		return domain.User{}, "", fmt.Errorf("google sign-in is not configured")
	}
	identity, err := a.google.Verify(idToken)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	user, ok, err := a.store.GetUserByEmail(identity.Email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		user, err = a.createFederatedUser(identity)
		if err != nil {
			return domain.User{}, "", err
		}
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session token: %w", err)
	}
	return user, token, nil
}

// Logout revokes the presented session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// UserByEmail looks up a user; absence is an outcome, not an error.
func (a *App) UserByEmail(email string) (domain.User, bool, error) {
	return a.store.GetUserByEmail(strings.TrimSpace(strings.ToLower(email)))
}

// UserByID looks up a user by ID.
func (a *App) UserByID(id uint) (domain.User, bool, error) {
	return a.store.GetUserByID(id)
}

// CreateReminder persists a reminder bound to its creator together with
// all resolved recipient associations, atomically. Recipient ids that do
// not resolve are dropped; a non-empty list resolving to nobody fails.
func (a *App) CreateReminder(title, message string, dueDate time.Time, creatorID uint, recipientIDs []uint) (domain.Reminder, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Reminder{}, ErrTitleRequired
	}
	if dueDate.IsZero() {
		return domain.Reminder{}, ErrDueDateRequired
	}
	creator, ok, err := a.store.GetUserByID(creatorID)
	if err != nil {
		return domain.Reminder{}, fmt.Errorf("fetch creator: %w", err)
	}
	if !ok {
		return domain.Reminder{}, ErrUserNotFound
	}

	recipients := make([]domain.User, 0, len(recipientIDs))
	seen := make(map[uint]bool, len(recipientIDs))
	for _, id := range recipientIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		user, found, err := a.store.GetUserByID(id)
		if err != nil {
			return domain.Reminder{}, fmt.Errorf("resolve recipient %d: %w", id, err)
		}
		if found {
			recipients = append(recipients, user)
		}
	}
	if len(recipientIDs) > 0 && len(recipients) == 0 {
		return domain.Reminder{}, ErrNoValidRecipients
	}

	reminder := domain.Reminder{
		Title:      title,
		Message:    message,
		DueDate:    dueDate,
		CreatedBy:  creator.ID,
		Recipients: recipients,
	}
	created, err := a.store.CreateReminder(reminder)
	if err != nil {
		return domain.Reminder{}, fmt.Errorf("save reminder: %w", err)
	}
	return created, nil
}

// RemindersForUser returns the reminders a user authored and the ones
// addressed to them.
func (a *App) RemindersForUser(userID uint) (domain.ReminderFeed, error) {
	_, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.ReminderFeed{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.ReminderFeed{}, ErrUserNotFound
	}
	created, err := a.store.ListCreatedBy(userID)
	if err != nil {
		return domain.ReminderFeed{}, fmt.Errorf("list created reminders: %w", err)
	}
	received, err := a.store.ListReceivedBy(userID)
	if err != nil {
		return domain.ReminderFeed{}, fmt.Errorf("list received reminders: %w", err)
	}
	return domain.ReminderFeed{Created: created, Received: received}, nil
}

// ReminderByID retrieves a single reminder with recipients populated.
func (a *App) ReminderByID(id uint) (domain.Reminder, error) {
	reminder, ok, err := a.store.GetReminder(id)
	if err != nil {
		return domain.Reminder{}, fmt.Errorf("fetch reminder: %w", err)
	}
	if !ok {
		return domain.Reminder{}, ErrReminderNotFound
	}
	return reminder, nil
}

// DeleteReminder removes a reminder and its recipient rows. Only the
// creator may delete, regardless of recipient status.
func (a *App) DeleteReminder(reminderID, requestingUserID uint) error {
	reminder, ok, err := a.store.GetReminder(reminderID)
	if err != nil {
		return fmt.Errorf("fetch reminder: %w", err)
	}
	if !ok {
		return ErrReminderNotFound
	}
	if reminder.CreatedBy != requestingUserID {
		return ErrNotCreator
	}
	if err := a.store.DeleteReminder(reminderID); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// AddRecipient associates a user with a reminder. Adding an existing
// recipient is a no-op success.
func (a *App) AddRecipient(reminderID, userID uint) error {
	if err := a.resolvePair(reminderID, userID); err != nil {
		return err
	}
	member, err := a.store.IsRecipient(reminderID, userID)
	if err != nil {
		return fmt.Errorf("check recipient: %w", err)
	}
	if member {
		return nil
	}
	if err := a.store.AddRecipient(reminderID, userID); err != nil {
		return fmt.Errorf("add recipient: %w", err)
	}
	return nil
}

// RemoveRecipient detaches a user from a reminder. Removing a user who
// is not a recipient is an error.
func (a *App) RemoveRecipient(reminderID, userID uint) error {
	if err := a.resolvePair(reminderID, userID); err != nil {
		return err
	}
	member, err := a.store.IsRecipient(reminderID, userID)
	if err != nil {
		return fmt.Errorf("check recipient: %w", err)
	}
	if !member {
		return ErrNotRecipient
	}
	if err := a.store.RemoveRecipient(reminderID, userID); err != nil {
		return fmt.Errorf("remove recipient: %w", err)
	}
	return nil
}

func (a *App) resolvePair(reminderID, userID uint) error {
	_, ok, err := a.store.GetReminder(reminderID)
	if err != nil {
		return fmt.Errorf("fetch reminder: %w", err)
	}
	if !ok {
		return ErrReminderNotFound
	}
	_, ok, err = a.store.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func (a *App) createFederatedUser(identity googleauth.Identity) (domain.User, error) {
	username := usernameFromEmail(identity.Email)
	taken, err := a.store.HasUser(username, identity.Email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		username = username + "-" + uuid.NewString()[:8]
	}
	user := domain.User{
		Username:  username,
		Email:     identity.Email,
		CreatedAt: time.Now().UTC(),
		// PasswordHash stays empty: federated accounts never log in
		// with a local credential.
	}
	created, err := a.store.CreateUser(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return created, nil
}

func usernameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
