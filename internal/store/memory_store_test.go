package store

import (
	"testing"
	"time"

	"github.com/xhatsu/reminder-me-api/pkg/domain"
)

func seedUser(t *testing.T, m *MemoryStore, username, email string) domain.User {
	t.Helper()
	u, err := m.CreateUser(domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: "h",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func TestMemoryStoreAssignsSequentialUserIDs(t *testing.T) {
	m := NewMemoryStore()
	a := seedUser(t, m, "a", "a@example.com")
	b := seedUser(t, m, "b", "b@example.com")
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}
}

func TestMemoryStoreHasUserMatchesEitherField(t *testing.T) {
	m := NewMemoryStore()
	seedUser(t, m, "a", "a@example.com")

	for _, tc := range []struct {
		username, email string
		want            bool
	}{
		{"a", "new@example.com", true},
		{"new", "a@example.com", true},
		{"new", "new@example.com", false},
	} {
		got, err := m.HasUser(tc.username, tc.email)
		if err != nil {
			t.Fatalf("has user: %v", err)
		}
		if got != tc.want {
			t.Fatalf("HasUser(%q, %q) = %v, want %v", tc.username, tc.email, got, tc.want)
		}
	}
}

func TestMemoryStoreReminderLifecycle(t *testing.T) {
	m := NewMemoryStore()
	creator := seedUser(t, m, "a", "a@example.com")
	rec := seedUser(t, m, "b", "b@example.com")

	created, err := m.CreateReminder(domain.Reminder{
		Title:      "t",
		DueDate:    time.Now().UTC(),
		CreatedBy:  creator.ID,
		Recipients: []domain.User{rec},
	})
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("reminder should get an id")
	}

	got, ok, err := m.GetReminder(created.ID)
	if err != nil || !ok {
		t.Fatalf("get reminder: ok=%v err=%v", ok, err)
	}
	if len(got.Recipients) != 1 || got.Recipients[0].ID != rec.ID {
		t.Fatalf("recipients = %+v", got.Recipients)
	}

	received, err := m.ListReceivedBy(rec.ID)
	if err != nil || len(received) != 1 {
		t.Fatalf("received = %+v err=%v", received, err)
	}

	if err := m.DeleteReminder(created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := m.GetReminder(created.ID); ok {
		t.Fatalf("deleted reminder still present")
	}
	if received, _ := m.ListReceivedBy(rec.ID); len(received) != 0 {
		t.Fatalf("join rows must be removed with the reminder")
	}
}

func TestMemoryStoreRecipientsSortedByID(t *testing.T) {
	m := NewMemoryStore()
	creator := seedUser(t, m, "a", "a@example.com")
	r1 := seedUser(t, m, "b", "b@example.com")
	r2 := seedUser(t, m, "c", "c@example.com")

	created, err := m.CreateReminder(domain.Reminder{
		Title:      "t",
		DueDate:    time.Now().UTC(),
		CreatedBy:  creator.ID,
		Recipients: []domain.User{r2, r1},
	})
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	got, _, err := m.GetReminder(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Recipients) != 2 || got.Recipients[0].ID != r1.ID || got.Recipients[1].ID != r2.ID {
		t.Fatalf("recipients not id-ordered: %+v", got.Recipients)
	}
}

func TestMemoryStoreAddRemoveRecipient(t *testing.T) {
	m := NewMemoryStore()
	creator := seedUser(t, m, "a", "a@example.com")
	rec := seedUser(t, m, "b", "b@example.com")

	created, err := m.CreateReminder(domain.Reminder{
		Title:     "t",
		DueDate:   time.Now().UTC(),
		CreatedBy: creator.ID,
	})
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	if member, _ := m.IsRecipient(created.ID, rec.ID); member {
		t.Fatalf("fresh reminder should have no recipients")
	}
	if err := m.AddRecipient(created.ID, rec.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.AddRecipient(created.ID, rec.ID); err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	got, _, _ := m.GetReminder(created.ID)
	if len(got.Recipients) != 1 {
		t.Fatalf("duplicate add created extra rows: %+v", got.Recipients)
	}
	if err := m.RemoveRecipient(created.ID, rec.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if member, _ := m.IsRecipient(created.ID, rec.ID); member {
		t.Fatalf("recipient should be gone")
	}
}
