package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	emailAdapter "billionsgym/internal/adapters/email"
	"billionsgym/internal/adapters/storage/account"
	"billionsgym/internal/adapters/storage/trainerschedule"
	domainAccount "billionsgym/internal/domain/account"
	"billionsgym/internal/domain/availability"
	"billionsgym/internal/domain/booking"
	"billionsgym/internal/domain/notification"
	"billionsgym/internal/domain/outbox"
)

var fixedTime = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func seqID() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// mockAccountStore implements every account store interface used here.
type mockAccountStore struct {
	accounts map[string]domainAccount.Account
	saves    int
}

func newMockAccountStore(accts ...domainAccount.Account) *mockAccountStore {
	m := &mockAccountStore{accounts: make(map[string]domainAccount.Account)}
	for _, a := range accts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (domainAccount.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return domainAccount.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (domainAccount.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return domainAccount.Account{}, account.ErrNotFound
}

func (m *mockAccountStore) Save(_ context.Context, a domainAccount.Account) error {
	m.accounts[a.ID] = a
	m.saves++
	return nil
}

func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

func (m *mockAccountStore) List(_ context.Context, f account.ListFilter) ([]domainAccount.Account, error) {
	var out []domainAccount.Account
	for _, a := range m.accounts {
		if f.Role == "" || a.Role == f.Role {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// mockScheduleStore keeps one week per trainer with a version counter.
type mockScheduleStore struct {
	weeks map[string]availability.WeeklySchedule
	err   error
}

func newMockScheduleStore() *mockScheduleStore {
	return &mockScheduleStore{weeks: make(map[string]availability.WeeklySchedule)}
}

func (m *mockScheduleStore) Get(_ context.Context, trainerID string) (availability.WeeklySchedule, error) {
	if m.err != nil {
		return availability.WeeklySchedule{}, m.err
	}
	w, ok := m.weeks[trainerID]
	if !ok {
		return availability.WeeklySchedule{}, trainerschedule.ErrNotFound
	}
	return w.Clone(), nil
}

func (m *mockScheduleStore) Replace(_ context.Context, w availability.WeeklySchedule, opts trainerschedule.ReplaceOptions) (availability.WeeklySchedule, error) {
	if m.err != nil {
		return availability.WeeklySchedule{}, m.err
	}
	current := m.weeks[w.TrainerID].Version
	if opts.ExpectedVersion != nil && *opts.ExpectedVersion != current {
		return availability.WeeklySchedule{}, trainerschedule.ErrVersionConflict
	}
	w = w.Clone()
	w.Version = current + 1
	m.weeks[w.TrainerID] = w
	return w, nil
}

type mockBookingStore struct {
	sessions []booking.ScheduledSession
}

func (m *mockBookingStore) ListByTrainerID(_ context.Context, trainerID string) ([]booking.ScheduledSession, error) {
	var out []booking.ScheduledSession
	for _, s := range m.sessions {
		if s.TrainerID == trainerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockBookingStore) Save(_ context.Context, s booking.ScheduledSession) error {
	m.sessions = append(m.sessions, s)
	return nil
}

type mockNotificationStore struct {
	items map[string]notification.Notification
	err   error
}

func newMockNotificationStore() *mockNotificationStore {
	return &mockNotificationStore{items: make(map[string]notification.Notification)}
}

func (m *mockNotificationStore) GetByID(_ context.Context, id string) (notification.Notification, error) {
	n, ok := m.items[id]
	if !ok {
		return notification.Notification{}, errors.New("not found")
	}
	return n, nil
}

func (m *mockNotificationStore) Save(_ context.Context, n notification.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.items[n.ID] = n
	return nil
}

// mockOutboxStore keeps entries in insertion order.
type mockOutboxStore struct {
	entries []outbox.Entry
	err     error
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.entries {
		if m.entries[i].ID == e.ID {
			m.entries[i] = e
			return nil
		}
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range m.entries {
		if (e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

// lockedOutboxStore guards a mockOutboxStore for use from the scheduler goroutine.
type lockedOutboxStore struct {
	mu  sync.Mutex
	box *mockOutboxStore
}

func (l *lockedOutboxStore) Save(ctx context.Context, e outbox.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.box.Save(ctx, e)
}

func (l *lockedOutboxStore) ListPending(ctx context.Context, limit int) ([]outbox.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.box.ListPending(ctx, limit)
}

// failingSender fails the first failures batches, then delegates to a NoopSender.
type failingSender struct {
	*emailAdapter.NoopSender
	failures int
	calls    int
}

func (f *failingSender) SendBatch(ctx context.Context, reqs []emailAdapter.SendRequest) ([]emailAdapter.SendResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("resend: 503 service unavailable")
	}
	return f.NoopSender.SendBatch(ctx, reqs)
}

var (
	admin   = domainAccount.Account{ID: "admin-1", Email: "admin@billions.vn", Name: "Lan", Role: domainAccount.RoleAdmin}
	trainer = domainAccount.Account{ID: "trainer-1", Email: "minh@billions.vn", Name: "Minh", Role: domainAccount.RoleTrainer}
	other   = domainAccount.Account{ID: "trainer-2", Email: "hoa@billions.vn", Name: "Hoa", Role: domainAccount.RoleTrainer}
	member  = domainAccount.Account{ID: "member-1", Email: "an@billions.vn", Name: "An", Role: domainAccount.RoleMember}
)
