package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	emailAdapter "billionsgym/internal/adapters/email"
	"billionsgym/internal/adapters/storage/account"
	domainAccount "billionsgym/internal/domain/account"
	"billionsgym/internal/domain/notification"
)

// NotificationStoreForOrchestrator defines the store interface needed by notification orchestrators.
type NotificationStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (notification.Notification, error)
	Save(ctx context.Context, n notification.Notification) error
}

// AccountListerForNotify lists accounts by role.
type AccountListerForNotify interface {
	List(ctx context.Context, filter account.ListFilter) ([]domainAccount.Account, error)
}

// NotifyScheduleChangedInput carries input for the notify orchestrator.
type NotifyScheduleChangedInput struct {
	Trainer domainAccount.Account
	Editor  domainAccount.Account
	Version int
}

// NotifyScheduleChangedDeps holds dependencies for NotifyScheduleChanged.
type NotifyScheduleChangedDeps struct {
	NotificationStore NotificationStoreForOrchestrator
	AccountStore      AccountListerForNotify
	Outbox            OutboxSaver // optional; emails are skipped without it
	FromAddress       string
	ViewURL           func(trainerID string) string // optional
	GenerateID        func() string
	Now               func() time.Time
}

// ExecuteNotifyScheduleChanged tells the right people that a week was replaced.
// When someone else edited a trainer's week the trainer is told; when trainers edit
// their own week every admin is told.
// PRE: Trainer and Editor are loaded accounts
// POST: One notification is stored per recipient and one email per recipient is
// queued in the outbox for ExecuteOutboxRetry to deliver.
func ExecuteNotifyScheduleChanged(ctx context.Context, input NotifyScheduleChangedInput, deps NotifyScheduleChangedDeps) ([]notification.Notification, error) {
	var recipients []domainAccount.Account
	if input.Editor.ID != input.Trainer.ID {
		recipients = []domainAccount.Account{input.Trainer}
	} else {
		admins, err := deps.AccountStore.List(ctx, account.ListFilter{Role: domainAccount.RoleAdmin})
		if err != nil {
			return nil, err
		}
		recipients = admins
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	editorName := input.Editor.Name
	if editorName == "" {
		editorName = "Someone"
	}
	now := deps.Now()

	var created []notification.Notification
	var queued int
	var errs []error
	for _, r := range recipients {
		n := notification.Notification{
			ID:          deps.GenerateID(),
			RecipientID: r.ID,
			Kind:        notification.KindScheduleChanged,
			Title:       "Availability updated for " + input.Trainer.Name,
			Body:        editorName + " changed the weekly availability.",
			CreatedAt:   now,
		}
		if err := n.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := deps.NotificationStore.Save(ctx, n); err != nil {
			errs = append(errs, err)
			continue
		}
		created = append(created, n)

		if deps.Outbox == nil || r.Email == "" {
			continue
		}
		msg := emailAdapter.ScheduleChanged{
			RecipientName: r.Name,
			TrainerName:   input.Trainer.Name,
			EditorName:    editorName,
			ChangedAt:     now,
		}
		if deps.ViewURL != nil {
			msg.ViewURL = deps.ViewURL(input.Trainer.ID)
		}
		subject, html, text, err := msg.Render()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entry, err := newEmailEntry(deps.GenerateID(), emailAdapter.SendRequest{
			To: []string{r.Email}, From: deps.FromAddress, Subject: subject, HTML: html, Text: text,
		}, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := deps.Outbox.Save(ctx, entry); err != nil {
			slog.Error("notification_event", "event", "email_enqueue_failed", "trainer_id", input.Trainer.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		queued++
	}

	slog.Info("notification_event", "event", "schedule_changed_notified", "trainer_id", input.Trainer.ID, "recipients", len(created), "emails_queued", queued)
	return created, errors.Join(errs...)
}

// --- Mark Notification Read ---

// ErrNotificationNotFound is returned for missing notifications and for other accounts' notifications.
var ErrNotificationNotFound = errors.New("notification not found")

// MarkNotificationReadInput carries input for MarkNotificationRead.
type MarkNotificationReadInput struct {
	NotificationID string
	AccountID      string
}

// MarkNotificationReadDeps holds dependencies for MarkNotificationRead.
type MarkNotificationReadDeps struct {
	NotificationStore NotificationStoreForOrchestrator
	Now               func() time.Time
}

// ExecuteMarkNotificationRead marks one of the caller's notifications as read.
// PRE: AccountID is the caller
// POST: ReadAt is set; calling again keeps the first ReadAt
func ExecuteMarkNotificationRead(ctx context.Context, input MarkNotificationReadInput, deps MarkNotificationReadDeps) (notification.Notification, error) {
	n, err := deps.NotificationStore.GetByID(ctx, input.NotificationID)
	if err != nil || n.RecipientID != input.AccountID {
		return notification.Notification{}, ErrNotificationNotFound
	}
	if n.IsRead() {
		return n, nil
	}
	n.MarkRead(deps.Now())
	if err := deps.NotificationStore.Save(ctx, n); err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}
