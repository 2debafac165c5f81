package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "billionsgym/internal/adapters/email"
	domainOutbox "billionsgym/internal/domain/outbox"
)

// Backoff bounds between delivery attempts of one entry.
const (
	outboxBaseDelay = time.Minute
	outboxMaxDelay  = time.Hour
	outboxBatchSize = 100
)

// OutboxSaver queues an outbox entry.
type OutboxSaver interface {
	Save(ctx context.Context, e domainOutbox.Entry) error
}

// OutboxStoreForRetry is the store surface ExecuteOutboxRetry needs.
type OutboxStoreForRetry interface {
	OutboxSaver
	ListPending(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
}

// emailPayload is the JSON stored for ActionTypeEmail entries.
type emailPayload struct {
	To      []string `json:"to"`
	From    string   `json:"from,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"replyTo,omitempty"`
}

// newEmailEntry wraps a rendered email in a pending outbox entry.
func newEmailEntry(id string, req emailAdapter.SendRequest, now time.Time) (domainOutbox.Entry, error) {
	payload, err := json.Marshal(emailPayload{
		To: req.To, From: req.From, Subject: req.Subject, HTML: req.HTML, Text: req.Text, ReplyTo: req.ReplyTo,
	})
	if err != nil {
		return domainOutbox.Entry{}, fmt.Errorf("encode email payload: %w", err)
	}
	e := domainOutbox.NewEntry(id, domainOutbox.ActionTypeEmail, string(payload), now)
	return e, e.Validate()
}

func decodeEmail(e domainOutbox.Entry) (emailAdapter.SendRequest, error) {
	var p emailPayload
	if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
		return emailAdapter.SendRequest{}, fmt.Errorf("decode email payload: %w", err)
	}
	if len(p.To) == 0 {
		return emailAdapter.SendRequest{}, errors.New("email payload has no recipient")
	}
	return emailAdapter.SendRequest{
		To: p.To, From: p.From, Subject: p.Subject, HTML: p.HTML, Text: p.Text, ReplyTo: p.ReplyTo,
	}, nil
}

// OutboxRetryDeps provides the dependencies for delivering outbox entries.
type OutboxRetryDeps struct {
	OutboxStore OutboxStoreForRetry
	EmailSender emailAdapter.Sender
	Now         func() time.Time
}

// ExecuteOutboxRetry delivers every due pending or retrying entry.
// Entries inside their backoff window are left for a later run. Due emails go
// out in one SendBatch call; results map back to entries in order.
// PRE: Deps are valid and the store is migrated
// POST: Each attempted entry is saved as done, retrying, failed or abandoned
func ExecuteOutboxRetry(ctx context.Context, deps OutboxRetryDeps) error {
	entries, err := deps.OutboxStore.ListPending(ctx, outboxBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	now := deps.Now()

	var due []domainOutbox.Entry
	var reqs []emailAdapter.SendRequest
	var abandoned int
	for _, entry := range entries {
		if !entry.CanRetry() {
			continue
		}
		if next := entry.DueAt(outboxBaseDelay, outboxMaxDelay); now.Before(next) {
			slog.Debug("outbox_retry_skipped_backoff", "entry_id", entry.ID, "next_retry", next)
			continue
		}
		entry.MarkAttempt(now)

		var req emailAdapter.SendRequest
		if entry.ActionType == domainOutbox.ActionTypeEmail {
			req, err = decodeEmail(entry)
		} else {
			err = fmt.Errorf("unknown action type: %s", entry.ActionType)
		}
		if err != nil {
			entry.MarkFailed(err)
			entry.MarkAbandoned()
			abandoned++
			slog.Error("outbox_retry_abandoned", "entry_id", entry.ID, "action", entry.ActionType, "error", err)
			saveOutboxEntry(ctx, deps.OutboxStore, entry)
			continue
		}
		due = append(due, entry)
		reqs = append(reqs, req)
	}
	if len(due) == 0 {
		return nil
	}

	slog.Info("outbox_retry_start", "count", len(due))
	results, sendErr := deps.EmailSender.SendBatch(ctx, reqs)

	var succeeded, failed int
	for i, entry := range due {
		if sendErr == nil || i < len(results) {
			var messageID string
			if i < len(results) {
				messageID = results[i].MessageID
			}
			entry.MarkSuccess(messageID)
			succeeded++
			slog.Info("outbox_retry_succeeded", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts)
		} else {
			entry.MarkFailed(sendErr)
			failed++
			slog.Error("outbox_retry_failed", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts, "error", sendErr)
		}
		saveOutboxEntry(ctx, deps.OutboxStore, entry)
	}

	slog.Info("outbox_retry_complete", "processed", len(due)+abandoned, "succeeded", succeeded, "failed", failed, "abandoned", abandoned)
	return nil
}

func saveOutboxEntry(ctx context.Context, store OutboxSaver, entry domainOutbox.Entry) {
	if err := store.Save(ctx, entry); err != nil {
		slog.Error("outbox_retry_save_failed", "entry_id", entry.ID, "error", err)
	}
}

// OutboxRetryConfig holds configuration for the retry scheduler.
type OutboxRetryConfig struct {
	Interval time.Duration // how often pending entries are scanned
	Enabled  bool
}

// StartOutboxRetryScheduler runs ExecuteOutboxRetry every cfg.Interval until ctx ends.
// PRE: Context is valid, deps are initialized
// POST: Goroutine started, returns cancel function
func StartOutboxRetryScheduler(ctx context.Context, deps OutboxRetryDeps, cfg OutboxRetryConfig) func() {
	if !cfg.Enabled || cfg.Interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ExecuteOutboxRetry(ctx, deps); err != nil {
					slog.Error("outbox_retry_scheduler_error", "error", err)
				}
			}
		}
	}()

	return cancel
}
