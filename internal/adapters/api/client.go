package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client calls the Billions Gym REST API.
// It injects the bearer token on every request and does no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      func() string
}

// NewClient creates a client for baseURL. token may be nil for anonymous calls.
// PRE: baseURL is an absolute http(s) URL
func NewClient(baseURL string, httpClient *http.Client, token func() string) *Client {
	if httpClient == nil {
		httpClient = DefaultHTTPClient()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		token:      token,
	}
}

// DefaultHTTPClient returns the client used when none is supplied.
// It sets no timeout; callers bound requests through ctx.
func DefaultHTTPClient() *http.Client {
	return &http.Client{}
}

// WithToken returns a copy of c that sends token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = func() string { return token }
	return &cp
}

// GetTrainerSchedule fetches the trainer's stored week and booked sessions.
// POST: WeeklySchedule may hold fewer than seven days, or none
func (c *Client) GetTrainerSchedule(ctx context.Context, trainerID string) (ScheduleData, error) {
	return call[ScheduleData](ctx, c, "get trainer schedule", http.MethodGet, "/trainer-schedule/"+url.PathEscape(trainerID), nil)
}

// ReplaceTrainerSchedule sends the whole week; the server keeps exactly this document.
// POST: errors.Is(err, ErrConflict) when req.Version was stale
func (c *Client) ReplaceTrainerSchedule(ctx context.Context, trainerID string, req ReplaceScheduleRequest) (ReplaceScheduleData, error) {
	return call[ReplaceScheduleData](ctx, c, "replace trainer schedule", http.MethodPut, "/trainer-schedule/"+url.PathEscape(trainerID), req)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginData, error) {
	return call[LoginData](ctx, c, "login", http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password})
}

// ListNotifications returns the caller's notifications, newest first, plus the unread count.
func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool) (NotificationsData, error) {
	path := "/notifications"
	if unreadOnly {
		path += "?unread=1"
	}
	return call[NotificationsData](ctx, c, "list notifications", http.MethodGet, path, nil)
}

// UnreadCount returns how many of the caller's notifications are unread.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	data, err := c.ListNotifications(ctx, true)
	return data.UnreadCount, err
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := call[struct{}](ctx, c, "mark notification read", http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", nil)
	return err
}

// call performs one request and decodes the {success, data, message} envelope.
func call[T any](ctx context.Context, c *Client, op, method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return zero, &TransportError{Op: op, Err: err}
	}

	var env Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return zero, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return zero, &APIError{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if resp.StatusCode >= 400 || !env.Success {
		return zero, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}
