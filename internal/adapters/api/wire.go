package api

import (
	"billionsgym/internal/domain/availability"
	"billionsgym/internal/domain/booking"
	"billionsgym/internal/domain/notification"
)

// Envelope is the JSON shape of every response: {success, data?, message?}.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitzero"`
	Message string `json:"message,omitempty"`
}

// ScheduleData is the payload of GET /trainer-schedule/{trainerId}.
type ScheduleData struct {
	WeeklySchedule    []availability.DaySchedule `json:"weeklySchedule"`
	ScheduledSessions []booking.ScheduledSession `json:"scheduledSessions"`
	Version           int                        `json:"version"`
}

// ReplaceScheduleRequest is the body of PUT /trainer-schedule/{trainerId}.
// A nil Version means last write wins.
type ReplaceScheduleRequest struct {
	WeeklySchedule []availability.DaySchedule `json:"weeklySchedule"`
	Version        *int                       `json:"version,omitempty"`
}

// ReplaceScheduleData is the payload of a successful replace.
type ReplaceScheduleData struct {
	Version int `json:"version"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginData is the payload of a successful login.
type LoginData struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	AccountID string `json:"accountId"`
}

// NotificationsData is the payload of GET /notifications.
type NotificationsData struct {
	Notifications []notification.Notification `json:"notifications"`
	UnreadCount   int                         `json:"unreadCount"`
}

// CreateBookingRequest is the body of POST /admin/bookings.
type CreateBookingRequest struct {
	TrainerID         string          `json:"trainerId"`
	Member            booking.Member  `json:"member"`
	Package           booking.Package `json:"package"`
	TotalSessionCount int             `json:"totalSessionCount"`
	Status            string          `json:"status"`
	StartDate         string          `json:"startDate"`
	EndDate           string          `json:"endDate,omitempty"`
}

// CreateAccountRequest is the body of POST /admin/accounts.
type CreateAccountRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AccountData is the public view of an account.
type AccountData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
