package editor

import (
	"context"

	"billionsgym/internal/adapters/api"
)

// ScheduleClient is the slice of the REST client the editor needs.
// *api.Client satisfies it.
type ScheduleClient interface {
	GetTrainerSchedule(ctx context.Context, trainerID string) (api.ScheduleData, error)
	ReplaceTrainerSchedule(ctx context.Context, trainerID string, req api.ReplaceScheduleRequest) (api.ReplaceScheduleData, error)
}

// Level is the severity of a user-facing notification.
type Level string

// Notification levels
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier shows a short, non-blocking message to the user (toast or banner).
type Notifier interface {
	Notify(level Level, message string)
}

// Navigator leaves the editor once a save has been confirmed.
type Navigator interface {
	Close(trainerID string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

// Notify calls f.
func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(trainerID string)

// Close calls f.
func (f NavigatorFunc) Close(trainerID string) { f(trainerID) }
