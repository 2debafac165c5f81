package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"billionsgym/internal/domain/availability"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", srv.Client(), func() string { return "tok-123" })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// TestGetTrainerSchedule_Success tests path, auth header and decoding.
func TestGetTrainerSchedule_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/trainer-schedule/t 1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		writeJSON(w, http.StatusOK, Envelope[ScheduleData]{
			Success: true,
			Data: ScheduleData{
				WeeklySchedule: []availability.DaySchedule{availability.DefaultDay(availability.Monday)},
				Version:        3,
			},
		})
	})

	data, err := c.GetTrainerSchedule(context.Background(), "t 1")
	if err != nil {
		t.Fatalf("GetTrainerSchedule: %v", err)
	}
	if len(data.WeeklySchedule) != 1 || data.Version != 3 {
		t.Errorf("data = %+v", data)
	}
	if len(data.WeeklySchedule[0].Slots) != 7 {
		t.Errorf("slots = %d, want 7", len(data.WeeklySchedule[0].Slots))
	}
}

// TestReplaceTrainerSchedule_Body tests the PUT body carries the week and optional version.
func TestReplaceTrainerSchedule_Body(t *testing.T) {
	var got map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, Envelope[ReplaceScheduleData]{Success: true, Data: ReplaceScheduleData{Version: 2}})
	})

	res, err := c.ReplaceTrainerSchedule(context.Background(), "t1", ReplaceScheduleRequest{WeeklySchedule: availability.DefaultWeek()})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if res.Version != 2 {
		t.Errorf("Version = %d", res.Version)
	}
	if _, ok := got["weeklySchedule"]; !ok {
		t.Error("body missing weeklySchedule")
	}
	if _, ok := got["version"]; ok {
		t.Error("version must be omitted when nil")
	}
}

// TestCall_ErrorTaxonomy tests transport, application and malformed failures.
func TestCall_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
		wantIs      error
	}{
		{"success false on 200", 200, `{"success":false,"message":"trainer is archived"}`, 200, "trainer is archived", nil},
		{"conflict", 409, `{"success":false,"message":"stale version"}`, 409, "stale version", ErrConflict},
		{"unauthorized", 401, `{"success":false,"message":"login required"}`, 401, "login required", ErrUnauthorized},
		{"not json error", 502, `<html>bad gateway</html>`, 502, "Bad Gateway", nil},
		{"malformed ok", 200, `{"success":tru`, 200, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.GetTrainerSchedule(context.Background(), "t1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.wantStatus)
			}
			if tt.wantMessage != "" && apiErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v) = false", tt.wantIs)
			}
		})
	}
}

// TestCall_TransportError tests an unreachable server.
func TestCall_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil, nil)
	_, err := c.GetTrainerSchedule(context.Background(), "t1")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if Message(err) != "" {
		t.Errorf("Message = %q, want empty for transport errors", Message(err))
	}
}

// TestWithToken tests a per-call token override and anonymous requests.
func TestWithToken(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, Envelope[NotificationsData]{Success: true, Data: NotificationsData{UnreadCount: 4}})
	})

	n, err := c.WithToken("other").UnreadCount(context.Background())
	if err != nil || n != 4 {
		t.Fatalf("UnreadCount = %d, %v", n, err)
	}
	if _, err := c.WithToken("").ListNotifications(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if seen[0] != "Bearer other" || seen[1] != "" {
		t.Errorf("headers = %q", seen)
	}
}

// TestNewClient_NoTimeout tests the default client leaves hang behaviour to ctx.
func TestNewClient_NoTimeout(t *testing.T) {
	c := NewClient("http://localhost:8080", nil, nil)
	if c.httpClient.Timeout != 0 {
		t.Errorf("Timeout = %v, want none", c.httpClient.Timeout)
	}
}
