package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"billionsgym/internal/adapters/api"
	"billionsgym/internal/adapters/email"
	"billionsgym/internal/adapters/http/perf"
	"billionsgym/internal/adapters/storage"
	accountStore "billionsgym/internal/adapters/storage/account"
	bookingStore "billionsgym/internal/adapters/storage/booking"
	notificationStore "billionsgym/internal/adapters/storage/notification"
	outboxStore "billionsgym/internal/adapters/storage/outbox"
	"billionsgym/internal/adapters/storage/trainerschedule"
	"billionsgym/internal/application/orchestrators"
	domainAccount "billionsgym/internal/domain/account"
	"billionsgym/internal/domain/availability"
	"billionsgym/internal/domain/booking"

	_ "modernc.org/sqlite"
)

var testAccounts = []domainAccount.Account{
	{ID: "admin-1", Email: "lan@billions.vn", Name: "Lan", Role: domainAccount.RoleAdmin},
	{ID: "trainer-1", Email: "minh@billions.vn", Name: "Minh", Role: domainAccount.RoleTrainer},
	{ID: "trainer-2", Email: "hoa@billions.vn", Name: "Hoa", Role: domainAccount.RoleTrainer},
	{ID: "member-1", Email: "an@billions.vn", Name: "An", Role: domainAccount.RoleMember},
}

type testEnv struct {
	handler http.Handler
	stores  *Stores
	sender  *email.NoopSender
	outbox  *outboxStore.SQLiteStore
	tokens  map[string]string // account ID -> bearer token
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}

	s := &Stores{
		AccountStore:      accountStore.NewSQLiteStore(db),
		ScheduleStore:     trainerschedule.NewSQLiteStore(db),
		BookingStore:      bookingStore.NewSQLiteStore(db),
		NotificationStore: notificationStore.NewSQLiteStore(db),
	}
	env := &testEnv{
		stores: s,
		sender: email.NewNoopSender(),
		outbox: outboxStore.NewSQLiteStore(db),
		tokens: make(map[string]string),
	}
	s.OutboxStore = env.outbox
	env.handler = NewMux(s, perf.NewCollector(100), Options{
		CSRFKey:            bytes.Repeat([]byte("k"), 32),
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
		PublicURL:          "https://pt.billions.vn/",
		EmailFrom:          "Billions Gym <schedule@billions.vn>",
	})
	t.Cleanup(Close)

	for _, a := range testAccounts {
		a.CreatedAt = time.Now()
		if err := s.AccountStore.Save(context.Background(), a); err != nil {
			t.Fatalf("seed %s: %v", a.ID, err)
		}
		token, err := sessions.Create(a.ID, a.Email, a.Role)
		if err != nil {
			t.Fatal(err)
		}
		env.tokens[a.ID] = token
	}
	return env
}

// do sends a JSON request as accountID ("" for anonymous).
func (env *testEnv) do(t *testing.T, method, path, accountID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if accountID != "" {
		req.Header.Set("Authorization", "Bearer "+env.tokens[accountID])
	}
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) api.Envelope[T] {
	t.Helper()
	var env api.Envelope[T]
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return env
}

func intPtr(v int) *int { return &v }

func bookingMember() booking.Member {
	return booking.Member{ID: "member-1", Name: "An", Phone: "0900000000"}
}

func bookingPackage() booking.Package {
	return booking.Package{ID: "pkg-12", Name: "12 PT sessions"}
}

// TestGetTrainerSchedule_NeverSaved tests an empty list rather than defaults.
func TestGetTrainerSchedule_NeverSaved(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/trainer-schedule/trainer-1", "trainer-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if !strings.Contains(rr.Body.String(), `"weeklySchedule":[]`) {
		t.Errorf("body should carry an empty weeklySchedule: %s", rr.Body)
	}
	got := decode[api.ScheduleData](t, rr)
	if !got.Success || got.Data.Version != 0 || got.Data.ScheduledSessions == nil {
		t.Errorf("envelope = %+v", got)
	}
}

// TestTrainerSchedule_Access tests the role matrix for reads and writes.
func TestTrainerSchedule_Access(t *testing.T) {
	body := api.ReplaceScheduleRequest{WeeklySchedule: availability.DefaultWeek()}
	tests := []struct {
		name    string
		account string
		wantGet int
		wantPut int
	}{
		{"anonymous", "", http.StatusUnauthorized, http.StatusUnauthorized},
		{"admin", "admin-1", http.StatusOK, http.StatusOK},
		{"own trainer", "trainer-1", http.StatusOK, http.StatusOK},
		{"other trainer", "trainer-2", http.StatusForbidden, http.StatusForbidden},
		{"member", "member-1", http.StatusOK, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if rr := env.do(t, "GET", "/trainer-schedule/trainer-1", tt.account, nil); rr.Code != tt.wantGet {
				t.Errorf("GET status = %d, want %d", rr.Code, tt.wantGet)
			}
			rr := env.do(t, "PUT", "/trainer-schedule/trainer-1", tt.account, body)
			if rr.Code != tt.wantPut {
				t.Errorf("PUT status = %d, want %d", rr.Code, tt.wantPut)
			}
			if rr.Code != http.StatusOK && decode[struct{}](t, rr).Success {
				t.Error("error responses must carry success:false")
			}
		})
	}
}

// TestTrainerSchedule_UnknownTrainer tests 404 for ids that are not trainers.
func TestTrainerSchedule_UnknownTrainer(t *testing.T) {
	env := newTestEnv(t)
	for _, id := range []string{"nobody", "member-1"} {
		if rr := env.do(t, "GET", "/trainer-schedule/"+id, "admin-1", nil); rr.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", id, rr.Code)
		}
	}
}

// TestReplaceTrainerSchedule_RoundTrip tests PUT then GET returns the document exactly.
func TestReplaceTrainerSchedule_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	days := availability.DefaultWeek()
	days[0].Slots = append(days[0].Slots, availability.TimeSlot{StartTime: "23:00", EndTime: "05:00", Status: availability.StatusBusy})
	days[0].Slots[1].Status = availability.StatusOff
	days[3].Note = "Out for **competition**"
	days[6].Slots = []availability.TimeSlot{}

	rr := env.do(t, "PUT", "/trainer-schedule/trainer-1", "admin-1", api.ReplaceScheduleRequest{WeeklySchedule: days})
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rr.Code, rr.Body)
	}
	put := decode[api.ReplaceScheduleData](t, rr)
	if !put.Success || put.Data.Version != 1 || put.Message == "" {
		t.Errorf("PUT envelope = %+v", put)
	}

	got := decode[api.ScheduleData](t, env.do(t, "GET", "/trainer-schedule/trainer-1", "trainer-1", nil))
	if !reflect.DeepEqual(got.Data.WeeklySchedule, days) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got.Data.WeeklySchedule, days)
	}
	if got.Data.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Data.Version)
	}
}

// TestReplaceTrainerSchedule_BadRequests tests body validation.
func TestReplaceTrainerSchedule_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing weeklySchedule", `{}`},
		{"unknown field", `{"weeklySchedule":[],"extra":1}`},
		{"bad weekday", `{"weeklySchedule":[{"weekday":"Someday","slots":[]}]}`},
		{"bad status", `{"weeklySchedule":[{"weekday":"Monday","slots":[{"startTime":"06:00","endTime":"08:00","status":"MAYBE"}]}]}`},
		{"bad time", `{"weeklySchedule":[{"weekday":"Monday","slots":[{"startTime":"6:00","endTime":"08:00","status":"OFF"}]}]}`},
		{"duplicate weekday", `{"weeklySchedule":[{"weekday":"Monday","slots":[]},{"weekday":"Monday","slots":[]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rr := env.do(t, "PUT", "/trainer-schedule/trainer-1", "trainer-1", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body = %s", rr.Code, rr.Body)
			}
			if got := decode[struct{}](t, rr); got.Success || got.Message == "" {
				t.Errorf("envelope = %+v", got)
			}
		})
	}
}

// TestReplaceTrainerSchedule_Versions tests last write wins without a version and 409 with a stale one.
func TestReplaceTrainerSchedule_Versions(t *testing.T) {
	env := newTestEnv(t)
	week := availability.DefaultWeek()

	for i := 1; i <= 2; i++ {
		rr := env.do(t, "PUT", "/trainer-schedule/trainer-1", "trainer-1", api.ReplaceScheduleRequest{WeeklySchedule: week})
		if got := decode[api.ReplaceScheduleData](t, rr); got.Data.Version != i {
			t.Fatalf("write %d: version = %d", i, got.Data.Version)
		}
	}

	rr := env.do(t, "PUT", "/trainer-schedule/trainer-1", "admin-1", api.ReplaceScheduleRequest{WeeklySchedule: week, Version: intPtr(1)})
	if rr.Code != http.StatusConflict {
		t.Fatalf("stale version status = %d, want 409", rr.Code)
	}
	if decode[struct{}](t, rr).Success {
		t.Error("conflict must carry success:false")
	}

	rr = env.do(t, "PUT", "/trainer-schedule/trainer-1", "admin-1", api.ReplaceScheduleRequest{WeeklySchedule: week, Version: intPtr(2)})
	if rr.Code != http.StatusOK {
		t.Errorf("current version status = %d, want 200", rr.Code)
	}
}

// TestReplaceTrainerSchedule_Notifies tests the notification feed and email after an admin edit.
func TestReplaceTrainerSchedule_Notifies(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "PUT", "/trainer-schedule/trainer-1", "admin-1", api.ReplaceScheduleRequest{WeeklySchedule: availability.DefaultWeek()})
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rr.Code)
	}

	list := decode[api.NotificationsData](t, env.do(t, "GET", "/notifications?unread=1", "trainer-1", nil))
	if list.Data.UnreadCount != 1 || len(list.Data.Notifications) != 1 {
		t.Fatalf("notifications = %+v", list.Data)
	}
	if sent := env.sender.Sent(); len(sent) != 0 {
		t.Fatalf("email should wait in the outbox, sent = %+v", sent)
	}
	queued, err := env.outbox.ListPending(context.Background(), 10)
	if err != nil || len(queued) != 1 {
		t.Fatalf("queued = %+v, err = %v", queued, err)
	}

	if err := orchestrators.ExecuteOutboxRetry(context.Background(), orchestrators.OutboxRetryDeps{
		OutboxStore: env.outbox, EmailSender: env.sender, Now: time.Now,
	}); err != nil {
		t.Fatalf("ExecuteOutboxRetry: %v", err)
	}
	sent := env.sender.Sent()
	if len(sent) != 1 || sent[0].To[0] != "minh@billions.vn" || sent[0].From != "Billions Gym <schedule@billions.vn>" {
		t.Fatalf("sent = %+v", sent)
	}
	if left, _ := env.outbox.ListPending(context.Background(), 10); len(left) != 0 {
		t.Errorf("outbox should be drained, left = %+v", left)
	}
	if !strings.Contains(sent[0].Text, "https://pt.billions.vn/trainers/trainer-1/availability") {
		t.Errorf("email should link to the page: %s", sent[0].Text)
	}

	id := list.Data.Notifications[0].ID
	if rr := env.do(t, "POST", "/notifications/"+id+"/read", "trainer-2", nil); rr.Code != http.StatusNotFound {
		t.Errorf("other account mark read = %d, want 404", rr.Code)
	}
	if rr := env.do(t, "POST", "/notifications/"+id+"/read", "trainer-1", nil); rr.Code != http.StatusOK {
		t.Errorf("mark read = %d, want 200", rr.Code)
	}
	after := decode[api.NotificationsData](t, env.do(t, "GET", "/notifications", "trainer-1", nil))
	if after.Data.UnreadCount != 0 || len(after.Data.Notifications) != 1 {
		t.Errorf("after read = %+v", after.Data)
	}
}

// TestListNotifications_BadQuery tests query validation.
func TestListNotifications_BadQuery(t *testing.T) {
	env := newTestEnv(t)
	for _, q := range []string{"?unread=maybe", "?limit=0", "?limit=x"} {
		if rr := env.do(t, "GET", "/notifications"+q, "trainer-1", nil); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rr.Code)
		}
	}
}

// TestLogin tests the login endpoint end to end with a real password.
func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	const password = "correct-horse-battery"
	_, err := orchestrators.ExecuteCreateAccount(context.Background(), orchestrators.CreateAccountInput{
		Email: "tuan@billions.vn", Name: "Tuan", Password: password, Role: domainAccount.RoleTrainer,
	}, orchestrators.CreateAccountDeps{AccountStore: env.stores.AccountStore, GenerateID: func() string { return "trainer-3" }, Now: time.Now})
	if err != nil {
		t.Fatal(err)
	}

	rr := env.do(t, "POST", "/auth/login", "", api.LoginRequest{Email: "tuan@billions.vn", Password: "nope-nope-nope"})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rr.Code)
	}

	rr = env.do(t, "POST", "/auth/login", "", api.LoginRequest{Email: "tuan@billions.vn", Password: password})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rr.Code, rr.Body)
	}
	login := decode[api.LoginData](t, rr)
	if login.Data.Token == "" || login.Data.Role != domainAccount.RoleTrainer || login.Data.AccountID != "trainer-3" {
		t.Fatalf("login = %+v", login)
	}
	if rr.Result().Cookies()[0].Value != login.Data.Token {
		t.Error("login should also set the session cookie")
	}

	env.tokens["trainer-3"] = login.Data.Token
	if rr := env.do(t, "GET", "/trainer-schedule/trainer-3", "trainer-3", nil); rr.Code != http.StatusOK {
		t.Errorf("token should authorize: status = %d", rr.Code)
	}

	if rr := env.do(t, "POST", "/auth/logout", "trainer-3", nil); rr.Code != http.StatusOK {
		t.Errorf("logout status = %d", rr.Code)
	}
	if rr := env.do(t, "GET", "/trainer-schedule/trainer-3", "trainer-3", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("token should be revoked: status = %d", rr.Code)
	}
}

// TestCreateBooking tests the admin booking endpoint and the schedule read that follows.
func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)
	req := api.CreateBookingRequest{
		TrainerID:         "trainer-1",
		Member:            bookingMember(),
		Package:           bookingPackage(),
		TotalSessionCount: 12,
		Status:            "ACTIVE",
		StartDate:         "2026-10-01",
		EndDate:           "2026-12-31",
	}
	if rr := env.do(t, "POST", "/admin/bookings", "trainer-1", req); rr.Code != http.StatusForbidden {
		t.Errorf("trainer status = %d, want 403", rr.Code)
	}
	rr := env.do(t, "POST", "/admin/bookings", "admin-1", req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}

	got := decode[api.ScheduleData](t, env.do(t, "GET", "/trainer-schedule/trainer-1", "trainer-1", nil))
	if len(got.Data.ScheduledSessions) != 1 || got.Data.ScheduledSessions[0].Member.Name != "An" {
		t.Errorf("sessions = %+v", got.Data.ScheduledSessions)
	}

	bad := req
	bad.StartDate = "01/10/2026"
	if rr := env.do(t, "POST", "/admin/bookings", "admin-1", bad); rr.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rr.Code)
	}
	bad = req
	bad.TrainerID = "member-1"
	if rr := env.do(t, "POST", "/admin/bookings", "admin-1", bad); rr.Code != http.StatusNotFound {
		t.Errorf("non-trainer status = %d, want 404", rr.Code)
	}
}

// TestCreateAccount tests the admin account endpoint.
func TestCreateAccount(t *testing.T) {
	env := newTestEnv(t)
	req := api.CreateAccountRequest{Email: "new@billions.vn", Name: "New", Password: "long-enough-pass", Role: "trainer"}

	rr := env.do(t, "POST", "/admin/accounts", "admin-1", req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Error("response must not include the password hash")
	}
	if rr := env.do(t, "POST", "/admin/accounts", "admin-1", req); rr.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rr.Code)
	}
	req.Email, req.Password = "short@billions.vn", "short"
	if rr := env.do(t, "POST", "/admin/accounts", "admin-1", req); rr.Code != http.StatusBadRequest {
		t.Errorf("short password status = %d, want 400", rr.Code)
	}
}

// TestAdminPerf tests the perf snapshot endpoint.
func TestAdminPerf(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "GET", "/trainer-schedule/trainer-1", "trainer-1", nil)
	env.do(t, "GET", "/trainer-schedule/trainer-2", "admin-1", nil)

	if rr := env.do(t, "GET", "/admin/perf", "member-1", nil); rr.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want 403", rr.Code)
	}
	got := decode[perf.Snapshot](t, env.do(t, "GET", "/admin/perf?minutes=5", "admin-1", nil))
	if got.Data.TotalRecorded < 2 || len(got.Data.Requests) == 0 {
		t.Errorf("snapshot = %+v", got.Data)
	}
	// Both trainers share one row keyed by the route pattern.
	var grouped int
	for _, row := range got.Data.Requests {
		if strings.HasPrefix(row.Path, "GET /trainer-schedule/trainer-") {
			t.Errorf("per-trainer row %q", row.Path)
		}
		if row.Path == "GET /trainer-schedule/{trainerId}" {
			grouped = row.Count
		}
	}
	if grouped != 2 {
		t.Errorf("grouped count = %d, want 2", grouped)
	}
}

// TestAvailabilityPage tests the HTML page marks unsaved days and renders notes.
func TestAvailabilityPage(t *testing.T) {
	env := newTestEnv(t)
	monday := availability.DefaultDay(availability.Monday)
	monday.Note = "Bring **chalk**"
	env.do(t, "PUT", "/trainer-schedule/trainer-1", "trainer-1", api.ReplaceScheduleRequest{WeeklySchedule: []availability.DaySchedule{monday}})

	req := httptest.NewRequest("GET", "/trainers/trainer-1/availability", nil)
	req.AddCookie(&http.Cookie{Name: "billions_session", Value: env.tokens["member-1"]})
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`<h1 id="trainer-name">Minh</h1>`,
		`data-weekday="Monday" class="set"`,
		`data-weekday="Tuesday" class="unset"`,
		`<strong>chalk</strong>`,
		`7 available, 0 busy, 0 off`,
		`name="gorilla.csrf.Token"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Count(body, "Not set") != 6 {
		t.Errorf("want 6 unset days, got %d", strings.Count(body, "Not set"))
	}

	anon := httptest.NewRecorder()
	env.handler.ServeHTTP(anon, httptest.NewRequest("GET", "/trainers/trainer-1/availability", nil))
	if anon.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", anon.Code)
	}
}
