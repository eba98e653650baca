package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/barakah/internal/assistant"
	"github.com/Dan9191/barakah/internal/auth"
	"github.com/Dan9191/barakah/internal/backup"
	"github.com/Dan9191/barakah/internal/cloudsync"
	"github.com/Dan9191/barakah/internal/events"
	"github.com/Dan9191/barakah/internal/export"
	"github.com/Dan9191/barakah/internal/localstore"
	"github.com/Dan9191/barakah/internal/locator"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/parser"
	"github.com/Dan9191/barakah/internal/repository"
	"github.com/Dan9191/barakah/internal/service"
	"github.com/Dan9191/barakah/internal/state"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memUsers struct {
	byEmail map[string]*models.User
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return repository.ErrUserExists
	}
	u.ID = "user-" + u.Email
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) FindUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memFinance struct {
	rec models.FinanceRecord
}

func (f *memFinance) GetFinance(context.Context, string) (*models.FinanceRecord, error) {
	rec := f.rec
	return &rec, nil
}

func (f *memFinance) UpdateFinance(_ context.Context, _ string, upd models.FinanceUpdate) error {
	f.rec.CurrentBalanceARS = upd.CurrentBalanceARS
	f.rec.CurrentBalanceUSD = upd.CurrentBalanceUSD
	f.rec.PendingExpenses = upd.PendingExpenses
	return nil
}

type stubSyncer struct {
	result cloudsync.Result
	resets int
}

func (s *stubSyncer) SyncAll(context.Context) cloudsync.Result { return s.result }
func (s *stubSyncer) PullAll(context.Context) cloudsync.Result { return s.result }
func (s *stubSyncer) ForgetUser()                              { s.resets++ }

type testServer struct {
	srv     *httptest.Server
	finance *memFinance
	syncer  *stubSyncer
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	kv := localstore.NewMemoryKV()
	store := state.NewStore(kv, log, nil)
	authSvc := auth.NewService(&memUsers{byEmail: map[string]*models.User{}}, kv, "test-secret", log)
	finance := &memFinance{rec: models.FinanceRecord{CurrentBalanceARS: 1000, ExchangeRate: 1000}}
	syncer := &stubSyncer{result: cloudsync.Result{Success: true, Message: "تمت المزامنة بنجاح"}}

	exec := assistant.NewExecutor(finance, store, authSvc, locator.FromContext{}, events.NewRecorder(), log)
	svc := service.NewService(
		assistant.New(parser.NewRulesParser(), exec),
		store,
		syncer,
		backup.NewService(store, authSvc, "", "hmac-secret", log),
		nil,
		nil,
		log,
	)
	h := NewHandler(svc, authSvc, log)

	ts := &testServer{
		srv:     httptest.NewServer(NewRouter(h, authSvc, nil, []string{"http://localhost:5173"}, log)),
		finance: finance,
		syncer:  syncer,
	}
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(t, err)
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (ts *testServer) login(t *testing.T) {
	t.Helper()
	resp, _ := ts.do(t, "POST", "/register", credentials{Username: "amina", Email: "amina@example.com", Password: "pass123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ts.do(t, "POST", "/login", credentials{Email: "amina@example.com", Password: "pass123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	ts.token = out.Token
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, "GET", "/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, "POST", "/register", credentials{Email: "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ts.login(t)
	assert.Equal(t, 1, ts.syncer.resets)

	resp, _ = ts.do(t, "POST", "/register", credentials{Username: "amina", Email: "amina@example.com", Password: "x"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = ts.do(t, "POST", "/login", credentials{Email: "amina@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := ts.do(t, "GET", "/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "amina@example.com")
	assert.NotContains(t, string(body), "pass123")

	resp, _ = ts.do(t, "GET", "/tasks", nil, "Authorization", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	t.Run("device session is not an HTTP credential", func(t *testing.T) {
		token := ts.token
		ts.token = ""
		defer func() { ts.token = token }()

		resp, _ := ts.do(t, "GET", "/backup", nil, "Origin", "https://evil.example")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

		resp, _ = ts.do(t, "POST", "/command", commandRequest{Text: "أضف مصروف 900 بيزو"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, 1000.0, ts.finance.rec.CurrentBalanceARS)

		resp, _ = ts.do(t, "POST", "/logout", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	resp, _ = ts.do(t, "POST", "/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 2, ts.syncer.resets)
}

func TestCommand(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	resp, body := ts.do(t, "POST", "/command", commandRequest{Text: "أضف مصروف 500 بيزو للطعام"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out service.CommandResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, models.IntentAddExpense, out.Command.Intent)
	assert.True(t, out.Result.Success)
	assert.Equal(t, assistant.ActionExpenseAdded, out.Result.Action)
	assert.Equal(t, 500.0, ts.finance.rec.CurrentBalanceARS)

	resp, _ = ts.do(t, "POST", "/command", commandRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, "POST", "/command", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, "POST", "/parse", commandRequest{Text: "كم رصيدي؟"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cmd models.ParsedCommand
	require.NoError(t, json.Unmarshal(body, &cmd))
	assert.Equal(t, models.IntentQueryBalance, cmd.Intent)
}

func TestSaveLocationCommand(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	resp, body := ts.do(t, "POST", "/command", commandRequest{Text: "احفظ موقف السيارة"},
		"X-Device-Position", "-34.6,-58.38")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out service.CommandResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotNil(t, out.Result.Pending)

	resp, body = ts.do(t, "GET", "/command/pending/"+out.Result.Pending.ID+"?wait=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res assistant.CommandResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Success)
	assert.Equal(t, assistant.ActionLocationSaved, res.Action)

	resp, body = ts.do(t, "GET", "/locations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var locs []models.Location
	require.NoError(t, json.Unmarshal(body, &locs))
	require.Len(t, locs, 1)
	assert.Equal(t, "geo:-34.6,-58.38", locs[0].URL)
	assert.Equal(t, models.CategoryParking, locs[0].Category)

	resp, _ = ts.do(t, "GET", "/command/pending/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, "GET", "/command/pending/x?wait=soon", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTaskRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	resp, body := ts.do(t, "POST", "/tasks", models.Task{
		Title:    "مشروع",
		Subtasks: []models.SubTask{{ID: "a", Title: "x", Completed: true}, {ID: "b", Title: "y"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task models.Task
	require.NoError(t, json.Unmarshal(body, &task))
	assert.Equal(t, 50, task.Progress)

	resp, body = ts.do(t, "POST", "/tasks/"+task.ID+"/subtasks/b/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &task))
	assert.Equal(t, 100, task.Progress)

	resp, body = ts.do(t, "POST", "/tasks/"+task.ID+"/subtasks", map[string]string{"title": "z"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &task))
	assert.Equal(t, 67, task.Progress)

	resp, _ = ts.do(t, "PATCH", "/tasks/"+task.ID, map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, "PATCH", "/tasks/"+task.ID, map[string]string{"priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, "PATCH", "/tasks/"+task.ID, map[string]any{"completed": true, "subtasks": []models.SubTask{}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &task))
	assert.True(t, task.Completed)
	assert.Equal(t, 0, task.Progress)

	resp, _ = ts.do(t, "DELETE", "/tasks/"+task.ID+"/subtasks/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, "DELETE", "/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.do(t, "DELETE", "/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAppointmentRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	resp, _ := ts.do(t, "POST", "/appointments", models.Appointment{Title: "طبيب", Date: "11/03/2025", Time: "10:00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := ts.do(t, "POST", "/appointments", models.Appointment{Title: "طبيب", Date: "2025-03-11", Time: "10:00", ReminderMinutes: 15})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var apt models.Appointment
	require.NoError(t, json.Unmarshal(body, &apt))

	apt.Time = "11:30"
	resp, body = ts.do(t, "PUT", "/appointments/"+apt.ID, apt)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &apt))
	assert.Equal(t, "11:30", apt.Time)

	resp, _ = ts.do(t, "PUT", "/appointments/missing", apt)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, "DELETE", "/appointments/"+apt.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestExportRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	resp, _ := ts.do(t, "POST", "/command", commandRequest{Text: "أضف مصروف 500 بيزو للطعام"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = ts.do(t, "POST", "/appointments", models.Appointment{Title: "طبيب", Date: "2025-03-11", Time: "10:00", ReminderMinutes: 15})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("transactions spreadsheet", func(t *testing.T) {
		resp, body := ts.do(t, "GET", "/finances/transactions.xlsx", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "barakah-transactions.xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(body))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(export.TransactionsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "مصروف", rows[1][1])
		assert.Equal(t, "500", rows[1][3])
	})

	t.Run("appointments calendar", func(t *testing.T) {
		resp, body := ts.do(t, "GET", "/appointments/export.ics", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/calendar; charset=utf-8", resp.Header.Get("Content-Type"))
		assert.Contains(t, string(body), "SUMMARY:طبيب")
		assert.Contains(t, string(body), "TRIGGER:-PT15M")
	})

	t.Run("appointments spreadsheet", func(t *testing.T) {
		resp, body := ts.do(t, "GET", "/appointments/export.xlsx", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, body)
	})

	t.Run("prayer calendar", func(t *testing.T) {
		resp, body := ts.do(t, "GET", "/prayer-times/export.ics?days=2", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 10, strings.Count(string(body), "BEGIN:VEVENT"))

		resp, _ = ts.do(t, "GET", "/prayer-times/export.ics?days=abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp, _ = ts.do(t, "GET", "/prayer-times/export.ics?days=0", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLocationRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	resp, _ := ts.do(t, "POST", "/locations", models.Location{Title: "البيت", URL: "https://maps"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := ts.do(t, "POST", "/locations", models.Location{Title: "البيت", URL: "geo:1.5,2.5", Category: models.CategoryHome})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var loc models.Location
	require.NoError(t, json.Unmarshal(body, &loc))

	resp, body = ts.do(t, "GET", "/locations/export.gpx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/gpx+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), `<wpt lat="1.5" lon="2.5">`)

	resp, body = ts.do(t, "POST", "/locations/import.gpx", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var added []models.Location
	require.NoError(t, json.Unmarshal(body, &added))
	require.Len(t, added, 1)
	assert.NotEqual(t, loc.ID, added[0].ID)

	resp, _ = ts.do(t, "POST", "/locations/import.gpx", []byte("<gpx/>"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	loc.Category = "castle"
	resp, _ = ts.do(t, "PUT", "/locations/"+loc.ID, loc)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, "DELETE", "/locations/"+loc.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestBackupRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	resp, _ := ts.do(t, "POST", "/tasks", models.Task{Title: "قراءة"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, archive := ts.do(t, "GET", "/backup", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "barakah-backup.json")

	resp, body := ts.do(t, "POST", "/restore", archive)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"restored":true`)

	tampered := []byte(strings.Replace(string(archive), "قراءة", "كتابة", 1))
	resp, _ = ts.do(t, "POST", "/restore", tampered)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSyncAndRates(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	resp, body := ts.do(t, "POST", "/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "تمت المزامنة بنجاح")

	resp, body = ts.do(t, "GET", "/sync/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"synced":false}`, string(body))

	ts.syncer.result = cloudsync.Result{Success: false, Message: "failed"}
	resp, _ = ts.do(t, "POST", "/pull", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp, body = ts.do(t, "GET", "/exchange-rate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"exchange_rate":1000}`, string(body))

	resp, _ = ts.do(t, "POST", "/exchange-rate/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, "OPTIONS", "/command", nil, "Origin", "http://localhost:5173")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = ts.do(t, "OPTIONS", "/command", nil, "Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = ts.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPendingTimesOut(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	start := time.Now()
	resp, _ := ts.do(t, "GET", "/command/pending/none?wait=0", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Less(t, time.Since(start), 2*time.Second)
}
